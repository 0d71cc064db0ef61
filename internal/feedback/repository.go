package feedback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitebridge/sitebridge/internal/platform/httpx"
	"github.com/sitebridge/sitebridge/internal/shared"
)

// Repository provides PostgreSQL backed persistence for feedback.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const feedbackColumns = `id, user_id, COALESCE(company_id, 0), type, title, COALESCE(description, ''),
	priority, status, COALESCE(app_version, ''), COALESCE(dev_notes, ''), COALESCE(dev_response, ''),
	responded_at, created_at`

func scanFeedback(row pgx.Row) (*Feedback, error) {
	var f Feedback
	err := row.Scan(&f.ID, &f.UserID, &f.CompanyID, &f.Type, &f.Title, &f.Description,
		&f.Priority, &f.Status, &f.AppVersion, &f.DevNotes, &f.DevResponse,
		&f.RespondedAt, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

// Create inserts a feedback entry.
func (r *Repository) Create(ctx context.Context, f *Feedback) (*Feedback, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO feedback (user_id, company_id, type, title, description, priority, status, app_version)
		 VALUES ($1, NULLIF($2, 0), $3, $4, NULLIF($5, ''), $6, $7, NULLIF($8, ''))
		 RETURNING `+feedbackColumns,
		f.UserID, f.CompanyID, f.Type, f.Title, f.Description, f.Priority, f.Status, f.AppVersion)
	return scanFeedback(row)
}

// FindByID fetches one entry.
func (r *Repository) FindByID(ctx context.Context, id int64) (*Feedback, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+feedbackColumns+` FROM feedback WHERE id = $1`, id)
	return scanFeedback(row)
}

// ListByUser returns the user's own entries, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID int64, params shared.ListParams) ([]Feedback, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+feedbackColumns+` FROM feedback WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, params.Limit, params.Offset)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// List returns entries across all users, optionally filtered, newest first.
func (r *Repository) List(ctx context.Context, filter Filter, params shared.ListParams) ([]Feedback, error) {
	query := `SELECT ` + feedbackColumns + ` FROM feedback`
	args := []any{}
	var where []string
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}
	for i, cond := range where {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	args = append(args, params.Limit, params.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// RecordResponse stores the review outcome.
func (r *Repository) RecordResponse(ctx context.Context, id int64, status Status, devNotes, devResponse string, respondedAt *time.Time) (*Feedback, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE feedback SET status = $2,
		   dev_notes = COALESCE(NULLIF($3, ''), dev_notes),
		   dev_response = COALESCE(NULLIF($4, ''), dev_response),
		   responded_at = COALESCE($5, responded_at)
		 WHERE id = $1 RETURNING `+feedbackColumns,
		id, status, devNotes, devResponse, respondedAt)
	return scanFeedback(row)
}

// Delete removes an entry.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM feedback WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func collect(rows pgx.Rows) ([]Feedback, error) {
	defer rows.Close()
	var out []Feedback
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}
