package quotes

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

// Repository provides PostgreSQL backed persistence for quote requests.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const quoteColumns = `id, title, COALESCE(description, ''), COALESCE(address, ''), COALESCE(city, ''),
	COALESCE(state, ''), COALESCE(customer_name, ''), COALESCE(customer_phone, ''),
	COALESCE(customer_email, ''), COALESCE(scope_notes, ''), COALESCE(urgency, 'standard'),
	status, submitted_by_id, COALESCE(assigned_to_id, 0), COALESCE(quoted_amount, 0),
	COALESCE(quote_notes, ''), quoted_at, quote_valid_until, COALESCE(converted_project_id, 0),
	created_at, updated_at`

func scanQuote(row pgx.Row) (*QuoteRequest, error) {
	var q QuoteRequest
	err := row.Scan(&q.ID, &q.Title, &q.Description, &q.Address, &q.City,
		&q.State, &q.CustomerName, &q.CustomerPhone,
		&q.CustomerEmail, &q.ScopeNotes, &q.Urgency,
		&q.Status, &q.SubmittedByID, &q.AssignedToID, &q.QuotedAmount,
		&q.QuoteNotes, &q.QuotedAt, &q.QuoteValidUntil, &q.ConvertedProjectID,
		&q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

// Create inserts a quote request.
func (r *Repository) Create(ctx context.Context, q *QuoteRequest) (*QuoteRequest, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO quote_requests (title, description, address, city, state, customer_name, customer_phone, customer_email, scope_notes, urgency, status, submitted_by_id)
		 VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), $10, $11, $12)
		 RETURNING `+quoteColumns,
		q.Title, q.Description, q.Address, q.City, q.State, q.CustomerName,
		q.CustomerPhone, q.CustomerEmail, q.ScopeNotes, q.Urgency, q.Status, q.SubmittedByID)
	return scanQuote(row)
}

// FindByID fetches a quote request.
func (r *Repository) FindByID(ctx context.Context, id int64) (*QuoteRequest, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quote_requests WHERE id = $1`, id)
	return scanQuote(row)
}

// Filter narrows quote listings.
type Filter struct {
	Status        Status
	Urgency       string
	AssignedToID  int64
	SubmittedByID int64
}

// List returns quote requests, newest first.
func (r *Repository) List(ctx context.Context, filter Filter, params shared.ListParams) ([]QuoteRequest, error) {
	query := `SELECT ` + quoteColumns + ` FROM quote_requests`
	var args []any
	var where []string
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Urgency != "" {
		args = append(args, filter.Urgency)
		where = append(where, fmt.Sprintf("urgency = $%d", len(args)))
	}
	if filter.AssignedToID != 0 {
		args = append(args, filter.AssignedToID)
		where = append(where, fmt.Sprintf("assigned_to_id = $%d", len(args)))
	}
	if filter.SubmittedByID != 0 {
		args = append(args, filter.SubmittedByID)
		where = append(where, fmt.Sprintf("submitted_by_id = $%d", len(args)))
	}
	for i, clause := range where {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	args = append(args, params.Limit, params.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []QuoteRequest
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	return out, rows.Err()
}

// Update applies review fields and returns the stored row.
func (r *Repository) Update(ctx context.Context, q *QuoteRequest) (*QuoteRequest, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE quote_requests SET status = $2, assigned_to_id = NULLIF($3, 0),
		   quoted_amount = NULLIF($4, 0.0), quote_notes = NULLIF($5, ''),
		   quoted_at = $6, quote_valid_until = $7, updated_at = NOW()
		 WHERE id = $1 RETURNING `+quoteColumns,
		q.ID, q.Status, q.AssignedToID, q.QuotedAmount, q.QuoteNotes, q.QuotedAt, q.QuoteValidUntil)
	return scanQuote(row)
}

// Assign routes the quote to a reviewer.
func (r *Repository) Assign(ctx context.Context, id, assigneeID int64, status Status) (*QuoteRequest, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE quote_requests SET assigned_to_id = $2, status = $3, updated_at = NOW()
		 WHERE id = $1 RETURNING `+quoteColumns,
		id, assigneeID, status)
	return scanQuote(row)
}

// MarkConverted records the project created from this quote.
func (r *Repository) MarkConverted(ctx context.Context, id, projectID int64, at time.Time) (*QuoteRequest, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE quote_requests SET converted_project_id = $2, status = $3, updated_at = $4
		 WHERE id = $1 RETURNING `+quoteColumns,
		id, projectID, StatusAccepted, at)
	return scanQuote(row)
}

// QueueStats summarizes the intake queue for review dashboards.
type QueueStats struct {
	Pending  int64 `json:"pending"`
	InReview int64 `json:"in_review"`
	Total    int64 `json:"total_action_needed"`
}

// Stats counts quotes awaiting review.
func (r *Repository) Stats(ctx context.Context) (QueueStats, error) {
	var s QueueStats
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FILTER (WHERE status = $1), COUNT(*) FILTER (WHERE status = $2)
		 FROM quote_requests`, StatusPending, StatusInReview).Scan(&s.Pending, &s.InReview)
	if err != nil {
		return QueueStats{}, err
	}
	s.Total = s.Pending + s.InReview
	return s, nil
}
