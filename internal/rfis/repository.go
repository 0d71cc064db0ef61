package rfis

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitebridge/sitebridge/internal/platform/db"
	"github.com/sitebridge/sitebridge/internal/platform/httpx"
	"github.com/sitebridge/sitebridge/internal/shared"
)

// Repository provides PostgreSQL backed persistence for RFIs.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const rfiColumns = `id, project_id, rfi_number, question, COALESCE(location, ''),
	COALESCE(what_needed_to_proceed, ''), status, COALESCE(routed_to, ''),
	COALESCE(answer, ''), COALESCE(answered_by_id, 0), answered_at, submitted_by_id,
	COALESCE(cost_impact, 0), COALESCE(schedule_impact_days, 0), due_date, created_at, updated_at`

func scanRFI(row pgx.Row) (*RFI, error) {
	var f RFI
	err := row.Scan(&f.ID, &f.ProjectID, &f.RFINumber, &f.Question, &f.Location,
		&f.WhatNeededToProceed, &f.Status, &f.RoutedTo,
		&f.Answer, &f.AnsweredByID, &f.AnsweredAt, &f.SubmittedByID,
		&f.CostImpact, &f.ScheduleImpactDays, &f.DueDate, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

// Create inserts an RFI, assigning the next number for the project inside
// one transaction.
func (r *Repository) Create(ctx context.Context, f *RFI) (*RFI, error) {
	var created *RFI
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var next int
		if err := tx.QueryRow(ctx,
			`SELECT COALESCE(MAX(rfi_number), 0) + 1 FROM rfis WHERE project_id = $1`,
			f.ProjectID).Scan(&next); err != nil {
			return err
		}
		row := tx.QueryRow(ctx,
			`INSERT INTO rfis (project_id, rfi_number, question, location, what_needed_to_proceed, status, routed_to, submitted_by_id, cost_impact, schedule_impact_days, due_date)
			 VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, NULLIF($7, ''), $8, NULLIF($9, 0.0), NULLIF($10, 0), $11)
			 RETURNING `+rfiColumns,
			f.ProjectID, next, f.Question, f.Location, f.WhatNeededToProceed, f.Status,
			f.RoutedTo, f.SubmittedByID, f.CostImpact, f.ScheduleImpactDays, f.DueDate)
		var err error
		created, err = scanRFI(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// FindByID fetches an RFI.
func (r *Repository) FindByID(ctx context.Context, id int64) (*RFI, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+rfiColumns+` FROM rfis WHERE id = $1`, id)
	return scanRFI(row)
}

// ListByProject returns a project's RFIs, newest first.
func (r *Repository) ListByProject(ctx context.Context, projectID int64, params shared.ListParams) ([]RFI, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+rfiColumns+` FROM rfis WHERE project_id = $1
		 ORDER BY rfi_number DESC LIMIT $2 OFFSET $3`,
		projectID, params.Limit, params.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RFI
	for rows.Next() {
		f, err := scanRFI(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

// Update applies mutable fields and returns the stored row.
func (r *Repository) Update(ctx context.Context, f *RFI) (*RFI, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE rfis SET question = $2, location = NULLIF($3, ''),
		   what_needed_to_proceed = NULLIF($4, ''), status = $5, routed_to = NULLIF($6, ''),
		   cost_impact = NULLIF($7, 0.0), schedule_impact_days = NULLIF($8, 0),
		   due_date = $9, updated_at = NOW()
		 WHERE id = $1 RETURNING `+rfiColumns,
		f.ID, f.Question, f.Location, f.WhatNeededToProceed, f.Status, f.RoutedTo,
		f.CostImpact, f.ScheduleImpactDays, f.DueDate)
	return scanRFI(row)
}

// RecordAnswer stores the answer and flips the status.
func (r *Repository) RecordAnswer(ctx context.Context, id int64, answer string, answeredByID int64, at time.Time) (*RFI, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE rfis SET answer = $2, answered_by_id = $3, answered_at = $4, status = $5, updated_at = NOW()
		 WHERE id = $1 RETURNING `+rfiColumns,
		id, answer, answeredByID, at, StatusAnswered)
	return scanRFI(row)
}

// Delete removes an RFI.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM rfis WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
