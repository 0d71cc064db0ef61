package changes

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

// Repository provides PostgreSQL backed persistence for change orders.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const changeColumns = `id, project_id, change_number, what_changed, why_changed,
	COALESCE(location, ''), COALESCE(time_material_impact, ''), status,
	COALESCE(priced_amount, 0), COALESCE(schedule_impact_days, 0),
	COALESCE(schedule_impact_statement, ''), COALESCE(approved_amount, 0), approved_at,
	submitted_by_id, COALESCE(priced_by_id, 0), created_at, updated_at`

func scanChange(row pgx.Row) (*ChangeOrder, error) {
	var c ChangeOrder
	err := row.Scan(&c.ID, &c.ProjectID, &c.ChangeNumber, &c.WhatChanged, &c.WhyChanged,
		&c.Location, &c.TimeMaterialImpact, &c.Status,
		&c.PricedAmount, &c.ScheduleImpactDays,
		&c.ScheduleImpactStatement, &c.ApprovedAmount, &c.ApprovedAt,
		&c.SubmittedByID, &c.PricedByID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create inserts a change order, assigning the next number for the
// project inside one transaction.
func (r *Repository) Create(ctx context.Context, c *ChangeOrder) (*ChangeOrder, error) {
	var created *ChangeOrder
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var next int
		if err := tx.QueryRow(ctx,
			`SELECT COALESCE(MAX(change_number), 0) + 1 FROM change_orders WHERE project_id = $1`,
			c.ProjectID).Scan(&next); err != nil {
			return err
		}
		row := tx.QueryRow(ctx,
			`INSERT INTO change_orders (project_id, change_number, what_changed, why_changed, location, time_material_impact, status, submitted_by_id)
			 VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8)
			 RETURNING `+changeColumns,
			c.ProjectID, next, c.WhatChanged, c.WhyChanged, c.Location, c.TimeMaterialImpact, c.Status, c.SubmittedByID)
		var err error
		created, err = scanChange(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// FindByID fetches a change order.
func (r *Repository) FindByID(ctx context.Context, id int64) (*ChangeOrder, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+changeColumns+` FROM change_orders WHERE id = $1`, id)
	return scanChange(row)
}

// ListByProject returns a project's change orders, newest first.
func (r *Repository) ListByProject(ctx context.Context, projectID int64, params shared.ListParams) ([]ChangeOrder, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+changeColumns+` FROM change_orders WHERE project_id = $1
		 ORDER BY change_number DESC LIMIT $2 OFFSET $3`,
		projectID, params.Limit, params.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ChangeOrder
	for rows.Next() {
		c, err := scanChange(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// Update applies the field-entered details and returns the stored row.
func (r *Repository) Update(ctx context.Context, c *ChangeOrder) (*ChangeOrder, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE change_orders SET what_changed = $2, why_changed = $3,
		   location = NULLIF($4, ''), time_material_impact = NULLIF($5, ''),
		   status = $6, updated_at = NOW()
		 WHERE id = $1 RETURNING `+changeColumns,
		c.ID, c.WhatChanged, c.WhyChanged, c.Location, c.TimeMaterialImpact, c.Status)
	return scanChange(row)
}

// RecordPricing stores the office pricing and flips the status.
func (r *Repository) RecordPricing(ctx context.Context, id int64, amount float64, impactDays int, impactStatement string, pricedByID int64) (*ChangeOrder, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE change_orders SET priced_amount = $2, schedule_impact_days = NULLIF($3, 0),
		   schedule_impact_statement = NULLIF($4, ''), priced_by_id = $5, status = $6, updated_at = NOW()
		 WHERE id = $1 RETURNING `+changeColumns,
		id, amount, impactDays, impactStatement, pricedByID, StatusPriced)
	return scanChange(row)
}

// RecordApproval stamps the approval and flips the status.
func (r *Repository) RecordApproval(ctx context.Context, id int64, amount float64, at time.Time) (*ChangeOrder, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE change_orders SET approved_amount = $2, approved_at = $3, status = $4, updated_at = NOW()
		 WHERE id = $1 RETURNING `+changeColumns,
		id, amount, at, StatusApproved)
	return scanChange(row)
}

// Delete removes a change order.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM change_orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
