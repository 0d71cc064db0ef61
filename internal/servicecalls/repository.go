package servicecalls

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitebridge/sitebridge/internal/platform/db"
	"github.com/sitebridge/sitebridge/internal/platform/httpx"
	"github.com/sitebridge/sitebridge/internal/shared"
)

// Repository provides PostgreSQL backed persistence for service calls.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const callColumns = `id, COALESCE(project_id, 0), call_number, COALESCE(customer_name, ''),
	COALESCE(customer_phone, ''), COALESCE(customer_address, ''), issue_description, priority,
	COALESCE(assigned_to_id, 0), scheduled_at, is_completed, completed_at,
	COALESCE(resolution_notes, ''), created_at, updated_at`

func scanCall(row pgx.Row) (*ServiceCall, error) {
	var c ServiceCall
	err := row.Scan(&c.ID, &c.ProjectID, &c.CallNumber, &c.CustomerName,
		&c.CustomerPhone, &c.CustomerAddress, &c.IssueDescription, &c.Priority,
		&c.AssignedToID, &c.ScheduledAt, &c.IsCompleted, &c.CompletedAt,
		&c.ResolutionNotes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create inserts a call, issuing the next sequential call number inside the
// same transaction.
func (r *Repository) Create(ctx context.Context, c *ServiceCall) (*ServiceCall, error) {
	var created *ServiceCall
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var next int
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) + 1 FROM service_calls`).Scan(&next); err != nil {
			return err
		}
		row := tx.QueryRow(ctx,
			`INSERT INTO service_calls (project_id, call_number, customer_name, customer_phone, customer_address, issue_description, priority, assigned_to_id, scheduled_at)
			 VALUES (NULLIF($1, 0), $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6, $7, NULLIF($8, 0), $9)
			 RETURNING `+callColumns,
			c.ProjectID, fmt.Sprintf("SC-%05d", next), c.CustomerName, c.CustomerPhone,
			c.CustomerAddress, c.IssueDescription, c.Priority, c.AssignedToID, c.ScheduledAt)
		var err error
		created, err = scanCall(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// FindByID fetches one call.
func (r *Repository) FindByID(ctx context.Context, id int64) (*ServiceCall, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+callColumns+` FROM service_calls WHERE id = $1`, id)
	return scanCall(row)
}

// List returns calls ordered by schedule, soonest first.
func (r *Repository) List(ctx context.Context, filter Filter, params shared.ListParams) ([]ServiceCall, error) {
	query := `SELECT ` + callColumns + ` FROM service_calls`
	args := []any{}
	var where []string
	if filter.AssignedToID != 0 {
		args = append(args, filter.AssignedToID)
		where = append(where, fmt.Sprintf("assigned_to_id = $%d", len(args)))
	}
	if filter.Completed != nil {
		args = append(args, *filter.Completed)
		where = append(where, fmt.Sprintf("is_completed = $%d", len(args)))
	}
	for i, cond := range where {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	args = append(args, params.Limit, params.Offset)
	query += fmt.Sprintf(" ORDER BY scheduled_at ASC NULLS LAST, id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ServiceCall
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// Update applies mutable fields and returns the stored row.
func (r *Repository) Update(ctx context.Context, c *ServiceCall) (*ServiceCall, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE service_calls SET customer_name = NULLIF($2, ''), customer_phone = NULLIF($3, ''),
		   customer_address = NULLIF($4, ''), issue_description = $5, priority = $6,
		   assigned_to_id = NULLIF($7, 0), scheduled_at = $8,
		   is_completed = $9, completed_at = $10, resolution_notes = NULLIF($11, ''),
		   updated_at = NOW()
		 WHERE id = $1 RETURNING `+callColumns,
		c.ID, c.CustomerName, c.CustomerPhone, c.CustomerAddress, c.IssueDescription,
		c.Priority, c.AssignedToID, c.ScheduledAt, c.IsCompleted, c.CompletedAt, c.ResolutionNotes)
	return scanCall(row)
}
