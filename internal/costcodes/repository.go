package costcodes

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitebridge/sitebridge/internal/platform/httpx"
	"github.com/sitebridge/sitebridge/internal/shared"
)

// Repository provides PostgreSQL backed persistence for cost codes.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const costCodeColumns = `id, project_id, code, description, COALESCE(budgeted_hours, 0),
	COALESCE(budgeted_amount, 0), is_active, created_at, updated_at`

func scanCostCode(row pgx.Row) (*CostCode, error) {
	var c CostCode
	err := row.Scan(&c.ID, &c.ProjectID, &c.Code, &c.Description, &c.BudgetedHours,
		&c.BudgetedAmount, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create inserts a cost code. Codes are unique per project.
func (r *Repository) Create(ctx context.Context, c *CostCode) (*CostCode, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO cost_codes (project_id, code, description, budgeted_hours, budgeted_amount, is_active)
		 VALUES ($1, $2, $3, NULLIF($4, 0::float8), NULLIF($5, 0::float8), TRUE)
		 RETURNING `+costCodeColumns,
		c.ProjectID, c.Code, c.Description, c.BudgetedHours, c.BudgetedAmount)
	created, err := scanCostCode(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return nil, httpx.ErrDuplicate
			case "23503":
				return nil, httpx.ErrNotFound
			}
		}
		return nil, err
	}
	return created, nil
}

// FindByID fetches one cost code.
func (r *Repository) FindByID(ctx context.Context, id int64) (*CostCode, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+costCodeColumns+` FROM cost_codes WHERE id = $1`, id)
	return scanCostCode(row)
}

// ListByProject returns the project's cost codes, ordered by code. Inactive
// codes are included only on request.
func (r *Repository) ListByProject(ctx context.Context, projectID int64, includeInactive bool, params shared.ListParams) ([]CostCode, error) {
	query := `SELECT ` + costCodeColumns + ` FROM cost_codes WHERE project_id = $1`
	if !includeInactive {
		query += ` AND is_active`
	}
	query += ` ORDER BY code LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, projectID, params.Limit, params.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CostCode
	for rows.Next() {
		c, err := scanCostCode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// Update applies mutable fields and returns the stored row.
func (r *Repository) Update(ctx context.Context, c *CostCode) (*CostCode, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE cost_codes SET code = $2, description = $3,
		   budgeted_hours = NULLIF($4, 0::float8), budgeted_amount = NULLIF($5, 0::float8),
		   updated_at = NOW()
		 WHERE id = $1 RETURNING `+costCodeColumns,
		c.ID, c.Code, c.Description, c.BudgetedHours, c.BudgetedAmount)
	return scanCostCode(row)
}

// SetActive flips the active flag.
func (r *Repository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE cost_codes SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
