package projects

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitebridge/sitebridge/internal/platform/db"
	"github.com/sitebridge/sitebridge/internal/platform/httpx"
	"github.com/sitebridge/sitebridge/internal/shared"
)

// Repository provides PostgreSQL backed persistence for projects and
// their team membership. It doubles as the membership source for the
// access resolver.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const projectColumns = `id, name, COALESCE(number, ''), COALESCE(description, ''), status,
	COALESCE(address, ''), COALESCE(city, ''), COALESCE(state, ''), COALESCE(client_name, ''),
	COALESCE(contract_value, 0), start_date, target_completion, created_by, created_at, updated_at`

func scanProject(row pgx.Row) (*Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.Name, &p.Number, &p.Description, &p.Status,
		&p.Address, &p.City, &p.State, &p.ClientName,
		&p.ContractValue, &p.StartDate, &p.TargetCompletion, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts a project and adds the creator to its team in one
// transaction.
func (r *Repository) Create(ctx context.Context, p *Project) (*Project, error) {
	var created *Project
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`INSERT INTO projects (name, number, description, status, address, city, state, client_name, contract_value, start_date, target_completion, created_by)
			 VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, 0.0), $10, $11, $12)
			 RETURNING `+projectColumns,
			p.Name, p.Number, p.Description, p.Status, p.Address, p.City, p.State, p.ClientName, p.ContractValue, p.StartDate, p.TargetCompletion, p.CreatedBy)
		var err error
		created, err = scanProject(row)
		if err != nil {
			return mapPGError(err)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO project_users (project_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			created.ID, p.CreatedBy)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// FindByID fetches a project.
func (r *Repository) FindByID(ctx context.Context, id int64) (*Project, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	return scanProject(row)
}

// List returns the projects with the given ids, paged and ordered by id.
// An empty id list returns no rows.
func (r *Repository) List(ctx context.Context, ids []int64, params shared.ListParams) ([]Project, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ANY($1) ORDER BY id LIMIT $2 OFFSET $3`,
		ids, params.Limit, params.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// ListAll returns every project, paged and ordered by id.
func (r *Repository) ListAll(ctx context.Context, params shared.ListParams) ([]Project, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+projectColumns+` FROM projects ORDER BY id LIMIT $1 OFFSET $2`,
		params.Limit, params.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Update applies mutable fields and returns the stored row.
func (r *Repository) Update(ctx context.Context, p *Project) (*Project, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE projects SET name = $2, description = NULLIF($3, ''), status = $4,
		   address = NULLIF($5, ''), city = NULLIF($6, ''), state = NULLIF($7, ''),
		   client_name = NULLIF($8, ''), contract_value = NULLIF($9, 0.0),
		   start_date = $10, target_completion = $11, updated_at = NOW()
		 WHERE id = $1 RETURNING `+projectColumns,
		p.ID, p.Name, p.Description, p.Status, p.Address, p.City, p.State,
		p.ClientName, p.ContractValue, p.StartDate, p.TargetCompletion)
	updated, err := scanProject(row)
	if err != nil {
		return nil, mapPGError(err)
	}
	return updated, nil
}

// Delete closes a project. Rows are kept so history stays queryable.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE projects SET status = $2, updated_at = NOW() WHERE id = $1`, id, StatusClosed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// AddMember attaches a user to the project team.
func (r *Repository) AddMember(ctx context.Context, projectID, userID int64) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO project_users (project_id, user_id) VALUES ($1, $2)`,
		projectID, userID)
	return mapPGError(err)
}

// RemoveMember detaches a user from the project team.
func (r *Repository) RemoveMember(ctx context.Context, projectID, userID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM project_users WHERE project_id = $1 AND user_id = $2`,
		projectID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// ListMembers returns the project team with account details.
func (r *Repository) ListMembers(ctx context.Context, projectID int64) ([]Member, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT u.id, u.email, u.first_name, u.last_name, u.role, pu.added_at
		 FROM project_users pu
		 JOIN users u ON u.id = pu.user_id
		 WHERE pu.project_id = $1
		 ORDER BY u.id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.UserID, &m.Email, &m.FirstName, &m.LastName, &m.Role, &m.AddedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// ProjectIDs returns the ids of projects the user belongs to.
func (r *Repository) ProjectIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT project_id FROM project_users WHERE user_id = $1 ORDER BY project_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AllProjectIDs returns every project id.
func (r *Repository) AllProjectIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM projects ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// IsMember reports whether the user is on the project team.
func (r *Repository) IsMember(ctx context.Context, projectID, userID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM project_users WHERE project_id = $1 AND user_id = $2)`,
		projectID, userID).Scan(&exists)
	return exists, err
}

func mapPGError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return httpx.ErrDuplicate
		case "23503":
			return httpx.ErrNotFound
		}
	}
	return err
}
