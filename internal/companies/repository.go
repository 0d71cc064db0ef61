package companies

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

// Repository provides PostgreSQL backed persistence for companies.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const companyColumns = `id, name, code, invite_code, COALESCE(address, ''), COALESCE(city, ''),
	COALESCE(state, ''), COALESCE(zip, ''), COALESCE(phone, ''), COALESCE(email, ''),
	owner_id, max_users, created_at, updated_at`

func scanCompany(row pgx.Row) (*Company, error) {
	var c Company
	err := row.Scan(&c.ID, &c.Name, &c.Code, &c.InviteCode, &c.Address, &c.City,
		&c.State, &c.Zip, &c.Phone, &c.Email,
		&c.OwnerID, &c.MaxUsers, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create inserts the company and makes the owner its first member, in one
// transaction.
func (r *Repository) Create(ctx context.Context, c *Company) (*Company, error) {
	var created *Company
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`INSERT INTO companies (name, code, invite_code, address, city, state, zip, phone, email, owner_id, max_users)
			 VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), $10, $11)
			 RETURNING `+companyColumns,
			c.Name, c.Code, c.InviteCode, c.Address, c.City, c.State, c.Zip, c.Phone, c.Email, c.OwnerID, c.MaxUsers)
		var err error
		created, err = scanCompany(row)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return httpx.ErrDuplicate
			}
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE users SET company_id = $1 WHERE id = $2`, created.ID, c.OwnerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// FindByInviteCode fetches a company by its invite code.
func (r *Repository) FindByInviteCode(ctx context.Context, inviteCode string) (*Company, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE invite_code = $1`, inviteCode)
	return scanCompany(row)
}

// FindForUser fetches the company the user belongs to.
func (r *Repository) FindForUser(ctx context.Context, userID int64) (*Company, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM companies c
		 WHERE c.id = (SELECT company_id FROM users WHERE id = $1)`, userID)
	return scanCompany(row)
}

// MemberCount returns the number of users in the company.
func (r *Repository) MemberCount(ctx context.Context, companyID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE company_id = $1`, companyID).Scan(&count)
	return count, err
}

// AddMember places the user in the company.
func (r *Repository) AddMember(ctx context.Context, companyID, userID int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET company_id = $1 WHERE id = $2`, companyID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// Members lists the company roster.
func (r *Repository) Members(ctx context.Context, companyID int64, params shared.ListParams) ([]Member, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, email, first_name, last_name, role, is_active, last_login
		 FROM users WHERE company_id = $1
		 ORDER BY last_name, first_name, id LIMIT $2 OFFSET $3`,
		companyID, params.Limit, params.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.Email, &m.FirstName, &m.LastName, &m.Role, &m.IsActive, &m.LastLogin); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
