package contacts

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

// Repository provides PostgreSQL backed persistence for contacts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const contactColumns = `id, contact_type, COALESCE(company_name, ''), COALESCE(first_name, ''),
	COALESCE(last_name, ''), COALESCE(title, ''), COALESCE(email, ''), COALESCE(phone, ''),
	COALESCE(mobile, ''), COALESCE(address, ''), COALESCE(city, ''), COALESCE(state, ''),
	last_used_at, created_at, updated_at`

func scanContact(row pgx.Row) (*Contact, error) {
	var c Contact
	err := row.Scan(&c.ID, &c.ContactType, &c.CompanyName, &c.FirstName,
		&c.LastName, &c.Title, &c.Email, &c.Phone,
		&c.Mobile, &c.Address, &c.City, &c.State,
		&c.LastUsedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create inserts a contact.
func (r *Repository) Create(ctx context.Context, c *Contact) (*Contact, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO contacts (contact_type, company_name, first_name, last_name, title, email, phone, mobile, address, city, state)
		 VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''))
		 RETURNING `+contactColumns,
		c.ContactType, c.CompanyName, c.FirstName, c.LastName, c.Title, c.Email, c.Phone, c.Mobile, c.Address, c.City, c.State)
	return scanContact(row)
}

// FindByID fetches a contact.
func (r *Repository) FindByID(ctx context.Context, id int64) (*Contact, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id)
	return scanContact(row)
}

// List returns contacts, optionally narrowed to one type, most recently
// used first.
func (r *Repository) List(ctx context.Context, contactType Type, params shared.ListParams) ([]Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts`
	args := []any{}
	if contactType != "" {
		args = append(args, contactType)
		query += fmt.Sprintf(" WHERE contact_type = $%d", len(args))
	}
	args = append(args, params.Limit, params.Offset)
	query += fmt.Sprintf(" ORDER BY last_used_at DESC NULLS LAST, id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// Update applies mutable fields and returns the stored row.
func (r *Repository) Update(ctx context.Context, c *Contact) (*Contact, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE contacts SET contact_type = $2, company_name = NULLIF($3, ''),
		   first_name = NULLIF($4, ''), last_name = NULLIF($5, ''), title = NULLIF($6, ''),
		   email = NULLIF($7, ''), phone = NULLIF($8, ''), mobile = NULLIF($9, ''),
		   address = NULLIF($10, ''), city = NULLIF($11, ''), state = NULLIF($12, ''),
		   updated_at = NOW()
		 WHERE id = $1 RETURNING `+contactColumns,
		c.ID, c.ContactType, c.CompanyName, c.FirstName, c.LastName, c.Title,
		c.Email, c.Phone, c.Mobile, c.Address, c.City, c.State)
	return scanContact(row)
}

// MarkUsed stamps the contact as recently used.
func (r *Repository) MarkUsed(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE contacts SET last_used_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// Delete removes a contact.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
