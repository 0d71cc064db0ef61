package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitebridge/sitebridge/internal/platform/httpx"
	"github.com/sitebridge/sitebridge/internal/shared"
)

// Repository reads across module tables for the operator surface. It is
// the one place allowed to query other modules' tables directly.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// DashboardStats collects installation-wide counts in a single round trip.
func (r *Repository) DashboardStats(ctx context.Context, dayStart, weekStart time.Time) (*DashboardStats, error) {
	var s DashboardStats
	err := r.pool.QueryRow(ctx,
		`SELECT
		   (SELECT COUNT(*) FROM users),
		   (SELECT COUNT(*) FROM companies),
		   (SELECT COUNT(*) FROM projects),
		   (SELECT COUNT(*) FROM users WHERE last_login >= $1),
		   (SELECT COUNT(*) FROM users WHERE last_login >= $2),
		   (SELECT COUNT(*) FROM feedback),
		   (SELECT COUNT(*) FROM feedback WHERE status = 'submitted')`,
		dayStart, weekStart).Scan(
		&s.TotalUsers, &s.TotalCompanies, &s.TotalProjects,
		&s.ActiveUsersToday, &s.ActiveUsersWeek,
		&s.TotalFeedback, &s.PendingFeedback)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListUsers returns every account with its company name.
func (r *Repository) ListUsers(ctx context.Context, params shared.ListParams) ([]UserOverview, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT u.id, u.email, u.first_name, u.last_name, u.role,
		   COALESCE(c.name, ''), u.is_active, u.last_login, u.created_at
		 FROM users u LEFT JOIN companies c ON c.id = u.company_id
		 ORDER BY u.id LIMIT $1 OFFSET $2`,
		params.Limit, params.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []UserOverview
	for rows.Next() {
		var u UserOverview
		if err := rows.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Role,
			&u.CompanyName, &u.IsActive, &u.LastLogin, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// ListCompanies returns every company with its member count.
func (r *Repository) ListCompanies(ctx context.Context, params shared.ListParams) ([]CompanyOverview, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.name, c.code,
		   (SELECT COUNT(*) FROM users u WHERE u.company_id = c.id),
		   c.created_at
		 FROM companies c ORDER BY c.id LIMIT $1 OFFSET $2`,
		params.Limit, params.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CompanyOverview
	for rows.Next() {
		var c CompanyOverview
		if err := rows.Scan(&c.ID, &c.Name, &c.Code, &c.MemberCount, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteUser removes an account outright.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// ListAuditLogs returns the audit trail, newest first.
func (r *Repository) ListAuditLogs(ctx context.Context, filter AuditFilter, params shared.ListParams) ([]AuditEntry, error) {
	query := `SELECT id, actor_id, action, entity, entity_id, COALESCE(project_id, 0), meta, occurred_at
	 FROM audit_logs`
	args := []any{}
	var where []string
	if filter.ActorID != 0 {
		args = append(args, filter.ActorID)
		where = append(where, fmt.Sprintf("actor_id = $%d", len(args)))
	}
	if filter.Entity != "" {
		args = append(args, filter.Entity)
		where = append(where, fmt.Sprintf("entity = $%d", len(args)))
	}
	for i, cond := range where {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	args = append(args, params.Limit, params.Offset)
	query += fmt.Sprintf(" ORDER BY occurred_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.Entity, &e.EntityID,
			&e.ProjectID, &e.Meta, &e.OccurredAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
