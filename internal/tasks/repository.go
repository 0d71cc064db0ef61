package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitebridge/sitebridge/internal/platform/httpx"
	"github.com/sitebridge/sitebridge/internal/shared"
)

// Repository provides PostgreSQL backed persistence for tasks.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const taskColumns = `id, project_id, title, COALESCE(description, ''), assignee_id, created_by_id,
	status, priority, due_date, acknowledged_at, completed_at, created_at, updated_at`

func scanTask(row pgx.Row) (*Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.AssigneeID, &t.CreatedByID,
		&t.Status, &t.Priority, &t.DueDate, &t.AcknowledgedAt, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Create inserts a new task.
func (r *Repository) Create(ctx context.Context, t *Task) (*Task, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO tasks (project_id, title, description, assignee_id, created_by_id, status, priority, due_date)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8)
		 RETURNING `+taskColumns,
		t.ProjectID, t.Title, t.Description, t.AssigneeID, t.CreatedByID, t.Status, t.Priority, t.DueDate)
	created, err := scanTask(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return created, nil
}

// FindByID fetches a task.
func (r *Repository) FindByID(ctx context.Context, id int64) (*Task, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	return scanTask(row)
}

// Filter narrows task listings. Zero values mean "any".
type Filter struct {
	AssigneeID int64
	Status     Status
	Priority   Priority
}

// ListByProject returns the tasks of one project, newest first.
func (r *Repository) ListByProject(ctx context.Context, projectID int64, filter Filter, params shared.ListParams) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE project_id = $1`
	args := []any{projectID}
	if filter.AssigneeID != 0 {
		args = append(args, filter.AssigneeID)
		query += fmt.Sprintf(" AND assignee_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		query += fmt.Sprintf(" AND priority = $%d", len(args))
	}
	args = append(args, params.Limit, params.Offset)
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTasks(rows)
}

// ListByAssignee returns tasks assigned to one user, newest first.
func (r *Repository) ListByAssignee(ctx context.Context, assigneeID int64, params shared.ListParams) ([]Task, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE assignee_id = $1 ORDER BY id DESC LIMIT $2 OFFSET $3`,
		assigneeID, params.Limit, params.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTasks(rows)
}

func collectTasks(rows pgx.Rows) ([]Task, error) {
	var out []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// Update applies mutable fields and returns the stored row.
func (r *Repository) Update(ctx context.Context, t *Task) (*Task, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE tasks SET title = $2, description = NULLIF($3, ''), assignee_id = $4,
		   status = $5, priority = $6, due_date = $7, updated_at = NOW()
		 WHERE id = $1 RETURNING `+taskColumns,
		t.ID, t.Title, t.Description, t.AssigneeID, t.Status, t.Priority, t.DueDate)
	return scanTask(row)
}

// MarkAcknowledged stamps the acknowledgement and flips the status.
func (r *Repository) MarkAcknowledged(ctx context.Context, id int64, at time.Time) (*Task, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE tasks SET status = $2, acknowledged_at = $3, updated_at = NOW()
		 WHERE id = $1 RETURNING `+taskColumns,
		id, StatusAcknowledged, at)
	return scanTask(row)
}

// MarkCompleted stamps the completion and flips the status.
func (r *Repository) MarkCompleted(ctx context.Context, id int64, at time.Time) (*Task, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE tasks SET status = $2, completed_at = $3, updated_at = NOW()
		 WHERE id = $1 RETURNING `+taskColumns,
		id, StatusCompleted, at)
	return scanTask(row)
}

// Delete removes a task.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
