package reports

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

// Repository provides PostgreSQL backed persistence for daily reports.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const reportColumns = `id, project_id, report_number, submitted_by_id, report_date,
	COALESCE(crew_count, 0), COALESCE(work_completed, ''), COALESCE(delays_constraints, ''),
	COALESCE(safety_incidents, ''), COALESCE(weather_conditions, ''), COALESCE(notes, ''),
	created_at, updated_at`

func scanReport(row pgx.Row) (*DailyReport, error) {
	var d DailyReport
	err := row.Scan(&d.ID, &d.ProjectID, &d.ReportNumber, &d.SubmittedByID, &d.ReportDate,
		&d.CrewCount, &d.WorkCompleted, &d.DelaysConstraints,
		&d.SafetyIncidents, &d.WeatherConditions, &d.Notes,
		&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// Create inserts a report, assigning the next report number for the
// project inside one transaction.
func (r *Repository) Create(ctx context.Context, d *DailyReport) (*DailyReport, error) {
	var created *DailyReport
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var next int
		if err := tx.QueryRow(ctx,
			`SELECT COALESCE(MAX(report_number), 0) + 1 FROM daily_reports WHERE project_id = $1`,
			d.ProjectID).Scan(&next); err != nil {
			return err
		}
		row := tx.QueryRow(ctx,
			`INSERT INTO daily_reports (project_id, report_number, submitted_by_id, report_date, crew_count, work_completed, delays_constraints, safety_incidents, weather_conditions, notes)
			 VALUES ($1, $2, $3, $4, NULLIF($5, 0), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''))
			 RETURNING `+reportColumns,
			d.ProjectID, next, d.SubmittedByID, d.ReportDate, d.CrewCount, d.WorkCompleted,
			d.DelaysConstraints, d.SafetyIncidents, d.WeatherConditions, d.Notes)
		var err error
		created, err = scanReport(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ExistsForDate reports whether the submitter already filed a report for
// the project on the given date.
func (r *Repository) ExistsForDate(ctx context.Context, projectID, submitterID int64, date time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM daily_reports WHERE project_id = $1 AND submitted_by_id = $2 AND report_date = $3)`,
		projectID, submitterID, date).Scan(&exists)
	return exists, err
}

// FindByID fetches a report.
func (r *Repository) FindByID(ctx context.Context, id int64) (*DailyReport, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+reportColumns+` FROM daily_reports WHERE id = $1`, id)
	return scanReport(row)
}

// ListByProject returns a project's reports, newest first.
func (r *Repository) ListByProject(ctx context.Context, projectID int64, params shared.ListParams) ([]DailyReport, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+reportColumns+` FROM daily_reports WHERE project_id = $1
		 ORDER BY report_number DESC LIMIT $2 OFFSET $3`,
		projectID, params.Limit, params.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DailyReport
	for rows.Next() {
		d, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// Update applies mutable fields and returns the stored row.
func (r *Repository) Update(ctx context.Context, d *DailyReport) (*DailyReport, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE daily_reports SET report_date = $2, crew_count = NULLIF($3, 0),
		   work_completed = NULLIF($4, ''), delays_constraints = NULLIF($5, ''),
		   safety_incidents = NULLIF($6, ''), weather_conditions = NULLIF($7, ''),
		   notes = NULLIF($8, ''), updated_at = NOW()
		 WHERE id = $1 RETURNING `+reportColumns,
		d.ID, d.ReportDate, d.CrewCount, d.WorkCompleted, d.DelaysConstraints,
		d.SafetyIncidents, d.WeatherConditions, d.Notes)
	return scanReport(row)
}

// Delete removes a report.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM daily_reports WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
