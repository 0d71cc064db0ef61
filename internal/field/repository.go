package field

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitebridge/sitebridge/internal/platform/httpx"
	"github.com/sitebridge/sitebridge/internal/shared"
)

// Repository provides PostgreSQL backed persistence for the field
// tracking records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const punchColumns = `id, project_id, description, COALESCE(location, ''), COALESCE(responsible_party, ''),
	COALESCE(assigned_to_id, 0), status, due_date, verified_at, COALESCE(verified_by_id, 0), created_at, updated_at`

func scanPunch(row pgx.Row) (*PunchItem, error) {
	var p PunchItem
	err := row.Scan(&p.ID, &p.ProjectID, &p.Description, &p.Location, &p.ResponsibleParty,
		&p.AssignedToID, &p.Status, &p.DueDate, &p.VerifiedAt, &p.VerifiedByID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// CreatePunch inserts a punch item.
func (r *Repository) CreatePunch(ctx context.Context, p *PunchItem) (*PunchItem, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO punch_items (project_id, description, location, responsible_party, assigned_to_id, status, due_date)
		 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, 0), $6, $7)
		 RETURNING `+punchColumns,
		p.ProjectID, p.Description, p.Location, p.ResponsibleParty, p.AssignedToID, p.Status, p.DueDate)
	return scanPunch(row)
}

// FindPunch fetches a punch item.
func (r *Repository) FindPunch(ctx context.Context, id int64) (*PunchItem, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+punchColumns+` FROM punch_items WHERE id = $1`, id)
	return scanPunch(row)
}

// ListPunch returns a project's punch items, newest first.
func (r *Repository) ListPunch(ctx context.Context, projectID int64, params shared.ListParams) ([]PunchItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+punchColumns+` FROM punch_items WHERE project_id = $1 ORDER BY id DESC LIMIT $2 OFFSET $3`,
		projectID, params.Limit, params.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PunchItem
	for rows.Next() {
		p, err := scanPunch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// UpdatePunch applies mutable fields and returns the stored row.
func (r *Repository) UpdatePunch(ctx context.Context, p *PunchItem) (*PunchItem, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE punch_items SET description = $2, location = NULLIF($3, ''),
		   responsible_party = NULLIF($4, ''), assigned_to_id = NULLIF($5, 0),
		   status = $6, due_date = $7, updated_at = NOW()
		 WHERE id = $1 RETURNING `+punchColumns,
		p.ID, p.Description, p.Location, p.ResponsibleParty, p.AssignedToID, p.Status, p.DueDate)
	return scanPunch(row)
}

// VerifyPunch stamps the verification and flips the status.
func (r *Repository) VerifyPunch(ctx context.Context, id, verifiedByID int64, at time.Time) (*PunchItem, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE punch_items SET status = $2, verified_at = $3, verified_by_id = $4, updated_at = NOW()
		 WHERE id = $1 RETURNING `+punchColumns,
		id, PunchVerified, at, verifiedByID)
	return scanPunch(row)
}

const deliveryColumns = `id, project_id, COALESCE(po_number, ''), COALESCE(vendor, ''), COALESCE(description, ''),
	expected_date, actual_date, COALESCE(staging_location, ''), COALESCE(received_by_id, 0),
	has_damage, has_shortage, COALESCE(issue_notes, ''), created_at, updated_at`

func scanDelivery(row pgx.Row) (*Delivery, error) {
	var d Delivery
	err := row.Scan(&d.ID, &d.ProjectID, &d.PONumber, &d.Vendor, &d.Description,
		&d.ExpectedDate, &d.ActualDate, &d.StagingLocation, &d.ReceivedByID,
		&d.HasDamage, &d.HasShortage, &d.IssueNotes, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// CreateDelivery inserts a delivery.
func (r *Repository) CreateDelivery(ctx context.Context, d *Delivery) (*Delivery, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO deliveries (project_id, po_number, vendor, description, expected_date, staging_location)
		 VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), $5, NULLIF($6, ''))
		 RETURNING `+deliveryColumns,
		d.ProjectID, d.PONumber, d.Vendor, d.Description, d.ExpectedDate, d.StagingLocation)
	return scanDelivery(row)
}

// FindDelivery fetches a delivery.
func (r *Repository) FindDelivery(ctx context.Context, id int64) (*Delivery, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+deliveryColumns+` FROM deliveries WHERE id = $1`, id)
	return scanDelivery(row)
}

// ListDeliveries returns a project's deliveries, newest first.
func (r *Repository) ListDeliveries(ctx context.Context, projectID int64, params shared.ListParams) ([]Delivery, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+deliveryColumns+` FROM deliveries WHERE project_id = $1 ORDER BY id DESC LIMIT $2 OFFSET $3`,
		projectID, params.Limit, params.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// UpdateDelivery applies mutable fields and returns the stored row.
func (r *Repository) UpdateDelivery(ctx context.Context, d *Delivery) (*Delivery, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE deliveries SET po_number = NULLIF($2, ''), vendor = NULLIF($3, ''),
		   description = NULLIF($4, ''), expected_date = $5, staging_location = NULLIF($6, ''),
		   updated_at = NOW()
		 WHERE id = $1 RETURNING `+deliveryColumns,
		d.ID, d.PONumber, d.Vendor, d.Description, d.ExpectedDate, d.StagingLocation)
	return scanDelivery(row)
}

// ConfirmDelivery records receipt of the material.
func (r *Repository) ConfirmDelivery(ctx context.Context, id, receivedByID int64, at time.Time, hasDamage, hasShortage bool, issueNotes string) (*Delivery, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE deliveries SET actual_date = $2, received_by_id = $3,
		   has_damage = $4, has_shortage = $5, issue_notes = NULLIF($6, ''), updated_at = NOW()
		 WHERE id = $1 RETURNING `+deliveryColumns,
		id, at, receivedByID, hasDamage, hasShortage, issueNotes)
	return scanDelivery(row)
}

const constraintColumns = `id, project_id, description, COALESCE(constraint_type, ''), COALESCE(area, ''),
	COALESCE(owner_name, ''), due_date, is_resolved, resolved_at, COALESCE(resolution_notes, ''), created_at, updated_at`

func scanConstraint(row pgx.Row) (*Constraint, error) {
	var c Constraint
	err := row.Scan(&c.ID, &c.ProjectID, &c.Description, &c.ConstraintType, &c.Area,
		&c.OwnerName, &c.DueDate, &c.IsResolved, &c.ResolvedAt, &c.ResolutionNotes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// CreateConstraint inserts a constraint.
func (r *Repository) CreateConstraint(ctx context.Context, c *Constraint) (*Constraint, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO constraints (project_id, description, constraint_type, area, owner_name, due_date)
		 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6)
		 RETURNING `+constraintColumns,
		c.ProjectID, c.Description, c.ConstraintType, c.Area, c.OwnerName, c.DueDate)
	return scanConstraint(row)
}

// FindConstraint fetches a constraint.
func (r *Repository) FindConstraint(ctx context.Context, id int64) (*Constraint, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+constraintColumns+` FROM constraints WHERE id = $1`, id)
	return scanConstraint(row)
}

// ListConstraints returns a project's constraints, unresolved first.
func (r *Repository) ListConstraints(ctx context.Context, projectID int64, params shared.ListParams) ([]Constraint, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+constraintColumns+` FROM constraints WHERE project_id = $1
		 ORDER BY is_resolved, id DESC LIMIT $2 OFFSET $3`,
		projectID, params.Limit, params.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Constraint
	for rows.Next() {
		c, err := scanConstraint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// UpdateConstraint applies mutable fields and returns the stored row.
func (r *Repository) UpdateConstraint(ctx context.Context, c *Constraint) (*Constraint, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE constraints SET description = $2, constraint_type = NULLIF($3, ''),
		   area = NULLIF($4, ''), owner_name = NULLIF($5, ''), due_date = $6, updated_at = NOW()
		 WHERE id = $1 RETURNING `+constraintColumns,
		c.ID, c.Description, c.ConstraintType, c.Area, c.OwnerName, c.DueDate)
	return scanConstraint(row)
}

// ResolveConstraint stamps the resolution.
func (r *Repository) ResolveConstraint(ctx context.Context, id int64, notes string, at time.Time) (*Constraint, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE constraints SET is_resolved = TRUE, resolved_at = $2,
		   resolution_notes = NULLIF($3, ''), updated_at = NOW()
		 WHERE id = $1 RETURNING `+constraintColumns,
		id, at, notes)
	return scanConstraint(row)
}

const decisionColumns = `id, project_id, decision_date, decision, approved_by, COALESCE(approved_by_id, 0),
	affects_cost, affects_schedule, COALESCE(impact_details, ''), created_at`

func scanDecision(row pgx.Row) (*Decision, error) {
	var d Decision
	err := row.Scan(&d.ID, &d.ProjectID, &d.DecisionDate, &d.Decision, &d.ApprovedBy, &d.ApprovedByID,
		&d.AffectsCost, &d.AffectsSchedule, &d.ImpactDetails, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// CreateDecision appends a decision record.
func (r *Repository) CreateDecision(ctx context.Context, d *Decision) (*Decision, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO decision_logs (project_id, decision_date, decision, approved_by, approved_by_id, affects_cost, affects_schedule, impact_details)
		 VALUES ($1, $2, $3, $4, NULLIF($5, 0), $6, $7, NULLIF($8, ''))
		 RETURNING `+decisionColumns,
		d.ProjectID, d.DecisionDate, d.Decision, d.ApprovedBy, d.ApprovedByID,
		d.AffectsCost, d.AffectsSchedule, d.ImpactDetails)
	return scanDecision(row)
}

// ListDecisions returns a project's decision log, newest first.
func (r *Repository) ListDecisions(ctx context.Context, projectID int64, params shared.ListParams) ([]Decision, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+decisionColumns+` FROM decision_logs WHERE project_id = $1
		 ORDER BY decision_date DESC, id DESC LIMIT $2 OFFSET $3`,
		projectID, params.Limit, params.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}
