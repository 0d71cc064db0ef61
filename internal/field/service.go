package field

import (
	"context"
	"fmt"
	"time"

	"github.com/sitebridge/sitebridge/internal/authz"
	"github.com/sitebridge/sitebridge/internal/platform/httpx"
	"github.com/sitebridge/sitebridge/internal/shared"
)

// RepositoryPort defines data access methods for the field records.
type RepositoryPort interface {
	CreatePunch(ctx context.Context, p *PunchItem) (*PunchItem, error)
	FindPunch(ctx context.Context, id int64) (*PunchItem, error)
	ListPunch(ctx context.Context, projectID int64, params shared.ListParams) ([]PunchItem, error)
	UpdatePunch(ctx context.Context, p *PunchItem) (*PunchItem, error)
	VerifyPunch(ctx context.Context, id, verifiedByID int64, at time.Time) (*PunchItem, error)

	CreateDelivery(ctx context.Context, d *Delivery) (*Delivery, error)
	FindDelivery(ctx context.Context, id int64) (*Delivery, error)
	ListDeliveries(ctx context.Context, projectID int64, params shared.ListParams) ([]Delivery, error)
	UpdateDelivery(ctx context.Context, d *Delivery) (*Delivery, error)
	ConfirmDelivery(ctx context.Context, id, receivedByID int64, at time.Time, hasDamage, hasShortage bool, issueNotes string) (*Delivery, error)

	CreateConstraint(ctx context.Context, c *Constraint) (*Constraint, error)
	FindConstraint(ctx context.Context, id int64) (*Constraint, error)
	ListConstraints(ctx context.Context, projectID int64, params shared.ListParams) ([]Constraint, error)
	UpdateConstraint(ctx context.Context, c *Constraint) (*Constraint, error)
	ResolveConstraint(ctx context.Context, id int64, notes string, at time.Time) (*Constraint, error)

	CreateDecision(ctx context.Context, d *Decision) (*Decision, error)
	ListDecisions(ctx context.Context, projectID int64, params shared.ListParams) ([]Decision, error)
}

// Service handles the field record rules.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// CreatePunch stores a new punch item.
func (s *Service) CreatePunch(ctx context.Context, p *PunchItem) (*PunchItem, error) {
	if p.Description == "" {
		return nil, fmt.Errorf("%w: description is required", httpx.ErrValidation)
	}
	if p.Status == "" {
		p.Status = PunchOpen
	}
	if !p.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, p.Status)
	}
	return s.repo.CreatePunch(ctx, p)
}

// GetPunch fetches a punch item.
func (s *Service) GetPunch(ctx context.Context, id int64) (*PunchItem, error) {
	return s.repo.FindPunch(ctx, id)
}

// ListPunch returns a project's punch items.
func (s *Service) ListPunch(ctx context.Context, projectID int64, params shared.ListParams) ([]PunchItem, error) {
	return s.repo.ListPunch(ctx, projectID, params)
}

// UpdatePunch applies edits. Verified items are frozen.
func (s *Service) UpdatePunch(ctx context.Context, p *PunchItem) (*PunchItem, error) {
	stored, err := s.repo.FindPunch(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if stored.Status == PunchVerified {
		return nil, fmt.Errorf("%w: verified punch items cannot be edited", httpx.ErrValidation)
	}
	if !p.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, p.Status)
	}
	return s.repo.UpdatePunch(ctx, p)
}

// VerifyPunch closes out a completed punch item.
func (s *Service) VerifyPunch(ctx context.Context, actor authz.Identity, id int64) (*PunchItem, error) {
	stored, err := s.repo.FindPunch(ctx, id)
	if err != nil {
		return nil, err
	}
	if stored.Status == PunchVerified {
		return stored, nil
	}
	if stored.Status != PunchCompleted {
		return nil, fmt.Errorf("%w: only completed punch items can be verified", httpx.ErrValidation)
	}
	return s.repo.VerifyPunch(ctx, id, actor.UserID, time.Now().UTC())
}

// CreateDelivery stores a new expected delivery.
func (s *Service) CreateDelivery(ctx context.Context, d *Delivery) (*Delivery, error) {
	return s.repo.CreateDelivery(ctx, d)
}

// GetDelivery fetches a delivery.
func (s *Service) GetDelivery(ctx context.Context, id int64) (*Delivery, error) {
	return s.repo.FindDelivery(ctx, id)
}

// ListDeliveries returns a project's deliveries.
func (s *Service) ListDeliveries(ctx context.Context, projectID int64, params shared.ListParams) ([]Delivery, error) {
	return s.repo.ListDeliveries(ctx, projectID, params)
}

// UpdateDelivery applies edits to a delivery that has not been received.
func (s *Service) UpdateDelivery(ctx context.Context, d *Delivery) (*Delivery, error) {
	stored, err := s.repo.FindDelivery(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	if stored.ActualDate != nil {
		return nil, fmt.Errorf("%w: received deliveries cannot be edited", httpx.ErrValidation)
	}
	return s.repo.UpdateDelivery(ctx, d)
}

// ConfirmDelivery records receipt, with any damage or shortage noted.
func (s *Service) ConfirmDelivery(ctx context.Context, actor authz.Identity, id int64, hasDamage, hasShortage bool, issueNotes string) (*Delivery, error) {
	stored, err := s.repo.FindDelivery(ctx, id)
	if err != nil {
		return nil, err
	}
	if stored.ActualDate != nil {
		return stored, nil
	}
	return s.repo.ConfirmDelivery(ctx, id, actor.UserID, time.Now().UTC(), hasDamage, hasShortage, issueNotes)
}

// CreateConstraint stores a new constraint.
func (s *Service) CreateConstraint(ctx context.Context, c *Constraint) (*Constraint, error) {
	if c.Description == "" {
		return nil, fmt.Errorf("%w: description is required", httpx.ErrValidation)
	}
	return s.repo.CreateConstraint(ctx, c)
}

// GetConstraint fetches a constraint.
func (s *Service) GetConstraint(ctx context.Context, id int64) (*Constraint, error) {
	return s.repo.FindConstraint(ctx, id)
}

// ListConstraints returns a project's constraints.
func (s *Service) ListConstraints(ctx context.Context, projectID int64, params shared.ListParams) ([]Constraint, error) {
	return s.repo.ListConstraints(ctx, projectID, params)
}

// UpdateConstraint applies edits to an unresolved constraint.
func (s *Service) UpdateConstraint(ctx context.Context, c *Constraint) (*Constraint, error) {
	stored, err := s.repo.FindConstraint(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if stored.IsResolved {
		return nil, fmt.Errorf("%w: resolved constraints cannot be edited", httpx.ErrValidation)
	}
	return s.repo.UpdateConstraint(ctx, c)
}

// ResolveConstraint stamps the resolution.
func (s *Service) ResolveConstraint(ctx context.Context, id int64, notes string) (*Constraint, error) {
	stored, err := s.repo.FindConstraint(ctx, id)
	if err != nil {
		return nil, err
	}
	if stored.IsResolved {
		return stored, nil
	}
	return s.repo.ResolveConstraint(ctx, id, notes, time.Now().UTC())
}

// CreateDecision appends to the decision log on behalf of actor.
func (s *Service) CreateDecision(ctx context.Context, actor authz.Identity, d *Decision) (*Decision, error) {
	if d.Decision == "" || d.ApprovedBy == "" {
		return nil, fmt.Errorf("%w: decision and approved_by are required", httpx.ErrValidation)
	}
	if d.DecisionDate.IsZero() {
		d.DecisionDate = time.Now().UTC()
	}
	d.ApprovedByID = actor.UserID
	return s.repo.CreateDecision(ctx, d)
}

// ListDecisions returns a project's decision log.
func (s *Service) ListDecisions(ctx context.Context, projectID int64, params shared.ListParams) ([]Decision, error) {
	return s.repo.ListDecisions(ctx, projectID, params)
}
