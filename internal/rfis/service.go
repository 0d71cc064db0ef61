package rfis

import (
	"context"
	"fmt"
	"time"

	"github.com/sitebridge/sitebridge/internal/authz"
	"github.com/sitebridge/sitebridge/internal/platform/httpx"
	"github.com/sitebridge/sitebridge/internal/shared"
)

// RepositoryPort defines data access methods for RFIs.
type RepositoryPort interface {
	Create(ctx context.Context, f *RFI) (*RFI, error)
	FindByID(ctx context.Context, id int64) (*RFI, error)
	ListByProject(ctx context.Context, projectID int64, params shared.ListParams) ([]RFI, error)
	Update(ctx context.Context, f *RFI) (*RFI, error)
	RecordAnswer(ctx context.Context, id int64, answer string, answeredByID int64, at time.Time) (*RFI, error)
	Delete(ctx context.Context, id int64) error
}

// Service handles RFI workflow rules.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Create stores a new RFI raised by the actor.
func (s *Service) Create(ctx context.Context, actor authz.Identity, f *RFI) (*RFI, error) {
	if f.Status == "" {
		f.Status = StatusDraft
	}
	if !f.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, f.Status)
	}
	if f.Question == "" {
		return nil, fmt.Errorf("%w: question is required", httpx.ErrValidation)
	}
	f.SubmittedByID = actor.UserID
	return s.repo.Create(ctx, f)
}

// Get fetches an RFI.
func (s *Service) Get(ctx context.Context, id int64) (*RFI, error) {
	return s.repo.FindByID(ctx, id)
}

// ListByProject returns a project's RFIs.
func (s *Service) ListByProject(ctx context.Context, projectID int64, params shared.ListParams) ([]RFI, error) {
	return s.repo.ListByProject(ctx, projectID, params)
}

// Update applies edits. Closed RFIs are immutable.
func (s *Service) Update(ctx context.Context, f *RFI) (*RFI, error) {
	stored, err := s.repo.FindByID(ctx, f.ID)
	if err != nil {
		return nil, err
	}
	if stored.Status == StatusClosed {
		return nil, fmt.Errorf("%w: closed RFIs cannot be edited", httpx.ErrValidation)
	}
	if !f.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, f.Status)
	}
	return s.repo.Update(ctx, f)
}

// Answer records the response and stamps the answer time.
func (s *Service) Answer(ctx context.Context, actor authz.Identity, id int64, answer string) (*RFI, error) {
	if answer == "" {
		return nil, fmt.Errorf("%w: answer is required", httpx.ErrValidation)
	}
	stored, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if stored.Status == StatusClosed {
		return nil, fmt.Errorf("%w: closed RFIs cannot be answered", httpx.ErrValidation)
	}
	return s.repo.RecordAnswer(ctx, id, answer, actor.UserID, time.Now().UTC())
}

// Delete removes an RFI.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
