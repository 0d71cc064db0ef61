package feedback

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sitebridge/sitebridge/internal/authz"
	"github.com/sitebridge/sitebridge/internal/platform/httpx"
	"github.com/sitebridge/sitebridge/internal/shared"
)

// RepositoryPort defines data access methods for feedback.
type RepositoryPort interface {
	Create(ctx context.Context, f *Feedback) (*Feedback, error)
	FindByID(ctx context.Context, id int64) (*Feedback, error)
	ListByUser(ctx context.Context, userID int64, params shared.ListParams) ([]Feedback, error)
	List(ctx context.Context, filter Filter, params shared.ListParams) ([]Feedback, error)
	RecordResponse(ctx context.Context, id int64, status Status, devNotes, devResponse string, respondedAt *time.Time) (*Feedback, error)
	Delete(ctx context.Context, id int64) error
}

// Service handles feedback rules. Submitters only ever see their own
// entries; review operations are reserved for the admin surface.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Submit stores a new entry. Every submission enters the queue as
// submitted regardless of what the caller sends.
func (s *Service) Submit(ctx context.Context, actor authz.Identity, f *Feedback) (*Feedback, error) {
	if !f.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown feedback type %q", httpx.ErrValidation, f.Type)
	}
	if strings.TrimSpace(f.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", httpx.ErrValidation)
	}
	if f.Priority == "" {
		f.Priority = "medium"
	}
	f.UserID = actor.UserID
	f.CompanyID = actor.CompanyID
	f.Status = StatusSubmitted
	return s.repo.Create(ctx, f)
}

// ListMine returns the caller's entries.
func (s *Service) ListMine(ctx context.Context, actor authz.Identity, params shared.ListParams) ([]Feedback, error) {
	return s.repo.ListByUser(ctx, actor.UserID, params)
}

// GetOwn fetches one of the caller's entries. Entries belonging to other
// users read as not found.
func (s *Service) GetOwn(ctx context.Context, actor authz.Identity, id int64) (*Feedback, error) {
	f, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.UserID != actor.UserID {
		return nil, httpx.ErrNotFound
	}
	return f, nil
}

// DeleteOwn removes one of the caller's entries, but only while it is
// still waiting for review.
func (s *Service) DeleteOwn(ctx context.Context, actor authz.Identity, id int64) error {
	f, err := s.GetOwn(ctx, actor, id)
	if err != nil {
		return err
	}
	if f.Status != StatusSubmitted {
		return fmt.Errorf("%w: reviewed feedback cannot be deleted", httpx.ErrValidation)
	}
	return s.repo.Delete(ctx, id)
}

// ListAll returns entries across all users, for the admin surface.
func (s *Service) ListAll(ctx context.Context, filter Filter, params shared.ListParams) ([]Feedback, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, filter.Status)
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown feedback type %q", httpx.ErrValidation, filter.Type)
	}
	return s.repo.List(ctx, filter, params)
}

// Respond records the review outcome. A non-empty response stamps
// responded_at the first time it is given.
func (s *Service) Respond(ctx context.Context, id int64, status Status, devNotes, devResponse string) (*Feedback, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, status)
	}
	f, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var respondedAt *time.Time
	if devResponse != "" && f.RespondedAt == nil {
		now := time.Now().UTC()
		respondedAt = &now
	}
	return s.repo.RecordResponse(ctx, id, status, devNotes, devResponse, respondedAt)
}
