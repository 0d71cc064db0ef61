package servicecalls

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sitebridge/sitebridge/internal/platform/httpx"
	"github.com/sitebridge/sitebridge/internal/shared"
)

// RepositoryPort defines data access methods for service calls.
type RepositoryPort interface {
	Create(ctx context.Context, c *ServiceCall) (*ServiceCall, error)
	FindByID(ctx context.Context, id int64) (*ServiceCall, error)
	List(ctx context.Context, filter Filter, params shared.ListParams) ([]ServiceCall, error)
	Update(ctx context.Context, c *ServiceCall) (*ServiceCall, error)
}

// Service handles dispatch rules.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Create stores a new call at the back of the dispatch queue.
func (s *Service) Create(ctx context.Context, c *ServiceCall) (*ServiceCall, error) {
	if strings.TrimSpace(c.IssueDescription) == "" {
		return nil, fmt.Errorf("%w: issue description is required", httpx.ErrValidation)
	}
	if c.Priority == "" {
		c.Priority = PriorityMedium
	}
	if !c.Priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", httpx.ErrValidation, c.Priority)
	}
	c.IsCompleted = false
	c.CompletedAt = nil
	return s.repo.Create(ctx, c)
}

// Get fetches one call.
func (s *Service) Get(ctx context.Context, id int64) (*ServiceCall, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns calls matching the filter.
func (s *Service) List(ctx context.Context, filter Filter, params shared.ListParams) ([]ServiceCall, error) {
	return s.repo.List(ctx, filter, params)
}

// Update applies edits. The call number and completion stamp never change
// through this path.
func (s *Service) Update(ctx context.Context, c *ServiceCall) (*ServiceCall, error) {
	stored, err := s.repo.FindByID(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(c.IssueDescription) == "" {
		c.IssueDescription = stored.IssueDescription
	}
	if c.Priority == "" {
		c.Priority = stored.Priority
	}
	if !c.Priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", httpx.ErrValidation, c.Priority)
	}
	c.IsCompleted = stored.IsCompleted
	c.CompletedAt = stored.CompletedAt
	if c.ResolutionNotes == "" {
		c.ResolutionNotes = stored.ResolutionNotes
	}
	return s.repo.Update(ctx, c)
}

// Complete closes the call and stamps the completion time once.
func (s *Service) Complete(ctx context.Context, id int64, resolutionNotes string) (*ServiceCall, error) {
	stored, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if stored.IsCompleted {
		return nil, fmt.Errorf("%w: call is already completed", httpx.ErrValidation)
	}
	now := time.Now().UTC()
	stored.IsCompleted = true
	stored.CompletedAt = &now
	if resolutionNotes != "" {
		stored.ResolutionNotes = resolutionNotes
	}
	return s.repo.Update(ctx, stored)
}
