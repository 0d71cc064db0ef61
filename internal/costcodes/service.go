package costcodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/sitebridge/sitebridge/internal/platform/httpx"
	"github.com/sitebridge/sitebridge/internal/shared"
)

// RepositoryPort defines data access methods for cost codes.
type RepositoryPort interface {
	Create(ctx context.Context, c *CostCode) (*CostCode, error)
	FindByID(ctx context.Context, id int64) (*CostCode, error)
	ListByProject(ctx context.Context, projectID int64, includeInactive bool, params shared.ListParams) ([]CostCode, error)
	Update(ctx context.Context, c *CostCode) (*CostCode, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

// Service handles cost code rules.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Create stores a new cost code for a project.
func (s *Service) Create(ctx context.Context, c *CostCode) (*CostCode, error) {
	if err := validate(c); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, c)
}

// Get fetches one cost code.
func (s *Service) Get(ctx context.Context, id int64) (*CostCode, error) {
	return s.repo.FindByID(ctx, id)
}

// ListByProject returns the project's cost codes.
func (s *Service) ListByProject(ctx context.Context, projectID int64, includeInactive bool, params shared.ListParams) ([]CostCode, error) {
	return s.repo.ListByProject(ctx, projectID, includeInactive, params)
}

// Update applies edits to code, description and budgets.
func (s *Service) Update(ctx context.Context, c *CostCode) (*CostCode, error) {
	if err := validate(c); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, c)
}

// Deactivate retires the code so new timecards cannot book against it.
// The row stays for historical reporting.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.SetActive(ctx, id, false)
}

func validate(c *CostCode) error {
	if strings.TrimSpace(c.Code) == "" || strings.TrimSpace(c.Description) == "" {
		return fmt.Errorf("%w: code and description are required", httpx.ErrValidation)
	}
	if c.BudgetedHours < 0 || c.BudgetedAmount < 0 {
		return fmt.Errorf("%w: budgets cannot be negative", httpx.ErrValidation)
	}
	return nil
}
