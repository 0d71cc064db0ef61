package users

import (
	"context"
	"fmt"

	"github.com/sitebridge/sitebridge/internal/auth"
	"github.com/sitebridge/sitebridge/internal/authz"
	"github.com/sitebridge/sitebridge/internal/platform/httpx"
	"github.com/sitebridge/sitebridge/internal/shared"
)

// RepositoryPort defines data access methods for account management.
type RepositoryPort interface {
	List(ctx context.Context, params shared.ListParams) ([]auth.User, error)
	FindByID(ctx context.Context, id int64) (*auth.User, error)
	UpdateRole(ctx context.Context, id int64, role authz.Role) (*auth.User, error)
	SetActive(ctx context.Context, id int64, active bool) (*auth.User, error)
}

// Service handles account management rules. Role assignment and
// deactivation are bounded by the role hierarchy: a manager can only act
// on accounts of strictly lower rank, and cannot hand out a role they
// could not manage themselves.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns a page of accounts.
func (s *Service) List(ctx context.Context, params shared.ListParams) ([]auth.User, error) {
	return s.repo.List(ctx, params)
}

// Get fetches a single account.
func (s *Service) Get(ctx context.Context, id int64) (*auth.User, error) {
	return s.repo.FindByID(ctx, id)
}

// AssignRole changes the role on a target account on behalf of actor.
func (s *Service) AssignRole(ctx context.Context, actor authz.Identity, targetID int64, role authz.Role) (*auth.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", httpx.ErrValidation, role)
	}
	target, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if !authz.CanManageUser(actor.Role, target.Role) {
		return nil, fmt.Errorf("%w: role %s cannot manage role %s", httpx.ErrForbidden, actor.Role, target.Role)
	}
	if !authz.CanManageUser(actor.Role, role) {
		return nil, fmt.Errorf("%w: role %s cannot assign role %s", httpx.ErrForbidden, actor.Role, role)
	}
	return s.repo.UpdateRole(ctx, targetID, role)
}

// SetActive activates or deactivates a target account on behalf of actor.
func (s *Service) SetActive(ctx context.Context, actor authz.Identity, targetID int64, active bool) (*auth.User, error) {
	if actor.UserID == targetID {
		return nil, fmt.Errorf("%w: cannot change own account status", httpx.ErrValidation)
	}
	target, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if !authz.CanManageUser(actor.Role, target.Role) {
		return nil, fmt.Errorf("%w: role %s cannot manage role %s", httpx.ErrForbidden, actor.Role, target.Role)
	}
	return s.repo.SetActive(ctx, targetID, active)
}
