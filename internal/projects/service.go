package projects

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sitebridge/sitebridge/internal/authz"
	"github.com/sitebridge/sitebridge/internal/platform/httpx"
	"github.com/sitebridge/sitebridge/internal/shared"
)

// RepositoryPort defines data access methods for projects.
type RepositoryPort interface {
	Create(ctx context.Context, p *Project) (*Project, error)
	FindByID(ctx context.Context, id int64) (*Project, error)
	List(ctx context.Context, ids []int64, params shared.ListParams) ([]Project, error)
	ListAll(ctx context.Context, params shared.ListParams) ([]Project, error)
	Update(ctx context.Context, p *Project) (*Project, error)
	Delete(ctx context.Context, id int64) error
	AddMember(ctx context.Context, projectID, userID int64) error
	RemoveMember(ctx context.Context, projectID, userID int64) error
	ListMembers(ctx context.Context, projectID int64) ([]Member, error)
}

// Service handles project business logic. Listing is scoped through the
// access resolver so each caller only sees their own projects; membership
// changes invalidate the resolver's cache.
type Service struct {
	repo     RepositoryPort
	resolver *authz.Resolver
	audit    *shared.AuditLogger
}

// NewService builds a Service instance. The audit logger is optional.
func NewService(repo RepositoryPort, resolver *authz.Resolver, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, resolver: resolver, audit: audit}
}

// Create stores a new project. The creator becomes a team member.
func (s *Service) Create(ctx context.Context, actor authz.Identity, p *Project) (*Project, error) {
	if p.Status == "" {
		p.Status = StatusPlanning
	}
	if !p.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, p.Status)
	}
	p.CreatedBy = actor.UserID
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	s.resolver.Invalidate(ctx, created.ID, actor.UserID)
	s.record(ctx, actor, "project.create", created.ID, created.ID)
	return created, nil
}

// Get fetches a project by id.
func (s *Service) Get(ctx context.Context, id int64) (*Project, error) {
	return s.repo.FindByID(ctx, id)
}

// ListFor returns the projects visible to the caller.
func (s *Service) ListFor(ctx context.Context, ident authz.Identity, params shared.ListParams) ([]Project, error) {
	if authz.IsAdmin(ident.Role) {
		return s.repo.ListAll(ctx, params)
	}
	ids, err := s.resolver.ProjectIDsFor(ctx, ident.UserID, ident.Role)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return s.repo.List(ctx, ids, params)
}

// Update applies changes to a project.
func (s *Service) Update(ctx context.Context, actor authz.Identity, p *Project) (*Project, error) {
	if !p.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, p.Status)
	}
	updated, err := s.repo.Update(ctx, p)
	if err != nil {
		return nil, err
	}
	s.record(ctx, actor, "project.update", updated.ID, updated.ID)
	return updated, nil
}

// Delete closes a project rather than removing the row.
func (s *Service) Delete(ctx context.Context, actor authz.Identity, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actor, "project.delete", id, id)
	return nil
}

// AddMember puts a user on the project team and drops any stale cached
// membership verdict.
func (s *Service) AddMember(ctx context.Context, actor authz.Identity, projectID, userID int64) error {
	if err := s.repo.AddMember(ctx, projectID, userID); err != nil {
		return err
	}
	s.resolver.Invalidate(ctx, projectID, userID)
	s.record(ctx, actor, "project.member.add", userID, projectID)
	return nil
}

// RemoveMember takes a user off the project team.
func (s *Service) RemoveMember(ctx context.Context, actor authz.Identity, projectID, userID int64) error {
	if err := s.repo.RemoveMember(ctx, projectID, userID); err != nil {
		return err
	}
	s.resolver.Invalidate(ctx, projectID, userID)
	s.record(ctx, actor, "project.member.remove", userID, projectID)
	return nil
}

// Members lists the project team.
func (s *Service) Members(ctx context.Context, projectID int64) ([]Member, error) {
	return s.repo.ListMembers(ctx, projectID)
}

func (s *Service) record(ctx context.Context, actor authz.Identity, action string, entityID, projectID int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:   actor.UserID,
		Action:    action,
		Entity:    "project",
		EntityID:  strconv.FormatInt(entityID, 10),
		ProjectID: projectID,
	})
}
