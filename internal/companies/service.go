package companies

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/sitebridge/sitebridge/internal/authz"
	"github.com/sitebridge/sitebridge/internal/platform/httpx"
	"github.com/sitebridge/sitebridge/internal/shared"
)

// RepositoryPort defines data access methods for companies.
type RepositoryPort interface {
	Create(ctx context.Context, c *Company) (*Company, error)
	FindByInviteCode(ctx context.Context, inviteCode string) (*Company, error)
	FindForUser(ctx context.Context, userID int64) (*Company, error)
	MemberCount(ctx context.Context, companyID int64) (int, error)
	AddMember(ctx context.Context, companyID, userID int64) error
	Members(ctx context.Context, companyID int64, params shared.ListParams) ([]Member, error)
}

// Service handles company lifecycle and roster rules.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Create stores a new company with the caller as owner and first member.
func (s *Service) Create(ctx context.Context, actor authz.Identity, c *Company) (*Company, error) {
	if strings.TrimSpace(c.Name) == "" {
		return nil, fmt.Errorf("%w: company name is required", httpx.ErrValidation)
	}
	c.Code = companyCode(c.Name)
	c.InviteCode = uuid.NewString()
	c.OwnerID = actor.UserID
	if c.MaxUsers <= 0 {
		c.MaxUsers = defaultMaxUsers
	}
	return s.repo.Create(ctx, c)
}

// My returns the caller's company and its current member count.
func (s *Service) My(ctx context.Context, actor authz.Identity) (*Company, int, error) {
	c, err := s.repo.FindForUser(ctx, actor.UserID)
	if err != nil {
		return nil, 0, err
	}
	count, err := s.repo.MemberCount(ctx, c.ID)
	if err != nil {
		return nil, 0, err
	}
	return c, count, nil
}

// Join adds the caller to the company behind the invite code.
func (s *Service) Join(ctx context.Context, actor authz.Identity, inviteCode string) (*Company, error) {
	c, err := s.repo.FindByInviteCode(ctx, inviteCode)
	if err != nil {
		return nil, err
	}
	if current, err := s.repo.FindForUser(ctx, actor.UserID); err == nil && current.ID == c.ID {
		return nil, fmt.Errorf("%w: already a member of this company", httpx.ErrValidation)
	} else if err != nil && !errors.Is(err, httpx.ErrNotFound) {
		return nil, err
	}
	count, err := s.repo.MemberCount(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if count >= c.MaxUsers {
		return nil, fmt.Errorf("%w: company has reached its user limit", httpx.ErrValidation)
	}
	if err := s.repo.AddMember(ctx, c.ID, actor.UserID); err != nil {
		return nil, err
	}
	return c, nil
}

// Members lists the roster of the caller's company.
func (s *Service) Members(ctx context.Context, actor authz.Identity, params shared.ListParams) ([]Member, error) {
	c, err := s.repo.FindForUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return s.repo.Members(ctx, c.ID, params)
}

// Invite returns the invite code for the caller's company. Only the owner
// or an admin may hand it out, and never past the seat cap.
func (s *Service) Invite(ctx context.Context, actor authz.Identity) (*Company, error) {
	c, err := s.repo.FindForUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if c.OwnerID != actor.UserID && !authz.IsAdmin(actor.Role) {
		return nil, fmt.Errorf("%w: only the company owner or an admin can invite members", httpx.ErrForbidden)
	}
	count, err := s.repo.MemberCount(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if count >= c.MaxUsers {
		return nil, fmt.Errorf("%w: company has reached its user limit", httpx.ErrValidation)
	}
	return c, nil
}

// companyCode derives a short human-readable code: up to three letters from
// the name plus a random suffix.
func companyCode(name string) string {
	prefix := make([]rune, 0, 3)
	for _, r := range strings.ToUpper(name) {
		if r >= 'A' && r <= 'Z' {
			prefix = append(prefix, r)
			if len(prefix) == 3 {
				break
			}
		}
	}
	if len(prefix) == 0 {
		prefix = []rune("CO")
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:4]
	return string(prefix) + suffix
}
