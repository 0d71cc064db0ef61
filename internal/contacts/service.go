package contacts

import (
	"context"
	"fmt"
	"time"

	"github.com/sitebridge/sitebridge/internal/platform/httpx"
	"github.com/sitebridge/sitebridge/internal/shared"
)

// RepositoryPort defines data access methods for contacts.
type RepositoryPort interface {
	Create(ctx context.Context, c *Contact) (*Contact, error)
	FindByID(ctx context.Context, id int64) (*Contact, error)
	List(ctx context.Context, contactType Type, params shared.ListParams) ([]Contact, error)
	Update(ctx context.Context, c *Contact) (*Contact, error)
	MarkUsed(ctx context.Context, id int64, at time.Time) error
	Delete(ctx context.Context, id int64) error
}

// Service handles the contact directory rules.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Create stores a new directory entry. A contact needs at least a
// company or a person name to be findable later.
func (s *Service) Create(ctx context.Context, c *Contact) (*Contact, error) {
	if !c.ContactType.Valid() {
		return nil, fmt.Errorf("%w: unknown contact type %q", httpx.ErrValidation, c.ContactType)
	}
	if c.CompanyName == "" && c.FirstName == "" && c.LastName == "" {
		return nil, fmt.Errorf("%w: a company or person name is required", httpx.ErrValidation)
	}
	return s.repo.Create(ctx, c)
}

// Get fetches one contact.
func (s *Service) Get(ctx context.Context, id int64) (*Contact, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns contacts, optionally filtered by type.
func (s *Service) List(ctx context.Context, contactType Type, params shared.ListParams) ([]Contact, error) {
	if contactType != "" && !contactType.Valid() {
		return nil, fmt.Errorf("%w: unknown contact type %q", httpx.ErrValidation, contactType)
	}
	return s.repo.List(ctx, contactType, params)
}

// Update applies edits.
func (s *Service) Update(ctx context.Context, c *Contact) (*Contact, error) {
	if !c.ContactType.Valid() {
		return nil, fmt.Errorf("%w: unknown contact type %q", httpx.ErrValidation, c.ContactType)
	}
	if _, err := s.repo.FindByID(ctx, c.ID); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, c)
}

// MarkUsed bumps the contact to the top of recently-used ordering.
func (s *Service) MarkUsed(ctx context.Context, id int64) error {
	return s.repo.MarkUsed(ctx, id, time.Now().UTC())
}

// Delete removes a contact from the directory.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
