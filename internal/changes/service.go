package changes

import (
	"context"
	"fmt"
	"time"

	"github.com/sitebridge/sitebridge/internal/authz"
	"github.com/sitebridge/sitebridge/internal/platform/httpx"
	"github.com/sitebridge/sitebridge/internal/shared"
)

// RepositoryPort defines data access methods for change orders.
type RepositoryPort interface {
	Create(ctx context.Context, c *ChangeOrder) (*ChangeOrder, error)
	FindByID(ctx context.Context, id int64) (*ChangeOrder, error)
	ListByProject(ctx context.Context, projectID int64, params shared.ListParams) ([]ChangeOrder, error)
	Update(ctx context.Context, c *ChangeOrder) (*ChangeOrder, error)
	RecordPricing(ctx context.Context, id int64, amount float64, impactDays int, impactStatement string, pricedByID int64) (*ChangeOrder, error)
	RecordApproval(ctx context.Context, id int64, amount float64, at time.Time) (*ChangeOrder, error)
	Delete(ctx context.Context, id int64) error
}

// Service handles change order workflow rules: the field records the
// change, pricing comes from the office, approval closes the loop.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Create stores a new change order raised by the actor.
func (s *Service) Create(ctx context.Context, actor authz.Identity, c *ChangeOrder) (*ChangeOrder, error) {
	if c.Status == "" {
		c.Status = StatusPotential
	}
	if !c.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, c.Status)
	}
	if c.WhatChanged == "" || c.WhyChanged == "" {
		return nil, fmt.Errorf("%w: what changed and why changed are required", httpx.ErrValidation)
	}
	c.SubmittedByID = actor.UserID
	return s.repo.Create(ctx, c)
}

// Get fetches a change order.
func (s *Service) Get(ctx context.Context, id int64) (*ChangeOrder, error) {
	return s.repo.FindByID(ctx, id)
}

// ListByProject returns a project's change orders.
func (s *Service) ListByProject(ctx context.Context, projectID int64, params shared.ListParams) ([]ChangeOrder, error) {
	return s.repo.ListByProject(ctx, projectID, params)
}

// Update applies edits. Approved change orders are immutable.
func (s *Service) Update(ctx context.Context, c *ChangeOrder) (*ChangeOrder, error) {
	stored, err := s.repo.FindByID(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if stored.Status == StatusApproved {
		return nil, fmt.Errorf("%w: approved change orders cannot be edited", httpx.ErrValidation)
	}
	if !c.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, c.Status)
	}
	return s.repo.Update(ctx, c)
}

// Price records the office pricing.
func (s *Service) Price(ctx context.Context, actor authz.Identity, id int64, amount float64, impactDays int, impactStatement string) (*ChangeOrder, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: priced amount must be positive", httpx.ErrValidation)
	}
	stored, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if stored.Status == StatusApproved {
		return nil, fmt.Errorf("%w: approved change orders cannot be repriced", httpx.ErrValidation)
	}
	return s.repo.RecordPricing(ctx, id, amount, impactDays, impactStatement, actor.UserID)
}

// Approve stamps the approval. A zero amount approves at the priced
// amount.
func (s *Service) Approve(ctx context.Context, id int64, amount float64) (*ChangeOrder, error) {
	stored, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if stored.Status == StatusApproved {
		return stored, nil
	}
	if stored.PricedAmount == 0 {
		return nil, fmt.Errorf("%w: change order must be priced before approval", httpx.ErrValidation)
	}
	if amount == 0 {
		amount = stored.PricedAmount
	}
	return s.repo.RecordApproval(ctx, id, amount, time.Now().UTC())
}

// Delete removes a change order. Approved orders are kept.
func (s *Service) Delete(ctx context.Context, id int64) error {
	stored, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if stored.Status == StatusApproved {
		return fmt.Errorf("%w: approved change orders cannot be deleted", httpx.ErrValidation)
	}
	return s.repo.Delete(ctx, id)
}
