package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/sitebridge/sitebridge/internal/authz"
	"github.com/sitebridge/sitebridge/internal/platform/httpx"
	"github.com/sitebridge/sitebridge/internal/shared"
)

// RepositoryPort defines data access methods for tasks.
type RepositoryPort interface {
	Create(ctx context.Context, t *Task) (*Task, error)
	FindByID(ctx context.Context, id int64) (*Task, error)
	ListByProject(ctx context.Context, projectID int64, filter Filter, params shared.ListParams) ([]Task, error)
	ListByAssignee(ctx context.Context, assigneeID int64, params shared.ListParams) ([]Task, error)
	Update(ctx context.Context, t *Task) (*Task, error)
	MarkAcknowledged(ctx context.Context, id int64, at time.Time) (*Task, error)
	MarkCompleted(ctx context.Context, id int64, at time.Time) (*Task, error)
	Delete(ctx context.Context, id int64) error
}

// Service handles task business rules. Acknowledgement belongs to the
// assignee alone; completion is allowed for the assignee or manager-level
// roles; general edits require manager level or authorship.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Create stores a new task.
func (s *Service) Create(ctx context.Context, actor authz.Identity, t *Task) (*Task, error) {
	if t.Status == "" {
		t.Status = StatusPending
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if !t.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, t.Status)
	}
	if !t.Priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", httpx.ErrValidation, t.Priority)
	}
	if t.AssigneeID == 0 {
		return nil, fmt.Errorf("%w: assignee is required", httpx.ErrValidation)
	}
	t.CreatedByID = actor.UserID
	return s.repo.Create(ctx, t)
}

// Get fetches a task.
func (s *Service) Get(ctx context.Context, id int64) (*Task, error) {
	return s.repo.FindByID(ctx, id)
}

// ListByProject returns the tasks of a project, optionally filtered.
func (s *Service) ListByProject(ctx context.Context, projectID int64, filter Filter, params shared.ListParams) ([]Task, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, filter.Status)
	}
	if filter.Priority != "" && !filter.Priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", httpx.ErrValidation, filter.Priority)
	}
	return s.repo.ListByProject(ctx, projectID, filter, params)
}

// ListMine returns the caller's assigned tasks.
func (s *Service) ListMine(ctx context.Context, ident authz.Identity, params shared.ListParams) ([]Task, error) {
	return s.repo.ListByAssignee(ctx, ident.UserID, params)
}

// Update applies edits on behalf of actor. Only manager-level roles and
// the task's creator may edit.
func (s *Service) Update(ctx context.Context, actor authz.Identity, t *Task) (*Task, error) {
	stored, err := s.repo.FindByID(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	if !authz.IsManagerLevel(actor.Role) && stored.CreatedByID != actor.UserID {
		return nil, fmt.Errorf("%w: only the creator or a manager can edit this task", httpx.ErrForbidden)
	}
	if !t.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, t.Status)
	}
	if !t.Priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", httpx.ErrValidation, t.Priority)
	}
	updated, err := s.repo.Update(ctx, t)
	if err != nil {
		return nil, err
	}
	// Editing a task straight to completed still gets a completion stamp.
	if updated.Status == StatusCompleted && updated.CompletedAt == nil {
		return s.repo.MarkCompleted(ctx, updated.ID, time.Now().UTC())
	}
	return updated, nil
}

// Acknowledge records that the assignee has seen the task.
func (s *Service) Acknowledge(ctx context.Context, actor authz.Identity, id int64) (*Task, error) {
	stored, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if stored.AssigneeID != actor.UserID {
		return nil, fmt.Errorf("%w: only the assignee can acknowledge a task", httpx.ErrForbidden)
	}
	if stored.AcknowledgedAt != nil {
		return stored, nil
	}
	return s.repo.MarkAcknowledged(ctx, id, time.Now().UTC())
}

// Complete marks the task done. Allowed for the assignee or a
// manager-level role.
func (s *Service) Complete(ctx context.Context, actor authz.Identity, id int64) (*Task, error) {
	stored, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if stored.AssigneeID != actor.UserID && !authz.IsManagerLevel(actor.Role) {
		return nil, fmt.Errorf("%w: only the assignee or a manager can complete a task", httpx.ErrForbidden)
	}
	if stored.CompletedAt != nil {
		return stored, nil
	}
	return s.repo.MarkCompleted(ctx, id, time.Now().UTC())
}

// Delete removes a task. Only manager-level roles and the creator may
// delete.
func (s *Service) Delete(ctx context.Context, actor authz.Identity, id int64) error {
	stored, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !authz.IsManagerLevel(actor.Role) && stored.CreatedByID != actor.UserID {
		return fmt.Errorf("%w: only the creator or a manager can delete this task", httpx.ErrForbidden)
	}
	return s.repo.Delete(ctx, id)
}
