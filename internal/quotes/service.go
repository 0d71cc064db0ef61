package quotes

import (
	"context"
	"fmt"
	"time"

	"github.com/sitebridge/sitebridge/internal/authz"
	"github.com/sitebridge/sitebridge/internal/platform/httpx"
	"github.com/sitebridge/sitebridge/internal/projects"
	"github.com/sitebridge/sitebridge/internal/shared"
)

// RepositoryPort defines data access methods for quote requests.
type RepositoryPort interface {
	Create(ctx context.Context, q *QuoteRequest) (*QuoteRequest, error)
	FindByID(ctx context.Context, id int64) (*QuoteRequest, error)
	List(ctx context.Context, filter Filter, params shared.ListParams) ([]QuoteRequest, error)
	Update(ctx context.Context, q *QuoteRequest) (*QuoteRequest, error)
	Assign(ctx context.Context, id, assigneeID int64, status Status) (*QuoteRequest, error)
	MarkConverted(ctx context.Context, id, projectID int64, at time.Time) (*QuoteRequest, error)
	Stats(ctx context.Context) (QueueStats, error)
}

// ProjectCreator opens a project from an accepted quote.
type ProjectCreator interface {
	Create(ctx context.Context, actor authz.Identity, p *projects.Project) (*projects.Project, error)
}

// Service handles quote intake and review rules.
type Service struct {
	repo     RepositoryPort
	projects ProjectCreator
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, projectSvc ProjectCreator) *Service {
	return &Service{repo: repo, projects: projectSvc}
}

// Create stores a field-submitted quote request. New requests always
// enter the queue as pending.
func (s *Service) Create(ctx context.Context, actor authz.Identity, q *QuoteRequest) (*QuoteRequest, error) {
	if q.Title == "" || q.Description == "" {
		return nil, fmt.Errorf("%w: title and description are required", httpx.ErrValidation)
	}
	if q.Urgency == "" {
		q.Urgency = "standard"
	}
	q.Status = StatusPending
	q.SubmittedByID = actor.UserID
	return s.repo.Create(ctx, q)
}

// Get fetches one quote request.
func (s *Service) Get(ctx context.Context, id int64) (*QuoteRequest, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns quote requests matching the filter.
func (s *Service) List(ctx context.Context, filter Filter, params shared.ListParams) ([]QuoteRequest, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, filter.Status)
	}
	return s.repo.List(ctx, filter, params)
}

// Review applies reviewer edits. Moving a quote to quoted with a priced
// amount stamps quoted_at.
func (s *Service) Review(ctx context.Context, q *QuoteRequest) (*QuoteRequest, error) {
	stored, err := s.repo.FindByID(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	if stored.ConvertedProjectID != 0 {
		return nil, fmt.Errorf("%w: converted quotes cannot be edited", httpx.ErrValidation)
	}
	if q.Status == "" {
		q.Status = stored.Status
	}
	if !q.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, q.Status)
	}
	if q.QuotedAmount < 0 {
		return nil, fmt.Errorf("%w: quoted amount cannot be negative", httpx.ErrValidation)
	}
	q.QuotedAt = stored.QuotedAt
	if q.Status == StatusQuoted && q.QuotedAmount > 0 && stored.QuotedAt == nil {
		now := time.Now().UTC()
		q.QuotedAt = &now
	}
	if q.AssignedToID == 0 {
		q.AssignedToID = stored.AssignedToID
	}
	return s.repo.Update(ctx, q)
}

// Assign routes the quote to a reviewer. Pending quotes move to
// in_review on assignment.
func (s *Service) Assign(ctx context.Context, id, assigneeID int64) (*QuoteRequest, error) {
	if assigneeID == 0 {
		return nil, fmt.Errorf("%w: assignee is required", httpx.ErrValidation)
	}
	stored, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	status := stored.Status
	if status == StatusPending {
		status = StatusInReview
	}
	return s.repo.Assign(ctx, id, assigneeID, status)
}

// Convert opens a planning project from the quote and marks the quote
// accepted. Converting twice returns the already converted record.
func (s *Service) Convert(ctx context.Context, actor authz.Identity, id int64) (*QuoteRequest, error) {
	stored, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if stored.ConvertedProjectID != 0 {
		return stored, nil
	}
	now := time.Now().UTC()
	project, err := s.projects.Create(ctx, actor, &projects.Project{
		Name:          stored.Title,
		Number:        fmt.Sprintf("Q%d-%s", stored.ID, now.Format("20060102")),
		Description:   stored.Description,
		Status:        projects.StatusPlanning,
		Address:       stored.Address,
		City:          stored.City,
		State:         stored.State,
		ClientName:    stored.CustomerName,
		ContractValue: stored.QuotedAmount,
	})
	if err != nil {
		return nil, err
	}
	return s.repo.MarkConverted(ctx, id, project.ID, now)
}

// QueueStats summarizes quotes awaiting review.
func (s *Service) QueueStats(ctx context.Context) (QueueStats, error) {
	return s.repo.Stats(ctx)
}
