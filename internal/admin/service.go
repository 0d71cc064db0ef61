package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/sitebridge/sitebridge/internal/authz"
	"github.com/sitebridge/sitebridge/internal/feedback"
	"github.com/sitebridge/sitebridge/internal/platform/httpx"
	"github.com/sitebridge/sitebridge/internal/shared"
)

// RepositoryPort defines cross-table reads for the operator surface.
type RepositoryPort interface {
	DashboardStats(ctx context.Context, dayStart, weekStart time.Time) (*DashboardStats, error)
	ListUsers(ctx context.Context, params shared.ListParams) ([]UserOverview, error)
	ListCompanies(ctx context.Context, params shared.ListParams) ([]CompanyOverview, error)
	DeleteUser(ctx context.Context, id int64) error
	ListAuditLogs(ctx context.Context, filter AuditFilter, params shared.ListParams) ([]AuditEntry, error)
}

// FeedbackReviewer is the slice of the feedback service the operator
// surface needs for triage.
type FeedbackReviewer interface {
	ListAll(ctx context.Context, filter feedback.Filter, params shared.ListParams) ([]feedback.Feedback, error)
	Respond(ctx context.Context, id int64, status feedback.Status, devNotes, devResponse string) (*feedback.Feedback, error)
}

// Service implements operator-only operations.
type Service struct {
	repo     RepositoryPort
	reviewer FeedbackReviewer
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, reviewer FeedbackReviewer) *Service {
	return &Service{repo: repo, reviewer: reviewer}
}

// Dashboard returns installation-wide counts. Activity windows start at
// midnight UTC today and seven days back.
func (s *Service) Dashboard(ctx context.Context) (*DashboardStats, error) {
	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekStart := dayStart.AddDate(0, 0, -7)
	return s.repo.DashboardStats(ctx, dayStart, weekStart)
}

// ListUsers returns every account across companies.
func (s *Service) ListUsers(ctx context.Context, params shared.ListParams) ([]UserOverview, error) {
	return s.repo.ListUsers(ctx, params)
}

// ListCompanies returns every company.
func (s *Service) ListCompanies(ctx context.Context, params shared.ListParams) ([]CompanyOverview, error) {
	return s.repo.ListCompanies(ctx, params)
}

// DeleteUser removes an account. Operators cannot remove themselves.
func (s *Service) DeleteUser(ctx context.Context, actor authz.Identity, id int64) error {
	if id == actor.UserID {
		return fmt.Errorf("%w: cannot delete your own account", httpx.ErrValidation)
	}
	return s.repo.DeleteUser(ctx, id)
}

// ListFeedback returns the triage queue across all users.
func (s *Service) ListFeedback(ctx context.Context, filter feedback.Filter, params shared.ListParams) ([]feedback.Feedback, error) {
	return s.reviewer.ListAll(ctx, filter, params)
}

// RespondFeedback moves an entry through the triage states.
func (s *Service) RespondFeedback(ctx context.Context, id int64, status feedback.Status, devNotes, devResponse string) (*feedback.Feedback, error) {
	return s.reviewer.Respond(ctx, id, status, devNotes, devResponse)
}

// ListAuditLogs returns the audit trail.
func (s *Service) ListAuditLogs(ctx context.Context, filter AuditFilter, params shared.ListParams) ([]AuditEntry, error) {
	return s.repo.ListAuditLogs(ctx, filter, params)
}
