package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/sitebridge/sitebridge/internal/authz"
	"github.com/sitebridge/sitebridge/internal/platform/httpx"
	"github.com/sitebridge/sitebridge/internal/shared"
)

// RepositoryPort defines data access methods for daily reports.
type RepositoryPort interface {
	Create(ctx context.Context, d *DailyReport) (*DailyReport, error)
	ExistsForDate(ctx context.Context, projectID, submitterID int64, date time.Time) (bool, error)
	FindByID(ctx context.Context, id int64) (*DailyReport, error)
	ListByProject(ctx context.Context, projectID int64, params shared.ListParams) ([]DailyReport, error)
	Update(ctx context.Context, d *DailyReport) (*DailyReport, error)
	Delete(ctx context.Context, id int64) error
}

// Service handles daily report rules. A submitter files at most one
// report per project and date; edits belong to holders of the update
// permission or the submitter.
type Service struct {
	table *authz.Table
	repo  RepositoryPort
}

// NewService builds a Service instance.
func NewService(table *authz.Table, repo RepositoryPort) *Service {
	return &Service{table: table, repo: repo}
}

// Create files a new report for the actor.
func (s *Service) Create(ctx context.Context, actor authz.Identity, d *DailyReport) (*DailyReport, error) {
	if d.ReportDate.IsZero() {
		return nil, fmt.Errorf("%w: report date is required", httpx.ErrValidation)
	}
	d.SubmittedByID = actor.UserID
	exists, err := s.repo.ExistsForDate(ctx, d.ProjectID, actor.UserID, d.ReportDate)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: report already filed for this date", httpx.ErrDuplicate)
	}
	return s.repo.Create(ctx, d)
}

// Get fetches a report.
func (s *Service) Get(ctx context.Context, id int64) (*DailyReport, error) {
	return s.repo.FindByID(ctx, id)
}

// ListByProject returns a project's reports.
func (s *Service) ListByProject(ctx context.Context, projectID int64, params shared.ListParams) ([]DailyReport, error) {
	return s.repo.ListByProject(ctx, projectID, params)
}

// Update applies edits. The submitter can always edit their own report;
// anyone else needs the update permission.
func (s *Service) Update(ctx context.Context, actor authz.Identity, d *DailyReport) (*DailyReport, error) {
	stored, err := s.repo.FindByID(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	if !s.canEdit(actor, stored) {
		return nil, fmt.Errorf("%w: cannot edit another submitter's report", httpx.ErrForbidden)
	}
	d.ProjectID = stored.ProjectID
	return s.repo.Update(ctx, d)
}

// Delete removes a report under the same ownership rule as Update.
func (s *Service) Delete(ctx context.Context, actor authz.Identity, id int64) error {
	stored, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !s.table.HasPermission(actor.Role, authz.PermDailyReportDelete) && stored.SubmittedByID != actor.UserID {
		return fmt.Errorf("%w: cannot delete another submitter's report", httpx.ErrForbidden)
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) canEdit(actor authz.Identity, stored *DailyReport) bool {
	if s.table.HasPermission(actor.Role, authz.PermDailyReportUpdate) {
		return true
	}
	return authz.IsOwner(actor.UserID, stored.SubmittedByID)
}
