package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitebridge/sitebridge/internal/authz"
	"github.com/sitebridge/sitebridge/internal/platform/httpx"
	"github.com/sitebridge/sitebridge/internal/shared"
)

type stubRepo struct {
	reports map[int64]*DailyReport
	nextID  int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{reports: map[int64]*DailyReport{}, nextID: 1}
}

func (s *stubRepo) Create(_ context.Context, d *DailyReport) (*DailyReport, error) {
	copied := *d
	copied.ID = s.nextID
	s.nextID++
	next := 1
	for _, existing := range s.reports {
		if existing.ProjectID == copied.ProjectID && existing.ReportNumber >= next {
			next = existing.ReportNumber + 1
		}
	}
	copied.ReportNumber = next
	s.reports[copied.ID] = &copied
	out := copied
	return &out, nil
}

func (s *stubRepo) ExistsForDate(_ context.Context, projectID, submitterID int64, date time.Time) (bool, error) {
	for _, d := range s.reports {
		if d.ProjectID == projectID && d.SubmittedByID == submitterID && d.ReportDate.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubRepo) FindByID(_ context.Context, id int64) (*DailyReport, error) {
	d, ok := s.reports[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *d
	return &copied, nil
}

func (s *stubRepo) ListByProject(_ context.Context, projectID int64, _ shared.ListParams) ([]DailyReport, error) {
	var out []DailyReport
	for _, d := range s.reports {
		if d.ProjectID == projectID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (s *stubRepo) Update(_ context.Context, d *DailyReport) (*DailyReport, error) {
	stored, ok := s.reports[d.ID]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	stored.Notes = d.Notes
	stored.WorkCompleted = d.WorkCompleted
	copied := *stored
	return &copied, nil
}

func (s *stubRepo) Delete(_ context.Context, id int64) error {
	if _, ok := s.reports[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(s.reports, id)
	return nil
}

func newService(t *testing.T) *Service {
	t.Helper()
	table, err := authz.NewTable()
	require.NoError(t, err)
	return NewService(table, newStubRepo())
}

var (
	worker   = authz.Identity{UserID: 3, Role: authz.RoleFieldWorker}
	foreman  = authz.Identity{UserID: 2, Role: authz.RoleForeman}
	reportOn = time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
)

func TestCreateAssignsSequentialNumbers(t *testing.T) {
	svc := newService(t)

	first, err := svc.Create(context.Background(), foreman, &DailyReport{ProjectID: 5, ReportDate: reportOn})
	require.NoError(t, err)
	assert.Equal(t, 1, first.ReportNumber)

	second, err := svc.Create(context.Background(), foreman, &DailyReport{ProjectID: 5, ReportDate: reportOn.AddDate(0, 0, 1)})
	require.NoError(t, err)
	assert.Equal(t, 2, second.ReportNumber)

	other, err := svc.Create(context.Background(), foreman, &DailyReport{ProjectID: 6, ReportDate: reportOn})
	require.NoError(t, err)
	assert.Equal(t, 1, other.ReportNumber)
}

func TestCreateRejectsSecondReportSameDay(t *testing.T) {
	svc := newService(t)

	_, err := svc.Create(context.Background(), foreman, &DailyReport{ProjectID: 5, ReportDate: reportOn})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), foreman, &DailyReport{ProjectID: 5, ReportDate: reportOn})
	require.ErrorIs(t, err, httpx.ErrDuplicate)

	// A different submitter can still file for the same day.
	_, err = svc.Create(context.Background(), worker, &DailyReport{ProjectID: 5, ReportDate: reportOn})
	require.NoError(t, err)
}

func TestUpdateOwnershipRule(t *testing.T) {
	svc := newService(t)

	report, err := svc.Create(context.Background(), worker, &DailyReport{ProjectID: 5, ReportDate: reportOn})
	require.NoError(t, err)

	// The submitter edits their own report without the update permission.
	updated, err := svc.Update(context.Background(), worker, &DailyReport{ID: report.ID, ReportDate: reportOn, Notes: "wind delay"})
	require.NoError(t, err)
	assert.Equal(t, "wind delay", updated.Notes)

	// A foreman holds daily_report:update and can edit anyone's report.
	_, err = svc.Update(context.Background(), foreman, &DailyReport{ID: report.ID, ReportDate: reportOn, Notes: "revised"})
	require.NoError(t, err)

	// Another field worker has neither the permission nor ownership.
	other := authz.Identity{UserID: 44, Role: authz.RoleFieldWorker}
	_, err = svc.Update(context.Background(), other, &DailyReport{ID: report.ID, ReportDate: reportOn})
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestDeleteOwnershipRule(t *testing.T) {
	svc := newService(t)

	report, err := svc.Create(context.Background(), worker, &DailyReport{ProjectID: 5, ReportDate: reportOn})
	require.NoError(t, err)

	other := authz.Identity{UserID: 44, Role: authz.RoleFieldWorker}
	err = svc.Delete(context.Background(), other, report.ID)
	require.ErrorIs(t, err, httpx.ErrForbidden)

	require.NoError(t, svc.Delete(context.Background(), worker, report.ID))
}
