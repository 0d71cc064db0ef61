package rfis

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
	rfis   map[int64]*RFI
	nextID int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{rfis: map[int64]*RFI{}, nextID: 1}
}

func (s *stubRepo) Create(_ context.Context, f *RFI) (*RFI, error) {
	copied := *f
	copied.ID = s.nextID
	s.nextID++
	next := 1
	for _, existing := range s.rfis {
		if existing.ProjectID == copied.ProjectID && existing.RFINumber >= next {
			next = existing.RFINumber + 1
		}
	}
	copied.RFINumber = next
	s.rfis[copied.ID] = &copied
	out := copied
	return &out, nil
}

func (s *stubRepo) FindByID(_ context.Context, id int64) (*RFI, error) {
	f, ok := s.rfis[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *f
	return &copied, nil
}

func (s *stubRepo) ListByProject(_ context.Context, projectID int64, _ shared.ListParams) ([]RFI, error) {
	var out []RFI
	for _, f := range s.rfis {
		if f.ProjectID == projectID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (s *stubRepo) Update(_ context.Context, f *RFI) (*RFI, error) {
	stored, ok := s.rfis[f.ID]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	stored.Question = f.Question
	stored.Status = f.Status
	copied := *stored
	return &copied, nil
}

func (s *stubRepo) RecordAnswer(_ context.Context, id int64, answer string, answeredByID int64, at time.Time) (*RFI, error) {
	stored, ok := s.rfis[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	stored.Answer = answer
	stored.AnsweredByID = answeredByID
	stored.AnsweredAt = &at
	stored.Status = StatusAnswered
	copied := *stored
	return &copied, nil
}

func (s *stubRepo) Delete(_ context.Context, id int64) error {
	if _, ok := s.rfis[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(s.rfis, id)
	return nil
}

var (
	worker = authz.Identity{UserID: 3, Role: authz.RoleFieldWorker}
	pm     = authz.Identity{UserID: 1, Role: authz.RoleProjectManager}
)

func TestCreateAssignsSequentialNumbers(t *testing.T) {
	svc := NewService(newStubRepo())

	first, err := svc.Create(context.Background(), worker, &RFI{ProjectID: 4, Question: "Duct clashes with beam at grid C4"})
	require.NoError(t, err)
	assert.Equal(t, 1, first.RFINumber)
	assert.Equal(t, StatusDraft, first.Status)
	assert.Equal(t, worker.UserID, first.SubmittedByID)

	second, err := svc.Create(context.Background(), worker, &RFI{ProjectID: 4, Question: "Missing hanger detail"})
	require.NoError(t, err)
	assert.Equal(t, 2, second.RFINumber)
}

func TestCreateRequiresQuestion(t *testing.T) {
	svc := NewService(newStubRepo())
	_, err := svc.Create(context.Background(), worker, &RFI{ProjectID: 4})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestAnswerStampsAndFlipsStatus(t *testing.T) {
	svc := NewService(newStubRepo())

	rfi, err := svc.Create(context.Background(), worker, &RFI{ProjectID: 4, Question: "Clash at C4"})
	require.NoError(t, err)

	answered, err := svc.Answer(context.Background(), pm, rfi.ID, "Reroute below beam, see SK-12")
	require.NoError(t, err)
	assert.Equal(t, StatusAnswered, answered.Status)
	assert.Equal(t, pm.UserID, answered.AnsweredByID)
	require.NotNil(t, answered.AnsweredAt)

	_, err = svc.Answer(context.Background(), pm, rfi.ID, "")
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestClosedRFIIsImmutable(t *testing.T) {
	svc := NewService(newStubRepo())

	rfi, err := svc.Create(context.Background(), worker, &RFI{ProjectID: 4, Question: "Clash at C4"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), &RFI{ID: rfi.ID, Question: "Clash at C4", Status: StatusClosed})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), &RFI{ID: rfi.ID, Question: "edited", Status: StatusSubmitted})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Answer(context.Background(), pm, rfi.ID, "too late")
	require.ErrorIs(t, err, httpx.ErrValidation)
}
