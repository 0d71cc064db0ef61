package servicecalls

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitebridge/sitebridge/internal/platform/httpx"
	"github.com/sitebridge/sitebridge/internal/shared"
)

type stubRepo struct {
	calls  map[int64]*ServiceCall
	nextID int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{calls: map[int64]*ServiceCall{}, nextID: 1}
}

func (s *stubRepo) Create(_ context.Context, c *ServiceCall) (*ServiceCall, error) {
	copied := *c
	copied.ID = s.nextID
	copied.CallNumber = fmt.Sprintf("SC-%05d", len(s.calls)+1)
	copied.CreatedAt = time.Now().UTC()
	s.nextID++
	s.calls[copied.ID] = &copied
	out := copied
	return &out, nil
}

func (s *stubRepo) FindByID(_ context.Context, id int64) (*ServiceCall, error) {
	c, ok := s.calls[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (s *stubRepo) List(_ context.Context, filter Filter, _ shared.ListParams) ([]ServiceCall, error) {
	var out []ServiceCall
	for _, c := range s.calls {
		if filter.AssignedToID != 0 && c.AssignedToID != filter.AssignedToID {
			continue
		}
		if filter.Completed != nil && c.IsCompleted != *filter.Completed {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (s *stubRepo) Update(_ context.Context, c *ServiceCall) (*ServiceCall, error) {
	stored, ok := s.calls[c.ID]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	callNumber, createdAt := stored.CallNumber, stored.CreatedAt
	*stored = *c
	stored.CallNumber = callNumber
	stored.CreatedAt = createdAt
	copied := *stored
	return &copied, nil
}

func TestCreateIssuesSequentialCallNumbers(t *testing.T) {
	svc := NewService(newStubRepo())

	first, err := svc.Create(context.Background(), &ServiceCall{IssueDescription: "RTU-2 not cooling"})
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), &ServiceCall{IssueDescription: "leaking condensate line"})
	require.NoError(t, err)

	assert.Equal(t, "SC-00001", first.CallNumber)
	assert.Equal(t, "SC-00002", second.CallNumber)
	assert.Equal(t, PriorityMedium, first.Priority)
	assert.False(t, first.IsCompleted)

	_, err = svc.Create(context.Background(), &ServiceCall{IssueDescription: "   "})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(context.Background(), &ServiceCall{IssueDescription: "x", Priority: Priority("whenever")})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateNeverClearsCompletionState(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), &ServiceCall{IssueDescription: "thermostat fault"})
	require.NoError(t, err)

	completed, err := svc.Complete(context.Background(), created.ID, "replaced sensor")
	require.NoError(t, err)
	require.True(t, completed.IsCompleted)
	require.NotNil(t, completed.CompletedAt)

	// A later patch cannot reopen the call or move its stamp.
	updated, err := svc.Update(context.Background(), &ServiceCall{ID: created.ID, AssignedToID: 4})
	require.NoError(t, err)
	assert.True(t, updated.IsCompleted)
	assert.Equal(t, completed.CompletedAt, updated.CompletedAt)
	assert.Equal(t, "replaced sensor", updated.ResolutionNotes)
	assert.Equal(t, "thermostat fault", updated.IssueDescription)
}

func TestCompleteStampsOnce(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), &ServiceCall{IssueDescription: "compressor noise"})
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), created.ID, "tightened mounts")
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), created.ID, "again")
	assert.ErrorIs(t, err, httpx.ErrValidation)
}
