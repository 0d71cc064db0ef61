package tasks

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
	tasks  map[int64]*Task
	nextID int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{tasks: map[int64]*Task{}, nextID: 1}
}

func (s *stubRepo) Create(_ context.Context, t *Task) (*Task, error) {
	copied := *t
	copied.ID = s.nextID
	s.nextID++
	s.tasks[copied.ID] = &copied
	out := copied
	return &out, nil
}

func (s *stubRepo) FindByID(_ context.Context, id int64) (*Task, error) {
	t, ok := s.tasks[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (s *stubRepo) ListByProject(_ context.Context, projectID int64, filter Filter, _ shared.ListParams) ([]Task, error) {
	var out []Task
	for _, t := range s.tasks {
		if t.ProjectID != projectID {
			continue
		}
		if filter.AssigneeID != 0 && t.AssigneeID != filter.AssigneeID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && t.Priority != filter.Priority {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (s *stubRepo) ListByAssignee(_ context.Context, assigneeID int64, _ shared.ListParams) ([]Task, error) {
	var out []Task
	for _, t := range s.tasks {
		if t.AssigneeID == assigneeID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *stubRepo) Update(_ context.Context, t *Task) (*Task, error) {
	stored, ok := s.tasks[t.ID]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	stored.Title = t.Title
	stored.AssigneeID = t.AssigneeID
	stored.Status = t.Status
	stored.Priority = t.Priority
	copied := *stored
	return &copied, nil
}

func (s *stubRepo) MarkAcknowledged(_ context.Context, id int64, at time.Time) (*Task, error) {
	stored, ok := s.tasks[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	stored.Status = StatusAcknowledged
	stored.AcknowledgedAt = &at
	copied := *stored
	return &copied, nil
}

func (s *stubRepo) MarkCompleted(_ context.Context, id int64, at time.Time) (*Task, error) {
	stored, ok := s.tasks[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	stored.Status = StatusCompleted
	stored.CompletedAt = &at
	copied := *stored
	return &copied, nil
}

func (s *stubRepo) Delete(_ context.Context, id int64) error {
	if _, ok := s.tasks[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

var (
	pm       = authz.Identity{UserID: 1, Role: authz.RoleProjectManager}
	super    = authz.Identity{UserID: 2, Role: authz.RoleSuperintendent}
	worker   = authz.Identity{UserID: 3, Role: authz.RoleFieldWorker}
	coworker = authz.Identity{UserID: 4, Role: authz.RoleFieldWorker}
)

func seedTask(t *testing.T, svc *Service) *Task {
	t.Helper()
	task, err := svc.Create(context.Background(), pm, &Task{
		ProjectID:  7,
		Title:      "Hang ductwork",
		AssigneeID: worker.UserID,
	})
	require.NoError(t, err)
	return task
}

func TestCreateDefaults(t *testing.T) {
	svc := NewService(newStubRepo())
	task := seedTask(t, svc)

	assert.Equal(t, StatusPending, task.Status)
	assert.Equal(t, PriorityMedium, task.Priority)
	assert.Equal(t, pm.UserID, task.CreatedByID)
}

func TestCreateRequiresAssignee(t *testing.T) {
	svc := NewService(newStubRepo())
	_, err := svc.Create(context.Background(), pm, &Task{ProjectID: 7, Title: "No one"})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestAcknowledgeAssigneeOnly(t *testing.T) {
	svc := NewService(newStubRepo())
	task := seedTask(t, svc)

	_, err := svc.Acknowledge(context.Background(), coworker, task.ID)
	require.ErrorIs(t, err, httpx.ErrForbidden)

	_, err = svc.Acknowledge(context.Background(), pm, task.ID)
	require.ErrorIs(t, err, httpx.ErrForbidden)

	acked, err := svc.Acknowledge(context.Background(), worker, task.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAcknowledged, acked.Status)
	require.NotNil(t, acked.AcknowledgedAt)

	// Second acknowledgement keeps the original stamp.
	again, err := svc.Acknowledge(context.Background(), worker, task.ID)
	require.NoError(t, err)
	assert.Equal(t, acked.AcknowledgedAt.Unix(), again.AcknowledgedAt.Unix())
}

func TestCompleteAssigneeOrManager(t *testing.T) {
	svc := NewService(newStubRepo())

	task := seedTask(t, svc)
	_, err := svc.Complete(context.Background(), coworker, task.ID)
	require.ErrorIs(t, err, httpx.ErrForbidden)

	done, err := svc.Complete(context.Background(), worker, task.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)

	second := seedTask(t, svc)
	done, err = svc.Complete(context.Background(), super, second.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
}

func TestUpdateCreatorOrManager(t *testing.T) {
	svc := NewService(newStubRepo())
	task := seedTask(t, svc)

	edit := &Task{ID: task.ID, Title: "Hang ductwork L2", AssigneeID: worker.UserID, Status: StatusInProgress, Priority: PriorityHigh}

	_, err := svc.Update(context.Background(), worker, edit)
	require.ErrorIs(t, err, httpx.ErrForbidden)

	updated, err := svc.Update(context.Background(), pm, edit)
	require.NoError(t, err)
	assert.Equal(t, "Hang ductwork L2", updated.Title)
	assert.Equal(t, StatusInProgress, updated.Status)
}

func TestDeleteCreatorOrManager(t *testing.T) {
	svc := NewService(newStubRepo())
	task := seedTask(t, svc)

	err := svc.Delete(context.Background(), worker, task.ID)
	require.ErrorIs(t, err, httpx.ErrForbidden)

	require.NoError(t, svc.Delete(context.Background(), pm, task.ID))
	_, err = svc.Get(context.Background(), task.ID)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}
