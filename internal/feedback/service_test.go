package feedback

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
	entries map[int64]*Feedback
	nextID  int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{entries: map[int64]*Feedback{}, nextID: 1}
}

func (s *stubRepo) Create(_ context.Context, f *Feedback) (*Feedback, error) {
	copied := *f
	copied.ID = s.nextID
	copied.CreatedAt = time.Now().UTC()
	s.nextID++
	s.entries[copied.ID] = &copied
	out := copied
	return &out, nil
}

func (s *stubRepo) FindByID(_ context.Context, id int64) (*Feedback, error) {
	f, ok := s.entries[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *f
	return &copied, nil
}

func (s *stubRepo) ListByUser(_ context.Context, userID int64, _ shared.ListParams) ([]Feedback, error) {
	var out []Feedback
	for _, f := range s.entries {
		if f.UserID == userID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (s *stubRepo) List(_ context.Context, filter Filter, _ shared.ListParams) ([]Feedback, error) {
	var out []Feedback
	for _, f := range s.entries {
		if filter.Status != "" && f.Status != filter.Status {
			continue
		}
		if filter.Type != "" && f.Type != filter.Type {
			continue
		}
		out = append(out, *f)
	}
	return out, nil
}

func (s *stubRepo) RecordResponse(_ context.Context, id int64, status Status, devNotes, devResponse string, respondedAt *time.Time) (*Feedback, error) {
	f, ok := s.entries[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	f.Status = status
	if devNotes != "" {
		f.DevNotes = devNotes
	}
	if devResponse != "" {
		f.DevResponse = devResponse
	}
	if respondedAt != nil {
		f.RespondedAt = respondedAt
	}
	copied := *f
	return &copied, nil
}

func (s *stubRepo) Delete(_ context.Context, id int64) error {
	if _, ok := s.entries[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(s.entries, id)
	return nil
}

var submitter = authz.Identity{UserID: 6, Role: authz.RoleFieldWorker, CompanyID: 2}

func TestSubmitEntersQueueAsSubmitted(t *testing.T) {
	svc := NewService(newStubRepo())

	created, err := svc.Submit(context.Background(), submitter, &Feedback{
		Type:   TypeBug,
		Title:  "photo upload spins forever",
		Status: StatusDone,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, created.Status)
	assert.Equal(t, "medium", created.Priority)
	assert.Equal(t, submitter.UserID, created.UserID)
	assert.Equal(t, submitter.CompanyID, created.CompanyID)

	_, err = svc.Submit(context.Background(), submitter, &Feedback{Type: Type("rant"), Title: "x"})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestGetOwnHidesOtherUsersEntries(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	created, err := svc.Submit(context.Background(), submitter, &Feedback{Type: TypeGeneral, Title: "love the app"})
	require.NoError(t, err)

	other := authz.Identity{UserID: 99, Role: authz.RoleForeman}
	_, err = svc.GetOwn(context.Background(), other, created.ID)
	assert.ErrorIs(t, err, httpx.ErrNotFound)

	got, err := svc.GetOwn(context.Background(), submitter, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestDeleteOwnOnlyWhileSubmitted(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	created, err := svc.Submit(context.Background(), submitter, &Feedback{Type: TypeFeature, Title: "dark mode"})
	require.NoError(t, err)

	_, err = svc.Respond(context.Background(), created.ID, StatusPlanned, "", "on the roadmap")
	require.NoError(t, err)

	err = svc.DeleteOwn(context.Background(), submitter, created.ID)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestRespondStampsRespondedAtOnce(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	created, err := svc.Submit(context.Background(), submitter, &Feedback{Type: TypeBug, Title: "crash on login"})
	require.NoError(t, err)

	first, err := svc.Respond(context.Background(), created.ID, StatusInReview, "repro found", "we are on it")
	require.NoError(t, err)
	require.NotNil(t, first.RespondedAt)

	second, err := svc.Respond(context.Background(), created.ID, StatusDone, "", "fixed in 1.4.2")
	require.NoError(t, err)
	assert.Equal(t, first.RespondedAt, second.RespondedAt)

	_, err = svc.Respond(context.Background(), created.ID, Status("someday"), "", "")
	assert.ErrorIs(t, err, httpx.ErrValidation)
}
