package companies

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
	companies  map[int64]*Company
	membership map[int64]int64
	nextID     int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{companies: map[int64]*Company{}, membership: map[int64]int64{}, nextID: 1}
}

func (s *stubRepo) Create(_ context.Context, c *Company) (*Company, error) {
	copied := *c
	copied.ID = s.nextID
	copied.CreatedAt = time.Now().UTC()
	s.nextID++
	s.companies[copied.ID] = &copied
	s.membership[c.OwnerID] = copied.ID
	out := copied
	return &out, nil
}

func (s *stubRepo) FindByInviteCode(_ context.Context, inviteCode string) (*Company, error) {
	for _, c := range s.companies {
		if c.InviteCode == inviteCode {
			copied := *c
			return &copied, nil
		}
	}
	return nil, httpx.ErrNotFound
}

func (s *stubRepo) FindForUser(_ context.Context, userID int64) (*Company, error) {
	id, ok := s.membership[userID]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *s.companies[id]
	return &copied, nil
}

func (s *stubRepo) MemberCount(_ context.Context, companyID int64) (int, error) {
	count := 0
	for _, id := range s.membership {
		if id == companyID {
			count++
		}
	}
	return count, nil
}

func (s *stubRepo) AddMember(_ context.Context, companyID, userID int64) error {
	s.membership[userID] = companyID
	return nil
}

func (s *stubRepo) Members(_ context.Context, companyID int64, _ shared.ListParams) ([]Member, error) {
	var out []Member
	for userID, id := range s.membership {
		if id == companyID {
			out = append(out, Member{ID: userID})
		}
	}
	return out, nil
}

var (
	owner  = authz.Identity{UserID: 1, Role: authz.RoleProjectManager}
	worker = authz.Identity{UserID: 2, Role: authz.RoleFieldWorker}
)

func TestCreateMakesCallerOwnerAndMember(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), owner, &Company{Name: "Bridgewater Mechanical"})
	require.NoError(t, err)

	assert.Equal(t, owner.UserID, created.OwnerID)
	assert.Equal(t, defaultMaxUsers, created.MaxUsers)
	assert.Equal(t, "BRI", created.Code[:3])
	assert.Len(t, created.Code, 7)
	assert.NotEmpty(t, created.InviteCode)
	assert.Equal(t, created.ID, repo.membership[owner.UserID])

	_, err = svc.Create(context.Background(), owner, &Company{Name: "   "})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestJoinRejectsWhenFull(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), owner, &Company{Name: "Bridgewater", MaxUsers: 1})
	require.NoError(t, err)

	_, err = svc.Join(context.Background(), worker, created.InviteCode)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestJoinRejectsExistingMemberAndBadCode(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), owner, &Company{Name: "Bridgewater"})
	require.NoError(t, err)

	joined, err := svc.Join(context.Background(), worker, created.InviteCode)
	require.NoError(t, err)
	assert.Equal(t, created.ID, joined.ID)
	assert.Equal(t, created.ID, repo.membership[worker.UserID])

	_, err = svc.Join(context.Background(), worker, created.InviteCode)
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Join(context.Background(), authz.Identity{UserID: 3, Role: authz.RoleForeman}, "no-such-code")
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestInviteRequiresOwnerOrAdmin(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), owner, &Company{Name: "Bridgewater"})
	require.NoError(t, err)
	_, err = svc.Join(context.Background(), worker, created.InviteCode)
	require.NoError(t, err)

	_, err = svc.Invite(context.Background(), worker)
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	c, err := svc.Invite(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, created.InviteCode, c.InviteCode)

	// Admins may invite even without owning the company.
	admin := authz.Identity{UserID: 4, Role: authz.RoleAdmin}
	_, err = svc.Join(context.Background(), admin, created.InviteCode)
	require.NoError(t, err)
	_, err = svc.Invite(context.Background(), admin)
	require.NoError(t, err)
}
