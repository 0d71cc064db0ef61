package users

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitebridge/sitebridge/internal/auth"
	"github.com/sitebridge/sitebridge/internal/authz"
	"github.com/sitebridge/sitebridge/internal/platform/httpx"
	"github.com/sitebridge/sitebridge/internal/shared"
)

type stubRepo struct {
	users map[int64]*auth.User
}

func (s *stubRepo) List(_ context.Context, _ shared.ListParams) ([]auth.User, error) {
	var out []auth.User
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out, nil
}

func (s *stubRepo) FindByID(_ context.Context, id int64) (*auth.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *stubRepo) UpdateRole(_ context.Context, id int64, role authz.Role) (*auth.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	u.Role = role
	copied := *u
	return &copied, nil
}

func (s *stubRepo) SetActive(_ context.Context, id int64, active bool) (*auth.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	u.IsActive = active
	copied := *u
	return &copied, nil
}

func newStubRepo() *stubRepo {
	return &stubRepo{users: map[int64]*auth.User{
		1: {ID: 1, Email: "admin@example.com", Role: authz.RoleAdmin, IsActive: true},
		2: {ID: 2, Email: "pm@example.com", Role: authz.RoleProjectManager, IsActive: true},
		3: {ID: 3, Email: "foreman@example.com", Role: authz.RoleForeman, IsActive: true},
		4: {ID: 4, Email: "worker@example.com", Role: authz.RoleFieldWorker, IsActive: true},
	}}
}

func TestAssignRoleHierarchy(t *testing.T) {
	svc := NewService(newStubRepo())
	pm := authz.Identity{UserID: 2, Role: authz.RoleProjectManager}

	updated, err := svc.AssignRole(context.Background(), pm, 4, authz.RoleForeman)
	require.NoError(t, err)
	assert.Equal(t, authz.RoleForeman, updated.Role)

	_, err = svc.AssignRole(context.Background(), pm, 1, authz.RoleFieldWorker)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrForbidden))
}

func TestAssignRoleCannotEscalate(t *testing.T) {
	svc := NewService(newStubRepo())
	pm := authz.Identity{UserID: 2, Role: authz.RoleProjectManager}

	_, err := svc.AssignRole(context.Background(), pm, 4, authz.RoleAdmin)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrForbidden))
}

func TestAssignRoleRejectsUnknownRole(t *testing.T) {
	svc := NewService(newStubRepo())
	admin := authz.Identity{UserID: 1, Role: authz.RoleAdmin}

	_, err := svc.AssignRole(context.Background(), admin, 4, authz.Role("warlord"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestSetActiveRejectsSelf(t *testing.T) {
	svc := NewService(newStubRepo())
	admin := authz.Identity{UserID: 1, Role: authz.RoleAdmin}

	_, err := svc.SetActive(context.Background(), admin, 1, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestSetActiveHonoursHierarchy(t *testing.T) {
	svc := NewService(newStubRepo())

	foreman := authz.Identity{UserID: 3, Role: authz.RoleForeman}
	_, err := svc.SetActive(context.Background(), foreman, 2, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrForbidden))

	admin := authz.Identity{UserID: 1, Role: authz.RoleAdmin}
	updated, err := svc.SetActive(context.Background(), admin, 4, false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
}
