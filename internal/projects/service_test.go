package projects

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitebridge/sitebridge/internal/authz"
	"github.com/sitebridge/sitebridge/internal/platform/httpx"
	"github.com/sitebridge/sitebridge/internal/shared"
)

type stubRepo struct {
	projects map[int64]*Project
	members  map[int64]map[int64]bool
	nextID   int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{projects: map[int64]*Project{}, members: map[int64]map[int64]bool{}, nextID: 1}
}

func (s *stubRepo) Create(_ context.Context, p *Project) (*Project, error) {
	copied := *p
	copied.ID = s.nextID
	s.nextID++
	s.projects[copied.ID] = &copied
	s.addMember(copied.ID, p.CreatedBy)
	out := copied
	return &out, nil
}

func (s *stubRepo) FindByID(_ context.Context, id int64) (*Project, error) {
	p, ok := s.projects[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (s *stubRepo) List(_ context.Context, ids []int64, _ shared.ListParams) ([]Project, error) {
	var out []Project
	for _, id := range ids {
		if p, ok := s.projects[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *stubRepo) ListAll(_ context.Context, _ shared.ListParams) ([]Project, error) {
	var out []Project
	for _, p := range s.projects {
		out = append(out, *p)
	}
	return out, nil
}

func (s *stubRepo) Update(_ context.Context, p *Project) (*Project, error) {
	stored, ok := s.projects[p.ID]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	stored.Name = p.Name
	stored.Status = p.Status
	copied := *stored
	return &copied, nil
}

func (s *stubRepo) Delete(_ context.Context, id int64) error {
	p, ok := s.projects[id]
	if !ok {
		return httpx.ErrNotFound
	}
	p.Status = StatusClosed
	return nil
}

func (s *stubRepo) addMember(projectID, userID int64) {
	if s.members[projectID] == nil {
		s.members[projectID] = map[int64]bool{}
	}
	s.members[projectID][userID] = true
}

func (s *stubRepo) AddMember(_ context.Context, projectID, userID int64) error {
	if s.members[projectID][userID] {
		return httpx.ErrDuplicate
	}
	s.addMember(projectID, userID)
	return nil
}

func (s *stubRepo) RemoveMember(_ context.Context, projectID, userID int64) error {
	if !s.members[projectID][userID] {
		return httpx.ErrNotFound
	}
	delete(s.members[projectID], userID)
	return nil
}

func (s *stubRepo) ListMembers(_ context.Context, projectID int64) ([]Member, error) {
	var out []Member
	for userID := range s.members[projectID] {
		out = append(out, Member{UserID: userID})
	}
	return out, nil
}

func (s *stubRepo) ProjectIDs(_ context.Context, userID int64) ([]int64, error) {
	var ids []int64
	for projectID, team := range s.members {
		if team[userID] {
			ids = append(ids, projectID)
		}
	}
	return ids, nil
}

func (s *stubRepo) AllProjectIDs(_ context.Context) ([]int64, error) {
	var ids []int64
	for id := range s.projects {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *stubRepo) IsMember(_ context.Context, projectID, userID int64) (bool, error) {
	return s.members[projectID][userID], nil
}

func newService(t *testing.T) (*Service, *stubRepo, *authz.Resolver) {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cache.Close() })
	repo := newStubRepo()
	resolver := authz.NewResolver(repo, cache, 0)
	return NewService(repo, resolver, nil), repo, resolver
}

func TestCreateAddsCreatorToTeam(t *testing.T) {
	svc, repo, _ := newService(t)
	pm := authz.Identity{UserID: 10, Role: authz.RoleProjectManager}

	created, err := svc.Create(context.Background(), pm, &Project{Name: "Riverside HVAC"})
	require.NoError(t, err)
	assert.Equal(t, StatusPlanning, created.Status)
	assert.Equal(t, int64(10), created.CreatedBy)

	member, err := repo.IsMember(context.Background(), created.ID, 10)
	require.NoError(t, err)
	assert.True(t, member)
}

func TestCreateRejectsUnknownStatus(t *testing.T) {
	svc, _, _ := newService(t)
	pm := authz.Identity{UserID: 10, Role: authz.RoleProjectManager}

	_, err := svc.Create(context.Background(), pm, &Project{Name: "Bad", Status: Status("paused")})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestListForScopesToMembership(t *testing.T) {
	svc, repo, _ := newService(t)
	pm := authz.Identity{UserID: 10, Role: authz.RoleProjectManager}
	foreman := authz.Identity{UserID: 20, Role: authz.RoleForeman}
	admin := authz.Identity{UserID: 1, Role: authz.RoleAdmin}

	first, err := svc.Create(context.Background(), pm, &Project{Name: "One"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), pm, &Project{Name: "Two"})
	require.NoError(t, err)
	repo.addMember(first.ID, foreman.UserID)

	params := shared.ListParams{Limit: 50}

	mine, err := svc.ListFor(context.Background(), foreman, params)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "One", mine[0].Name)

	all, err := svc.ListFor(context.Background(), admin, params)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	outsider := authz.Identity{UserID: 99, Role: authz.RoleFieldWorker}
	none, err := svc.ListFor(context.Background(), outsider, params)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMembershipChangeInvalidatesCache(t *testing.T) {
	svc, _, resolver := newService(t)
	pm := authz.Identity{UserID: 10, Role: authz.RoleProjectManager}
	worker := authz.Identity{UserID: 30, Role: authz.RoleFieldWorker}

	project, err := svc.Create(context.Background(), pm, &Project{Name: "Cache"})
	require.NoError(t, err)

	// Prime a negative verdict, then add the member.
	has, err := resolver.HasAccess(context.Background(), worker.UserID, project.ID, worker.Role)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, svc.AddMember(context.Background(), pm, project.ID, worker.UserID))
	has, err = resolver.HasAccess(context.Background(), worker.UserID, project.ID, worker.Role)
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, svc.RemoveMember(context.Background(), pm, project.ID, worker.UserID))
	has, err = resolver.HasAccess(context.Background(), worker.UserID, project.ID, worker.Role)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestDeleteClosesProject(t *testing.T) {
	svc, _, _ := newService(t)
	pm := authz.Identity{UserID: 10, Role: authz.RoleProjectManager}

	project, err := svc.Create(context.Background(), pm, &Project{Name: "Done"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), pm, project.ID))
	stored, err := svc.Get(context.Background(), project.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, stored.Status)
}

func TestAddMemberTwiceIsDuplicate(t *testing.T) {
	svc, _, _ := newService(t)
	pm := authz.Identity{UserID: 10, Role: authz.RoleProjectManager}

	project, err := svc.Create(context.Background(), pm, &Project{Name: "Dup"})
	require.NoError(t, err)

	require.NoError(t, svc.AddMember(context.Background(), pm, project.ID, 55))
	err = svc.AddMember(context.Background(), pm, project.ID, 55)
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}
