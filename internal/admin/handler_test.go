package admin

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitebridge/sitebridge/internal/authz"
	"github.com/sitebridge/sitebridge/internal/feedback"
	"github.com/sitebridge/sitebridge/internal/platform/httpx"
	"github.com/sitebridge/sitebridge/internal/shared"
)

type stubRepo struct {
	deleted []int64
}

func (s *stubRepo) DashboardStats(context.Context, time.Time, time.Time) (*DashboardStats, error) {
	return &DashboardStats{TotalUsers: 12, TotalCompanies: 3, PendingFeedback: 2}, nil
}

func (s *stubRepo) ListUsers(context.Context, shared.ListParams) ([]UserOverview, error) {
	return nil, nil
}

func (s *stubRepo) ListCompanies(context.Context, shared.ListParams) ([]CompanyOverview, error) {
	return nil, nil
}

func (s *stubRepo) DeleteUser(_ context.Context, id int64) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubRepo) ListAuditLogs(context.Context, AuditFilter, shared.ListParams) ([]AuditEntry, error) {
	return nil, nil
}

type stubReviewer struct{}

func (stubReviewer) ListAll(context.Context, feedback.Filter, shared.ListParams) ([]feedback.Feedback, error) {
	return nil, nil
}

func (stubReviewer) Respond(_ context.Context, id int64, status feedback.Status, _, _ string) (*feedback.Feedback, error) {
	return &feedback.Feedback{ID: id, Status: status}, nil
}

type noMembership struct{}

func (noMembership) ProjectIDs(context.Context, int64) ([]int64, error)   { return nil, nil }
func (noMembership) AllProjectIDs(context.Context) ([]int64, error)       { return nil, nil }
func (noMembership) IsMember(context.Context, int64, int64) (bool, error) { return false, nil }

func newRouter(t *testing.T, repo *stubRepo) chi.Router {
	t.Helper()
	table, err := authz.NewTable()
	require.NoError(t, err)
	guard := authz.NewGuard(table, authz.NewResolver(noMembership{}, nil, 0), nil)
	handler := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), NewService(repo, stubReviewer{}), guard)
	r := chi.NewRouter()
	r.Route("/dev", handler.MountRoutes)
	return r
}

func sendAs(router http.Handler, method, path string, ident authz.Identity) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req = req.WithContext(authz.ContextWithIdentity(req.Context(), ident))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestRoutesRequireAdminRole(t *testing.T) {
	router := newRouter(t, &stubRepo{})

	// Project managers hold every project permission, but the operator
	// surface gates on the role itself.
	rr := sendAs(router, http.MethodGet, "/dev/dashboard", authz.Identity{UserID: 3, Role: authz.RoleProjectManager})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = sendAs(router, http.MethodGet, "/dev/dashboard", authz.Identity{UserID: 1, Role: authz.RoleAdmin})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"total_users":12`)

	rr = sendAs(router, http.MethodGet, "/dev/audit-logs", authz.Identity{UserID: 3, Role: authz.RoleSuperintendent})
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestDeleteUserRejectsSelf(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, stubReviewer{})

	err := svc.DeleteUser(context.Background(), authz.Identity{UserID: 1, Role: authz.RoleAdmin}, 1)
	assert.ErrorIs(t, err, httpx.ErrValidation)
	assert.Empty(t, repo.deleted)

	err = svc.DeleteUser(context.Background(), authz.Identity{UserID: 1, Role: authz.RoleAdmin}, 9)
	require.NoError(t, err)
	assert.Equal(t, []int64{9}, repo.deleted)
}
