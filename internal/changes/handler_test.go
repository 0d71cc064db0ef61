package changes

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitebridge/sitebridge/internal/authz"
)

type noMembership struct{}

func (noMembership) ProjectIDs(context.Context, int64) ([]int64, error)   { return nil, nil }
func (noMembership) AllProjectIDs(context.Context) ([]int64, error)       { return nil, nil }
func (noMembership) IsMember(context.Context, int64, int64) (bool, error) { return false, nil }

func newHandlerRouter(t *testing.T, repo *stubRepo) chi.Router {
	t.Helper()
	table, err := authz.NewTable()
	require.NoError(t, err)
	guard := authz.NewGuard(table, authz.NewResolver(noMembership{}, nil, 0), nil)
	handler := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), NewService(repo), guard)
	r := chi.NewRouter()
	r.Route("/change-orders", handler.MountRoutes)
	return r
}

func sendAs(router http.Handler, method, path string, ident authz.Identity) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req = req.WithContext(authz.ContextWithIdentity(req.Context(), ident))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestApproveDeniedBeforeLookup(t *testing.T) {
	router := newHandlerRouter(t, newStubRepo())

	// field_worker lacks change:approve, so a missing id must still
	// answer 403.
	rr := sendAs(router, http.MethodPost, "/change-orders/55/approve", authz.Identity{UserID: 9, Role: authz.RoleFieldWorker})
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "change:approve")

	// accounting holds change:approve; a missing id answers 404.
	rr = sendAs(router, http.MethodPost, "/change-orders/55/approve", authz.Identity{UserID: 9, Role: authz.RoleAccounting})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
