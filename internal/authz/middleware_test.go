package authz

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/sitebridge/sitebridge/testing"
)

func newGuard(t *testing.T, store MembershipStore) Guard {
	t.Helper()
	table := newTable(t)
	return NewGuard(table, NewResolver(store, nil, 0), nil)
}

func doRequest(guard Guard, mw func(http.Handler) http.Handler, ident *Identity) *httptest.ResponseRecorder {
	var handlerRan bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerRan = true
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/resource", nil)
	if ident != nil {
		req = req.WithContext(ContextWithIdentity(req.Context(), *ident))
	}
	res := httptest.NewRecorder()
	mw(next).ServeHTTP(res, req)
	if res.Code != http.StatusOK && handlerRan {
		panic("handler ran despite denial")
	}
	return res
}

func TestRequirePermissionAllows(t *testing.T) {
	guard := newGuard(t, &stubMembershipStore{})
	ident := Identity{UserID: 1, Role: RoleFieldWorker}

	res := doRequest(guard, guard.RequirePermission(PermTaskView), &ident)
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestRequirePermissionDeniesNamingPermissions(t *testing.T) {
	guard := newGuard(t, &stubMembershipStore{})
	ident := Identity{UserID: 1, Role: RoleAccounting}

	res := doRequest(guard, guard.RequirePermission(PermTaskCreate), &ident)
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Contains(t, res.Body.String(), "task:create")
}

func TestRequirePermissionWithoutIdentity(t *testing.T) {
	guard := newGuard(t, &stubMembershipStore{})

	res := doRequest(guard, guard.RequirePermission(PermTaskView), nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestRequirePermissionAnyOf(t *testing.T) {
	guard := newGuard(t, &stubMembershipStore{})
	ident := Identity{UserID: 1, Role: RoleAccounting}

	// Accounting lacks task:create but holds change:approve.
	res := doRequest(guard, guard.RequirePermission(PermTaskCreate, PermChangeApprove), &ident)
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestRequireRole(t *testing.T) {
	guard := newGuard(t, &stubMembershipStore{})

	admin := Identity{UserID: 1, Role: RoleAdmin}
	res := doRequest(guard, guard.RequireRole(RoleAdmin), &admin)
	assert.Equal(t, http.StatusOK, res.Code)

	// Project managers hold nearly every permission but are not on the
	// role allow-list.
	pm := Identity{UserID: 2, Role: RoleProjectManager}
	res = doRequest(guard, guard.RequireRole(RoleAdmin), &pm)
	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestCheckPermissionAnyOf(t *testing.T) {
	guard := newGuard(t, &stubMembershipStore{})

	ident := Identity{UserID: 1, Role: RoleFieldWorker}
	require.NoError(t, guard.CheckPermission(ident, PermTaskView))

	err := guard.CheckPermission(ident, PermTaskDelete)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPermissionDenied))
	assert.Contains(t, err.Error(), "task:delete")

	// Any one of the listed permissions suffices.
	require.NoError(t, guard.CheckPermission(ident, PermTaskDelete, PermTaskView))
}

func TestVerifyProjectAccessOrdering(t *testing.T) {
	store := &stubMembershipStore{members: map[[2]int64]bool{}}
	guard := newGuard(t, store)
	ctx := context.Background()

	// Permission check fails first: the membership store must never be
	// consulted, so the caller learns nothing about the project.
	ident := Identity{UserID: 3, Role: RoleAccounting}
	err := guard.VerifyProjectAccess(ctx, ident, 7, PermTaskCreate)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPermissionDenied))
	assert.False(t, errors.Is(err, ErrProjectAccessDenied))
	assert.Zero(t, store.queries)

	// Permission held but no membership row.
	ident = Identity{UserID: 3, Role: RoleSuperintendent}
	err = guard.VerifyProjectAccess(ctx, ident, 7, PermTaskCreate)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProjectAccessDenied))

	// Admin bypass.
	ident = Identity{UserID: 3, Role: RoleAdmin}
	require.NoError(t, guard.VerifyProjectAccess(ctx, ident, 999999, PermTaskCreate))

	// Member with permission passes.
	store.members[[2]int64{7, 3}] = true
	ident = Identity{UserID: 3, Role: RoleForeman}
	require.NoError(t, guard.VerifyProjectAccess(ctx, ident, 7, PermTaskCreate))

	// Zero permission skips the permission check entirely.
	require.NoError(t, guard.VerifyProjectAccess(ctx, ident, 7, ""))
}
