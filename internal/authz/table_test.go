package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTable(t *testing.T) *Table {
	t.Helper()
	table, err := NewTable()
	require.NoError(t, err)
	return table
}

func TestEveryPermissionReachable(t *testing.T) {
	table := newTable(t)

	for _, perm := range AllPermissions() {
		held := false
		for _, role := range AllRoles() {
			if table.HasPermission(role, perm) {
				held = true
				break
			}
		}
		assert.True(t, held, "permission %s is not granted to any role", perm)
	}
}

func TestAdminHoldsEveryPermission(t *testing.T) {
	table := newTable(t)

	for _, role := range AllRoles() {
		for _, perm := range table.PermissionsFor(role) {
			assert.True(t, table.HasPermission(RoleAdmin, perm),
				"admin missing %s held by %s", perm, role)
		}
	}
	assert.Len(t, table.PermissionsFor(RoleAdmin), len(AllPermissions()))
}

func TestManagerRolesGetFullSurfaceMinusAdmin(t *testing.T) {
	table := newTable(t)

	for _, role := range []Role{RoleProjectManager, RoleSuperintendent} {
		for _, perm := range AllPermissions() {
			if perm.Resource() == "admin" {
				assert.False(t, table.HasPermission(role, perm), "%s must not hold %s", role, perm)
			} else {
				assert.True(t, table.HasPermission(role, perm), "%s missing %s", role, perm)
			}
		}
	}
}

func TestUnknownRoleFailsClosed(t *testing.T) {
	table := newTable(t)

	unknown := Role("nonexistent-role")
	assert.Empty(t, table.PermissionsFor(unknown))
	assert.False(t, table.HasPermission(unknown, PermTaskView))
	assert.False(t, table.HasAny(unknown, PermTaskView, PermProjectView))
	assert.False(t, table.HasAll(unknown, PermTaskView))
}

func TestHasAnyHasAllConsistency(t *testing.T) {
	table := newTable(t)
	perms := []Permission{PermTaskView, PermTaskDelete, PermChangeApprove}

	for _, role := range AllRoles() {
		if table.HasAll(role, perms...) {
			assert.True(t, table.HasAny(role, perms...), "hasAll implies hasAny for %s", role)
		}
		if !table.HasAny(role, perms...) {
			assert.False(t, table.HasAll(role, perms...), "!hasAny implies !hasAll for %s", role)
		}
	}
}

func TestFieldWorkerTaskPermissions(t *testing.T) {
	table := newTable(t)

	assert.True(t, table.HasPermission(RoleFieldWorker, PermTaskView))
	assert.False(t, table.HasPermission(RoleFieldWorker, PermTaskDelete))
}

func TestAccountingCannotCreateTasks(t *testing.T) {
	table := newTable(t)

	assert.True(t, table.HasPermission(RoleAccounting, PermTaskView))
	assert.False(t, table.HasAny(RoleAccounting, PermTaskCreate))
}

func TestSummaryGroupsByResource(t *testing.T) {
	table := newTable(t)

	summary := table.Summary(RoleFieldWorker)
	assert.Contains(t, summary["task"], "view")
	assert.Contains(t, summary["task"], "acknowledge")
	assert.NotContains(t, summary["task"], "delete")
	assert.NotContains(t, summary, "admin")
}
