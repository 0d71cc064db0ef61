package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanManageUserStrictness(t *testing.T) {
	// No role can manage a peer of equal rank, itself included.
	for _, role := range AllRoles() {
		assert.False(t, CanManageUser(role, role), "%s must not manage itself", role)
	}
	assert.False(t, CanManageUser(RoleAdmin, RoleAdmin))
	assert.False(t, CanManageUser(RoleForeman, RoleProjectEngineer), "equal rank peers")
}

func TestCanManageUserHierarchy(t *testing.T) {
	assert.True(t, CanManageUser(RoleAdmin, RoleProjectManager))
	assert.True(t, CanManageUser(RoleProjectManager, RoleSuperintendent))
	assert.True(t, CanManageUser(RoleSuperintendent, RoleFieldWorker))
	assert.False(t, CanManageUser(RoleFieldWorker, RoleAdmin))
	assert.False(t, CanManageUser(RoleLogistics, RoleDocumentController))
}

func TestCanManageUserUnknownRoles(t *testing.T) {
	// Unknown roles rank zero: they manage nobody, and anyone ranked
	// above zero manages them.
	unknown := Role("intern")
	assert.False(t, CanManageUser(unknown, RoleFieldWorker))
	assert.True(t, CanManageUser(RoleFieldWorker, unknown))
	assert.False(t, CanManageUser(unknown, unknown))
}

func TestIsManagerLevel(t *testing.T) {
	assert.True(t, IsManagerLevel(RoleAdmin))
	assert.True(t, IsManagerLevel(RoleProjectManager))
	assert.True(t, IsManagerLevel(RoleSuperintendent))
	assert.False(t, IsManagerLevel(RoleForeman))
	assert.False(t, IsManagerLevel(Role("nonexistent-role")))
}
