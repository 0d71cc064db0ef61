package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsOwner(t *testing.T) {
	assert.True(t, IsOwner(7, 7))
	assert.False(t, IsOwner(7, 8))
}

func TestCanEditResourceGeneralPermission(t *testing.T) {
	table := newTable(t)

	// Superintendent holds timecard:approve outright, ownership irrelevant.
	assert.True(t, table.CanEditResource(1, 2, RoleSuperintendent, PermTimecardApprove, ""))
}

func TestCanEditResourceOwnershipOverride(t *testing.T) {
	table := newTable(t)

	// Field workers lack timecard:approve but may update their own timecard.
	assert.True(t, table.CanEditResource(5, 5, RoleFieldWorker, PermTimecardApprove, PermTimecardUpdateOwn))
	// Not the owner: the override does not apply.
	assert.False(t, table.CanEditResource(5, 6, RoleFieldWorker, PermTimecardApprove, PermTimecardUpdateOwn))
	// Owner, but role holds neither permission.
	assert.False(t, table.CanEditResource(5, 5, RoleFieldWorker, PermTaskDelete, PermTaskAssign))
	// No ownership permission supplied: general permission decides alone.
	assert.False(t, table.CanEditResource(5, 5, RoleFieldWorker, PermTimecardApprove, ""))
}
