package authz

// Role is a named category of user governing default capabilities. A user
// holds exactly one role at a time; it only changes through the admin surface.
type Role string

const (
	RoleAdmin              Role = "admin"
	RoleProjectManager     Role = "project_manager"
	RoleSuperintendent     Role = "superintendent"
	RoleForeman            Role = "foreman"
	RoleProjectEngineer    Role = "project_engineer"
	RoleAccounting         Role = "accounting"
	RoleLogistics          Role = "logistics"
	RoleDocumentController Role = "document_controller"
	RoleServiceDispatcher  Role = "service_dispatcher"
	RoleFieldWorker        Role = "field_worker"
)

// AllRoles returns every defined role.
func AllRoles() []Role {
	return []Role{
		RoleAdmin,
		RoleProjectManager,
		RoleSuperintendent,
		RoleForeman,
		RoleProjectEngineer,
		RoleAccounting,
		RoleLogistics,
		RoleDocumentController,
		RoleServiceDispatcher,
		RoleFieldWorker,
	}
}

func (r Role) String() string { return string(r) }

// Valid reports whether the role is one of the defined roles.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// IsAdmin reports whether the role is the administrator role.
func IsAdmin(role Role) bool {
	return role == RoleAdmin
}

// IsManagerLevel reports whether the role is admin, project manager or
// superintendent. Several task operations allow manager-level roles to act
// on records they do not own.
func IsManagerLevel(role Role) bool {
	switch role {
	case RoleAdmin, RoleProjectManager, RoleSuperintendent:
		return true
	}
	return false
}

// roleRanks orders roles for user-management delegation only. It is
// independent of the permission table: holding broader permissions never
// grants management over a peer of equal rank.
var roleRanks = map[Role]int{
	RoleAdmin:              100,
	RoleProjectManager:     90,
	RoleSuperintendent:     85,
	RoleForeman:            70,
	RoleProjectEngineer:    70,
	RoleAccounting:         60,
	RoleLogistics:          50,
	RoleDocumentController: 50,
	RoleServiceDispatcher:  50,
	RoleFieldWorker:        10,
}

// Rank returns the hierarchy rank for the role. Unknown roles rank zero.
func Rank(role Role) int {
	return roleRanks[role]
}

// CanManageUser reports whether a user with managerRole may manage a user
// with targetRole. The comparison is strictly greater: equal-rank peers can
// never manage each other, admins included.
func CanManageUser(managerRole, targetRole Role) bool {
	return roleRanks[managerRole] > roleRanks[targetRole]
}
