// Package authz implements the role/permission model and the per-request
// authorization checks gating every route: a static role-permission table,
// project membership resolution, and ownership/hierarchy rules.
package authz

// Permission is a fine-grained capability tag of the form resource:action.
type Permission string

// Project permissions.
const (
	PermProjectView          Permission = "project:view"
	PermProjectCreate        Permission = "project:create"
	PermProjectUpdate        Permission = "project:update"
	PermProjectDelete        Permission = "project:delete"
	PermProjectManageMembers Permission = "project:manage_members"
)

// Task permissions.
const (
	PermTaskView        Permission = "task:view"
	PermTaskCreate      Permission = "task:create"
	PermTaskAssign      Permission = "task:assign"
	PermTaskUpdate      Permission = "task:update"
	PermTaskDelete      Permission = "task:delete"
	PermTaskAcknowledge Permission = "task:acknowledge"
	PermTaskComplete    Permission = "task:complete"
)

// Daily report permissions.
const (
	PermDailyReportView   Permission = "daily_report:view"
	PermDailyReportCreate Permission = "daily_report:create"
	PermDailyReportUpdate Permission = "daily_report:update"
	PermDailyReportDelete Permission = "daily_report:delete"
)

// Photo permissions.
const (
	PermPhotoView   Permission = "photo:view"
	PermPhotoCreate Permission = "photo:create"
	PermPhotoUpdate Permission = "photo:update"
	PermPhotoDelete Permission = "photo:delete"
)

// Document permissions.
const (
	PermDocumentView            Permission = "document:view"
	PermDocumentCreate          Permission = "document:create"
	PermDocumentUpdate          Permission = "document:update"
	PermDocumentDelete          Permission = "document:delete"
	PermDocumentManageRevisions Permission = "document:manage_revisions"
)

// RFI permissions.
const (
	PermRFIView   Permission = "rfi:view"
	PermRFICreate Permission = "rfi:create"
	PermRFIUpdate Permission = "rfi:update"
	PermRFIAnswer Permission = "rfi:answer"
	PermRFIDelete Permission = "rfi:delete"
)

// Change order permissions.
const (
	PermChangeView    Permission = "change:view"
	PermChangeCreate  Permission = "change:create"
	PermChangePrice   Permission = "change:price"
	PermChangeApprove Permission = "change:approve"
	PermChangeDelete  Permission = "change:delete"
)

// Punch list permissions.
const (
	PermPunchView   Permission = "punch:view"
	PermPunchCreate Permission = "punch:create"
	PermPunchUpdate Permission = "punch:update"
	PermPunchVerify Permission = "punch:verify"
	PermPunchDelete Permission = "punch:delete"
)

// Delivery permissions.
const (
	PermDeliveryView    Permission = "delivery:view"
	PermDeliveryCreate  Permission = "delivery:create"
	PermDeliveryUpdate  Permission = "delivery:update"
	PermDeliveryConfirm Permission = "delivery:confirm"
	PermDeliveryDelete  Permission = "delivery:delete"
)

// Constraint permissions.
const (
	PermConstraintView    Permission = "constraint:view"
	PermConstraintCreate  Permission = "constraint:create"
	PermConstraintUpdate  Permission = "constraint:update"
	PermConstraintResolve Permission = "constraint:resolve"
	PermConstraintDelete  Permission = "constraint:delete"
)

// Decision log permissions.
const (
	PermDecisionView   Permission = "decision:view"
	PermDecisionCreate Permission = "decision:create"
)

// Timecard permissions.
const (
	PermTimecardViewOwn   Permission = "timecard:view_own"
	PermTimecardViewAll   Permission = "timecard:view_all"
	PermTimecardCreate    Permission = "timecard:create"
	PermTimecardUpdateOwn Permission = "timecard:update_own"
	PermTimecardApprove   Permission = "timecard:approve"
	PermTimecardDelete    Permission = "timecard:delete"
)

// Cost code permissions.
const (
	PermCostCodeView   Permission = "cost_code:view"
	PermCostCodeCreate Permission = "cost_code:create"
	PermCostCodeUpdate Permission = "cost_code:update"
	PermCostCodeDelete Permission = "cost_code:delete"
)

// Service call permissions.
const (
	PermServiceView     Permission = "service:view"
	PermServiceCreate   Permission = "service:create"
	PermServiceAssign   Permission = "service:assign"
	PermServiceUpdate   Permission = "service:update"
	PermServiceComplete Permission = "service:complete"
	PermServiceDelete   Permission = "service:delete"
)

// Administrative permissions. These are never part of the full-access set
// granted to manager roles.
const (
	PermAdminViewAllProjects Permission = "admin:view_all_projects"
	PermAdminManageUsers     Permission = "admin:manage_users"
	PermAdminSystemSettings  Permission = "admin:system_settings"
)

// AllPermissions returns the full permission universe. The table validates
// itself against this list at construction time.
func AllPermissions() []Permission {
	return []Permission{
		PermProjectView, PermProjectCreate, PermProjectUpdate, PermProjectDelete, PermProjectManageMembers,
		PermTaskView, PermTaskCreate, PermTaskAssign, PermTaskUpdate, PermTaskDelete, PermTaskAcknowledge, PermTaskComplete,
		PermDailyReportView, PermDailyReportCreate, PermDailyReportUpdate, PermDailyReportDelete,
		PermPhotoView, PermPhotoCreate, PermPhotoUpdate, PermPhotoDelete,
		PermDocumentView, PermDocumentCreate, PermDocumentUpdate, PermDocumentDelete, PermDocumentManageRevisions,
		PermRFIView, PermRFICreate, PermRFIUpdate, PermRFIAnswer, PermRFIDelete,
		PermChangeView, PermChangeCreate, PermChangePrice, PermChangeApprove, PermChangeDelete,
		PermPunchView, PermPunchCreate, PermPunchUpdate, PermPunchVerify, PermPunchDelete,
		PermDeliveryView, PermDeliveryCreate, PermDeliveryUpdate, PermDeliveryConfirm, PermDeliveryDelete,
		PermConstraintView, PermConstraintCreate, PermConstraintUpdate, PermConstraintResolve, PermConstraintDelete,
		PermDecisionView, PermDecisionCreate,
		PermTimecardViewOwn, PermTimecardViewAll, PermTimecardCreate, PermTimecardUpdateOwn, PermTimecardApprove, PermTimecardDelete,
		PermCostCodeView, PermCostCodeCreate, PermCostCodeUpdate, PermCostCodeDelete,
		PermServiceView, PermServiceCreate, PermServiceAssign, PermServiceUpdate, PermServiceComplete, PermServiceDelete,
		PermAdminViewAllProjects, PermAdminManageUsers, PermAdminSystemSettings,
	}
}

// Resource returns the resource segment of the permission tag.
func (p Permission) Resource() string {
	for i := 0; i < len(p); i++ {
		if p[i] == ':' {
			return string(p[:i])
		}
	}
	return string(p)
}

// Action returns the action segment of the permission tag.
func (p Permission) Action() string {
	for i := 0; i < len(p); i++ {
		if p[i] == ':' {
			return string(p[i+1:])
		}
	}
	return ""
}

func (p Permission) String() string { return string(p) }

// isAdminPermission reports whether the permission belongs to the admin group.
func isAdminPermission(p Permission) bool {
	return p.Resource() == "admin"
}
