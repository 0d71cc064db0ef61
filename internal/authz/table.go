package authz

import (
	"fmt"
	"sort"
)

type permSet map[Permission]struct{}

func setOf(perms ...Permission) permSet {
	s := make(permSet, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

// Table is the process-wide role-permission mapping. It is built once at
// startup, validated, and read-only afterwards, so unsynchronized concurrent
// reads are safe.
type Table struct {
	grants map[Role]permSet
}

// NewTable builds and validates the role-permission table. A validation
// failure is a configuration error: the process must not serve traffic.
func NewTable() (*Table, error) {
	universe := setOf(AllPermissions()...)

	// Every permission except the admin group.
	fullAccess := make(permSet, len(universe))
	for p := range universe {
		if isAdminPermission(p) {
			continue
		}
		fullAccess[p] = struct{}{}
	}

	grants := map[Role]permSet{
		RoleAdmin:          universe,
		RoleProjectManager: fullAccess,
		RoleSuperintendent: fullAccess,

		RoleForeman: setOf(
			PermProjectView,
			PermTaskView, PermTaskCreate, PermTaskAssign,
			PermTaskUpdate, PermTaskAcknowledge, PermTaskComplete,
			PermDailyReportView, PermDailyReportCreate, PermDailyReportUpdate,
			PermPhotoView, PermPhotoCreate, PermPhotoUpdate,
			PermDocumentView,
			PermRFIView, PermRFICreate, PermRFIUpdate,
			PermChangeView, PermChangeCreate,
			PermPunchView, PermPunchCreate, PermPunchUpdate,
			PermDeliveryView, PermDeliveryConfirm,
			PermConstraintView, PermConstraintCreate, PermConstraintUpdate,
			PermDecisionView, PermDecisionCreate,
			PermTimecardViewOwn, PermTimecardViewAll,
			PermTimecardCreate, PermTimecardUpdateOwn,
			PermCostCodeView,
			PermServiceView,
		),

		RoleProjectEngineer: setOf(
			PermProjectView,
			PermTaskView, PermTaskCreate, PermTaskAssign,
			PermTaskUpdate, PermTaskAcknowledge, PermTaskComplete,
			PermDailyReportView,
			PermPhotoView, PermPhotoCreate, PermPhotoUpdate,
			PermDocumentView, PermDocumentCreate,
			PermDocumentUpdate, PermDocumentManageRevisions,
			PermRFIView, PermRFICreate, PermRFIUpdate, PermRFIAnswer,
			PermChangeView, PermChangeCreate, PermChangePrice,
			PermPunchView, PermPunchCreate, PermPunchUpdate,
			PermDeliveryView,
			PermConstraintView, PermConstraintCreate,
			PermConstraintUpdate, PermConstraintResolve,
			PermDecisionView, PermDecisionCreate,
			PermTimecardViewOwn, PermTimecardCreate, PermTimecardUpdateOwn,
			PermCostCodeView,
			PermServiceView,
		),

		RoleAccounting: setOf(
			PermProjectView,
			PermTaskView,
			PermDailyReportView,
			PermPhotoView,
			PermDocumentView,
			PermRFIView,
			PermChangeView, PermChangePrice, PermChangeApprove,
			PermPunchView,
			PermDeliveryView,
			PermConstraintView,
			PermDecisionView,
			PermTimecardViewOwn, PermTimecardViewAll,
			PermTimecardCreate, PermTimecardUpdateOwn, PermTimecardApprove,
			PermCostCodeView, PermCostCodeCreate, PermCostCodeUpdate,
			PermServiceView,
		),

		RoleLogistics: setOf(
			PermProjectView,
			PermTaskView, PermTaskAcknowledge, PermTaskComplete,
			PermDailyReportView,
			PermPhotoView, PermPhotoCreate,
			PermDocumentView,
			PermRFIView,
			PermChangeView,
			PermPunchView,
			PermDeliveryView, PermDeliveryCreate,
			PermDeliveryUpdate, PermDeliveryConfirm,
			PermConstraintView, PermConstraintCreate,
			PermConstraintUpdate, PermConstraintResolve,
			PermDecisionView,
			PermTimecardViewOwn, PermTimecardCreate, PermTimecardUpdateOwn,
			PermCostCodeView,
			PermServiceView,
		),

		RoleDocumentController: setOf(
			PermProjectView,
			PermTaskView, PermTaskAcknowledge, PermTaskComplete,
			PermDailyReportView,
			PermPhotoView,
			PermDocumentView, PermDocumentCreate,
			PermDocumentUpdate, PermDocumentDelete, PermDocumentManageRevisions,
			PermRFIView,
			PermChangeView,
			PermPunchView,
			PermDeliveryView,
			PermConstraintView,
			PermDecisionView,
			PermTimecardViewOwn, PermTimecardCreate, PermTimecardUpdateOwn,
			PermCostCodeView,
			PermServiceView,
		),

		RoleServiceDispatcher: setOf(
			PermProjectView,
			PermTaskView,
			PermDailyReportView,
			PermPhotoView, PermPhotoCreate,
			PermDocumentView,
			PermRFIView,
			PermChangeView,
			PermPunchView,
			PermDeliveryView,
			PermConstraintView,
			PermDecisionView,
			PermTimecardViewOwn, PermTimecardCreate, PermTimecardUpdateOwn,
			PermCostCodeView,
			PermServiceView, PermServiceCreate,
			PermServiceAssign, PermServiceUpdate, PermServiceComplete,
		),

		RoleFieldWorker: setOf(
			PermProjectView,
			PermTaskView, PermTaskAcknowledge, PermTaskComplete,
			PermDailyReportView,
			PermPhotoView, PermPhotoCreate,
			PermDocumentView,
			PermRFIView, PermRFICreate,
			PermChangeView, PermChangeCreate,
			PermPunchView, PermPunchCreate,
			PermDeliveryView, PermDeliveryConfirm,
			PermConstraintView,
			PermDecisionView,
			PermTimecardViewOwn, PermTimecardCreate, PermTimecardUpdateOwn,
			PermCostCodeView,
			PermServiceView,
		),
	}

	t := &Table{grants: grants}
	if err := t.validate(universe); err != nil {
		return nil, fmt.Errorf("authz: invalid role-permission table: %w", err)
	}
	return t, nil
}

// validate enforces the construction-time invariants: every role holds a
// non-empty set, every permission is reachable through at least one role,
// and the admin set is a superset of every other role's set.
func (t *Table) validate(universe permSet) error {
	reachable := make(permSet, len(universe))
	admin := t.grants[RoleAdmin]

	for _, role := range AllRoles() {
		grants, ok := t.grants[role]
		if !ok || len(grants) == 0 {
			return fmt.Errorf("role %s has no permissions", role)
		}
		for p := range grants {
			if _, ok := universe[p]; !ok {
				return fmt.Errorf("role %s grants undefined permission %s", role, p)
			}
			if _, ok := admin[p]; !ok {
				return fmt.Errorf("admin is missing permission %s held by %s", p, role)
			}
			reachable[p] = struct{}{}
		}
	}

	for p := range universe {
		if _, ok := reachable[p]; !ok {
			return fmt.Errorf("permission %s is not granted to any role", p)
		}
	}
	return nil
}

// PermissionsFor returns the permissions granted to a role, sorted for
// stable output. Unknown roles receive the empty set, never an error.
func (t *Table) PermissionsFor(role Role) []Permission {
	grants := t.grants[role]
	perms := make([]Permission, 0, len(grants))
	for p := range grants {
		perms = append(perms, p)
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i] < perms[j] })
	return perms
}

// HasPermission reports whether the role holds the permission.
func (t *Table) HasPermission(role Role, perm Permission) bool {
	_, ok := t.grants[role][perm]
	return ok
}

// HasAny reports whether the role holds at least one of the permissions.
func (t *Table) HasAny(role Role, perms ...Permission) bool {
	for _, p := range perms {
		if t.HasPermission(role, p) {
			return true
		}
	}
	return false
}

// HasAll reports whether the role holds every listed permission.
func (t *Table) HasAll(role Role, perms ...Permission) bool {
	for _, p := range perms {
		if !t.HasPermission(role, p) {
			return false
		}
	}
	return true
}

// Summary groups a role's permissions by resource, keyed by resource name
// with sorted action lists. Used by the /users/me/permissions endpoint.
func (t *Table) Summary(role Role) map[string][]string {
	summary := make(map[string][]string)
	for _, p := range t.PermissionsFor(role) {
		summary[p.Resource()] = append(summary[p.Resource()], p.Action())
	}
	for _, actions := range summary {
		sort.Strings(actions)
	}
	return summary
}
