package authz

// IsOwner reports whether the user owns the resource.
func IsOwner(userID, resourceOwnerID int64) bool {
	return userID == resourceOwnerID
}

// CanEditResource reports whether the user may edit a resource. The general
// edit permission allows editing regardless of ownership; otherwise the
// caller must own the resource and hold editOwnPerm. Pass the zero
// Permission for editOwnPerm when no ownership override applies.
func (t *Table) CanEditResource(userID, resourceOwnerID int64, role Role, editPerm, editOwnPerm Permission) bool {
	if t.HasPermission(role, editPerm) {
		return true
	}
	if editOwnPerm != "" && IsOwner(userID, resourceOwnerID) {
		return t.HasPermission(role, editOwnPerm)
	}
	return false
}
