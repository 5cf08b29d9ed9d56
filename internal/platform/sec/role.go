// Copyright (c) 2026 Atelier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # Operator Roles

// UserRole represents the authorization level granted to an operator.
type UserRole string

const (
	// Full catalog control, including hard deletes.
	RoleAdmin UserRole = "admin"

	// Can upload assets and rebind zones.
	RoleEditor UserRole = "editor"

	// Read-only access to the editor surface.
	RoleViewer UserRole = "viewer"
)

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r UserRole) level() int {
	switch r {
	case RoleAdmin:
		return 30
	case RoleEditor:
		return 20
	case RoleViewer:
		return 10
	default:
		return 0
	}
}
