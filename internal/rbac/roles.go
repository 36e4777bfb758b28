package rbac

import "protoapp/internal/auth"

// RoleFor derives the token role from the authoritative user record.
// Keep this the only place that maps user state to a role.
func RoleFor(isAdmin bool) auth.Role {
	if isAdmin {
		return auth.RoleAdmin
	}
	return auth.RoleUser
}

func IsAdmin(role auth.Role) bool { return role == auth.RoleAdmin }
