// internal/app/system/authz/authz.go

// Package authz holds the static role → permission table and the engine
// that evaluates resource:action grants against it, including wildcard and
// wing-scoped rules. The engine authorizes actions only; callers filter
// wing-scoped collections through AllowedWings after querying.
package authz

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAuthorizationDenied is returned when a role's permission set does not
// grant the requested resource:action.
var ErrAuthorizationDenied = errors.New("authorization denied")

// WingScopedSuffix marks actions whose results must be restricted to the
// caller's allowed wings.
const WingScopedSuffix = "_wing"

// permissionTable maps each role to its granted permissions. Entries are
// either the universal wildcard "*", a resource wildcard "resource:*", or
// an exact "resource:action" grant. Unknown roles have the empty set.
var permissionTable = map[Role][]string{
	RoleSuperAdmin: {"*"},
	RoleAdmin: {
		"maintenance:*",
		"users:*",
		"announcements:*",
		"notifications:*",
		"analytics:*",
		"join_requests:*",
		"events:*",
		"society:read",
		"society:write",
		"forum:moderate",
	},
	RoleWingChairman: {
		"maintenance:read",
		"maintenance:approve",
		"users:read",
		"users:read_wing",
		"announcements:read",
		"announcements:write",
		"announcements:read_wing",
		"announcements:write_wing",
		"notifications:read",
		"notifications:send",
		"notifications:read_wing",
		"notifications:send_wing",
		"analytics:read",
		"analytics:read_wing",
		"join_requests:read",
		"join_requests:approve",
		"events:read",
		"events:create",
	},
	RoleModerator: {
		"forum:*",
		"announcements:read",
		"notifications:read",
		"users:read",
	},
}

// PermissionsFor returns a copy of the role's permission set. Unknown roles
// yield nil.
func PermissionsFor(role Role) []string {
	perms, ok := permissionTable[role]
	if !ok {
		return nil
	}
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// HasPermission reports whether the role's set grants resource:action. A
// grant exists iff the set contains "*", an exact "resource:action" match,
// or a "resource:*" wildcard.
func HasPermission(role Role, resource, action string) bool {
	perms, ok := permissionTable[role]
	if !ok {
		return false
	}
	want := resource + ":" + action
	wild := resource + ":*"
	for _, p := range perms {
		if p == "*" || p == want || p == wild {
			return true
		}
	}
	return false
}

// Require returns ErrAuthorizationDenied (wrapped with the requested
// permission for logging) unless the role grants resource:action.
func Require(role Role, resource, action string) error {
	if HasPermission(role, resource, action) {
		return nil
	}
	return fmt.Errorf("%w: %s lacks %s:%s", ErrAuthorizationDenied, role, resource, action)
}

// IsWingScoped reports whether an action carries the wing-restriction
// marker.
func IsWingScoped(action string) bool {
	return strings.HasSuffix(action, WingScopedSuffix)
}

// AllowedWings resolves the wing set a caller may see for wing-scoped
// actions: the explicit assignment list when present, otherwise the
// caller's own wing. A caller with neither gets an empty set.
func AllowedWings(assigned []string, ownWing string) []string {
	if len(assigned) > 0 {
		out := make([]string, len(assigned))
		copy(out, assigned)
		return out
	}
	if ownWing != "" {
		return []string{ownWing}
	}
	return nil
}
