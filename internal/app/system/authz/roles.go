// internal/app/system/authz/roles.go
package authz

import "strings"

// Role is an administrative role. The set is closed: anything outside the
// four constants below is rejected at resolution time.
type Role string

const (
	RoleSuperAdmin   Role = "super_admin"
	RoleAdmin        Role = "admin"
	RoleWingChairman Role = "wing_chairman"
	RoleModerator    Role = "moderator"
)

// Roles lists every known role.
var Roles = []Role{RoleSuperAdmin, RoleAdmin, RoleWingChairman, RoleModerator}

// ParseRole normalizes and validates a role string against the known set.
// The second return is false for empty or unrecognized values.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleSuperAdmin:
		return RoleSuperAdmin, true
	case RoleAdmin:
		return RoleAdmin, true
	case RoleWingChairman:
		return RoleWingChairman, true
	case RoleModerator:
		return RoleModerator, true
	}
	return "", false
}
