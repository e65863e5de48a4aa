package auth

import (
	"fmt"
	"strings"
)

// Role is an account role. The set is closed: USER, ADMIN and SUPER_ADMIN
// are the only values accepted at any write boundary (registration, role
// updates, token verification). Anything else is rejected, never defaulted.
type Role string

const (
	RoleUser       Role = "USER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// AuthorityPrefix is prepended to a role name to form the authority string
// carried in the token roles claim, e.g. "ROLE_ADMIN".
const AuthorityPrefix = "ROLE_"

// Valid reports whether r is one of the three enumerated roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Authority returns the authority string for the role ("ROLE_" + name).
func (r Role) Authority() string {
	return AuthorityPrefix + string(r)
}

// IsAdmin reports whether the role carries administrator privileges.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// ParseRole normalizes and validates a role string. The input is
// case-insensitive; a leading "ROLE_" prefix is accepted so both bare role
// names and authority strings parse.
func ParseRole(s string) (Role, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.TrimPrefix(normalized, AuthorityPrefix)
	role := Role(normalized)
	if !role.Valid() {
		return "", fmt.Errorf("%w: %q (valid roles: USER, ADMIN, SUPER_ADMIN)", ErrInvalidRole, s)
	}
	return role, nil
}
