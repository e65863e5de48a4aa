// Package guard evaluates the role hierarchy: whether an actor holding a
// given role may act on a resource owned by a user of a given role, and
// which role changes an actor may perform.
//
// The hierarchy is USER < ADMIN < SUPER_ADMIN. SUPER_ADMIN is unrestricted.
// ADMIN may act on its own resources and on resources owned by USER-role
// accounts, but never on those owned by another ADMIN or a SUPER_ADMIN.
// USER may act only on its own resources. Any role outside the enumerated
// set is denied outright; a configuration or data error never grants
// access.
package guard

import (
	"errors"
	"fmt"

	"github.com/iscander13/back/pkg/auth"
)

// ErrForbidden is the distinguishable access-denied signal. Handlers map it
// to a 403 response. It is distinct from a not-found condition so clients
// can tell "not permitted" from "does not exist".
var ErrForbidden = errors.New("forbidden")

// CanActOn reports whether an actor with the given role may act on a
// resource owned by an account holding ownerRole. self is true when the
// actor owns the resource.
func CanActOn(actor, ownerRole auth.Role, self bool) bool {
	switch actor {
	case auth.RoleSuperAdmin:
		return true
	case auth.RoleAdmin:
		return self || ownerRole == auth.RoleUser
	case auth.RoleUser:
		return self
	default:
		return false
	}
}

// CheckOwnership verifies that the principal may act on a resource owned by
// the account with ownerID holding ownerRole. Returns ErrForbidden on any
// hierarchy or ownership violation.
func CheckOwnership(p *auth.Principal, ownerID int64, ownerRole auth.Role) error {
	if !CanActOn(p.Role, ownerRole, p.SameUser(ownerID)) {
		return fmt.Errorf("%w: role %s may not act on resources owned by role %s", ErrForbidden, p.Role, ownerRole)
	}
	return nil
}

// CheckDelegation verifies that the principal may act on behalf of the
// target account (impersonation-by-parameter). Acting on oneself is always
// permitted; specifying another target is gated by the same ceiling rules
// as CheckOwnership, so only ADMIN and SUPER_ADMIN can delegate, and an
// ADMIN is still blocked from targeting another ADMIN or a SUPER_ADMIN.
func CheckDelegation(p *auth.Principal, targetID int64, targetRole auth.Role) error {
	if p.SameUser(targetID) {
		return nil
	}
	if !p.IsAdmin() {
		return fmt.Errorf("%w: only administrators may act on behalf of another user", ErrForbidden)
	}
	return CheckOwnership(p, targetID, targetRole)
}

// ValidateRoleChange validates and authorizes a role update. The requested
// role string is case-normalized and must belong to the closed role set;
// an unknown value returns auth.ErrInvalidRole regardless of the actor.
//
// SUPER_ADMIN may set any valid role on any target. ADMIN may not assign
// ADMIN or SUPER_ADMIN, and may not modify a target currently holding
// SUPER_ADMIN. Any other actor role is denied.
func ValidateRoleChange(actor, targetCurrent auth.Role, requested string) (auth.Role, error) {
	newRole, err := auth.ParseRole(requested)
	if err != nil {
		return "", err
	}

	switch actor {
	case auth.RoleSuperAdmin:
		return newRole, nil
	case auth.RoleAdmin:
		if newRole == auth.RoleAdmin || newRole == auth.RoleSuperAdmin {
			return "", fmt.Errorf("%w: an administrator may not assign the %s role", ErrForbidden, newRole)
		}
		if targetCurrent == auth.RoleSuperAdmin {
			return "", fmt.Errorf("%w: an administrator may not modify a super administrator", ErrForbidden)
		}
		return newRole, nil
	default:
		return "", fmt.Errorf("%w: role %s may not change user roles", ErrForbidden, actor)
	}
}
