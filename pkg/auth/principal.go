package auth

// Principal is the authenticated identity attached to a request. It is
// constructed once per request by the Resolver and never mutated afterwards.
//
// UserID is nil for a synthetic administrator principal minted from token
// claims alone (see Resolver); for principals backed by a stored account it
// is the account's identifier.
type Principal struct {
	UserID *int64
	Email  string
	Role   Role

	// Impersonation metadata copied from the token, when present.
	IsImpersonating    bool
	ImpersonatedUserID *int64
	AdminID            *int64
}

// Authority returns the principal's authority string ("ROLE_" + role).
func (p *Principal) Authority() string {
	return p.Role.Authority()
}

// IsAdmin reports whether the principal holds ADMIN or SUPER_ADMIN.
func (p *Principal) IsAdmin() bool {
	return p.Role.IsAdmin()
}

// SameUser reports whether the principal is backed by the stored account
// with the given id.
func (p *Principal) SameUser(userID int64) bool {
	return p.UserID != nil && *p.UserID == userID
}
