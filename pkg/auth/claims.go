package auth

import (
	"encoding/json"

	"github.com/golang-jwt/jwt/v5"
)

// RoleList is the roles claim. Token issuers under our control always write
// strings, but the claim is validated defensively: entries that are not
// strings are discarded rather than failing the whole decode.
type RoleList []string

// UnmarshalJSON decodes a JSON array, keeping only string entries.
func (rl *RoleList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make([]string, 0, len(raw))
	for _, entry := range raw {
		var s string
		if err := json.Unmarshal(entry, &s); err != nil {
			continue
		}
		out = append(out, s)
	}
	*rl = out
	return nil
}

// Claims is the typed token payload. The subject is the account email.
// The impersonation fields are present only on tokens minted through the
// admin impersonation endpoint.
type Claims struct {
	Roles              RoleList `json:"roles"`
	IsImpersonating    bool     `json:"isImpersonating,omitempty"`
	ImpersonatedUserID *int64   `json:"impersonatedUserId,omitempty"`
	AdminID            *int64   `json:"adminId,omitempty"`
	jwt.RegisteredClaims
}

// HasAuthority reports whether the roles claim contains the authority
// string for the given role.
func (c *Claims) HasAuthority(role Role) bool {
	for _, entry := range c.Roles {
		if entry == role.Authority() {
			return true
		}
	}
	return false
}

// PrimaryRole returns the first recognized role in the claim. Every entry
// must parse against the closed role set; an unknown role string fails the
// claim as a whole so a bad value never maps to a privilege level.
func (c *Claims) PrimaryRole() (Role, error) {
	if len(c.Roles) == 0 {
		return "", ErrInvalidRole
	}
	var first Role
	for i, entry := range c.Roles {
		role, err := ParseRole(entry)
		if err != nil {
			return "", err
		}
		if i == 0 {
			first = role
		}
	}
	return first, nil
}
