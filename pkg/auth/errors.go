package auth

import "errors"

// Verification failures are sentinel errors so callers can map them to
// transport responses without string matching.
var (
	// ErrTokenExpired means the signature verified but the expiry has passed.
	ErrTokenExpired = errors.New("token expired")

	// ErrBadSignature means the token was signed with a different key.
	ErrBadSignature = errors.New("token signature invalid")

	// ErrTokenMalformed covers any structurally invalid token.
	ErrTokenMalformed = errors.New("token malformed")

	// ErrInvalidRole means a role string outside the enumerated set.
	ErrInvalidRole = errors.New("invalid role")
)
