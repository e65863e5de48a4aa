package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is used when no TTL is configured.
const DefaultTokenTTL = time.Hour

// Codec issues and verifies signed bearer tokens. It holds the single
// process-wide symmetric key; see ResolveSigningKey for how that key is
// obtained. Codec is safe for concurrent use.
type Codec struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewCodec creates a token codec with the given signing key and TTL.
func NewCodec(key []byte, ttl time.Duration) *Codec {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Codec{
		key: key,
		ttl: ttl,
		now: time.Now,
	}
}

// Issue creates a signed token for the given subject (email) and role.
// The roles claim carries the authority string ("ROLE_" + role).
func (c *Codec) Issue(email string, role Role) (string, error) {
	return c.sign(Claims{
		Roles: RoleList{role.Authority()},
	}, email)
}

// IssueImpersonation creates a token that authenticates as the target user
// while recording which administrator initiated the session. The token's
// subject is the target's email, so downstream resolution behaves exactly
// as if the target had logged in.
func (c *Codec) IssueImpersonation(targetEmail string, targetRole Role, targetID, adminID int64) (string, error) {
	return c.sign(Claims{
		Roles:              RoleList{targetRole.Authority()},
		IsImpersonating:    true,
		ImpersonatedUserID: &targetID,
		AdminID:            &adminID,
	}, targetEmail)
}

func (c *Codec) sign(claims Claims, subject string) (string, error) {
	now := c.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token string. Expiry is checked strictly
// against the codec's clock; a token past expiry never verifies regardless
// of signature validity. Every string entry of the roles claim must belong
// to the closed role set.
//
// Failures are reported as ErrTokenExpired, ErrBadSignature,
// ErrTokenMalformed or ErrInvalidRole.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return c.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrBadSignature
		default:
			return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		}
	}
	if !token.Valid {
		return nil, ErrTokenMalformed
	}
	if _, err := claims.PrimaryRole(); err != nil {
		return nil, err
	}
	return claims, nil
}

// ExtractSubject verifies a token and returns its subject (the account
// email).
func (c *Codec) ExtractSubject(tokenString string) (string, error) {
	claims, err := c.Verify(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}
