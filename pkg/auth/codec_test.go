package auth

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = bytes.Repeat([]byte("k"), MinSecretLength)

func TestIssueAndVerify(t *testing.T) {
	codec := NewCodec(testKey, time.Hour)

	token, err := codec.Issue("farmer@example.com", RoleUser)
	require.NoError(t, err)

	claims, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "farmer@example.com", claims.Subject)
	assert.Equal(t, RoleList{"ROLE_USER"}, claims.Roles)
	assert.False(t, claims.IsImpersonating)

	role, err := claims.PrimaryRole()
	require.NoError(t, err)
	assert.Equal(t, RoleUser, role)
}

func TestVerifyExpired(t *testing.T) {
	codec := NewCodec(testKey, time.Hour)
	codec.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := codec.Issue("farmer@example.com", RoleUser)
	require.NoError(t, err)

	codec.now = time.Now
	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyWrongKey(t *testing.T) {
	issuer := NewCodec(bytes.Repeat([]byte("a"), MinSecretLength), time.Hour)
	verifier := NewCodec(bytes.Repeat([]byte("b"), MinSecretLength), time.Hour)

	token, err := issuer.Issue("farmer@example.com", RoleUser)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestVerifyMalformed(t *testing.T) {
	codec := NewCodec(testKey, time.Hour)

	for _, token := range []string{"", "garbage", "a.b.c"} {
		_, err := codec.Verify(token)
		assert.ErrorIs(t, err, ErrTokenMalformed, "token %q", token)
	}
}

func TestIssueImpersonation(t *testing.T) {
	codec := NewCodec(testKey, time.Hour)

	token, err := codec.IssueImpersonation("farmer@example.com", RoleUser, 7, 3)
	require.NoError(t, err)

	claims, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "farmer@example.com", claims.Subject)
	assert.True(t, claims.IsImpersonating)
	require.NotNil(t, claims.ImpersonatedUserID)
	assert.Equal(t, int64(7), *claims.ImpersonatedUserID)
	require.NotNil(t, claims.AdminID)
	assert.Equal(t, int64(3), *claims.AdminID)
}

func TestVerifyRejectsUnknownRoleClaim(t *testing.T) {
	codec := NewCodec(testKey, time.Hour)

	token, err := codec.Issue("farmer@example.com", Role("OWNER"))
	require.NoError(t, err)

	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestExtractSubject(t *testing.T) {
	codec := NewCodec(testKey, time.Hour)

	token, err := codec.Issue("farmer@example.com", RoleAdmin)
	require.NoError(t, err)

	subject, err := codec.ExtractSubject(token)
	require.NoError(t, err)
	assert.Equal(t, "farmer@example.com", subject)
}

func TestDefaultTTL(t *testing.T) {
	codec := NewCodec(testKey, 0)
	assert.Equal(t, DefaultTokenTTL, codec.ttl)
}
