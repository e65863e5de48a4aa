package auth

import (
	"crypto/rand"
	"fmt"
	"sync"
)

// MinSecretLength is the minimum length, in bytes, accepted for a
// configured signing secret.
const MinSecretLength = 32

// ephemeralKey is generated at most once per process. Multiple requests may
// race into key resolution at startup, so generation is single-flight.
var ephemeralKey struct {
	once sync.Once
	key  []byte
	err  error
}

// ResolveSigningKey resolves the process-wide token signing key, eagerly,
// at startup.
//
// A configured secret of at least MinSecretLength bytes is used as-is.
// When the secret is absent or too short, behaviour depends on
// allowEphemeral: if false (production), resolution fails so the process
// refuses to start with a weak key; if true (local development only), a
// fresh random 32-byte key is generated once and cached for the lifetime
// of the process. Tokens signed with an ephemeral key become unverifiable
// after a restart — callers that need long-lived tokens must configure a
// stable secret.
func ResolveSigningKey(secret string, allowEphemeral bool) ([]byte, error) {
	if len(secret) >= MinSecretLength {
		return []byte(secret), nil
	}
	if !allowEphemeral {
		return nil, fmt.Errorf("signing secret must be at least %d bytes (got %d); configure a stable secret or enable the insecure ephemeral key for local development", MinSecretLength, len(secret))
	}
	ephemeralKey.once.Do(func() {
		key := make([]byte, MinSecretLength)
		if _, err := rand.Read(key); err != nil {
			ephemeralKey.err = fmt.Errorf("failed to generate ephemeral signing key: %w", err)
			return
		}
		ephemeralKey.key = key
	})
	return ephemeralKey.key, ephemeralKey.err
}
