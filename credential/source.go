package credential

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Credential is a secret ready to present to a provider.
type Credential struct {
	// Token is the secret itself.
	Token string

	// ExpiresAt is when the token stops being valid (zero = never).
	ExpiresAt time.Time
}

// Expired reports whether the credential is past the given instant.
func (c Credential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Source produces credentials on demand. Implementations must be safe
// for concurrent use; callers may request a token per outbound call.
type Source interface {
	// Name identifies the source for registry lookup and logging.
	Name() string

	// Token returns a credential valid at the time of the call.
	Token(ctx context.Context) (Credential, error)
}

// Fingerprint returns a short stable handle for a token, safe to log.
// It is the first 16 hex characters of the token's SHA-256.
func Fingerprint(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])[:16]
}
