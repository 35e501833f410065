package credential

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTConfig configures a self-minting JWT source, for gateways that
// authenticate service callers with short-lived signed tokens.
type JWTConfig struct {
	// Name is the registry name for this source, so several JWT
	// sources with distinct signing keys can coexist, one per
	// provider gateway.
	// Default: "jwt"
	Name string

	// Issuer is the iss claim.
	Issuer string

	// Subject is the sub claim.
	Subject string

	// Audience is the aud claim.
	Audience string

	// SigningKey is the HMAC key tokens are signed with.
	SigningKey []byte

	// TTL is how long each minted token is valid.
	// Default: 5 minutes
	TTL time.Duration

	// RefreshSkew re-mints a cached token this long before it
	// expires, so callers never present a token at the edge of its
	// validity window.
	// Default: 30 seconds
	RefreshSkew time.Duration
}

// JWTSource mints and caches signed JWTs. The cached token is reused
// until it enters the refresh window, then replaced under the lock so
// concurrent callers see exactly one mint.
type JWTSource struct {
	config JWTConfig
	now    func() time.Time

	mu     sync.Mutex
	cached Credential
}

// NewJWTSource creates a JWT source.
func NewJWTSource(config JWTConfig) (*JWTSource, error) {
	if len(config.SigningKey) == 0 {
		return nil, ErrNoSigningKey
	}

	// Apply defaults
	if config.Name == "" {
		config.Name = "jwt"
	}
	if config.TTL <= 0 {
		config.TTL = 5 * time.Minute
	}
	if config.RefreshSkew <= 0 {
		config.RefreshSkew = 30 * time.Second
	}
	if config.RefreshSkew >= config.TTL {
		config.RefreshSkew = config.TTL / 2
	}

	return &JWTSource{
		config: config,
		now:    time.Now,
	}, nil
}

// Name returns the source name.
func (s *JWTSource) Name() string {
	return s.config.Name
}

// Token returns a signed JWT, minting a fresh one when the cached
// token is inside the refresh window.
func (s *JWTSource) Token(_ context.Context) (Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.cached.Token != "" && now.Before(s.cached.ExpiresAt.Add(-s.config.RefreshSkew)) {
		return s.cached, nil
	}

	cred, err := s.mint(now)
	if err != nil {
		return Credential{}, err
	}
	s.cached = cred
	return cred, nil
}

func (s *JWTSource) mint(now time.Time) (Credential, error) {
	expiresAt := now.Add(s.config.TTL)

	claims := jwt.RegisteredClaims{
		Issuer:    s.config.Issuer,
		Subject:   s.config.Subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	if s.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{s.config.Audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.config.SigningKey)
	if err != nil {
		return Credential{}, err
	}

	return Credential{Token: signed, ExpiresAt: expiresAt}, nil
}

// Ensure JWTSource implements Source
var _ Source = (*JWTSource)(nil)
