package credential

import (
	"context"
)

// Static is a source backed by a fixed API key. It never expires and
// never fails once constructed.
type Static struct {
	name        string
	token       string
	fingerprint string
}

// NewStatic creates a static source holding the given token.
func NewStatic(name, token string) (*Static, error) {
	if token == "" {
		return nil, ErrEmptyToken
	}
	if name == "" {
		name = "static"
	}

	return &Static{
		name:        name,
		token:       token,
		fingerprint: Fingerprint(token),
	}, nil
}

// Name returns the source name.
func (s *Static) Name() string {
	return s.name
}

// Token returns the fixed credential.
func (s *Static) Token(_ context.Context) (Credential, error) {
	return Credential{Token: s.token}, nil
}

// Fingerprint returns the loggable handle for the key.
func (s *Static) Fingerprint() string {
	return s.fingerprint
}

// Ensure Static implements Source
var _ Source = (*Static)(nil)
