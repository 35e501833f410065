package credential

import "errors"

// Sentinel errors for credential handling.
var (
	// ErrEmptyToken is returned when a source is built without a token.
	ErrEmptyToken = errors.New("credential: empty token")

	// ErrNoSigningKey is returned when a JWT source is built without
	// a signing key.
	ErrNoSigningKey = errors.New("credential: no signing key")

	// ErrNoSource is returned when a transport is built without a source.
	ErrNoSource = errors.New("credential: no source configured")

	// ErrUnknownSource is returned when a registry lookup misses.
	ErrUnknownSource = errors.New("credential: unknown source")
)
