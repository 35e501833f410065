package secret

import "context"

// Provider resolves secret references against one backing store:
// process environment, mounted files, or an external manager such as
// Vault.
//
// Implementations must be safe for concurrent use and must never log
// resolved values.
type Provider interface {
	// Name is the scheme the provider answers for, e.g. "env" in
	// secretref:env:ANTHROPIC_API_KEY.
	Name() string

	// Resolve returns the secret behind ref.
	Resolve(ctx context.Context, ref string) (string, error)

	// Close releases any backing connection.
	Close() error
}
