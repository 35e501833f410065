package secret

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// EnvProvider resolves references against the process environment.
// The ref is the variable name: secretref:env:ANTHROPIC_API_KEY.
type EnvProvider struct{}

// NewEnvProvider creates an environment provider.
func NewEnvProvider() *EnvProvider {
	return &EnvProvider{}
}

// Name returns "env".
func (*EnvProvider) Name() string {
	return "env"
}

// Resolve looks up the named variable. A set-but-empty variable is an
// error: an empty API key is always a misconfiguration.
func (*EnvProvider) Resolve(_ context.Context, ref string) (string, error) {
	key := strings.TrimSpace(ref)
	if key == "" {
		return "", fmt.Errorf("env secret ref is empty")
	}

	value, ok := os.LookupEnv(key)
	if !ok {
		return "", fmt.Errorf("environment variable %q is not set", key)
	}
	if value == "" {
		return "", fmt.Errorf("environment variable %q is empty", key)
	}
	return value, nil
}

// Close is a no-op.
func (*EnvProvider) Close() error {
	return nil
}

// Ensure EnvProvider implements Provider
var _ Provider = (*EnvProvider)(nil)

func init() {
	_ = DefaultRegistry.Register("env", func(map[string]any) (Provider, error) {
		return NewEnvProvider(), nil
	})
}
