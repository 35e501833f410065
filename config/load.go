package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/llmops/secret"
)

// Load reads, overlays, resolves, and validates the config at path.
//
// Precedence, lowest to highest: DefaultConfig, the YAML file, LLMOPS_*
// environment variables. A .env file next to the config file is loaded
// first (existing environment wins). secretref: and ${VAR} values in
// credential fields resolve last, against the final environment.
func Load(path string) (*Config, error) {
	return LoadWithResolver(context.Background(), path, secret.NewDefaultResolver())
}

// LoadWithResolver is Load with a caller-supplied secret resolver.
func LoadWithResolver(ctx context.Context, path string, resolver *secret.Resolver) (*Config, error) {
	if env := filepath.Join(filepath.Dir(path), ".env"); fileExists(env) {
		if err := godotenv.Load(env); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", env, err)
		}
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from operator config, not request input.
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("config: parse file: %w", err)
	}

	config.applyEnvOverrides()

	if err := config.resolveSecrets(ctx, resolver); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return config, nil
}

// applyEnvOverrides lets deployment environments override the file
// without editing it.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("LLMOPS_API_KEY"); v != "" {
		c.Provider.APIKey = v
	}
	if v := os.Getenv("LLMOPS_BASE_URL"); v != "" {
		c.Provider.BaseURL = v
	}
	if v := os.Getenv("LLMOPS_LOG_LEVEL"); v != "" {
		c.Observe.Logging.Level = v
	}
	if v := os.Getenv("LLMOPS_REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
}

// resolveSecrets resolves credential fields in place. Plain values
// pass through unchanged.
func (c *Config) resolveSecrets(ctx context.Context, resolver *secret.Resolver) error {
	if resolver == nil {
		return nil
	}

	key, err := resolver.ResolveValue(ctx, c.Provider.APIKey)
	if err != nil {
		return fmt.Errorf("config: resolve provider.api_key: %w", err)
	}
	c.Provider.APIKey = key

	password, err := resolver.ResolveValue(ctx, c.Cache.Redis.Password)
	if err != nil {
		return fmt.Errorf("config: resolve cache.redis.password: %w", err)
	}
	c.Cache.Redis.Password = password

	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
