package config

import (
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/llmops/cache"
	"github.com/jonwraymond/llmops/fallback"
	"github.com/jonwraymond/llmops/observe"
	"github.com/jonwraymond/llmops/resilience"
)

// Duration wraps time.Duration for YAML unmarshaling. It accepts Go
// duration strings ("30s", "1m30s") and bare numbers, read as seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if parsed, err := time.ParseDuration(s); err == nil {
		*d = Duration(parsed)
		return nil
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid duration %q", s)
	}
	*d = Duration(time.Duration(secs * float64(time.Second)))
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config is the full configuration for a resilient LLM client.
// Load fills unset fields from DefaultConfig; hand-built configs
// should call Validate before use.
type Config struct {
	Provider  ProviderConfig  `yaml:"provider"`
	Models    []ModelEntry    `yaml:"models"`
	Retry     RetryConfig     `yaml:"retry"`
	Breaker   BreakerConfig   `yaml:"circuit_breaker"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Cache     CacheConfig     `yaml:"cache"`
	Observe   ObserveConfig   `yaml:"observability"`
}

// ProviderConfig identifies the upstream LLM API.
type ProviderConfig struct {
	// Name of the provider, e.g. "anthropic".
	Name string `yaml:"name"`

	// BaseURL is the API endpoint base.
	BaseURL string `yaml:"base_url"`

	// APIKey authenticates outbound calls. secretref: and ${VAR}
	// forms resolve at load time; plain values pass through.
	APIKey string `yaml:"api_key"`

	// APIVersion is sent as the provider's version header.
	APIVersion string `yaml:"api_version"`

	// Timeout bounds each HTTP request.
	Timeout Duration `yaml:"timeout"`
}

// ModelEntry is one entry of the fallback chain, most capable first.
type ModelEntry struct {
	ID        string   `yaml:"id"`
	Tier      string   `yaml:"tier"`
	MaxTokens int      `yaml:"max_tokens"`
	Timeout   Duration `yaml:"timeout"`

	InputCostPerToken  float64 `yaml:"input_cost_per_token"`
	OutputCostPerToken float64 `yaml:"output_cost_per_token"`

	// Endpoint overrides provider.base_url for this model.
	Endpoint string `yaml:"endpoint,omitempty"`

	// CredentialRef names a registered credential source for this
	// model, for chains that span providers.
	CredentialRef string `yaml:"credential_ref,omitempty"`
}

// ParseTier maps a config tier name to a fallback.Tier.
// The empty string maps to TierPrimary.
func ParseTier(s string) (fallback.Tier, error) {
	switch s {
	case "", "primary":
		return fallback.TierPrimary, nil
	case "secondary":
		return fallback.TierSecondary, nil
	case "economy":
		return fallback.TierEconomy, nil
	default:
		return 0, fmt.Errorf("unknown tier %q", s)
	}
}

// ToModelConfig converts the entry to the fallback chain's form.
func (m ModelEntry) ToModelConfig() (fallback.ModelConfig, error) {
	tier, err := ParseTier(m.Tier)
	if err != nil {
		return fallback.ModelConfig{}, fmt.Errorf("model %q: %w", m.ID, err)
	}
	return fallback.ModelConfig{
		ModelID:            m.ID,
		Tier:               tier,
		MaxTokens:          m.MaxTokens,
		Timeout:            m.Timeout.Duration(),
		InputCostPerToken:  m.InputCostPerToken,
		OutputCostPerToken: m.OutputCostPerToken,
		Endpoint:           m.Endpoint,
		CredentialRef:      m.CredentialRef,
	}, nil
}

// ToModelConfigs converts the model entries in chain order.
func (c *Config) ToModelConfigs() ([]fallback.ModelConfig, error) {
	models := make([]fallback.ModelConfig, 0, len(c.Models))
	for _, m := range c.Models {
		mc, err := m.ToModelConfig()
		if err != nil {
			return nil, err
		}
		models = append(models, mc)
	}
	return models, nil
}

// RetryConfig mirrors resilience.RetryConfig with YAML tags.
type RetryConfig struct {
	MaxAttempts     int      `yaml:"max_attempts"`
	BaseDelay       Duration `yaml:"base_delay"`
	MaxDelay        Duration `yaml:"max_delay"`
	ExponentialBase float64  `yaml:"exponential_base"`
	Jitter          bool     `yaml:"jitter"`
	JitterMin       float64  `yaml:"jitter_min"`
	JitterMax       float64  `yaml:"jitter_max"`
}

// ToRetryConfig converts to the resilience package's form.
func (r RetryConfig) ToRetryConfig() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:     r.MaxAttempts,
		BaseDelay:       r.BaseDelay.Duration(),
		MaxDelay:        r.MaxDelay.Duration(),
		ExponentialBase: r.ExponentialBase,
		Jitter:          r.Jitter,
		JitterMin:       r.JitterMin,
		JitterMax:       r.JitterMax,
	}
}

// BreakerConfig mirrors resilience.CircuitBreakerConfig with YAML tags.
type BreakerConfig struct {
	Name             string   `yaml:"name"`
	FailureThreshold int      `yaml:"failure_threshold"`
	SuccessThreshold int      `yaml:"success_threshold"`
	Timeout          Duration `yaml:"timeout"`
	Window           Duration `yaml:"window"`
	HalfOpenMaxCalls int      `yaml:"half_open_max_calls"`
}

// ToBreakerConfig converts to the resilience package's form.
func (b BreakerConfig) ToBreakerConfig() resilience.CircuitBreakerConfig {
	return resilience.CircuitBreakerConfig{
		Name:             b.Name,
		FailureThreshold: b.FailureThreshold,
		SuccessThreshold: b.SuccessThreshold,
		Timeout:          b.Timeout.Duration(),
		Window:           b.Window.Duration(),
		HalfOpenMaxCalls: b.HalfOpenMaxCalls,
	}
}

// RateLimitConfig configures the shared token bucket.
type RateLimitConfig struct {
	Capacity   float64        `yaml:"capacity"`
	RefillRate float64        `yaml:"refill_rate"`
	Adaptive   AdaptiveConfig `yaml:"adaptive"`
}

// ToBucketConfig converts to the resilience package's form.
func (r RateLimitConfig) ToBucketConfig() resilience.TokenBucketConfig {
	return resilience.TokenBucketConfig{
		Capacity:   r.Capacity,
		RefillRate: r.RefillRate,
	}
}

// AdaptiveConfig tunes the bucket's reaction to provider pushback.
type AdaptiveConfig struct {
	Enabled           bool    `yaml:"enabled"`
	BackoffFactor     float64 `yaml:"backoff_factor"`
	RecoveryFactor    float64 `yaml:"recovery_factor"`
	MinRate           float64 `yaml:"min_rate"`
	RecoveryThreshold int     `yaml:"recovery_threshold"`
}

// ToAdaptiveConfig converts to the resilience package's form.
func (a AdaptiveConfig) ToAdaptiveConfig() resilience.AdaptiveConfig {
	return resilience.AdaptiveConfig{
		BackoffFactor:     a.BackoffFactor,
		RecoveryFactor:    a.RecoveryFactor,
		MinRate:           a.MinRate,
		RecoveryThreshold: a.RecoveryThreshold,
	}
}

// CacheConfig configures response caching.
type CacheConfig struct {
	Enabled    bool        `yaml:"enabled"`
	Backend    string      `yaml:"backend"` // memory|redis
	DefaultTTL Duration    `yaml:"default_ttl"`
	MaxTTL     Duration    `yaml:"max_ttl"`
	Redis      RedisConfig `yaml:"redis"`
}

// ToPolicy converts to the cache package's form.
func (c CacheConfig) ToPolicy() cache.Policy {
	return cache.Policy{
		DefaultTTL: c.DefaultTTL.Duration(),
		MaxTTL:     c.MaxTTL.Duration(),
	}
}

// RedisConfig connects the redis cache backend.
type RedisConfig struct {
	Addr string `yaml:"addr"`

	// Password supports secretref: and ${VAR} forms.
	Password string `yaml:"password"`

	DB int `yaml:"db"`
}

// ObserveConfig mirrors observe.Config with YAML tags.
type ObserveConfig struct {
	ServiceName string        `yaml:"service_name"`
	Version     string        `yaml:"version"`
	Tracing     TracingConfig `yaml:"tracing"`
	Metrics     MetricsConfig `yaml:"metrics"`
	Logging     LoggingConfig `yaml:"logging"`
}

// TracingConfig configures the tracing subsystem.
type TracingConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Exporter  string  `yaml:"exporter"`
	SamplePct float64 `yaml:"sample_pct"`
}

// MetricsConfig configures the metrics subsystem.
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`
}

// LoggingConfig configures the logging subsystem.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
}

// ToObserveConfig converts to the observe package's form.
func (o ObserveConfig) ToObserveConfig() observe.Config {
	return observe.Config{
		ServiceName: o.ServiceName,
		Version:     o.Version,
		Tracing: observe.TracingConfig{
			Enabled:   o.Tracing.Enabled,
			Exporter:  o.Tracing.Exporter,
			SamplePct: o.Tracing.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  o.Metrics.Enabled,
			Exporter: o.Metrics.Exporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: o.Logging.Enabled,
			Level:   o.Logging.Level,
		},
	}
}

// DefaultConfig returns a configuration with production defaults: a
// three-model Claude chain, three retry attempts with exponential
// backoff and jitter, a five-failure breaker, and a 100-token bucket
// refilled at 10 tokens per second.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			Name:       "anthropic",
			BaseURL:    "https://api.anthropic.com",
			APIKey:     "secretref:env:ANTHROPIC_API_KEY",
			APIVersion: "2023-06-01",
			Timeout:    Duration(60 * time.Second),
		},
		Models: []ModelEntry{
			{
				ID:                 "claude-opus-4",
				Tier:               "primary",
				MaxTokens:          4096,
				Timeout:            Duration(60 * time.Second),
				InputCostPerToken:  15e-6,
				OutputCostPerToken: 75e-6,
			},
			{
				ID:                 "claude-sonnet-4",
				Tier:               "secondary",
				MaxTokens:          8192,
				Timeout:            Duration(30 * time.Second),
				InputCostPerToken:  3e-6,
				OutputCostPerToken: 15e-6,
			},
			{
				ID:                 "claude-haiku-3",
				Tier:               "economy",
				MaxTokens:          8192,
				Timeout:            Duration(30 * time.Second),
				InputCostPerToken:  0.25e-6,
				OutputCostPerToken: 1.25e-6,
			},
		},
		Retry: RetryConfig{
			MaxAttempts:     3,
			BaseDelay:       Duration(time.Second),
			MaxDelay:        Duration(60 * time.Second),
			ExponentialBase: 2.0,
			Jitter:          true,
			JitterMin:       0.5,
			JitterMax:       1.0,
		},
		Breaker: BreakerConfig{
			Name:             "claude-api",
			FailureThreshold: 5,
			SuccessThreshold: 2,
			Timeout:          Duration(30 * time.Second),
			Window:           Duration(60 * time.Second),
			HalfOpenMaxCalls: 1,
		},
		RateLimit: RateLimitConfig{
			Capacity:   100,
			RefillRate: 10,
			Adaptive: AdaptiveConfig{
				Enabled:           false,
				BackoffFactor:     0.5,
				RecoveryFactor:    1.1,
				MinRate:           1,
				RecoveryThreshold: 10,
			},
		},
		Cache: CacheConfig{
			Enabled:    false,
			Backend:    "memory",
			DefaultTTL: Duration(5 * time.Minute),
			MaxTTL:     Duration(time.Hour),
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		Observe: ObserveConfig{
			ServiceName: "llmops",
			Tracing: TracingConfig{
				Enabled:   false,
				Exporter:  "stdout",
				SamplePct: 1.0,
			},
			Metrics: MetricsConfig{
				Enabled:  false,
				Exporter: "stdout",
			},
			Logging: LoggingConfig{
				Enabled: true,
				Level:   "info",
			},
		},
	}
}

// Validate checks every bound the runtime relies on. Load calls it
// after applying overlays.
func (c *Config) Validate() error {
	if c.Provider.Name == "" {
		return fmt.Errorf("provider.name is required")
	}
	if c.Provider.BaseURL == "" {
		return fmt.Errorf("provider.base_url is required")
	}
	if c.Provider.Timeout < 0 {
		return fmt.Errorf("provider.timeout must be >= 0")
	}

	if len(c.Models) == 0 {
		return fmt.Errorf("models: at least one entry is required")
	}
	seen := make(map[string]bool, len(c.Models))
	for i, m := range c.Models {
		if m.ID == "" {
			return fmt.Errorf("models[%d]: id is required", i)
		}
		if seen[m.ID] {
			return fmt.Errorf("models[%d]: duplicate id %q", i, m.ID)
		}
		seen[m.ID] = true
		if _, err := ParseTier(m.Tier); err != nil {
			return fmt.Errorf("models[%d]: %v", i, err)
		}
		if m.MaxTokens < 0 {
			return fmt.Errorf("models[%d]: max_tokens must be >= 0, got %d", i, m.MaxTokens)
		}
		if m.Timeout < 0 {
			return fmt.Errorf("models[%d]: timeout must be >= 0", i)
		}
		if m.InputCostPerToken < 0 || m.OutputCostPerToken < 0 {
			return fmt.Errorf("models[%d]: cost per token must be >= 0", i)
		}
	}

	r := c.Retry
	if r.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be >= 1, got %d", r.MaxAttempts)
	}
	if r.BaseDelay <= 0 {
		return fmt.Errorf("retry.base_delay must be > 0")
	}
	if r.MaxDelay < r.BaseDelay {
		return fmt.Errorf("retry.max_delay must be >= retry.base_delay")
	}
	if r.ExponentialBase <= 1 {
		return fmt.Errorf("retry.exponential_base must be > 1, got %g", r.ExponentialBase)
	}
	if r.Jitter {
		if r.JitterMin <= 0 {
			return fmt.Errorf("retry.jitter_min must be > 0, got %g", r.JitterMin)
		}
		if r.JitterMax < r.JitterMin {
			return fmt.Errorf("retry.jitter_max must be >= retry.jitter_min")
		}
	}

	b := c.Breaker
	if b.FailureThreshold < 1 {
		return fmt.Errorf("circuit_breaker.failure_threshold must be >= 1, got %d", b.FailureThreshold)
	}
	if b.SuccessThreshold < 1 {
		return fmt.Errorf("circuit_breaker.success_threshold must be >= 1, got %d", b.SuccessThreshold)
	}
	if b.Timeout <= 0 {
		return fmt.Errorf("circuit_breaker.timeout must be > 0")
	}
	if b.Window <= 0 {
		return fmt.Errorf("circuit_breaker.window must be > 0")
	}
	if b.HalfOpenMaxCalls < 1 {
		return fmt.Errorf("circuit_breaker.half_open_max_calls must be >= 1, got %d", b.HalfOpenMaxCalls)
	}

	rl := c.RateLimit
	if rl.Capacity < 1 {
		return fmt.Errorf("rate_limit.capacity must be >= 1, got %g", rl.Capacity)
	}
	if rl.RefillRate <= 0 {
		return fmt.Errorf("rate_limit.refill_rate must be > 0, got %g", rl.RefillRate)
	}
	if rl.Adaptive.Enabled {
		a := rl.Adaptive
		if a.BackoffFactor <= 0 || a.BackoffFactor >= 1 {
			return fmt.Errorf("rate_limit.adaptive.backoff_factor must be in (0, 1), got %g", a.BackoffFactor)
		}
		if a.RecoveryFactor <= 1 {
			return fmt.Errorf("rate_limit.adaptive.recovery_factor must be > 1, got %g", a.RecoveryFactor)
		}
		// MinRate 0 derives a floor from the configured rate, and
		// RecoveryThreshold 0 uses the built-in default.
		if a.MinRate < 0 {
			return fmt.Errorf("rate_limit.adaptive.min_rate must be >= 0, got %g", a.MinRate)
		}
		if a.RecoveryThreshold < 0 {
			return fmt.Errorf("rate_limit.adaptive.recovery_threshold must be >= 0, got %d", a.RecoveryThreshold)
		}
	}

	ca := c.Cache
	switch ca.Backend {
	case "", "memory":
	case "redis":
		if ca.Redis.Addr == "" {
			return fmt.Errorf("cache.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", ca.Backend)
	}
	if ca.DefaultTTL < 0 || ca.MaxTTL < 0 {
		return fmt.Errorf("cache TTLs must be >= 0")
	}
	if ca.MaxTTL > 0 && ca.DefaultTTL > ca.MaxTTL {
		return fmt.Errorf("cache.default_ttl must be <= cache.max_ttl")
	}

	obs := c.Observe.ToObserveConfig()
	if err := obs.Validate(); err != nil {
		return fmt.Errorf("observability: %w", err)
	}

	return nil
}
