package config

import (
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/llmops/fallback"
)

func TestDefaultConfig_Valid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v, want nil", err)
	}
}

func TestDefaultConfig_ChainOrder(t *testing.T) {
	models, err := DefaultConfig().ToModelConfigs()
	if err != nil {
		t.Fatalf("ToModelConfigs() error: %v", err)
	}
	if len(models) != 3 {
		t.Fatalf("len(models) = %d, want 3", len(models))
	}
	if models[0].Tier != fallback.TierPrimary {
		t.Errorf("models[0].Tier = %v, want primary", models[0].Tier)
	}
	if models[2].Tier != fallback.TierEconomy {
		t.Errorf("models[2].Tier = %v, want economy", models[2].Tier)
	}
	for i := 1; i < len(models); i++ {
		if models[i].InputCostPerToken >= models[i-1].InputCostPerToken {
			t.Errorf("models[%d] input cost %g not below models[%d] cost %g",
				i, models[i].InputCostPerToken, i-1, models[i-1].InputCostPerToken)
		}
	}
}

func TestDuration_UnmarshalYAML(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want time.Duration
	}{
		{"go duration", `d: 45s`, 45 * time.Second},
		{"compound", `d: 1m30s`, 90 * time.Second},
		{"bare int seconds", `d: 30`, 30 * time.Second},
		{"bare float seconds", `d: 0.5`, 500 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out struct {
				D Duration `yaml:"d"`
			}
			if err := yaml.Unmarshal([]byte(tt.yaml), &out); err != nil {
				t.Fatalf("Unmarshal(%q) error: %v", tt.yaml, err)
			}
			if got := out.D.Duration(); got != tt.want {
				t.Errorf("Unmarshal(%q) = %v, want %v", tt.yaml, got, tt.want)
			}
		})
	}
}

func TestDuration_UnmarshalYAML_Invalid(t *testing.T) {
	var out struct {
		D Duration `yaml:"d"`
	}
	if err := yaml.Unmarshal([]byte(`d: fast`), &out); err == nil {
		t.Fatal("Unmarshal accepted an invalid duration")
	}
}

func TestDuration_MarshalYAML(t *testing.T) {
	data, err := yaml.Marshal(struct {
		D Duration `yaml:"d"`
	}{D: Duration(90 * time.Second)})
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != "d: 1m30s" {
		t.Errorf("Marshal = %q, want %q", got, "d: 1m30s")
	}
}

func TestParseTier(t *testing.T) {
	tests := []struct {
		in      string
		want    fallback.Tier
		wantErr bool
	}{
		{"primary", fallback.TierPrimary, false},
		{"secondary", fallback.TierSecondary, false},
		{"economy", fallback.TierEconomy, false},
		{"", fallback.TierPrimary, false},
		{"turbo", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseTier(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseTier(%q) = %v, want error", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTier(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTier(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestModelEntry_ToModelConfig(t *testing.T) {
	entry := ModelEntry{
		ID:                 "claude-sonnet-4",
		Tier:               "secondary",
		MaxTokens:          8192,
		Timeout:            Duration(30 * time.Second),
		InputCostPerToken:  3e-6,
		OutputCostPerToken: 15e-6,
		Endpoint:           "https://gateway.internal/v1",
		CredentialRef:      "gateway",
	}

	mc, err := entry.ToModelConfig()
	if err != nil {
		t.Fatalf("ToModelConfig() error: %v", err)
	}
	if mc.ModelID != "claude-sonnet-4" {
		t.Errorf("ModelID = %q", mc.ModelID)
	}
	if mc.Tier != fallback.TierSecondary {
		t.Errorf("Tier = %v, want secondary", mc.Tier)
	}
	if mc.MaxTokens != 8192 {
		t.Errorf("MaxTokens = %d, want 8192", mc.MaxTokens)
	}
	if mc.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", mc.Timeout)
	}
	if mc.Endpoint != "https://gateway.internal/v1" {
		t.Errorf("Endpoint = %q", mc.Endpoint)
	}
	if mc.CredentialRef != "gateway" {
		t.Errorf("CredentialRef = %q", mc.CredentialRef)
	}
}

func TestModelEntry_ToModelConfig_BadTier(t *testing.T) {
	entry := ModelEntry{ID: "claude-sonnet-4", Tier: "turbo"}
	if _, err := entry.ToModelConfig(); err == nil {
		t.Fatal("ToModelConfig() accepted an unknown tier")
	}
}

func TestConfig_RuntimeConversions(t *testing.T) {
	config := DefaultConfig()

	retry := config.Retry.ToRetryConfig()
	if retry.MaxAttempts != 3 || retry.BaseDelay != time.Second || !retry.Jitter {
		t.Errorf("retry conversion = %+v", retry)
	}
	if retry.JitterMin != 0.5 || retry.JitterMax != 1.0 {
		t.Errorf("jitter range = (%g, %g), want (0.5, 1)", retry.JitterMin, retry.JitterMax)
	}

	breaker := config.Breaker.ToBreakerConfig()
	if breaker.Name != "claude-api" || breaker.FailureThreshold != 5 {
		t.Errorf("breaker conversion = %+v", breaker)
	}
	if breaker.Window != 60*time.Second || breaker.Timeout != 30*time.Second {
		t.Errorf("breaker windows = %v/%v", breaker.Window, breaker.Timeout)
	}

	bucket := config.RateLimit.ToBucketConfig()
	if bucket.Capacity != 100 || bucket.RefillRate != 10 {
		t.Errorf("bucket conversion = %+v", bucket)
	}

	adaptive := config.RateLimit.Adaptive.ToAdaptiveConfig()
	if adaptive.BackoffFactor != 0.5 || adaptive.RecoveryThreshold != 10 {
		t.Errorf("adaptive conversion = %+v", adaptive)
	}

	policy := config.Cache.ToPolicy()
	if policy.DefaultTTL != 5*time.Minute || policy.MaxTTL != time.Hour {
		t.Errorf("policy conversion = %+v", policy)
	}

	obs := config.Observe.ToObserveConfig()
	if obs.ServiceName != "llmops" || !obs.Logging.Enabled || obs.Logging.Level != "info" {
		t.Errorf("observe conversion = %+v", obs)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing provider name", func(c *Config) { c.Provider.Name = "" }, "provider.name"},
		{"missing base url", func(c *Config) { c.Provider.BaseURL = "" }, "provider.base_url"},
		{"no models", func(c *Config) { c.Models = nil }, "at least one"},
		{"missing model id", func(c *Config) { c.Models[0].ID = "" }, "id is required"},
		{"duplicate model id", func(c *Config) { c.Models[1].ID = c.Models[0].ID }, "duplicate"},
		{"bad tier", func(c *Config) { c.Models[0].Tier = "turbo" }, "unknown tier"},
		{"negative max tokens", func(c *Config) { c.Models[0].MaxTokens = -1 }, "max_tokens"},
		{"zero attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, "max_attempts"},
		{"zero base delay", func(c *Config) { c.Retry.BaseDelay = 0 }, "base_delay"},
		{"max below base", func(c *Config) { c.Retry.MaxDelay = c.Retry.BaseDelay / 2 }, "max_delay"},
		{"flat backoff", func(c *Config) { c.Retry.ExponentialBase = 1.0 }, "exponential_base"},
		{"zero jitter min", func(c *Config) { c.Retry.JitterMin = 0 }, "jitter_min"},
		{"inverted jitter", func(c *Config) { c.Retry.JitterMax = 0.25 }, "jitter_max"},
		{"zero failure threshold", func(c *Config) { c.Breaker.FailureThreshold = 0 }, "failure_threshold"},
		{"zero success threshold", func(c *Config) { c.Breaker.SuccessThreshold = 0 }, "success_threshold"},
		{"zero breaker timeout", func(c *Config) { c.Breaker.Timeout = 0 }, "circuit_breaker.timeout"},
		{"zero breaker window", func(c *Config) { c.Breaker.Window = 0 }, "circuit_breaker.window"},
		{"zero half open calls", func(c *Config) { c.Breaker.HalfOpenMaxCalls = 0 }, "half_open_max_calls"},
		{"zero capacity", func(c *Config) { c.RateLimit.Capacity = 0 }, "capacity"},
		{"zero refill", func(c *Config) { c.RateLimit.RefillRate = 0 }, "refill_rate"},
		{"backoff factor above one", func(c *Config) {
			c.RateLimit.Adaptive.Enabled = true
			c.RateLimit.Adaptive.BackoffFactor = 1.5
		}, "backoff_factor"},
		{"recovery factor below one", func(c *Config) {
			c.RateLimit.Adaptive.Enabled = true
			c.RateLimit.Adaptive.RecoveryFactor = 0.9
		}, "recovery_factor"},
		{"bad cache backend", func(c *Config) { c.Cache.Backend = "memcached" }, "cache backend"},
		{"redis without addr", func(c *Config) {
			c.Cache.Backend = "redis"
			c.Cache.Redis.Addr = ""
		}, "redis.addr"},
		{"default ttl above max", func(c *Config) { c.Cache.DefaultTTL = Duration(2 * time.Hour) }, "default_ttl"},
		{"bad log level", func(c *Config) { c.Observe.Logging.Level = "verbose" }, "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)

			err := config.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate_AdaptiveDisabledSkipsBounds(t *testing.T) {
	config := DefaultConfig()
	config.RateLimit.Adaptive.Enabled = false
	config.RateLimit.Adaptive.BackoffFactor = 5.0

	if err := config.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil when adaptive is disabled", err)
	}
}
