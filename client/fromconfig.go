package client

import (
	"context"
	"fmt"

	"github.com/jonwraymond/llmops/cache"
	"github.com/jonwraymond/llmops/config"
	"github.com/jonwraymond/llmops/fallback"
	"github.com/jonwraymond/llmops/observe"
)

// NewFromConfig builds a client from a loaded configuration: the model
// chain, resilience stack, cache backend and observer all come from
// cfg. The invoker stays caller-supplied since it carries the HTTP
// transport and provider protocol.
//
// The observer built here belongs to the client; Close shuts it down.
func NewFromConfig(ctx context.Context, cfg *config.Config, invoker fallback.Invoker) (*Client, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if invoker == nil {
		return nil, ErrNilInvoker
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	models, err := cfg.ToModelConfigs()
	if err != nil {
		return nil, err
	}

	cc := Config{
		Invoker:   invoker,
		Models:    models,
		Provider:  cfg.Provider.Name,
		Retry:     cfg.Retry.ToRetryConfig(),
		Breaker:   cfg.Breaker.ToBreakerConfig(),
		RateLimit: cfg.RateLimit.ToBucketConfig(),
	}
	if cfg.RateLimit.Adaptive.Enabled {
		ac := cfg.RateLimit.Adaptive.ToAdaptiveConfig()
		cc.Adaptive = &ac
	}

	if cfg.Cache.Enabled {
		backend, err := cacheBackend(cfg.Cache)
		if err != nil {
			return nil, err
		}
		cc.Cache = backend
		cc.CachePolicy = cfg.Cache.ToPolicy()
	}

	obs, err := observe.NewObserver(ctx, cfg.Observe.ToObserveConfig())
	if err != nil {
		return nil, err
	}
	cc.Observer = obs

	c, err := New(cc)
	if err != nil {
		_ = obs.Shutdown(ctx)
		return nil, err
	}
	c.ownsObserver = true
	return c, nil
}

func cacheBackend(cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case "", "memory":
		return cache.NewMemoryCache(), nil
	case "redis":
		return cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	default:
		return nil, fmt.Errorf("client: unknown cache backend %q", cfg.Backend)
	}
}
