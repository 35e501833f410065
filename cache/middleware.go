package cache

import (
	"context"
	"encoding/json"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/llmops/fallback"
)

// ChatFunc is the chat operation the middleware wraps.
type ChatFunc func(ctx context.Context, req fallback.Request) (*fallback.Response, error)

// SkipRule determines whether a request bypasses the cache.
// Returns true if caching should be skipped.
type SkipRule func(req fallback.Request) bool

// NoCacheMetadataKey marks a request that must not be served from or
// stored in the cache.
const NoCacheMetadataKey = "no-cache"

// DefaultSkipRule skips requests that opt out via metadata, and
// requests sampling at a nonzero temperature, whose responses are not
// reproducible.
func DefaultSkipRule(req fallback.Request) bool {
	if v, ok := req.Metadata[NoCacheMetadataKey]; ok && v != "" && v != "false" {
		return true
	}
	if req.Temperature != nil && *req.Temperature > 0 {
		return true
	}
	return false
}

// CacheMiddleware wraps a chat operation with response caching.
//
// Concurrent identical requests collapse into a single upstream call,
// so every waiter may receive the same *fallback.Response. Callers
// must treat returned responses as read-only.
type CacheMiddleware struct {
	cache    Cache
	keyer    Keyer
	policy   Policy
	skipRule SkipRule
	group    singleflight.Group // prevents thundering herd on a miss
}

// NewCacheMiddleware creates a new cache middleware.
// If skipRule is nil, DefaultSkipRule is used.
func NewCacheMiddleware(cache Cache, keyer Keyer, policy Policy, skipRule SkipRule) *CacheMiddleware {
	if skipRule == nil {
		skipRule = DefaultSkipRule
	}
	return &CacheMiddleware{
		cache:    cache,
		keyer:    keyer,
		policy:   policy,
		skipRule: skipRule,
	}
}

// Execute runs the chat operation with caching. The bool reports
// whether the response was served from the cache.
// On cache hit, returns the stored response without calling op.
// On cache miss, calls op and caches the result.
// Errors are NOT cached.
func (m *CacheMiddleware) Execute(ctx context.Context, req fallback.Request, op ChatFunc) (*fallback.Response, bool, error) {
	if m.cache == nil || !m.policy.ShouldCache() || m.skipRule(req) {
		resp, err := op(ctx, req)
		return resp, false, err
	}

	key, err := m.keyer.Key(req)
	if err != nil {
		// Key generation failed - execute without caching
		resp, err := op(ctx, req)
		return resp, false, err
	}

	if data, ok := m.cache.Get(ctx, key); ok {
		var resp fallback.Response
		if err := json.Unmarshal(data, &resp); err == nil {
			return &resp, true, nil
		}
		// A corrupt entry reads as a miss
		_ = m.cache.Delete(ctx, key)
	}

	v, err, _ := m.group.Do(key, func() (any, error) {
		resp, err := op(ctx, req)
		if err != nil {
			// Don't cache errors
			return nil, err
		}
		if data, err := json.Marshal(resp); err == nil {
			_ = m.cache.Set(ctx, key, data, m.policy.EffectiveTTL(0))
		}
		return resp, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*fallback.Response), false, nil
}
