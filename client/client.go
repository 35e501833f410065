package client

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/llmops/cache"
	"github.com/jonwraymond/llmops/classify"
	"github.com/jonwraymond/llmops/credential"
	"github.com/jonwraymond/llmops/fallback"
	"github.com/jonwraymond/llmops/observe"
	"github.com/jonwraymond/llmops/resilience"
)

// ChatRequest is one chat call into the client.
type ChatRequest struct {
	// Messages is the chat history to send. Required.
	Messages []fallback.Message

	// System is an optional system prompt.
	System string

	// Model pins the call to one model, bypassing the fallback chain.
	// Empty uses the chain starting at the primary.
	Model string

	// MaxTokens limits response length. 0 uses each entry's cap.
	MaxTokens int

	// Temperature controls sampling. nil uses the provider default.
	// Sampled responses are not served from the cache.
	Temperature *float64

	// Metadata carries caller tags through to the invoker.
	Metadata map[string]string

	// RequestID correlates the call across logs, spans and metrics.
	// Empty generates one.
	RequestID string

	// UseFallback enables the model chain. nil means true.
	UseFallback *bool
}

// Config configures a Client. Invoker and Models are required;
// everything else has working defaults.
type Config struct {
	// Invoker performs the provider call for each attempt. Required.
	Invoker fallback.Invoker

	// Models is the fallback chain, best quality first. Required.
	Models []fallback.ModelConfig

	// Provider names the upstream provider for telemetry and as the
	// breaker's default name.
	Provider string

	// Retry, Breaker and RateLimit configure the resilience stack.
	// Zero values take each package's defaults.
	Retry     resilience.RetryConfig
	Breaker   resilience.CircuitBreakerConfig
	RateLimit resilience.TokenBucketConfig

	// Adaptive, when non-nil, lets the bucket self-tune its refill
	// rate: shrink on rate-limited responses, grow back on sustained
	// success.
	Adaptive *resilience.AdaptiveConfig

	// SharedLimiter, when set, replaces the client's own bucket so
	// several clients can enforce one combined quota. RateLimit and
	// Adaptive are ignored.
	SharedLimiter *resilience.TokenBucket

	// Estimator sizes each request's rate-limiter charge.
	// Default: HeuristicEstimator.
	Estimator Estimator

	// AdvanceOn overrides the chain's advance predicate.
	// Default: fallback.AdvanceOnAvailability.
	AdvanceOn func(c classify.Classification) bool

	// SkipUnavailable lets a health registry veto known-down models
	// before they are attempted.
	SkipUnavailable func(modelID string) bool

	// OnFallback is called when the chain advances past a failed
	// model, after the client's own accounting.
	OnFallback func(from, to fallback.ModelConfig, err error)

	// Cache enables response caching when set. CachePolicy's zero
	// value takes cache.DefaultPolicy.
	Cache       cache.Cache
	CachePolicy cache.Policy

	// Credentials resolves each entry's CredentialRef per attempt.
	Credentials *credential.Registry

	// Observer wires spans, metrics and structured logs around every
	// call. The caller keeps ownership and shuts it down.
	Observer observe.Observer
}

// Client is a resilient LLM API client. One Chat call flows through
// the rate limiter, the circuit breaker, the retry controller and the
// fallback chain, in that order, with caching and telemetry wrapped
// around the whole stack. Safe for concurrent use.
type Client struct {
	invoker  fallback.Invoker
	models   []fallback.ModelConfig
	provider string

	retry     *resilience.Retry
	breaker   *resilience.CircuitBreaker
	bucket    *resilience.TokenBucket
	adaptive  *resilience.AdaptiveTokenBucket
	chain     *fallback.Chain
	estimator Estimator
	cacheMW   *cache.CacheMiddleware

	mw           *observe.Middleware
	logger       observe.Logger
	observer     observe.Observer
	ownsObserver bool

	stats counters
}

// New creates a client from the configuration.
func New(config Config) (*Client, error) {
	if config.Invoker == nil {
		return nil, ErrNilInvoker
	}
	if len(config.Models) == 0 {
		return nil, ErrNoModels
	}

	c := &Client{
		provider:  config.Provider,
		estimator: config.Estimator,
	}
	if c.estimator == nil {
		c.estimator = NewHeuristicEstimator()
	}

	// Observability first, so the component hooks below can log.
	if config.Observer != nil {
		mw, err := observe.MiddlewareFromObserver(config.Observer)
		if err != nil {
			return nil, err
		}
		c.mw = mw
		c.logger = config.Observer.Logger()
		c.observer = config.Observer
	}

	c.invoker = config.Invoker
	if config.Credentials != nil {
		c.invoker = &credentialInvoker{registry: config.Credentials, next: config.Invoker}
	}

	rc := config.Retry
	userOnRetry := rc.OnRetry
	rc.OnRetry = func(attempt int, err error, wait time.Duration) {
		c.stats.addRetry()
		if c.logger != nil {
			c.logger.Warn(context.Background(), "retrying llm call",
				observe.Field{Key: "attempt", Value: attempt},
				observe.Field{Key: "wait_ms", Value: wait.Milliseconds()},
				observe.Field{Key: "error", Value: err.Error()},
			)
		}
		if userOnRetry != nil {
			userOnRetry(attempt, err, wait)
		}
	}
	c.retry = resilience.NewRetry(rc)

	bc := config.Breaker
	if bc.Name == "" {
		bc.Name = config.Provider
	}
	userOnStateChange := bc.OnStateChange
	bc.OnStateChange = func(from, to resilience.State) {
		if c.logger != nil {
			c.logger.Warn(context.Background(), "circuit state changed",
				observe.Field{Key: "circuit", Value: bc.Name},
				observe.Field{Key: "from", Value: from.String()},
				observe.Field{Key: "to", Value: to.String()},
			)
		}
		if userOnStateChange != nil {
			userOnStateChange(from, to)
		}
	}
	c.breaker = resilience.NewCircuitBreaker(bc)

	switch {
	case config.SharedLimiter != nil:
		c.bucket = config.SharedLimiter
	case config.Adaptive != nil:
		c.adaptive = resilience.NewAdaptiveTokenBucket(config.RateLimit, *config.Adaptive)
		c.bucket = c.adaptive.TokenBucket
	default:
		c.bucket = resilience.NewTokenBucket(config.RateLimit)
	}

	chain, err := fallback.NewChain(fallback.ChainConfig{
		Models:          config.Models,
		Invoker:         c.invoker,
		AdvanceOn:       config.AdvanceOn,
		SkipUnavailable: config.SkipUnavailable,
		OnFallback: func(from, to fallback.ModelConfig, err error) {
			c.stats.addFallback()
			if c.logger != nil {
				c.logger.Warn(context.Background(), "falling back to next model",
					observe.Field{Key: "from", Value: from.ModelID},
					observe.Field{Key: "to", Value: to.ModelID},
					observe.Field{Key: "error", Value: err.Error()},
				)
			}
			if config.OnFallback != nil {
				config.OnFallback(from, to, err)
			}
		},
	})
	if err != nil {
		return nil, err
	}
	c.chain = chain
	c.models = chain.Models()

	if config.Cache != nil {
		policy := config.CachePolicy
		if policy == (cache.Policy{}) {
			policy = cache.DefaultPolicy()
		}
		c.cacheMW = cache.NewCacheMiddleware(config.Cache, cache.NewDefaultKeyer(), policy, nil)
	}

	return c, nil
}

// Chat sends one chat call through the full stack and returns the
// answering model's result. Terminal errors propagate unchanged after
// the client's counters are updated.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*fallback.Result, error) {
	if len(req.Messages) == 0 {
		return nil, ErrNoMessages
	}

	c.stats.addRequest()

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	// An explicit model pin or a disabled chain both mean a single
	// direct call.
	useFallback := req.UseFallback == nil || *req.UseFallback
	target := c.targetModel(req.Model)

	callChain := c.chain
	if req.Model != "" || !useFallback {
		single, err := c.singleChain(target)
		if err != nil {
			c.stats.addFailure()
			return nil, err
		}
		callChain = single
	}

	freq := fallback.Request{
		Model:       target.ModelID,
		Messages:    req.Messages,
		System:      req.System,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Metadata:    req.Metadata,
		RequestID:   requestID,
	}

	meta := observe.CallMeta{
		RequestID: requestID,
		Model:     target.ModelID,
		Tier:      target.Tier.String(),
		Provider:  c.provider,
	}

	result, err := c.observed(ctx, meta, callChain, freq)
	if err != nil {
		c.stats.addFailure()
		return nil, err
	}

	c.stats.addSuccess()
	return result, nil
}

// Stats returns a point-in-time snapshot of the client's counters
// merged with the breaker's and limiter's live readings.
func (c *Client) Stats() Stats {
	s := c.stats.snapshot()
	s.Breaker = c.breaker.Metrics()
	s.CircuitState = s.Breaker.State
	s.LimiterAvailable = c.bucket.Available()
	s.LimiterCapacity = c.bucket.Capacity()
	s.LimiterRate = c.bucket.Rate()
	return s
}

// Models returns a copy of the configured chain entries.
func (c *Client) Models() []fallback.ModelConfig {
	return c.chain.Models()
}

// Breaker exposes the client's circuit breaker, for health checks and
// external monitoring.
func (c *Client) Breaker() *resilience.CircuitBreaker {
	return c.breaker
}

// Limiter exposes the client's token bucket, for health checks and
// shared-quota wiring across clients.
func (c *Client) Limiter() *resilience.TokenBucket {
	return c.bucket
}

// Close releases resources the client owns. An observer built by
// NewFromConfig is flushed and shut down; an injected one stays up.
func (c *Client) Close(ctx context.Context) error {
	if c.ownsObserver && c.observer != nil {
		return c.observer.Shutdown(ctx)
	}
	return nil
}

// observed runs the call under the observe middleware when one is
// configured.
func (c *Client) observed(ctx context.Context, meta observe.CallMeta, chain *fallback.Chain, req fallback.Request) (*fallback.Result, error) {
	if c.mw == nil {
		return c.execute(ctx, meta, chain, req)
	}

	fn := c.mw.Wrap(func(ctx context.Context, meta observe.CallMeta, r any) (any, error) {
		return c.execute(ctx, meta, chain, r.(fallback.Request))
	})
	v, err := fn(ctx, meta, req)
	if err != nil {
		return nil, err
	}
	return v.(*fallback.Result), nil
}

// execute runs the call under the response cache when one is
// configured. A cache hit never touches the limiter or the breaker,
// since no provider call happens.
func (c *Client) execute(ctx context.Context, meta observe.CallMeta, chain *fallback.Chain, req fallback.Request) (*fallback.Result, error) {
	if c.cacheMW == nil {
		return c.callProvider(ctx, meta, chain, req)
	}

	var result *fallback.Result
	resp, hit, err := c.cacheMW.Execute(ctx, req, func(ctx context.Context, req fallback.Request) (*fallback.Response, error) {
		r, err := c.callProvider(ctx, meta, chain, req)
		if err != nil {
			return nil, err
		}
		result = r
		return r.Response, nil
	})
	if err != nil {
		return nil, err
	}

	if hit {
		c.stats.addCacheHit()
	}
	if result != nil {
		return result, nil
	}

	// Served from the cache, or from a collapsed concurrent flight.
	return c.resultFromResponse(resp), nil
}

// callProvider is the resilience stack proper: charge the limiter,
// pass the breaker gate, then retry the chain. The breaker records
// exactly one outcome per allowed call, covering the whole retry run.
func (c *Client) callProvider(ctx context.Context, meta observe.CallMeta, chain *fallback.Chain, req fallback.Request) (*fallback.Result, error) {
	estimate := c.estimator.Estimate(req)
	c.stats.addTokens(int64(estimate))
	if c.mw != nil {
		c.mw.Metrics().RecordTokens(ctx, meta, estimate)
	}

	if err := c.bucket.Acquire(ctx, estimate); err != nil {
		if errors.Is(err, resilience.ErrRateLimitExceeded) {
			c.stats.addRateLimited()
		}
		return nil, err
	}

	var result *fallback.Result
	attempts := 0

	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retry.Execute(ctx, func(ctx context.Context) error {
			attempts++
			r, cerr := chain.Call(ctx, req)
			if cerr != nil {
				return cerr
			}
			result = r
			return nil
		})
	})

	if retries := attempts - 1; retries > 0 && c.mw != nil {
		c.mw.Metrics().RecordRetries(ctx, meta, retries)
	}

	if err != nil {
		var openErr *resilience.CircuitOpenError
		switch {
		case errors.As(err, &openErr):
			c.stats.addCircuitOpen()
		case classify.Classify(err).Category == classify.CategoryRateLimited:
			c.stats.addRateLimited()
			if c.adaptive != nil {
				c.adaptive.OnRateLimited()
			}
		}
		return nil, err
	}

	if c.adaptive != nil {
		c.adaptive.OnSuccess()
	}
	if result.WasFallback && c.mw != nil {
		c.mw.Metrics().RecordFallback(ctx, meta)
	}
	return result, nil
}

// targetModel resolves the entry a call starts at: the pinned model's
// chain entry, a synthesized entry for a model outside the chain, or
// the primary.
func (c *Client) targetModel(override string) fallback.ModelConfig {
	if override == "" {
		return c.models[0]
	}
	for _, m := range c.models {
		if m.ModelID == override {
			return m
		}
	}
	// A model outside the configured chain still works; the invoker's
	// own deadline bounds the call.
	return fallback.ModelConfig{ModelID: override}
}

// singleChain pins a call to one entry. Nothing advances: the caller
// asked for this model, so its errors propagate unfiltered.
func (c *Client) singleChain(entry fallback.ModelConfig) (*fallback.Chain, error) {
	entry.IsFallback = false
	return fallback.NewChain(fallback.ChainConfig{
		Models:    []fallback.ModelConfig{entry},
		Invoker:   c.invoker,
		AdvanceOn: func(classify.Classification) bool { return false },
	})
}

// resultFromResponse rebuilds a Result for a response that skipped
// the chain, looking the answering model's tier up in the entry list.
func (c *Client) resultFromResponse(resp *fallback.Response) *fallback.Result {
	result := &fallback.Result{Response: resp, ModelUsed: resp.Model}
	for _, m := range c.models {
		if m.ModelID == resp.Model {
			result.TierUsed = m.Tier
			result.WasFallback = m.IsFallback
			break
		}
	}
	return result
}
