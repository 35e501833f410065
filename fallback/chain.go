package fallback

import (
	"context"

	"github.com/jonwraymond/llmops/classify"
	"github.com/jonwraymond/llmops/resilience"
)

// Attempt records one failed model call in the chain's trail.
type Attempt struct {
	// Model is the model id that failed.
	Model string

	// Err is the error the invoker returned.
	Err error

	// Category is the error's classification.
	Category classify.ErrorCategory
}

// Result reports a completed chain call.
type Result struct {
	// Response is the successful completion.
	Response *Response

	// ModelUsed is the model that answered.
	ModelUsed string

	// TierUsed is the answering model's tier.
	TierUsed Tier

	// WasFallback reports whether a non-primary entry answered.
	WasFallback bool

	// Attempts is the trail of failed models before the answer, in
	// chain order. Empty when the primary answered.
	Attempts []Attempt
}

// ChainConfig configures a fallback chain.
type ChainConfig struct {
	// Models is the ordered entry list, best quality first.
	// The chain keeps its own copy.
	Models []ModelConfig

	// Invoker performs the provider call for each entry.
	Invoker Invoker

	// Classify maps a failed call's error to a classification.
	// Default: classify.Classify
	Classify func(err error) classify.Classification

	// AdvanceOn decides whether a classification is worth trying the
	// next model for.
	// Default: AdvanceOnAvailability
	AdvanceOn func(c classify.Classification) bool

	// SkipUnavailable, when set, vetoes entries before they are
	// attempted, letting a health registry bypass known-down models.
	// Default: nil, every entry is tried.
	SkipUnavailable func(modelID string) bool

	// OnFallback is called when the chain advances past a failed
	// entry to the next one.
	OnFallback func(from, to ModelConfig, err error)
}

// AdvanceOnAvailability is the default advance predicate: try the
// next model only for provider-availability failures. Request defects
// (authentication, permission, malformed input, oversized context)
// propagate immediately.
func AdvanceOnAvailability(c classify.Classification) bool {
	if !c.ShouldRetry {
		return false
	}
	switch c.Category {
	case classify.CategoryTransient, classify.CategoryRateLimited,
		classify.CategoryOverloaded, classify.CategoryUnknown:
		return true
	default:
		return false
	}
}

// Chain tries an ordered list of models until one answers.
// A Chain is stateless across calls and safe for concurrent use.
type Chain struct {
	config ChainConfig
}

// NewChain creates a fallback chain. Entries after the first are
// marked as fallback entries.
func NewChain(config ChainConfig) (*Chain, error) {
	if len(config.Models) == 0 {
		return nil, ErrNoModels
	}
	if config.Invoker == nil {
		return nil, ErrNoInvoker
	}

	models := make([]ModelConfig, len(config.Models))
	copy(models, config.Models)
	for i := range models {
		if i > 0 {
			models[i].IsFallback = true
		}
	}
	config.Models = models

	// Apply defaults
	if config.Classify == nil {
		config.Classify = classify.Classify
	}
	if config.AdvanceOn == nil {
		config.AdvanceOn = AdvanceOnAvailability
	}

	return &Chain{config: config}, nil
}

// Call tries each model in order and returns the first success.
//
// A failure advances to the next entry only when AdvanceOn accepts
// its classification; otherwise the error propagates unchanged. When
// every entry has failed, Call returns *ExhaustedError carrying the
// full per-model trail.
func (c *Chain) Call(ctx context.Context, req Request) (*Result, error) {
	var attempts []Attempt

	for i, m := range c.config.Models {
		if c.config.SkipUnavailable != nil && c.config.SkipUnavailable(m.ModelID) {
			continue
		}

		resp, err := c.invokeEntry(ctx, m, c.buildRequest(m, req))
		if err == nil {
			return &Result{
				Response:    resp,
				ModelUsed:   m.ModelID,
				TierUsed:    m.Tier,
				WasFallback: m.IsFallback,
				Attempts:    attempts,
			}, nil
		}

		cls := c.config.Classify(err)
		attempts = append(attempts, Attempt{Model: m.ModelID, Err: err, Category: cls.Category})

		if !c.config.AdvanceOn(cls) {
			return nil, err
		}

		if c.config.OnFallback != nil && i+1 < len(c.config.Models) {
			c.config.OnFallback(m, c.config.Models[i+1], err)
		}
	}

	return nil, &ExhaustedError{Attempts: attempts}
}

// Models returns a copy of the chain's entries.
func (c *Chain) Models() []ModelConfig {
	models := make([]ModelConfig, len(c.config.Models))
	copy(models, c.config.Models)
	return models
}

// buildRequest rewrites the request for one entry: the entry's model
// id, its token cap, and any endpoint or credential override.
func (c *Chain) buildRequest(m ModelConfig, req Request) Request {
	req.Model = m.ModelID

	if m.MaxTokens > 0 && (req.MaxTokens <= 0 || req.MaxTokens > m.MaxTokens) {
		req.MaxTokens = m.MaxTokens
	}
	if m.Endpoint != "" {
		req.Endpoint = m.Endpoint
	}
	if m.CredentialRef != "" {
		req.CredentialRef = m.CredentialRef
	}

	return req
}

// invokeEntry runs the invoker under the entry's deadline. A blown
// deadline surfaces as resilience.ErrTimeout, which classifies as a
// transient failure and so advances the chain.
func (c *Chain) invokeEntry(ctx context.Context, m ModelConfig, req Request) (*Response, error) {
	if m.Timeout <= 0 {
		return c.config.Invoker.Invoke(ctx, req)
	}

	var resp *Response
	err := resilience.ExecuteWithTimeout(ctx, m.Timeout, func(ctx context.Context) error {
		r, err := c.config.Invoker.Invoke(ctx, req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
