package fallback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonwraymond/llmops/classify"
	"github.com/jonwraymond/llmops/resilience"
)

// scriptedInvoker records every request and answers via respond.
type scriptedInvoker struct {
	mu      sync.Mutex
	calls   []Request
	respond func(ctx context.Context, req Request) (*Response, error)
}

func (s *scriptedInvoker) Invoke(ctx context.Context, req Request) (*Response, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()
	return s.respond(ctx, req)
}

func (s *scriptedInvoker) requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.calls...)
}

func succeedAs(model string) func(ctx context.Context, req Request) (*Response, error) {
	return func(ctx context.Context, req Request) (*Response, error) {
		return &Response{Content: "ok", Model: model}, nil
	}
}

func twoModels() []ModelConfig {
	return []ModelConfig{
		{ModelID: "claude-opus-4", Tier: TierPrimary, MaxTokens: 4096},
		{ModelID: "claude-sonnet-4", Tier: TierSecondary, MaxTokens: 8192},
	}
}

func TestNewChain_Validation(t *testing.T) {
	_, err := NewChain(ChainConfig{Invoker: &scriptedInvoker{}})
	if !errors.Is(err, ErrNoModels) {
		t.Errorf("NewChain() error = %v, want ErrNoModels", err)
	}

	_, err = NewChain(ChainConfig{Models: twoModels()})
	if !errors.Is(err, ErrNoInvoker) {
		t.Errorf("NewChain() error = %v, want ErrNoInvoker", err)
	}
}

func TestNewChain_MarksFallbackEntries(t *testing.T) {
	chain, err := NewChain(ChainConfig{
		Models:  twoModels(),
		Invoker: &scriptedInvoker{},
	})
	if err != nil {
		t.Fatalf("NewChain() error = %v", err)
	}

	models := chain.Models()
	if models[0].IsFallback {
		t.Error("primary entry marked as fallback")
	}
	if !models[1].IsFallback {
		t.Error("secondary entry not marked as fallback")
	}
}

func TestNewChain_CopiesModels(t *testing.T) {
	models := twoModels()
	chain, err := NewChain(ChainConfig{
		Models:  models,
		Invoker: &scriptedInvoker{},
	})
	if err != nil {
		t.Fatalf("NewChain() error = %v", err)
	}

	models[0].ModelID = "mutated"

	if got := chain.Models()[0].ModelID; got != "claude-opus-4" {
		t.Errorf("ModelID = %q, want %q", got, "claude-opus-4")
	}
}

func TestChain_PrimarySucceeds(t *testing.T) {
	inv := &scriptedInvoker{respond: succeedAs("claude-opus-4")}
	chain, err := NewChain(ChainConfig{Models: twoModels(), Invoker: inv})
	if err != nil {
		t.Fatalf("NewChain() error = %v", err)
	}

	result, err := chain.Call(context.Background(), Request{
		Messages: []Message{{Role: "user", Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}

	if result.ModelUsed != "claude-opus-4" {
		t.Errorf("ModelUsed = %q, want %q", result.ModelUsed, "claude-opus-4")
	}
	if result.TierUsed != TierPrimary {
		t.Errorf("TierUsed = %v, want %v", result.TierUsed, TierPrimary)
	}
	if result.WasFallback {
		t.Error("WasFallback = true for primary answer")
	}
	if len(result.Attempts) != 0 {
		t.Errorf("Attempts = %d, want 0", len(result.Attempts))
	}
	if got := inv.requests(); len(got) != 1 || got[0].Model != "claude-opus-4" {
		t.Errorf("invoker saw %v, want one call to primary", got)
	}
}

func TestChain_AdvancesOnAvailabilityFailure(t *testing.T) {
	tests := []struct {
		name         string
		primaryErr   error
		wantCategory classify.ErrorCategory
	}{
		{"rate limited", classify.NewAPIError(429, "rate limit exceeded"), classify.CategoryRateLimited},
		{"overloaded", classify.NewAPIError(529, "overloaded"), classify.CategoryOverloaded},
		{"server error", classify.NewAPIError(503, "service unavailable"), classify.CategoryTransient},
		{"unknown", errors.New("upstream hiccup"), classify.CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &scriptedInvoker{
				respond: func(ctx context.Context, req Request) (*Response, error) {
					if req.Model == "claude-opus-4" {
						return nil, tt.primaryErr
					}
					return &Response{Content: "ok", Model: req.Model}, nil
				},
			}
			chain, err := NewChain(ChainConfig{Models: twoModels(), Invoker: inv})
			if err != nil {
				t.Fatalf("NewChain() error = %v", err)
			}

			result, err := chain.Call(context.Background(), Request{})
			if err != nil {
				t.Fatalf("Call() error = %v", err)
			}

			if result.ModelUsed != "claude-sonnet-4" {
				t.Errorf("ModelUsed = %q, want %q", result.ModelUsed, "claude-sonnet-4")
			}
			if !result.WasFallback {
				t.Error("WasFallback = false for secondary answer")
			}
			if len(result.Attempts) != 1 {
				t.Fatalf("Attempts = %d, want 1", len(result.Attempts))
			}
			if result.Attempts[0].Model != "claude-opus-4" {
				t.Errorf("Attempts[0].Model = %q, want primary", result.Attempts[0].Model)
			}
			if result.Attempts[0].Category != tt.wantCategory {
				t.Errorf("Attempts[0].Category = %v, want %v", result.Attempts[0].Category, tt.wantCategory)
			}
		})
	}
}

func TestChain_StopsOnRequestDefect(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"authentication", classify.NewAPIError(401, "invalid api key")},
		{"permission", classify.NewAPIError(403, "permission denied")},
		{"bad request", classify.NewAPIError(400, "malformed request")},
		{"context exceeded", classify.NewAPIError(400, "maximum context length exceeded")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &scriptedInvoker{
				respond: func(ctx context.Context, req Request) (*Response, error) {
					return nil, tt.err
				},
			}
			chain, err := NewChain(ChainConfig{Models: twoModels(), Invoker: inv})
			if err != nil {
				t.Fatalf("NewChain() error = %v", err)
			}

			_, callErr := chain.Call(context.Background(), Request{})

			// The original error comes back unchanged
			if callErr != tt.err {
				t.Errorf("Call() error = %v, want original %v", callErr, tt.err)
			}
			if calls := inv.requests(); len(calls) != 1 {
				t.Errorf("invoker called %d times, want 1", len(calls))
			}
		})
	}
}

func TestChain_Exhausted(t *testing.T) {
	lastErr := classify.NewAPIError(503, "still down")
	inv := &scriptedInvoker{
		respond: func(ctx context.Context, req Request) (*Response, error) {
			if req.Model == "claude-opus-4" {
				return nil, classify.NewAPIError(429, "rate limit exceeded")
			}
			return nil, lastErr
		},
	}
	chain, err := NewChain(ChainConfig{Models: twoModels(), Invoker: inv})
	if err != nil {
		t.Fatalf("NewChain() error = %v", err)
	}

	_, callErr := chain.Call(context.Background(), Request{})

	var exhausted *ExhaustedError
	if !errors.As(callErr, &exhausted) {
		t.Fatalf("Call() error = %v, want ExhaustedError", callErr)
	}
	if len(exhausted.Attempts) != 2 {
		t.Fatalf("Attempts = %d, want 2", len(exhausted.Attempts))
	}
	if exhausted.Attempts[0].Model != "claude-opus-4" || exhausted.Attempts[1].Model != "claude-sonnet-4" {
		t.Errorf("attempt order = %q, %q; want chain order",
			exhausted.Attempts[0].Model, exhausted.Attempts[1].Model)
	}
	if exhausted.Attempts[0].Category != classify.CategoryRateLimited {
		t.Errorf("Attempts[0].Category = %v, want rate limited", exhausted.Attempts[0].Category)
	}
	if !errors.Is(callErr, lastErr) {
		t.Error("errors.Is should reach the final attempt's error")
	}
}

func TestChain_EntryTimeoutAdvances(t *testing.T) {
	models := twoModels()
	models[0].Timeout = 10 * time.Millisecond

	inv := &scriptedInvoker{
		respond: func(ctx context.Context, req Request) (*Response, error) {
			if req.Model == "claude-opus-4" {
				<-ctx.Done()
				return nil, ctx.Err()
			}
			return &Response{Content: "ok", Model: req.Model}, nil
		},
	}
	chain, err := NewChain(ChainConfig{Models: models, Invoker: inv})
	if err != nil {
		t.Fatalf("NewChain() error = %v", err)
	}

	result, err := chain.Call(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}

	if result.ModelUsed != "claude-sonnet-4" {
		t.Errorf("ModelUsed = %q, want secondary", result.ModelUsed)
	}
	if len(result.Attempts) != 1 {
		t.Fatalf("Attempts = %d, want 1", len(result.Attempts))
	}
	if !errors.Is(result.Attempts[0].Err, resilience.ErrTimeout) {
		t.Errorf("Attempts[0].Err = %v, want ErrTimeout", result.Attempts[0].Err)
	}
	if result.Attempts[0].Category != classify.CategoryTransient {
		t.Errorf("Attempts[0].Category = %v, want transient", result.Attempts[0].Category)
	}
}

func TestChain_CapsMaxTokens(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		want      int
	}{
		{"unset uses entry cap", 0, 4096},
		{"above cap is clamped", 100000, 4096},
		{"below cap passes through", 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &scriptedInvoker{respond: succeedAs("claude-opus-4")}
			chain, err := NewChain(ChainConfig{Models: twoModels(), Invoker: inv})
			if err != nil {
				t.Fatalf("NewChain() error = %v", err)
			}

			_, err = chain.Call(context.Background(), Request{MaxTokens: tt.requested})
			if err != nil {
				t.Fatalf("Call() error = %v", err)
			}

			if got := inv.requests()[0].MaxTokens; got != tt.want {
				t.Errorf("MaxTokens = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestChain_AppliesEntryOverrides(t *testing.T) {
	models := []ModelConfig{{
		ModelID:       "claude-opus-4",
		Endpoint:      "https://eu.api.example.com",
		CredentialRef: "eu-key",
	}}
	inv := &scriptedInvoker{respond: succeedAs("claude-opus-4")}
	chain, err := NewChain(ChainConfig{Models: models, Invoker: inv})
	if err != nil {
		t.Fatalf("NewChain() error = %v", err)
	}

	if _, err := chain.Call(context.Background(), Request{}); err != nil {
		t.Fatalf("Call() error = %v", err)
	}

	req := inv.requests()[0]
	if req.Endpoint != "https://eu.api.example.com" {
		t.Errorf("Endpoint = %q, want entry override", req.Endpoint)
	}
	if req.CredentialRef != "eu-key" {
		t.Errorf("CredentialRef = %q, want entry override", req.CredentialRef)
	}
}

func TestChain_OnFallbackHook(t *testing.T) {
	type hop struct {
		from, to string
	}
	var hops []hop

	inv := &scriptedInvoker{
		respond: func(ctx context.Context, req Request) (*Response, error) {
			if req.Model == "claude-opus-4" {
				return nil, classify.NewAPIError(529, "overloaded")
			}
			return &Response{Content: "ok", Model: req.Model}, nil
		},
	}
	chain, err := NewChain(ChainConfig{
		Models:  twoModels(),
		Invoker: inv,
		OnFallback: func(from, to ModelConfig, err error) {
			hops = append(hops, hop{from: from.ModelID, to: to.ModelID})
		},
	})
	if err != nil {
		t.Fatalf("NewChain() error = %v", err)
	}

	if _, err := chain.Call(context.Background(), Request{}); err != nil {
		t.Fatalf("Call() error = %v", err)
	}

	if len(hops) != 1 {
		t.Fatalf("hops = %d, want 1", len(hops))
	}
	if hops[0].from != "claude-opus-4" || hops[0].to != "claude-sonnet-4" {
		t.Errorf("hop = %+v, want primary -> secondary", hops[0])
	}
}

func TestChain_SkipUnavailable(t *testing.T) {
	inv := &scriptedInvoker{respond: succeedAs("claude-sonnet-4")}
	chain, err := NewChain(ChainConfig{
		Models:  twoModels(),
		Invoker: inv,
		SkipUnavailable: func(modelID string) bool {
			return modelID == "claude-opus-4"
		},
	})
	if err != nil {
		t.Fatalf("NewChain() error = %v", err)
	}

	result, err := chain.Call(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}

	if result.ModelUsed != "claude-sonnet-4" {
		t.Errorf("ModelUsed = %q, want secondary", result.ModelUsed)
	}
	if len(result.Attempts) != 0 {
		t.Errorf("Attempts = %d, want 0 (skipped entries are not attempts)", len(result.Attempts))
	}
	if calls := inv.requests(); len(calls) != 1 {
		t.Errorf("invoker called %d times, want 1", len(calls))
	}
}

func TestChain_AllSkipped(t *testing.T) {
	inv := &scriptedInvoker{respond: succeedAs("unused")}
	chain, err := NewChain(ChainConfig{
		Models:          twoModels(),
		Invoker:         inv,
		SkipUnavailable: func(modelID string) bool { return true },
	})
	if err != nil {
		t.Fatalf("NewChain() error = %v", err)
	}

	_, callErr := chain.Call(context.Background(), Request{})

	var exhausted *ExhaustedError
	if !errors.As(callErr, &exhausted) {
		t.Fatalf("Call() error = %v, want ExhaustedError", callErr)
	}
	if len(exhausted.Attempts) != 0 {
		t.Errorf("Attempts = %d, want 0", len(exhausted.Attempts))
	}
	if calls := inv.requests(); len(calls) != 0 {
		t.Errorf("invoker called %d times, want 0", len(calls))
	}
}

func TestChain_CustomAdvancePredicate(t *testing.T) {
	inv := &scriptedInvoker{
		respond: func(ctx context.Context, req Request) (*Response, error) {
			if req.Model == "claude-opus-4" {
				return nil, classify.NewAPIError(400, "input too long for model")
			}
			return &Response{Content: "ok", Model: req.Model}, nil
		},
	}
	chain, err := NewChain(ChainConfig{
		Models:  twoModels(),
		Invoker: inv,
		// Liberal policy: a bigger-context fallback model may absorb
		// an oversized input, so advance on any retryable failure.
		AdvanceOn: func(c classify.Classification) bool { return c.ShouldRetry },
	})
	if err != nil {
		t.Fatalf("NewChain() error = %v", err)
	}

	result, err := chain.Call(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if result.ModelUsed != "claude-sonnet-4" {
		t.Errorf("ModelUsed = %q, want secondary", result.ModelUsed)
	}
}

func TestAdvanceOnAvailability(t *testing.T) {
	tests := []struct {
		name string
		cls  classify.Classification
		want bool
	}{
		{"transient", classify.Classification{Category: classify.CategoryTransient, ShouldRetry: true}, true},
		{"rate limited", classify.Classification{Category: classify.CategoryRateLimited, ShouldRetry: true}, true},
		{"overloaded", classify.Classification{Category: classify.CategoryOverloaded, ShouldRetry: true}, true},
		{"unknown", classify.Classification{Category: classify.CategoryUnknown, ShouldRetry: true}, true},
		{"context exceeded", classify.Classification{Category: classify.CategoryContextExceeded, ShouldRetry: true}, false},
		{"authentication", classify.Classification{Category: classify.CategoryAuthentication}, false},
		{"permission", classify.Classification{Category: classify.CategoryPermission}, false},
		{"bad request", classify.Classification{Category: classify.CategoryBadRequest}, false},
		{"non-retryable transient", classify.Classification{Category: classify.CategoryTransient}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AdvanceOnAvailability(tt.cls); got != tt.want {
				t.Errorf("AdvanceOnAvailability() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTier_String(t *testing.T) {
	tests := []struct {
		tier Tier
		want string
	}{
		{TierPrimary, "primary"},
		{TierSecondary, "secondary"},
		{TierEconomy, "economy"},
		{Tier(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.tier.String(); got != tt.want {
			t.Errorf("Tier(%d).String() = %q, want %q", tt.tier, got, tt.want)
		}
	}
}
