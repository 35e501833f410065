package fallback

import (
	"context"
	"time"
)

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`    // "system", "user", or "assistant"
	Content string `json:"content"` // Message content
}

// Request defines an LLM completion request. The chain rewrites Model
// and MaxTokens per entry before handing it to the Invoker.
type Request struct {
	// Model is the provider model identifier.
	Model string `json:"model"`

	// Messages is the chat history to send.
	Messages []Message `json:"messages"`

	// System is an optional system prompt.
	System string `json:"system,omitempty"`

	// MaxTokens limits response length. 0 uses the entry's cap.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls randomness. nil uses the provider default.
	Temperature *float64 `json:"temperature,omitempty"`

	// Metadata carries caller tags through to the invoker.
	Metadata map[string]string `json:"metadata,omitempty"`

	// RequestID correlates the call across logs and metrics.
	RequestID string `json:"request_id,omitempty"`

	// Endpoint and CredentialRef are filled from the chain entry when
	// that entry overrides them.
	Endpoint      string `json:"-"`
	CredentialRef string `json:"-"`
}

// TokenUsage reports token consumption for one call.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Response contains the completion result.
type Response struct {
	// Content is the generated text.
	Content string `json:"content"`

	// Model is the model that actually answered.
	Model string `json:"model"`

	// StopReason indicates why generation stopped.
	StopReason string `json:"stop_reason,omitempty"`

	// Usage contains token consumption metrics, when the provider
	// reports them.
	Usage TokenUsage `json:"usage"`

	// CreatedAt is when the provider produced the response.
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Invoker performs the actual provider call for one request. The
// chain treats it as opaque: any error it returns is classified to
// decide whether the next model is worth trying. Implementations must
// preserve provider error messages verbatim, since classification
// pattern-matches on them.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (*Response, error)
}

// InvokerFunc adapts an ordinary function to an Invoker.
type InvokerFunc func(ctx context.Context, req Request) (*Response, error)

// Invoke calls f(ctx, req).
func (f InvokerFunc) Invoke(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}
