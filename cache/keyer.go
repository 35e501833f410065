package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/jonwraymond/llmops/fallback"
)

// Keyer generates deterministic cache keys from chat requests.
//
// Contract:
// - Determinism: identical request content must produce the same key.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key generates a cache key for a request.
	Key(req fallback.Request) (string, error)
}

// DefaultKeyer generates SHA-256 based cache keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// keyMaterial is the request content a response depends on. Metadata,
// request IDs, and routing fields are excluded so retried and
// relabeled requests share an entry.
type keyMaterial struct {
	Model     string             `json:"model"`
	System    string             `json:"system,omitempty"`
	Messages  []fallback.Message `json:"messages"`
	MaxTokens int                `json:"maxTokens,omitempty"`
}

// Key generates a deterministic cache key.
// Format: llm:<model>:<hash>
// where hash is the first 16 characters of SHA-256(canonical JSON of
// the request content).
func (k *DefaultKeyer) Key(req fallback.Request) (string, error) {
	if req.Model == "" {
		return "", fmt.Errorf("cache: request has no model")
	}

	// Struct fields marshal in declaration order, so the JSON is
	// canonical without further sorting.
	canonical, err := json.Marshal(keyMaterial{
		Model:     req.Model,
		System:    req.System,
		Messages:  req.Messages,
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("cache: failed to canonicalize request: %w", err)
	}

	hash := sha256.Sum256(canonical)
	hashStr := hex.EncodeToString(hash[:8]) // First 8 bytes = 16 hex chars

	return fmt.Sprintf("llm:%s:%s", req.Model, hashStr), nil
}

// Ensure DefaultKeyer implements Keyer
var _ Keyer = (*DefaultKeyer)(nil)
