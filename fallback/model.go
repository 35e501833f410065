package fallback

import "time"

// Tier labels a model's position in the quality/cost spectrum.
type Tier int

const (
	// TierPrimary is the best-quality model, tried first.
	TierPrimary Tier = iota

	// TierSecondary is a mid-range model.
	TierSecondary

	// TierEconomy is the cheapest/fastest model, tried last.
	TierEconomy
)

// String returns a string representation of the tier.
func (t Tier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierEconomy:
		return "economy"
	default:
		return "unknown"
	}
}

// ModelConfig describes one entry in a fallback chain.
type ModelConfig struct {
	// ModelID is the provider's model identifier.
	ModelID string

	// Tier labels the entry's quality/cost position.
	Tier Tier

	// MaxTokens caps the response length for this model. A request's
	// own MaxTokens is clamped to this value.
	MaxTokens int

	// Timeout is the hard per-call deadline for this model.
	// Zero means no per-entry deadline.
	Timeout time.Duration

	// IsFallback marks a non-primary entry. NewChain sets it for
	// every entry after the first.
	IsFallback bool

	// InputCostPerToken and OutputCostPerToken are informational
	// pricing figures, in dollars per token.
	InputCostPerToken  float64
	OutputCostPerToken float64

	// Endpoint optionally overrides the provider endpoint for this
	// model. Empty means the invoker's default.
	Endpoint string

	// CredentialRef optionally names the credential source to use
	// for this model. Empty means the invoker's default.
	CredentialRef string
}
