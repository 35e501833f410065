package client

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/jonwraymond/llmops/fallback"
)

// Characters per token by content kind. Dense structural text packs
// more tokens per character than prose.
const (
	jsonCharsPerToken  = 2.5
	codeCharsPerToken  = 3.0
	proseCharsPerToken = 4.0
)

// Estimator sizes a request's token footprint before the call is
// made, so the rate limiter can charge for it up front. Estimates are
// a throttling signal, not an accounting one; accuracy beyond
// order-of-magnitude is not required.
type Estimator interface {
	Estimate(req fallback.Request) int
}

// HeuristicEstimator estimates tokens from character counts, with a
// divisor chosen per message by detected content kind: JSON packs
// roughly 2.5 characters per token, code 3, prose 4.
type HeuristicEstimator struct{}

// NewHeuristicEstimator creates the default estimator.
func NewHeuristicEstimator() *HeuristicEstimator {
	return &HeuristicEstimator{}
}

// Estimate returns the estimated token count for the request's system
// prompt and messages. The result is always at least 1.
func (e *HeuristicEstimator) Estimate(req fallback.Request) int {
	total := estimateText(req.System)
	for _, m := range req.Messages {
		total += estimateText(m.Content)
	}
	if total < 1 {
		total = 1
	}
	return total
}

func estimateText(s string) int {
	if s == "" {
		return 0
	}
	return int(math.Ceil(float64(len(s)) / divisorFor(s)))
}

// codeMarkers are cheap signals that a message body is source code.
var codeMarkers = []string{"```", "func ", "def ", "class ", "#include", "=>"}

// divisorFor picks the chars-per-token divisor for one text body.
func divisorFor(s string) float64 {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return proseCharsPerToken
	}

	if trimmed[0] == '{' || trimmed[0] == '[' {
		if json.Valid([]byte(trimmed)) {
			return jsonCharsPerToken
		}
	}

	for _, marker := range codeMarkers {
		if strings.Contains(trimmed, marker) {
			return codeCharsPerToken
		}
	}

	return proseCharsPerToken
}

// Ensure HeuristicEstimator implements Estimator
var _ Estimator = (*HeuristicEstimator)(nil)
