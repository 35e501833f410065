// Package fallback provides an ordered multi-model chain for LLM calls.
//
// A Chain holds a list of model configurations, best quality first, and
// tries them in order. A failed call advances to the next entry only
// when its classification points at provider availability (rate
// limits, overload, transient network trouble); request defects such
// as authentication failures or malformed input propagate immediately,
// since switching models cannot fix them.
//
// The chain performs no retries of its own. Compose it under a retry
// handler when repeated passes over the chain are wanted.
package fallback
