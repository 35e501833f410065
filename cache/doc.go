// Package cache provides response caching for LLM calls.
//
// It provides a Cache interface with memory and redis implementations,
// SHA-256 key derivation over request content, TTL policies, and a
// middleware that collapses concurrent identical requests into one
// upstream call.
package cache
