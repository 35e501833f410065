// Package observe provides observability primitives for LLM API calls.
//
// It is a pure instrumentation library: no execution, no transport, no I/O
// beyond exporter setup. Consumers wrap their chat operation with the
// Middleware, or use the client package, which wires this in.
package observe
