// Package credential supplies outbound credentials for provider calls.
//
// A Source produces the secret a request presents to the provider: a
// static API key, or a short-lived signed JWT for gateways that demand
// one. Sources are cheap to call; refreshing sources cache the minted
// token until it nears expiry. A Registry maps the credential names
// referenced by fallback chain entries to their sources, and Transport
// injects a source's token into outgoing HTTP requests.
//
// Tokens never appear in logs; use Fingerprint for a loggable handle.
package credential
