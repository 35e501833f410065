// Package secret provides a small, dependency-light secret resolution layer.
//
// Provider API keys never live in config files. Config values hold
// references instead, resolved at load time:
//   - Strict environment expansion (see ExpandEnvStrict)
//   - Pluggable secret providers (see Provider + Registry)
//   - Resolving secret references in configuration values (see Resolver)
//
// References use the prefix "secretref:":
//   - Full value:  secretref:env:ANTHROPIC_API_KEY
//   - File mount:  secretref:file:/run/secrets/anthropic_api_key
//   - Inline use:  Bearer secretref:env:GATEWAY_TOKEN
package secret
