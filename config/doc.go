// Package config loads and validates client configuration from YAML.
//
// Load layers, lowest to highest precedence: built-in defaults, the
// YAML file, and LLMOPS_* environment variables, then resolves
// secretref:/${VAR} credential fields so API keys never live in the
// file itself. Watch reloads the file on change with a debounce
// window; a reload that fails validation is reported and the previous
// config stays live.
package config
