package credential

import "net/http"

// TransportConfig configures the credential-injecting transport.
type TransportConfig struct {
	// Source supplies the credential for each request.
	Source Source

	// HeaderName is the header the token is placed in.
	// Default: "Authorization"
	HeaderName string

	// TokenPrefix is prepended to the token in the header. Set it to
	// "" for raw-key headers like x-api-key.
	// Default: "Bearer " when HeaderName is "Authorization"
	TokenPrefix string

	// ExtraHeaders are set on every outgoing request, for provider
	// version pins and the like.
	ExtraHeaders map[string]string

	// Base is the underlying round tripper.
	// Default: http.DefaultTransport
	Base http.RoundTripper
}

// Transport is an http.RoundTripper that injects a source's token
// into each outgoing request.
type Transport struct {
	config TransportConfig
}

// NewTransport creates a credential-injecting transport.
func NewTransport(config TransportConfig) (*Transport, error) {
	if config.Source == nil {
		return nil, ErrNoSource
	}

	// Apply defaults
	if config.HeaderName == "" {
		config.HeaderName = "Authorization"
		if config.TokenPrefix == "" {
			config.TokenPrefix = "Bearer "
		}
	}
	if config.Base == nil {
		config.Base = http.DefaultTransport
	}

	return &Transport{config: config}, nil
}

// RoundTrip fetches a credential and sends the request with it. The
// original request is never modified.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	cred, err := t.config.Source.Token(req.Context())
	if err != nil {
		return nil, err
	}

	clone := req.Clone(req.Context())
	clone.Header.Set(t.config.HeaderName, t.config.TokenPrefix+cred.Token)
	for k, v := range t.config.ExtraHeaders {
		clone.Header.Set(k, v)
	}

	return t.config.Base.RoundTrip(clone)
}

// Ensure Transport implements http.RoundTripper
var _ http.RoundTripper = (*Transport)(nil)
