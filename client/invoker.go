package client

import (
	"context"

	"github.com/jonwraymond/llmops/credential"
	"github.com/jonwraymond/llmops/fallback"
)

// CredentialMetadataKey is the request metadata key the resolved
// token is handed to the invoker under. The observe logger's
// redaction list covers it, so the token never reaches log output.
const CredentialMetadataKey = "authorization"

// credentialInvoker resolves each request's CredentialRef through a
// registry and exposes the minted token to the wrapped invoker via
// request metadata. Requests without a CredentialRef pass through
// untouched.
type credentialInvoker struct {
	registry *credential.Registry
	next     fallback.Invoker
}

// Invoke resolves the credential, then delegates. The caller's
// metadata map is never modified; the token is added to a copy.
func (ci *credentialInvoker) Invoke(ctx context.Context, req fallback.Request) (*fallback.Response, error) {
	if req.CredentialRef == "" {
		return ci.next.Invoke(ctx, req)
	}

	source, err := ci.registry.Get(req.CredentialRef)
	if err != nil {
		return nil, err
	}
	cred, err := source.Token(ctx)
	if err != nil {
		return nil, err
	}

	md := make(map[string]string, len(req.Metadata)+1)
	for k, v := range req.Metadata {
		md[k] = v
	}
	md[CredentialMetadataKey] = cred.Token
	req.Metadata = md

	return ci.next.Invoke(ctx, req)
}

// Ensure credentialInvoker implements fallback.Invoker
var _ fallback.Invoker = (*credentialInvoker)(nil)
