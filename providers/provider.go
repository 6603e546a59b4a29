package providers

import (
	"context"

	"golang.org/x/oauth2"
)

// Provider is the capability set implemented by every identity provider
// variant. Implementations are constructed once from an immutable
// configuration and are safe for concurrent use; all per-login state rides
// the request and the returned values.
type Provider interface {
	// Name returns the provider's display name (e.g. "GitHub").
	Name() string

	// Summary describes the configured provider to the console frontend.
	// Repeated calls return equal values.
	Summary() Summary

	// LoginURL builds the absolute authorization URL the visitor is
	// redirected to. A non-empty redirectTarget is round-tripped through the
	// state parameter and recovered from the provider callback.
	LoginURL(ctx context.Context, redirectTarget string) (string, error)

	// ExchangeCode trades the authorization code from the provider callback
	// for an access token. The token lives for the duration of one login
	// flow and is never persisted.
	ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error)

	// FetchIdentity resolves the access token to a normalized Identity,
	// issuing one or more provider API calls. The calls within one login are
	// sequential; failures abort the remaining steps.
	FetchIdentity(ctx context.Context, token *oauth2.Token) (*Identity, error)
}

// Summary is the per-provider fragment of the console's configuration
// payload. The frontend uses it to render the login button.
type Summary struct {
	// Name is the provider display name.
	Name string `json:"name"`

	// FAIcon is the Font Awesome icon identifier for the login button.
	FAIcon string `json:"fa_icon"`

	// Autologin tells the frontend to start the login dance immediately
	// instead of waiting for a click.
	Autologin bool `json:"autologin"`

	// OAuth2 is always true; the frontend dispatches on it.
	OAuth2 bool `json:"oauth2"`
}
