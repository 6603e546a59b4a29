// Package google implements the Google provider variant.
//
// Identity data comes from a single userinfo call; Google exposes no group
// membership, so identities carry none. The username is the local part of
// the account email.
package google

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/TheRakeshPurohit/consoleauth/providers"
)

// Compile-time check that Provider implements the providers.Provider interface.
var _ providers.Provider = (*Provider)(nil)

const (
	providerName = "Google"
	faIcon       = "fa-google-plus"
)

// Google OAuth2 endpoints.
const (
	authorizeEndpoint = "https://accounts.google.com/o/oauth2/auth"
	tokenEndpoint     = "https://accounts.google.com/o/oauth2/token"
	userInfoEndpoint  = "https://www.googleapis.com/oauth2/v1/userinfo"
)

// defaultScope requests the email and profile userinfo scopes.
const defaultScope = "https://www.googleapis.com/auth/userinfo.email" +
	" https://www.googleapis.com/auth/userinfo.profile"

// Config holds the Google provider configuration.
type Config struct {
	// ClientID and ClientSecret are the OAuth2 client credentials from the
	// Google API console. Either may be a secret reference.
	ClientID     providers.Secret
	ClientSecret providers.Secret

	// BaseURL is the console's public base URL; Google redirects back to
	// <BaseURL>/auth/login.
	BaseURL string

	// Autologin makes the console start the login dance without a click.
	Autologin bool

	// Resolver resolves secret references in ClientID/ClientSecret.
	Resolver providers.SecretResolver

	// HTTPClient is an optional custom HTTP client.
	HTTPClient *http.Client

	// Logger is an optional structured logger (default slog.Default()).
	Logger *slog.Logger

	// RequestTimeout bounds Google API calls (default 30s).
	RequestTimeout time.Duration
}

// Provider implements providers.Provider for Google.
type Provider struct {
	providers.Flow

	userInfoURL string
}

// NewProvider creates a Google provider from the configuration.
func NewProvider(cfg *Config) (*Provider, error) {
	if cfg.BaseURL == "" {
		return nil, providers.NewConfigError(providerName, "console base URL is required")
	}

	p := &Provider{
		Flow: providers.Flow{
			ProviderName:   providerName,
			FAIcon:         faIcon,
			Autologin:      cfg.Autologin,
			ClientID:       cfg.ClientID,
			ClientSecret:   cfg.ClientSecret,
			AuthorizeURL:   authorizeEndpoint,
			TokenURL:       tokenEndpoint,
			Scope:          defaultScope,
			CallbackURL:    providers.CallbackURL(cfg.BaseURL),
			Resolver:       cfg.Resolver,
			HTTPClient:     cfg.HTTPClient,
			Logger:         cfg.Logger,
			RequestTimeout: cfg.RequestTimeout,
		},
		userInfoURL: userInfoEndpoint,
	}
	if err := p.Init(); err != nil {
		return nil, err
	}
	return p, nil
}

// FetchIdentity resolves the token to an identity with one userinfo call.
func (p *Provider) FetchIdentity(ctx context.Context, token *oauth2.Token) (*providers.Identity, error) {
	ctx, cancel := p.EnsureTimeout(ctx)
	defer cancel()

	header := make(http.Header)
	header.Set("Authorization", "Bearer "+token.AccessToken)

	var info struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture string `json:"picture"`
	}
	if err := p.Gateway().GetJSON(ctx, p.userInfoURL, header, &info); err != nil {
		return nil, fmt.Errorf("google: fetch userinfo: %w", err)
	}
	if info.Email == "" {
		return nil, &providers.MalformedResponseError{URL: p.userInfoURL, Reason: "userinfo has no email"}
	}

	username := info.Email
	if i := strings.IndexByte(username, '@'); i >= 0 {
		username = username[:i]
	}

	return &providers.Identity{
		Username:  username,
		FullName:  info.Name,
		Email:     info.Email,
		AvatarURL: info.Picture,
	}, nil
}
