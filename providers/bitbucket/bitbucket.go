// Package bitbucket implements the Bitbucket Cloud provider variant.
//
// Bitbucket needs no scope parameter on the authorize URL (scopes are fixed
// on the OAuth consumer) and authenticates the token endpoint with HTTP
// Basic credentials rather than form fields. Groups are the workspaces the
// visitor is a member of.
package bitbucket

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/TheRakeshPurohit/consoleauth/providers"
)

// Compile-time check that Provider implements the providers.Provider interface.
var _ providers.Provider = (*Provider)(nil)

const (
	providerName = "Bitbucket"
	faIcon       = "fa-bitbucket"
)

// Bitbucket Cloud endpoints.
const (
	authorizeEndpoint = "https://bitbucket.org/site/oauth2/authorize"
	tokenEndpoint     = "https://bitbucket.org/site/oauth2/access_token"
	defaultAPIBase    = "https://api.bitbucket.org/2.0"
)

// API paths used by FetchIdentity, relative to the API base.
const (
	userPath       = "/user"
	emailsPath     = "/user/emails"
	workspacesPath = "/workspaces?role=member"
)

// Config holds the Bitbucket provider configuration.
type Config struct {
	// ClientID and ClientSecret are the OAuth consumer credentials. Either
	// may be a secret reference.
	ClientID     providers.Secret
	ClientSecret providers.Secret

	// BaseURL is the console's public base URL; Bitbucket redirects back to
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

	// RequestTimeout bounds Bitbucket API calls (default 30s).
	RequestTimeout time.Duration
}

// Provider implements providers.Provider for Bitbucket.
type Provider struct {
	providers.Flow

	apiBase string
}

// NewProvider creates a Bitbucket provider from the configuration.
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
			CallbackURL:    providers.CallbackURL(cfg.BaseURL),
			UseBasicAuth:   true,
			Resolver:       cfg.Resolver,
			HTTPClient:     cfg.HTTPClient,
			Logger:         cfg.Logger,
			RequestTimeout: cfg.RequestTimeout,
		},
		apiBase: defaultAPIBase,
	}
	if err := p.Init(); err != nil {
		return nil, err
	}
	return p, nil
}

// FetchIdentity resolves the token with three calls: profile, email list,
// workspace memberships.
func (p *Provider) FetchIdentity(ctx context.Context, token *oauth2.Token) (*providers.Identity, error) {
	ctx, cancel := p.EnsureTimeout(ctx)
	defer cancel()

	header := make(http.Header)
	header.Set("Authorization", "Bearer "+token.AccessToken)

	var user struct {
		Username    string `json:"username"`
		DisplayName string `json:"display_name"`
	}
	if err := p.Gateway().GetJSON(ctx, p.apiBase+userPath, header, &user); err != nil {
		return nil, fmt.Errorf("bitbucket: fetch user: %w", err)
	}
	if user.Username == "" {
		return nil, &providers.MalformedResponseError{URL: p.apiBase + userPath, Reason: "user has no username"}
	}

	identity := &providers.Identity{
		Username: user.Username,
		FullName: user.DisplayName,
	}

	var emails struct {
		Values []struct {
			Email       string `json:"email"`
			IsPrimary   bool   `json:"is_primary"`
			IsConfirmed bool   `json:"is_confirmed"`
		} `json:"values"`
	}
	if err := p.Gateway().GetJSON(ctx, p.apiBase+emailsPath, header, &emails); err != nil {
		return nil, fmt.Errorf("bitbucket: fetch emails: %w", err)
	}
	for _, e := range emails.Values {
		if e.IsPrimary && e.IsConfirmed {
			identity.Email = e.Email
			break
		}
	}

	var workspaces struct {
		Values []struct {
			Slug string `json:"slug"`
		} `json:"values"`
	}
	if err := p.Gateway().GetJSON(ctx, p.apiBase+workspacesPath, header, &workspaces); err != nil {
		return nil, fmt.Errorf("bitbucket: fetch workspaces: %w", err)
	}
	identity.Groups = make([]string, 0, len(workspaces.Values))
	for _, w := range workspaces.Values {
		identity.Groups = append(identity.Groups, w.Slug)
	}

	return identity, nil
}
