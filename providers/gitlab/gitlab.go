// Package gitlab implements the GitLab provider variant for self-hosted
// instances and gitlab.com.
//
// GitLab needs no scope parameter on the authorize URL; group membership
// comes from the /groups endpoint as path strings, in API order.
package gitlab

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/TheRakeshPurohit/consoleauth/internal/util"
	"github.com/TheRakeshPurohit/consoleauth/providers"
)

// Compile-time check that Provider implements the providers.Provider interface.
var _ providers.Provider = (*Provider)(nil)

const (
	providerName = "GitLab"
	faIcon       = "fa-git"
)

// Config holds the GitLab provider configuration.
type Config struct {
	// InstanceURL is the GitLab instance, e.g. https://gitlab.com or a
	// self-hosted URL. Required.
	InstanceURL string

	// ClientID and ClientSecret are the application credentials. Either may
	// be a secret reference.
	ClientID     providers.Secret
	ClientSecret providers.Secret

	// BaseURL is the console's public base URL; GitLab redirects back to
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

	// RequestTimeout bounds GitLab API calls (default 30s).
	RequestTimeout time.Duration
}

// Provider implements providers.Provider for GitLab.
type Provider struct {
	providers.Flow

	apiBase string
}

// NewProvider creates a GitLab provider from the configuration.
func NewProvider(cfg *Config) (*Provider, error) {
	if cfg.InstanceURL == "" {
		return nil, providers.NewConfigError(providerName, "instance URL is required")
	}
	if cfg.BaseURL == "" {
		return nil, providers.NewConfigError(providerName, "console base URL is required")
	}

	instance := util.NormalizeBaseURL(cfg.InstanceURL)

	p := &Provider{
		Flow: providers.Flow{
			ProviderName:   providerName,
			FAIcon:         faIcon,
			Autologin:      cfg.Autologin,
			ClientID:       cfg.ClientID,
			ClientSecret:   cfg.ClientSecret,
			AuthorizeURL:   instance + "/oauth/authorize",
			TokenURL:       instance + "/oauth/token",
			CallbackURL:    providers.CallbackURL(cfg.BaseURL),
			Resolver:       cfg.Resolver,
			HTTPClient:     cfg.HTTPClient,
			Logger:         cfg.Logger,
			RequestTimeout: cfg.RequestTimeout,
		},
		apiBase: instance + "/api/v4",
	}
	if err := p.Init(); err != nil {
		return nil, err
	}
	return p, nil
}

// FetchIdentity resolves the token with two calls: profile, then groups.
func (p *Provider) FetchIdentity(ctx context.Context, token *oauth2.Token) (*providers.Identity, error) {
	ctx, cancel := p.EnsureTimeout(ctx)
	defer cancel()

	header := make(http.Header)
	header.Set("Authorization", "Bearer "+token.AccessToken)

	var user struct {
		Name      string `json:"name"`
		Username  string `json:"username"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := p.Gateway().GetJSON(ctx, p.apiBase+"/user", header, &user); err != nil {
		return nil, fmt.Errorf("gitlab: fetch user: %w", err)
	}
	if user.Username == "" {
		return nil, &providers.MalformedResponseError{URL: p.apiBase + "/user", Reason: "user has no username"}
	}

	var groups []struct {
		Path string `json:"path"`
	}
	if err := p.Gateway().GetJSON(ctx, p.apiBase+"/groups", header, &groups); err != nil {
		return nil, fmt.Errorf("gitlab: fetch groups: %w", err)
	}

	identity := &providers.Identity{
		Username:  user.Username,
		FullName:  user.Name,
		Email:     user.Email,
		AvatarURL: user.AvatarURL,
		Groups:    make([]string, 0, len(groups)),
	}
	for _, g := range groups {
		identity.Groups = append(identity.Groups, g.Path)
	}

	return identity, nil
}
