// Package keycloak implements the KeyCloak provider variant.
//
// Endpoints are parameterized by instance URL and realm; identity data comes
// from the realm's OpenID Connect userinfo endpoint, including a groups
// claim that is passed through unchanged.
package keycloak

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
	providerName = "KeyCloak"
	faIcon       = "fa-key"
)

// defaultRealm is KeyCloak's built-in realm.
const defaultRealm = "master"

// defaultScope requests the OpenID Connect scope; userinfo is not served
// without it.
const defaultScope = "openid"

// Config holds the KeyCloak provider configuration.
type Config struct {
	// InstanceURL is the KeyCloak server, e.g. https://sso.example.com.
	// Required.
	InstanceURL string

	// Realm is the authentication realm (default "master").
	Realm string

	// ClientID and ClientSecret are the realm client credentials. Either may
	// be a secret reference.
	ClientID     providers.Secret
	ClientSecret providers.Secret

	// BaseURL is the console's public base URL; KeyCloak redirects back to
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

	// RequestTimeout bounds KeyCloak API calls (default 30s).
	RequestTimeout time.Duration
}

// Provider implements providers.Provider for KeyCloak.
type Provider struct {
	providers.Flow

	userInfoURL string
}

// NewProvider creates a KeyCloak provider from the configuration.
func NewProvider(cfg *Config) (*Provider, error) {
	if cfg.InstanceURL == "" {
		return nil, providers.NewConfigError(providerName, "instance URL is required")
	}
	if cfg.BaseURL == "" {
		return nil, providers.NewConfigError(providerName, "console base URL is required")
	}

	realm := cfg.Realm
	if realm == "" {
		realm = defaultRealm
	}

	oidcBase := util.NormalizeBaseURL(cfg.InstanceURL) + "/realms/" + realm + "/protocol/openid-connect"

	p := &Provider{
		Flow: providers.Flow{
			ProviderName:   providerName,
			FAIcon:         faIcon,
			Autologin:      cfg.Autologin,
			ClientID:       cfg.ClientID,
			ClientSecret:   cfg.ClientSecret,
			AuthorizeURL:   oidcBase + "/auth",
			TokenURL:       oidcBase + "/token",
			Scope:          defaultScope,
			CallbackURL:    providers.CallbackURL(cfg.BaseURL),
			Resolver:       cfg.Resolver,
			HTTPClient:     cfg.HTTPClient,
			Logger:         cfg.Logger,
			RequestTimeout: cfg.RequestTimeout,
		},
		userInfoURL: oidcBase + "/userinfo",
	}
	if err := p.Init(); err != nil {
		return nil, err
	}
	return p, nil
}

// FetchIdentity resolves the token with one userinfo call.
func (p *Provider) FetchIdentity(ctx context.Context, token *oauth2.Token) (*providers.Identity, error) {
	ctx, cancel := p.EnsureTimeout(ctx)
	defer cancel()

	header := make(http.Header)
	header.Set("Authorization", "Bearer "+token.AccessToken)

	var info struct {
		Name              string   `json:"name"`
		PreferredUsername string   `json:"preferred_username"`
		Email             string   `json:"email"`
		Picture           string   `json:"picture"`
		Groups            []string `json:"groups"`
	}
	if err := p.Gateway().GetJSON(ctx, p.userInfoURL, header, &info); err != nil {
		return nil, fmt.Errorf("keycloak: fetch userinfo: %w", err)
	}
	if info.PreferredUsername == "" {
		return nil, &providers.MalformedResponseError{URL: p.userInfoURL, Reason: "userinfo has no preferred_username"}
	}

	return &providers.Identity{
		Username:  info.PreferredUsername,
		FullName:  info.Name,
		Email:     info.Email,
		AvatarURL: info.Picture,
		Groups:    info.Groups,
	}, nil
}
