// Package github implements the GitHub provider variant, covering both
// github.com and GitHub Enterprise instances.
//
// Two mutually exclusive data-retrieval strategies are selected at
// configuration time: the v3 REST API (three sequential GETs) and the v4
// GraphQL API (one POST, plus an optional second one batching team
// membership for every discovered organization). Team membership retrieval
// exists only on v4; requesting it with v3 is a configuration error.
package github

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
	providerName = "GitHub"
	faIcon       = "fa-github"
)

// defaultServerURL is the public GitHub instance. Any other server URL is
// treated as a GitHub Enterprise installation with its API mounted under
// /api/v3 and /api/graphql.
const defaultServerURL = "https://github.com"

// Public API endpoints; enterprise installs derive theirs from the server URL.
const (
	defaultRESTBase   = "https://api.github.com"
	defaultGraphQLURL = "https://api.github.com/graphql"
)

// REST paths used by the v3 strategy, relative to the API base.
const (
	userPath   = "/user"
	emailsPath = "/user/emails"
	orgsPath   = "/user/orgs"
)

// defaultScope requests email visibility and read access to organization
// membership.
const defaultScope = "user:email read:org"

// Config holds the GitHub provider configuration.
type Config struct {
	// ClientID and ClientSecret are the OAuth App credentials. Either may be
	// a secret reference resolved at login time.
	ClientID     providers.Secret
	ClientSecret providers.Secret

	// BaseURL is the console's public base URL; GitHub redirects back to
	// <BaseURL>/auth/login.
	BaseURL string

	// ServerURL points at a GitHub Enterprise instance. Leave empty (or
	// https://github.com) for the public instance.
	ServerURL string

	// APIVersion selects the data-retrieval strategy: 3 for REST, 4 for
	// GraphQL. Zero defaults to 3; anything else is a configuration error.
	APIVersion int

	// TeamMembership also retrieves the visitor's team memberships and
	// flattens them into the groups list. Requires APIVersion 4.
	TeamMembership bool

	// Autologin makes the console start the login dance without a click.
	Autologin bool

	// Resolver resolves secret references in ClientID/ClientSecret.
	Resolver providers.SecretResolver

	// HTTPClient is an optional custom HTTP client.
	HTTPClient *http.Client

	// Logger is an optional structured logger (default slog.Default()).
	Logger *slog.Logger

	// RequestTimeout bounds GitHub API calls (default 30s).
	RequestTimeout time.Duration
}

// Provider implements providers.Provider for GitHub.
type Provider struct {
	providers.Flow

	apiVersion     int
	teamMembership bool
	restBase       string
	graphqlURL     string
}

// NewProvider creates a GitHub provider from the configuration.
func NewProvider(cfg *Config) (*Provider, error) {
	apiVersion := cfg.APIVersion
	if apiVersion == 0 {
		apiVersion = 3
	}
	if apiVersion != 3 && apiVersion != 4 {
		return nil, providers.NewConfigError(providerName, "api version must be 3 or 4, got %d", cfg.APIVersion)
	}
	if cfg.TeamMembership && apiVersion != 4 {
		return nil, providers.NewConfigError(providerName, "team membership retrieval requires the v4 GraphQL API")
	}
	if cfg.BaseURL == "" {
		return nil, providers.NewConfigError(providerName, "console base URL is required")
	}

	serverURL := util.NormalizeBaseURL(cfg.ServerURL)
	if serverURL == "" {
		serverURL = defaultServerURL
	}
	restBase, graphqlURL := defaultRESTBase, defaultGraphQLURL
	if serverURL != defaultServerURL {
		restBase = serverURL + "/api/v3"
		graphqlURL = serverURL + "/api/graphql"
	}

	p := &Provider{
		Flow: providers.Flow{
			ProviderName:   providerName,
			FAIcon:         faIcon,
			Autologin:      cfg.Autologin,
			ClientID:       cfg.ClientID,
			ClientSecret:   cfg.ClientSecret,
			AuthorizeURL:   serverURL + "/login/oauth/authorize",
			TokenURL:       serverURL + "/login/oauth/access_token",
			Scope:          defaultScope,
			CallbackURL:    providers.CallbackURL(cfg.BaseURL),
			Resolver:       cfg.Resolver,
			HTTPClient:     cfg.HTTPClient,
			Logger:         cfg.Logger,
			RequestTimeout: cfg.RequestTimeout,
		},
		apiVersion:     apiVersion,
		teamMembership: cfg.TeamMembership,
		restBase:       restBase,
		graphqlURL:     graphqlURL,
	}
	if err := p.Init(); err != nil {
		return nil, err
	}
	return p, nil
}

// FetchIdentity resolves the token through the strategy fixed at
// construction time.
func (p *Provider) FetchIdentity(ctx context.Context, token *oauth2.Token) (*providers.Identity, error) {
	ctx, cancel := p.EnsureTimeout(ctx)
	defer cancel()

	if p.apiVersion == 4 {
		return p.fetchIdentityV4(ctx, token.AccessToken)
	}
	return p.fetchIdentityV3(ctx, token.AccessToken)
}

// authHeader builds the GitHub authorization header. GitHub's OAuth tokens
// use the "token" scheme.
func authHeader(accessToken string) http.Header {
	h := make(http.Header)
	h.Set("Authorization", "token "+accessToken)
	return h
}

// fetchIdentityV3 issues the three REST calls of the v3 strategy in order:
// profile, email list, organization list.
func (p *Provider) fetchIdentityV3(ctx context.Context, accessToken string) (*providers.Identity, error) {
	header := authHeader(accessToken)

	var user struct {
		Login string `json:"login"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := p.Gateway().GetJSON(ctx, p.restBase+userPath, header, &user); err != nil {
		return nil, fmt.Errorf("github: fetch user: %w", err)
	}
	if user.Login == "" {
		return nil, &providers.MalformedResponseError{URL: p.restBase + userPath, Reason: "user has no login"}
	}

	identity := &providers.Identity{
		Username: user.Login,
		FullName: user.Name,
		Email:    user.Email,
	}

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := p.Gateway().GetJSON(ctx, p.restBase+emailsPath, header, &emails); err != nil {
		return nil, fmt.Errorf("github: fetch emails: %w", err)
	}
	// The profile email is whatever the user chose to publish; the primary
	// verified address from the email list replaces it when present.
	for _, e := range emails {
		if e.Primary && e.Verified {
			identity.Email = e.Email
			break
		}
	}

	var orgs []struct {
		Login string `json:"login"`
	}
	if err := p.Gateway().GetJSON(ctx, p.restBase+orgsPath, header, &orgs); err != nil {
		return nil, fmt.Errorf("github: fetch orgs: %w", err)
	}
	identity.Groups = make([]string, 0, len(orgs))
	for _, org := range orgs {
		identity.Groups = append(identity.Groups, org.Login)
	}

	return identity, nil
}
