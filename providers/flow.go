package providers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/TheRakeshPurohit/consoleauth/internal/util"
)

// loginPath is where consoles mount the login handler, relative to the
// console base URL. Providers redirect back to it.
const loginPath = "/auth/login"

// CallbackURL derives the provider callback from the console base URL.
func CallbackURL(baseURL string) string {
	return util.NormalizeBaseURL(baseURL) + loginPath
}

// Flow holds everything the authorization-code dance needs that is common to
// all provider families: endpoints, client credentials, scope, and the
// console callback. Variant packages embed it and add only their identity
// fetching on top; Name, Summary, LoginURL, and ExchangeCode come from here.
//
// Fields are set by the variant constructor and frozen by Init; a Flow is
// immutable and safe for concurrent use afterwards.
type Flow struct {
	// ProviderName is the display name ("GitHub", "Google", ...).
	ProviderName string

	// FAIcon is the Font Awesome identifier for the console login button.
	FAIcon string

	// Autologin is surfaced in the configuration summary.
	Autologin bool

	// ClientID and ClientSecret are the OAuth2 client credentials. Either
	// may be a secret reference; resolution happens on every use.
	ClientID     Secret
	ClientSecret Secret

	// AuthorizeURL and TokenURL are the provider endpoints for the consent
	// redirect and the code exchange.
	AuthorizeURL string
	TokenURL     string

	// Scope is the space-joined scope string; empty means the authorize URL
	// carries no scope parameter at all.
	Scope string

	// CallbackURL is where the provider redirects back to
	// (<console base>/auth/login).
	CallbackURL string

	// UseBasicAuth authenticates the token endpoint with an HTTP Basic
	// header instead of client_id/client_secret form fields. Bitbucket
	// requires this.
	UseBasicAuth bool

	// Resolver resolves secret references; only required when ClientID or
	// ClientSecret is one.
	Resolver SecretResolver

	// HTTPClient overrides the outbound HTTP client.
	HTTPClient *http.Client

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// RequestTimeout is the deadline applied to provider calls when the
	// inbound context has none. Defaults to 30 seconds.
	RequestTimeout time.Duration

	gateway *Gateway
}

// Init validates the flow and wires defaults. Variant constructors call it
// exactly once after filling in the fields.
func (f *Flow) Init() error {
	if f.ClientID.IsZero() {
		return NewConfigError(f.ProviderName, "client ID is required")
	}
	if f.ClientSecret.IsZero() {
		return NewConfigError(f.ProviderName, "client secret is required")
	}
	if f.AuthorizeURL == "" || f.TokenURL == "" {
		return NewConfigError(f.ProviderName, "authorize and token endpoints are required")
	}
	if f.Logger == nil {
		f.Logger = slog.Default()
	}
	if f.RequestTimeout <= 0 {
		f.RequestTimeout = defaultRequestTimeout
	}
	f.gateway = NewGateway(f.HTTPClient, f.Logger)
	return nil
}

// Gateway returns the JSON gateway variants fetch identities through.
func (f *Flow) Gateway() *Gateway {
	return f.gateway
}

// Name implements Provider.
func (f *Flow) Name() string {
	return f.ProviderName
}

// Summary implements Provider. It returns a fresh value on every call.
func (f *Flow) Summary() Summary {
	return Summary{
		Name:      f.ProviderName,
		FAIcon:    f.FAIcon,
		Autologin: f.Autologin,
		OAuth2:    true,
	}
}

// LoginURL implements Provider: it resolves the client ID (which may live in
// a secrets backend) and assembles the authorization URL.
func (f *Flow) LoginURL(ctx context.Context, redirectTarget string) (string, error) {
	clientID, err := f.ClientID.Resolve(ctx, f.Resolver)
	if err != nil {
		return "", fmt.Errorf("%s: client ID: %w", f.ProviderName, err)
	}
	return f.AuthorizeURLFor(clientID, redirectTarget), nil
}

// AuthorizeURLFor assembles the authorization URL. This is the byte-level
// wire contract consoles and consent screens depend on: url.Values.Encode
// emits the query keys in alphabetical order (client_id, redirect_uri,
// response_type, scope, state) with form-style escaping, scope is omitted
// for scope-less providers, and state appears only when a redirect target
// was supplied. Pure string assembly; never fails, performs no I/O.
func (f *Flow) AuthorizeURLFor(clientID, redirectTarget string) string {
	q := url.Values{
		"client_id":     {clientID},
		"redirect_uri":  {f.CallbackURL},
		"response_type": {"code"},
	}
	if f.Scope != "" {
		q.Set("scope", f.Scope)
	}
	if state := EncodeRedirectState(redirectTarget); state != "" {
		q.Set("state", state)
	}
	return f.AuthorizeURL + "?" + q.Encode()
}

// EnsureTimeout guarantees the context carries a deadline, applying the
// flow's request timeout when the caller supplied none. The returned cancel
// must be deferred.
func (f *Flow) EnsureTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, f.RequestTimeout)
}

// ExchangeCode implements Provider: one POST to the token endpoint trading
// the callback code for an access token. Client credentials are resolved
// fresh on every call so rotated secrets apply without reconstruction.
func (f *Flow) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx, cancel := f.EnsureTimeout(ctx)
	defer cancel()

	clientID, err := f.ClientID.Resolve(ctx, f.Resolver)
	if err != nil {
		return nil, fmt.Errorf("%s: client ID: %w", f.ProviderName, err)
	}
	clientSecret, err := f.ClientSecret.Resolve(ctx, f.Resolver)
	if err != nil {
		return nil, fmt.Errorf("%s: client secret: %w", f.ProviderName, err)
	}

	form := url.Values{
		"code":         {code},
		"grant_type":   {"authorization_code"},
		"redirect_uri": {f.CallbackURL},
	}
	header := make(http.Header)
	if f.UseBasicAuth {
		credentials := url.QueryEscape(clientID) + ":" + url.QueryEscape(clientSecret)
		header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(credentials)))
	} else {
		form.Set("client_id", clientID)
		form.Set("client_secret", clientSecret)
	}

	body, err := f.gateway.PostForm(ctx, f.TokenURL, header, form)
	if err != nil {
		return nil, err
	}
	return parseTokenResponse(f.TokenURL, body)
}

// parseTokenResponse accepts both shapes token endpoints answer with in the
// wild: JSON, and the URL-encoded form GitHub falls back to when the Accept
// header is ignored.
func parseTokenResponse(endpoint string, body []byte) (*oauth2.Token, error) {
	var res struct {
		AccessToken  string `json:"access_token"`
		TokenType    string `json:"token_type"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		vals, formErr := url.ParseQuery(strings.TrimSpace(string(body)))
		if formErr != nil {
			return nil, &MalformedResponseError{
				URL:    endpoint,
				Reason: "token response is neither JSON nor form-encoded",
				Err:    err,
			}
		}
		res.AccessToken = vals.Get("access_token")
		res.TokenType = vals.Get("token_type")
		res.RefreshToken = vals.Get("refresh_token")
		if v := vals.Get("expires_in"); v != "" {
			res.ExpiresIn, _ = strconv.ParseInt(v, 10, 64)
		}
	}
	if res.AccessToken == "" {
		return nil, &MalformedResponseError{URL: endpoint, Reason: "no access_token in response"}
	}

	token := &oauth2.Token{
		AccessToken:  res.AccessToken,
		TokenType:    res.TokenType,
		RefreshToken: res.RefreshToken,
	}
	if res.ExpiresIn > 0 {
		token.Expiry = time.Now().Add(time.Duration(res.ExpiresIn) * time.Second)
	}
	return token, nil
}
