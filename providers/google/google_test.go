package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"golang.org/x/oauth2"

	"github.com/TheRakeshPurohit/consoleauth/providers"
)

const (
	testClientID    = "ggclientID"
	testBaseURL     = "h:/a/b/"
	testAccessToken = "TOK3N"
)

func testConfig() *Config {
	return &Config{
		ClientID:     providers.Literal(testClientID),
		ClientSecret: providers.Literal("clientSECRET"),
		BaseURL:      testBaseURL,
	}
}

func TestProvider_LoginURL(t *testing.T) {
	provider, err := NewProvider(testConfig())
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}

	tests := []struct {
		name           string
		redirectTarget string
		want           string
	}{
		{
			name: "without redirect target",
			want: "https://accounts.google.com/o/oauth2/auth?client_id=ggclientID&redirect_uri=h%3A%2Fa%2Fb%2Fauth%2Flogin&response_type=code&scope=https%3A%2F%2Fwww.googleapis.com%2Fauth%2Fuserinfo.email+https%3A%2F%2Fwww.googleapis.com%2Fauth%2Fuserinfo.profile",
		},
		{
			name:           "with redirect target",
			redirectTarget: "http://redir",
			want:           "https://accounts.google.com/o/oauth2/auth?client_id=ggclientID&redirect_uri=h%3A%2Fa%2Fb%2Fauth%2Flogin&response_type=code&scope=https%3A%2F%2Fwww.googleapis.com%2Fauth%2Fuserinfo.email+https%3A%2F%2Fwww.googleapis.com%2Fauth%2Fuserinfo.profile&state=redirect%3Dhttp%253A%252F%252Fredir",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := provider.LoginURL(context.Background(), tt.redirectTarget)
			if err != nil {
				t.Fatalf("LoginURL() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("LoginURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewProvider_MissingBaseURL(t *testing.T) {
	cfg := testConfig()
	cfg.BaseURL = ""
	_, err := NewProvider(cfg)
	if err == nil {
		t.Fatal("NewProvider() error = nil, want config error")
	}
	var cfgErr *providers.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("NewProvider() error type = %T, want *providers.ConfigError", err)
	}
}

func TestProvider_Summary(t *testing.T) {
	provider, err := NewProvider(testConfig())
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}

	want := providers.Summary{Name: "Google", FAIcon: "fa-google-plus", Autologin: false, OAuth2: true}
	if got := provider.Summary(); got != want {
		t.Errorf("Summary() = %+v, want %+v", got, want)
	}
}

func TestProvider_FetchIdentity(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name":    "foo bar",
			"email":   "bar@foo",
			"picture": "http://pic",
		})
	}))
	defer server.Close()

	provider, err := NewProvider(testConfig())
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	provider.userInfoURL = server.URL + "/userinfo"

	identity, err := provider.FetchIdentity(context.Background(), &oauth2.Token{AccessToken: testAccessToken})
	if err != nil {
		t.Fatalf("FetchIdentity() error = %v", err)
	}

	// The username is the local part of the account email.
	want := &providers.Identity{
		Username:  "bar",
		FullName:  "foo bar",
		Email:     "bar@foo",
		AvatarURL: "http://pic",
	}
	if !reflect.DeepEqual(identity, want) {
		t.Errorf("FetchIdentity() = %+v, want %+v", identity, want)
	}
	if identity.Groups != nil {
		t.Errorf("Groups = %v, want none", identity.Groups)
	}
	if gotAuth != "Bearer "+testAccessToken {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer "+testAccessToken)
	}
}

func TestProvider_FetchIdentity_MissingEmail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"name": "foo bar"})
	}))
	defer server.Close()

	provider, err := NewProvider(testConfig())
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	provider.userInfoURL = server.URL + "/userinfo"

	_, err = provider.FetchIdentity(context.Background(), &oauth2.Token{AccessToken: testAccessToken})
	if err == nil {
		t.Fatal("FetchIdentity() error = nil, want malformed response")
	}
	var malformed *providers.MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("FetchIdentity() error type = %T, want *MalformedResponseError", err)
	}
}
