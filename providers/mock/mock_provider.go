// Package mock provides a configurable fake implementation of the
// Provider interface for testing.
package mock

import (
	"context"
	"sync"

	"golang.org/x/oauth2"

	"github.com/TheRakeshPurohit/consoleauth/providers"
)

// Provider is a fake providers.Provider whose behavior is driven by
// replaceable function fields. Every method records a call count so
// tests can assert how the code under test drove the provider.
type Provider struct {
	// NameFunc is called when Name() is invoked.
	NameFunc func() string

	// SummaryFunc is called when Summary() is invoked.
	SummaryFunc func() providers.Summary

	// LoginURLFunc is called when LoginURL() is invoked.
	LoginURLFunc func(ctx context.Context, redirectTarget string) (string, error)

	// ExchangeCodeFunc is called when ExchangeCode() is invoked.
	ExchangeCodeFunc func(ctx context.Context, code string) (*oauth2.Token, error)

	// FetchIdentityFunc is called when FetchIdentity() is invoked.
	FetchIdentityFunc func(ctx context.Context, token *oauth2.Token) (*providers.Identity, error)

	// CallCounts tracks how many times each method was called.
	CallCounts map[string]int

	// mu protects CallCounts from concurrent access.
	mu sync.Mutex
}

var _ providers.Provider = (*Provider)(nil)

// New creates a mock provider with sensible defaults: login URLs point
// at mock.example.com, code exchange yields a static token, and the
// identity is a fixed test user.
func New() *Provider {
	return &Provider{
		CallCounts: make(map[string]int),
		NameFunc: func() string {
			return "Mock"
		},
		SummaryFunc: func() providers.Summary {
			return providers.Summary{
				Name:   "Mock",
				FAIcon: "fa-plug",
				OAuth2: true,
			}
		},
		LoginURLFunc: func(ctx context.Context, redirectTarget string) (string, error) {
			url := "https://mock.example.com/authorize?client_id=mock&response_type=code"
			if state := providers.EncodeRedirectState(redirectTarget); state != "" {
				url += "&state=" + state
			}
			return url, nil
		},
		ExchangeCodeFunc: func(ctx context.Context, code string) (*oauth2.Token, error) {
			return &oauth2.Token{
				AccessToken: "mock-access-token",
				TokenType:   "Bearer",
			}, nil
		},
		FetchIdentityFunc: func(ctx context.Context, token *oauth2.Token) (*providers.Identity, error) {
			return &providers.Identity{
				Username: "mockuser",
				FullName: "Mock User",
				Email:    "mock@example.com",
				Groups:   []string{"mockers"},
			}, nil
		},
	}
}

// record bumps the call counter for a method and returns once the lock
// is released, so the configured function runs without holding it.
func (p *Provider) record(method string) {
	p.mu.Lock()
	if p.CallCounts == nil {
		p.CallCounts = make(map[string]int)
	}
	p.CallCounts[method]++
	p.mu.Unlock()
}

// Name returns the provider name.
func (p *Provider) Name() string {
	p.record("Name")
	if p.NameFunc == nil {
		return "Mock"
	}
	return p.NameFunc()
}

// Summary returns the configuration summary.
func (p *Provider) Summary() providers.Summary {
	p.record("Summary")
	if p.SummaryFunc == nil {
		return providers.Summary{Name: "Mock", OAuth2: true}
	}
	return p.SummaryFunc()
}

// LoginURL returns the authorization URL for the given redirect target.
func (p *Provider) LoginURL(ctx context.Context, redirectTarget string) (string, error) {
	p.record("LoginURL")
	if p.LoginURLFunc == nil {
		return "https://mock.example.com/authorize", nil
	}
	return p.LoginURLFunc(ctx, redirectTarget)
}

// ExchangeCode swaps an authorization code for a token.
func (p *Provider) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	p.record("ExchangeCode")
	if p.ExchangeCodeFunc == nil {
		return &oauth2.Token{AccessToken: "mock-access-token", TokenType: "Bearer"}, nil
	}
	return p.ExchangeCodeFunc(ctx, code)
}

// FetchIdentity resolves the user behind a token.
func (p *Provider) FetchIdentity(ctx context.Context, token *oauth2.Token) (*providers.Identity, error) {
	p.record("FetchIdentity")
	if p.FetchIdentityFunc == nil {
		return &providers.Identity{Username: "mockuser"}, nil
	}
	return p.FetchIdentityFunc(ctx, token)
}

// Calls returns how many times the named method was invoked.
func (p *Provider) Calls(method string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.CallCounts[method]
}
