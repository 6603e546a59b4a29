package consoleauth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/TheRakeshPurohit/consoleauth/instrumentation"
	"github.com/TheRakeshPurohit/consoleauth/providers"
	"github.com/TheRakeshPurohit/consoleauth/security"
)

// SessionWriter persists a verified identity and hands the visitor whatever
// credential later requests present (usually a cookie). sessions.Manager
// implements it; embedding consoles with their own session machinery supply
// theirs.
type SessionWriter interface {
	WriteIdentity(w http.ResponseWriter, r *http.Request, identity *providers.Identity) error
}

// Config holds the login handler configuration.
type Config struct {
	// Provider runs the authorization-code dance (required).
	Provider providers.Provider

	// Sessions persists verified identities (required).
	Sessions SessionWriter

	// HomeURL is the absolute console URL visitors land on after a
	// successful login (required). A post-login target recovered from the
	// state parameter is appended as a URL fragment for the frontend router.
	HomeURL string

	// Logger for structured logging (optional, uses slog.Default if not provided).
	Logger *slog.Logger

	// Auditor records security-relevant login events with hashed usernames.
	// Nil disables audit logging.
	Auditor *security.Auditor

	// RateLimiter bounds login attempts per client IP. Nil disables limiting.
	RateLimiter *security.RateLimiter

	// TrustProxyHeaders enables X-Forwarded-For and X-Real-IP resolution
	// when attributing requests to a client IP.
	// Only enable behind a trusted reverse proxy.
	TrustProxyHeaders bool

	// Instrumentation supplies OpenTelemetry metrics and tracing.
	// Nil behaves like instrumentation.Disabled().
	Instrumentation *instrumentation.Instrumentation

	// OnError renders login failures to the visitor. The error has already
	// been logged and audited when the hook runs. The default writes a
	// plain 403; consoles with a styled failure page swap in their own.
	OnError func(w http.ResponseWriter, r *http.Request, err error)
}

// Validate checks that the required fields are set.
func (c *Config) Validate() error {
	if c.Provider == nil {
		return errors.New("provider is required")
	}
	if c.Sessions == nil {
		return errors.New("session writer is required")
	}
	if c.HomeURL == "" {
		return errors.New("home URL is required")
	}
	return nil
}
