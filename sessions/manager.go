package sessions

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/TheRakeshPurohit/consoleauth/providers"
)

const (
	// DefaultCookieName is the session cookie name unless configured.
	DefaultCookieName = "consoleauth_session"

	// DefaultTTL is the session lifetime unless configured.
	DefaultTTL = 24 * time.Hour

	// sessionIDBytes is the entropy of a session ID before encoding.
	sessionIDBytes = 32
)

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	// Store persists the identities (required).
	Store Store

	// CookieName overrides DefaultCookieName.
	CookieName string

	// CookiePath defaults to "/" so the whole console sees the session.
	CookiePath string

	// TTL overrides DefaultTTL.
	TTL time.Duration

	// Secure marks the cookie Secure. Enable whenever the console base URL
	// is https.
	Secure bool

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Manager is the cookie layer over a Store. It mints random session IDs,
// round-trips them through an HttpOnly cookie, and hands identities to and
// from the configured backend.
type Manager struct {
	store      Store
	cookieName string
	cookiePath string
	ttl        time.Duration
	secure     bool
	logger     *slog.Logger
}

// NewManager creates a session manager.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("sessions: store is required")
	}

	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = DefaultCookieName
	}

	cookiePath := cfg.CookiePath
	if cookiePath == "" {
		cookiePath = "/"
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		store:      cfg.Store,
		cookieName: cookieName,
		cookiePath: cookiePath,
		ttl:        ttl,
		secure:     cfg.Secure,
		logger:     logger,
	}, nil
}

// WriteIdentity starts a fresh session for a verified identity. A new random
// session ID is minted on every call; an existing cookie is replaced, never
// reused.
func (m *Manager) WriteIdentity(w http.ResponseWriter, r *http.Request, identity *providers.Identity) error {
	if identity == nil {
		return fmt.Errorf("identity cannot be nil")
	}

	id, err := newSessionID()
	if err != nil {
		return err
	}

	if err := m.store.Put(r.Context(), id, identity, m.ttl); err != nil {
		return fmt.Errorf("write session: %w", err)
	}

	http.SetCookie(w, m.cookie(id, int(m.ttl.Seconds())))

	m.logger.Debug("session written",
		"cookie", m.cookieName,
		"ttl", m.ttl)
	return nil
}

// Identity loads the identity for the request's session cookie. A missing
// cookie, an unknown session, and an expired session all answer ErrNotFound.
func (m *Manager) Identity(r *http.Request) (*providers.Identity, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return nil, ErrNotFound
	}
	return m.store.Get(r.Context(), cookie.Value)
}

// Destroy removes the request's session and expires the cookie. Destroying a
// request without a session is a no-op.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return nil
	}

	if err := m.store.Delete(r.Context(), cookie.Value); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("destroy session: %w", err)
	}

	http.SetCookie(w, m.cookie("", -1))
	return nil
}

// CookieName returns the configured cookie name.
func (m *Manager) CookieName() string {
	return m.cookieName
}

// cookie builds the session cookie. maxAge -1 expires it.
func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    value,
		Path:     m.cookiePath,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// newSessionID returns a fresh URL-safe random session ID.
func newSessionID() (string, error) {
	buf := make([]byte, sessionIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
