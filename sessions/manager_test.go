package sessions

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/TheRakeshPurohit/consoleauth/providers"
)

// fakeStore is a Store for manager tests. It records the last Put arguments
// and ignores TTLs.
type fakeStore struct {
	identities map[string]*providers.Identity
	lastTTL    time.Duration
	putErr     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{identities: make(map[string]*providers.Identity)}
}

func (f *fakeStore) Put(ctx context.Context, id string, identity *providers.Identity, ttl time.Duration) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.identities[id] = identity.Clone()
	f.lastTTL = ttl
	return nil
}

func (f *fakeStore) Get(ctx context.Context, id string) (*providers.Identity, error) {
	identity, ok := f.identities[id]
	if !ok {
		return nil, ErrNotFound
	}
	return identity.Clone(), nil
}

func (f *fakeStore) Delete(ctx context.Context, id string) error {
	delete(f.identities, id)
	return nil
}

func testIdentity() *providers.Identity {
	return &providers.Identity{
		Username: "bar",
		FullName: "foo bar",
		Email:    "bar@foo",
		Groups:   []string{"hello", "grp"},
	}
}

func TestNewManager(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ManagerConfig
		wantErr string
	}{
		{
			name: "valid with defaults",
			cfg:  ManagerConfig{Store: newFakeStore()},
		},
		{
			name:    "missing store",
			cfg:     ManagerConfig{},
			wantErr: "store is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewManager(tt.cfg)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatal("NewManager() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewManager() error = %v", err)
			}

			if m.cookieName != DefaultCookieName {
				t.Errorf("cookieName = %q, want %q", m.cookieName, DefaultCookieName)
			}
			if m.ttl != DefaultTTL {
				t.Errorf("ttl = %v, want %v", m.ttl, DefaultTTL)
			}
			if m.cookiePath != "/" {
				t.Errorf("cookiePath = %q, want %q", m.cookiePath, "/")
			}
		})
	}
}

func TestManager_WriteIdentity(t *testing.T) {
	store := newFakeStore()
	m, err := NewManager(ManagerConfig{Store: store})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/auth/login?code=abc", nil)

	if err := m.WriteIdentity(w, r, testIdentity()); err != nil {
		t.Fatalf("WriteIdentity() error = %v", err)
	}

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}
	cookie := cookies[0]

	if cookie.Name != DefaultCookieName {
		t.Errorf("cookie name = %q, want %q", cookie.Name, DefaultCookieName)
	}
	if !cookie.HttpOnly {
		t.Error("cookie should be HttpOnly")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("cookie SameSite = %v, want Lax", cookie.SameSite)
	}
	if cookie.Path != "/" {
		t.Errorf("cookie path = %q, want %q", cookie.Path, "/")
	}
	if cookie.MaxAge != int(DefaultTTL.Seconds()) {
		t.Errorf("cookie MaxAge = %d, want %d", cookie.MaxAge, int(DefaultTTL.Seconds()))
	}

	// The cookie value is the session ID: URL-safe base64 of 32 random bytes.
	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		t.Fatalf("session id is not URL-safe base64: %v", err)
	}
	if len(raw) != sessionIDBytes {
		t.Errorf("session id entropy = %d bytes, want %d", len(raw), sessionIDBytes)
	}

	stored, err := store.Get(context.Background(), cookie.Value)
	if err != nil {
		t.Fatalf("identity not stored under cookie value: %v", err)
	}
	if stored.Username != "bar" {
		t.Errorf("stored username = %q, want %q", stored.Username, "bar")
	}
	if store.lastTTL != DefaultTTL {
		t.Errorf("stored ttl = %v, want %v", store.lastTTL, DefaultTTL)
	}
}

func TestManager_WriteIdentity_FreshIDPerSession(t *testing.T) {
	store := newFakeStore()
	m, err := NewManager(ManagerConfig{Store: store})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	var values []string
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/auth/login", nil)
		if err := m.WriteIdentity(w, r, testIdentity()); err != nil {
			t.Fatalf("WriteIdentity() error = %v", err)
		}
		values = append(values, w.Result().Cookies()[0].Value)
	}

	if values[0] == values[1] {
		t.Error("two sessions received the same ID")
	}
}

func TestManager_WriteIdentity_StoreError(t *testing.T) {
	store := newFakeStore()
	store.putErr = fmt.Errorf("backend down")
	m, err := NewManager(ManagerConfig{Store: store})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/auth/login", nil)

	if err := m.WriteIdentity(w, r, testIdentity()); err == nil {
		t.Fatal("WriteIdentity() should propagate store errors")
	}

	if len(w.Result().Cookies()) != 0 {
		t.Error("no cookie should be set when the store write fails")
	}
}

func TestManager_WriteIdentity_NilIdentity(t *testing.T) {
	m, err := NewManager(ManagerConfig{Store: newFakeStore()})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/auth/login", nil)

	if err := m.WriteIdentity(w, r, nil); err == nil {
		t.Fatal("WriteIdentity(nil) should fail")
	}
}

func TestManager_Identity(t *testing.T) {
	store := newFakeStore()
	m, err := NewManager(ManagerConfig{Store: store})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	w := httptest.NewRecorder()
	if err := m.WriteIdentity(w, httptest.NewRequest("GET", "/auth/login", nil), testIdentity()); err != nil {
		t.Fatalf("WriteIdentity() error = %v", err)
	}
	cookie := w.Result().Cookies()[0]

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(cookie)

	identity, err := m.Identity(r)
	if err != nil {
		t.Fatalf("Identity() error = %v", err)
	}
	if identity.Username != "bar" {
		t.Errorf("username = %q, want %q", identity.Username, "bar")
	}
	if len(identity.Groups) != 2 {
		t.Errorf("groups = %v, want 2 entries", identity.Groups)
	}
}

func TestManager_Identity_NoCookie(t *testing.T) {
	m, err := NewManager(ManagerConfig{Store: newFakeStore()})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	_, err = m.Identity(httptest.NewRequest("GET", "/", nil))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Identity() error = %v, want ErrNotFound", err)
	}
}

func TestManager_Identity_UnknownSession(t *testing.T) {
	m, err := NewManager(ManagerConfig{Store: newFakeStore()})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "stale-session-id"})

	_, err = m.Identity(r)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Identity() error = %v, want ErrNotFound", err)
	}
}

func TestManager_Destroy(t *testing.T) {
	store := newFakeStore()
	m, err := NewManager(ManagerConfig{Store: store})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	w := httptest.NewRecorder()
	if err := m.WriteIdentity(w, httptest.NewRequest("GET", "/auth/login", nil), testIdentity()); err != nil {
		t.Fatalf("WriteIdentity() error = %v", err)
	}
	cookie := w.Result().Cookies()[0]

	r := httptest.NewRequest("GET", "/auth/logout", nil)
	r.AddCookie(cookie)
	w2 := httptest.NewRecorder()

	if err := m.Destroy(w2, r); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}

	if _, err := store.Get(context.Background(), cookie.Value); !errors.Is(err, ErrNotFound) {
		t.Error("session should be gone from the store")
	}

	cleared := w2.Result().Cookies()
	if len(cleared) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cleared))
	}
	if cleared[0].MaxAge >= 0 && cleared[0].Value != "" {
		t.Errorf("cookie should be expired, got MaxAge=%d value=%q", cleared[0].MaxAge, cleared[0].Value)
	}
}

func TestManager_Destroy_NoCookie(t *testing.T) {
	m, err := NewManager(ManagerConfig{Store: newFakeStore()})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	w := httptest.NewRecorder()
	if err := m.Destroy(w, httptest.NewRequest("GET", "/auth/logout", nil)); err != nil {
		t.Fatalf("Destroy() without a session error = %v", err)
	}
}

func TestManager_CustomConfig(t *testing.T) {
	store := newFakeStore()
	m, err := NewManager(ManagerConfig{
		Store:      store,
		CookieName: "console_sid",
		CookiePath: "/console",
		TTL:        time.Hour,
		Secure:     true,
	})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	if m.CookieName() != "console_sid" {
		t.Errorf("CookieName() = %q, want %q", m.CookieName(), "console_sid")
	}

	w := httptest.NewRecorder()
	if err := m.WriteIdentity(w, httptest.NewRequest("GET", "/auth/login", nil), testIdentity()); err != nil {
		t.Fatalf("WriteIdentity() error = %v", err)
	}

	cookie := w.Result().Cookies()[0]
	if cookie.Name != "console_sid" {
		t.Errorf("cookie name = %q, want %q", cookie.Name, "console_sid")
	}
	if cookie.Path != "/console" {
		t.Errorf("cookie path = %q, want %q", cookie.Path, "/console")
	}
	if !cookie.Secure {
		t.Error("cookie should be Secure")
	}
	if cookie.MaxAge != 3600 {
		t.Errorf("cookie MaxAge = %d, want 3600", cookie.MaxAge)
	}
	if store.lastTTL != time.Hour {
		t.Errorf("stored ttl = %v, want %v", store.lastTTL, time.Hour)
	}
}
