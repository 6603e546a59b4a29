// Package valkey provides a Valkey/Redis-backed session store for consoles
// running more than one replica. Expiry rides on the server-side key TTL.
package valkey

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"sync"
	"time"

	valkeygo "github.com/valkey-io/valkey-go"

	"github.com/TheRakeshPurohit/consoleauth/providers"
	"github.com/TheRakeshPurohit/consoleauth/security"
	"github.com/TheRakeshPurohit/consoleauth/sessions"
)

const (
	// DefaultKeyPrefix namespaces session keys unless configured.
	DefaultKeyPrefix = "consoleauth:session:"

	// connectVerifyTimeout bounds the PING issued by New.
	connectVerifyTimeout = 5 * time.Second
)

// Config holds the connection settings for the Valkey session store.
type Config struct {
	// Address is the server address (required), e.g. "localhost:6379".
	Address string

	// Password authenticates the connection when set.
	Password string

	// DB selects the logical database (default 0).
	DB int

	// KeyPrefix overrides DefaultKeyPrefix.
	KeyPrefix string

	// TLS enables encrypted connections when set.
	TLS *tls.Config

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Store persists sessions as JSON values under prefixed keys.
type Store struct {
	client valkeygo.Client
	prefix string
	logger *slog.Logger

	// encryptor optionally seals payloads before they reach the server.
	// Guarded by encryptorMu so it can be set after construction.
	encryptor   *security.Encryptor
	encryptorMu sync.RWMutex
}

var _ sessions.Store = (*Store)(nil)

// New connects to Valkey and verifies the connection with a PING.
func New(cfg Config) (*Store, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("valkey address is required")
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := valkeygo.ClientOption{
		InitAddress: []string{cfg.Address},
		SelectDB:    cfg.DB,
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.TLS != nil {
		opts.TLSConfig = cfg.TLS
	}

	client, err := valkeygo.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("create valkey client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectVerifyTimeout)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to valkey: %w", err)
	}

	logger.Info("connected to valkey session store",
		"address", cfg.Address,
		"db", cfg.DB,
		"prefix", prefix)

	return &Store{
		client: client,
		prefix: prefix,
		logger: logger,
	}, nil
}

// SetEncryptor enables encryption at rest for session payloads. Sessions
// written before the call stay plaintext.
func (s *Store) SetEncryptor(enc *security.Encryptor) {
	s.encryptorMu.Lock()
	defer s.encryptorMu.Unlock()
	s.encryptor = enc
	if enc != nil && enc.IsEnabled() {
		s.logger.Info("session encryption at rest enabled")
	}
}

func (s *Store) getEncryptor() *security.Encryptor {
	s.encryptorMu.RLock()
	defer s.encryptorMu.RUnlock()
	return s.encryptor
}

// Close closes the client connection.
func (s *Store) Close() {
	s.client.Close()
}

// Put saves the identity under id with a server-side TTL.
func (s *Store) Put(ctx context.Context, id string, identity *providers.Identity, ttl time.Duration) error {
	if id == "" {
		return fmt.Errorf("session id cannot be empty")
	}
	if identity == nil {
		return fmt.Errorf("identity cannot be nil")
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive")
	}

	payload, err := sessions.EncodeIdentity(identity)
	if err != nil {
		return err
	}

	if enc := s.getEncryptor(); enc != nil {
		payload, err = enc.Encrypt(payload)
		if err != nil {
			return fmt.Errorf("encrypt session: %w", err)
		}
	}

	cmd := s.client.B().Set().Key(s.key(id)).Value(payload).Ex(ttl).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Get returns the identity stored under id. Expired keys vanish server-side
// and answer ErrNotFound like unknown ones.
func (s *Store) Get(ctx context.Context, id string) (*providers.Identity, error) {
	data, err := s.client.Do(ctx, s.client.B().Get().Key(s.key(id)).Build()).ToString()
	if err != nil {
		if valkeygo.IsValkeyNil(err) {
			return nil, sessions.ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	if enc := s.getEncryptor(); enc != nil {
		data, err = enc.Decrypt(data)
		if err != nil {
			return nil, fmt.Errorf("decrypt session: %w", err)
		}
	}

	return sessions.DecodeIdentity(data)
}

// Delete removes the session. Unknown ids are ignored.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Do(ctx, s.client.B().Del().Key(s.key(id)).Build()).Error(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// key returns the prefixed storage key for a session ID.
func (s *Store) key(id string) string {
	return s.prefix + id
}
