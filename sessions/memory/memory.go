// Package memory provides an in-memory session store for single-instance
// consoles and tests. Sessions vanish on restart.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/TheRakeshPurohit/consoleauth/providers"
	"github.com/TheRakeshPurohit/consoleauth/sessions"
)

// defaultSweepInterval is how often expired sessions are removed.
const defaultSweepInterval = time.Minute

type entry struct {
	identity  *providers.Identity
	expiresAt time.Time
}

// Store keeps sessions in a mutex-guarded map. A background sweep drops
// expired entries; Get never returns one regardless of sweep timing.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]entry
	logger   *slog.Logger

	stopSweep chan struct{}
	closeOnce sync.Once
}

var _ sessions.Store = (*Store)(nil)

// New creates an in-memory store sweeping once a minute.
func New() *Store {
	return NewWithInterval(defaultSweepInterval)
}

// NewWithInterval creates an in-memory store with a custom sweep interval.
// Intervals <= 0 fall back to the default. Call Close when done.
func NewWithInterval(sweepInterval time.Duration) *Store {
	if sweepInterval <= 0 {
		sweepInterval = defaultSweepInterval
	}

	s := &Store{
		sessions:  make(map[string]entry),
		logger:    slog.Default(),
		stopSweep: make(chan struct{}),
	}

	go s.sweepLoop(sweepInterval)

	return s
}

// SetLogger sets a custom logger.
func (s *Store) SetLogger(logger *slog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if logger != nil {
		s.logger = logger
	}
}

// Put saves the identity under id for at most ttl. The identity is copied,
// so later caller mutations do not leak into the store.
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

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[id] = entry{
		identity:  identity.Clone(),
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Get returns a copy of the identity stored under id.
func (s *Store) Get(ctx context.Context, id string) (*providers.Identity, error) {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok || time.Now().After(e.expiresAt) {
		return nil, sessions.ErrNotFound
	}
	return e.identity.Clone(), nil
}

// Delete removes the session. Unknown ids are ignored.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Len reports the number of entries, expired ones included until the next
// sweep.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the sweep goroutine. Safe to call more than once.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		close(s.stopSweep)
	})
}

// sweepLoop removes expired sessions until Close is called.
func (s *Store) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopSweep:
			return
		}
	}
}

// sweep drops every expired session.
func (s *Store) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	for id, e := range s.sessions {
		if now.After(e.expiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}

	if removed > 0 {
		s.logger.Debug("session sweep",
			"removed", removed,
			"remaining", len(s.sessions))
	}
}
