package security

import (
	"fmt"
	"log/slog"
	"testing"
	"time"
)

func TestNewRateLimiter(t *testing.T) {
	rl := NewRateLimiter(10, 20, nil)
	defer rl.Stop()

	if rl.rate != 10 {
		t.Errorf("rate = %v, want 10", rl.rate)
	}
	if rl.burst != 20 {
		t.Errorf("burst = %d, want 20", rl.burst)
	}
	if rl.maxEntries != defaultMaxEntries {
		t.Errorf("maxEntries = %d, want %d", rl.maxEntries, defaultMaxEntries)
	}
	if rl.logger == nil {
		t.Error("logger should not be nil")
	}
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(10, 5, slog.Default())
	defer rl.Stop()

	identifier := "203.0.113.1"

	// Requests up to the burst are allowed.
	for i := 0; i < 5; i++ {
		if !rl.Allow(identifier) {
			t.Errorf("Allow() request %d should be allowed", i+1)
		}
	}

	if rl.Allow(identifier) {
		t.Error("Allow() should return false once the burst is exhausted")
	}
}

func TestRateLimiter_Allow_MultipleIdentifiers(t *testing.T) {
	rl := NewRateLimiter(10, 2, slog.Default())
	defer rl.Stop()

	id1 := "203.0.113.1"
	id2 := "203.0.113.2"

	for i := 0; i < 2; i++ {
		if !rl.Allow(id1) {
			t.Errorf("Allow(id1) request %d should be allowed", i+1)
		}
	}

	if rl.Allow(id1) {
		t.Error("Allow(id1) should return false when rate limited")
	}

	// A different identifier has its own bucket.
	if !rl.Allow(id2) {
		t.Error("Allow(id2) should be allowed")
	}
}

func TestRateLimiter_Allow_RefillOverTime(t *testing.T) {
	rl := NewRateLimiter(2, 2, slog.Default())
	defer rl.Stop()

	identifier := "203.0.113.1"

	for i := 0; i < 2; i++ {
		if !rl.Allow(identifier) {
			t.Errorf("Allow() request %d should be allowed", i+1)
		}
	}

	if rl.Allow(identifier) {
		t.Error("Allow() should return false when rate limited")
	}

	// At 2 req/s one token refills after 500ms.
	time.Sleep(550 * time.Millisecond)

	if !rl.Allow(identifier) {
		t.Error("Allow() should be allowed after token refill")
	}
}

func TestRateLimiter_LRUEviction(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 5, 3, slog.Default())
	defer rl.Stop()

	rl.Allow("id-1")
	rl.Allow("id-2")
	rl.Allow("id-3")

	// Touch id-1 so id-2 becomes the least recently used.
	rl.Allow("id-1")

	// A fourth identifier exceeds the cap and evicts id-2.
	rl.Allow("id-4")

	rl.mu.Lock()
	_, hasEvicted := rl.limiters["id-2"]
	_, hasRefreshed := rl.limiters["id-1"]
	_, hasNewest := rl.limiters["id-4"]
	count := len(rl.limiters)
	rl.mu.Unlock()

	if hasEvicted {
		t.Error("least recently used identifier should have been evicted")
	}
	if !hasRefreshed {
		t.Error("recently used identifier should survive eviction")
	}
	if !hasNewest {
		t.Error("new identifier should have been inserted")
	}
	if count != 3 {
		t.Errorf("limiter count = %d, want 3", count)
	}

	stats := rl.GetStats()
	if stats.TotalEvictions != 1 {
		t.Errorf("TotalEvictions = %d, want 1", stats.TotalEvictions)
	}
}

func TestRateLimiter_EvictedIdentifierStartsFresh(t *testing.T) {
	rl := NewRateLimiterWithConfig(0.001, 1, 1, slog.Default())
	defer rl.Stop()

	// Exhaust the single-token bucket for id-1.
	if !rl.Allow("id-1") {
		t.Fatal("first Allow(id-1) should be allowed")
	}
	if rl.Allow("id-1") {
		t.Fatal("second Allow(id-1) should be limited")
	}

	// Inserting id-2 evicts id-1; coming back, id-1 gets a fresh bucket.
	rl.Allow("id-2")

	if !rl.Allow("id-1") {
		t.Error("evicted identifier should start with a full bucket")
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(10, 20, slog.Default())
	defer rl.Stop()

	rl.Allow("id-1")
	rl.Allow("id-2")
	rl.Allow("id-3")

	rl.mu.Lock()
	if len(rl.limiters) != 3 {
		t.Errorf("initial limiter count = %d, want 3", len(rl.limiters))
	}
	// Backdate every entry past the idle threshold.
	for _, elem := range rl.limiters {
		elem.Value.(*limiterEntry).lastAccess = time.Now().Add(-time.Hour)
	}
	rl.mu.Unlock()

	rl.Cleanup(30 * time.Minute)

	rl.mu.Lock()
	count := len(rl.limiters)
	listLen := rl.lruList.Len()
	rl.mu.Unlock()

	if count != 0 {
		t.Errorf("limiter count after cleanup = %d, want 0", count)
	}
	if listLen != 0 {
		t.Errorf("LRU list length after cleanup = %d, want 0", listLen)
	}
}

func TestRateLimiter_Cleanup_KeepsActive(t *testing.T) {
	rl := NewRateLimiter(10, 20, slog.Default())
	defer rl.Stop()

	rl.Allow("idle")
	rl.Allow("active")

	rl.mu.Lock()
	rl.limiters["idle"].Value.(*limiterEntry).lastAccess = time.Now().Add(-time.Hour)
	rl.mu.Unlock()

	rl.Cleanup(30 * time.Minute)

	rl.mu.Lock()
	_, hasIdle := rl.limiters["idle"]
	_, hasActive := rl.limiters["active"]
	rl.mu.Unlock()

	if hasIdle {
		t.Error("idle identifier should have been removed")
	}
	if !hasActive {
		t.Error("active identifier should have been kept")
	}
}

func TestRateLimiter_GetStats(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 5, 100, slog.Default())
	defer rl.Stop()

	rl.Allow("id-1")
	rl.Allow("id-2")

	stats := rl.GetStats()
	if stats.CurrentEntries != 2 {
		t.Errorf("CurrentEntries = %d, want 2", stats.CurrentEntries)
	}
	if stats.MaxEntries != 100 {
		t.Errorf("MaxEntries = %d, want 100", stats.MaxEntries)
	}
	if stats.TotalEvictions != 0 {
		t.Errorf("TotalEvictions = %d, want 0", stats.TotalEvictions)
	}
}

func TestRateLimiter_ConcurrentAccess(t *testing.T) {
	rl := NewRateLimiter(100, 100, slog.Default())
	defer rl.Stop()

	const goroutines = 10
	done := make(chan struct{}, goroutines)

	for i := 0; i < goroutines; i++ {
		go func(id int) {
			identifier := fmt.Sprintf("identifier-%d", id)
			for j := 0; j < 10; j++ {
				rl.Allow(identifier)
			}
			done <- struct{}{}
		}(i)
	}

	for i := 0; i < goroutines; i++ {
		<-done
	}

	stats := rl.GetStats()
	if stats.CurrentEntries != goroutines {
		t.Errorf("CurrentEntries = %d, want %d", stats.CurrentEntries, goroutines)
	}
}

func TestRateLimiter_Stop(t *testing.T) {
	rl := NewRateLimiter(10, 20, slog.Default())

	rl.Stop()

	// The limiter still answers after Stop; only the cleanup loop ends.
	if !rl.Allow("203.0.113.1") {
		t.Error("Allow() should still work after Stop()")
	}
}
