// Package security provides the hardening pieces wrapped around the login
// flow: audit logging with PII protection, encryption of session identities
// at rest, per-client rate limiting, client IP extraction, and response
// headers for the login endpoint.
//
// # Rate Limiting
//
// The RateLimiter tracks a token bucket per client identifier (usually the
// client IP) and bounds its memory with LRU eviction plus periodic cleanup
// of idle entries.
//
//	limiter := security.NewRateLimiter(10, 20, logger)
//	defer limiter.Stop()
//
//	if !limiter.Allow(clientIP) {
//	    // too many login attempts from this client
//	}
//
// # Audit Logging
//
// The Auditor emits one structured record per security-relevant event.
// Usernames are hashed before logging so audit trails can be shipped to
// systems that must not hold PII.
//
// # Encryption
//
// The Encryptor seals session identities with AES-256-GCM before they reach
// a shared store. The AES key is derived from the configured key material
// with HKDF-SHA256, so any high-entropy secret of any length works as input.
package security
