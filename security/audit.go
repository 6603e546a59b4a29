package security

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"
)

// Auditor emits structured audit records for login activity. Usernames are
// hashed before logging; audit trails often leave the trust boundary of the
// console and must not carry PII.
type Auditor struct {
	logger  *slog.Logger
	enabled bool
}

// NewAuditor creates an auditor. A nil logger falls back to slog.Default();
// a disabled auditor drops every event.
func NewAuditor(logger *slog.Logger, enabled bool) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{
		logger:  logger,
		enabled: enabled,
	}
}

// Event is one audit record.
type Event struct {
	Type      string
	Provider  string
	Username  string
	IPAddress string
	Details   map[string]any
	Timestamp time.Time
}

// LogEvent records an event, hashing the username.
func (a *Auditor) LogEvent(event Event) {
	if !a.enabled {
		return
	}

	event.Timestamp = time.Now()

	a.logger.Info("security_audit",
		"event_type", event.Type,
		"provider", event.Provider,
		"username_hash", hashForLogging(event.Username),
		"ip_address", event.IPAddress,
		"details", event.Details,
		"timestamp", event.Timestamp,
	)
}

// LogLoginRedirected records a visitor being sent to the provider.
func (a *Auditor) LogLoginRedirected(provider, ipAddress string) {
	a.LogEvent(Event{
		Type:      EventLoginRedirected,
		Provider:  provider,
		IPAddress: ipAddress,
	})
}

// LogLoginSucceeded records a verified login.
func (a *Auditor) LogLoginSucceeded(provider, username, ipAddress string) {
	a.LogEvent(Event{
		Type:      EventLoginSucceeded,
		Provider:  provider,
		Username:  username,
		IPAddress: ipAddress,
	})
}

// LogLoginFailed records a failed verification attempt.
func (a *Auditor) LogLoginFailed(provider, ipAddress, reason string) {
	a.LogEvent(Event{
		Type:      EventLoginFailed,
		Provider:  provider,
		IPAddress: ipAddress,
		Details: map[string]any{
			"reason": reason,
		},
	})
}

// LogRateLimitExceeded records a throttled login attempt.
func (a *Auditor) LogRateLimitExceeded(provider, ipAddress string) {
	a.LogEvent(Event{
		Type:      EventRateLimitExceeded,
		Provider:  provider,
		IPAddress: ipAddress,
	})
}

// LogSessionCreated records an identity being written to the session store.
func (a *Auditor) LogSessionCreated(provider, username, ipAddress string) {
	a.LogEvent(Event{
		Type:      EventSessionCreated,
		Provider:  provider,
		Username:  username,
		IPAddress: ipAddress,
	})
}

// LogSessionDestroyed records an explicit logout.
func (a *Auditor) LogSessionDestroyed(provider, username, ipAddress string) {
	a.LogEvent(Event{
		Type:      EventSessionDestroyed,
		Provider:  provider,
		Username:  username,
		IPAddress: ipAddress,
	})
}

// hashForLogging returns a short SHA-256 digest of sensitive data, stable
// enough to correlate events without revealing the value.
func hashForLogging(sensitive string) string {
	if sensitive == "" {
		return "<empty>"
	}
	hash := sha256.Sum256([]byte(sensitive))
	return hex.EncodeToString(hash[:])[:16]
}
