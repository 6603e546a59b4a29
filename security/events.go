package security

// Event type constants for audit logging. Using the constants keeps event
// names consistent across the codebase.
const (
	// EventLoginRedirected is logged when a visitor is sent to the provider
	// consent screen.
	EventLoginRedirected = "login_redirected"

	// EventLoginSucceeded is logged when a callback code was verified and an
	// identity resolved.
	EventLoginSucceeded = "login_succeeded"

	// EventLoginFailed is logged when code verification or identity
	// resolution failed.
	EventLoginFailed = "login_failed"

	// EventRateLimitExceeded is logged when a client exceeds the login rate
	// limit.
	EventRateLimitExceeded = "rate_limit_exceeded"

	// EventSessionCreated is logged when a verified identity is written to
	// the session store.
	EventSessionCreated = "session_created"

	// EventSessionDestroyed is logged when a session is explicitly removed.
	EventSessionDestroyed = "session_destroyed"
)
