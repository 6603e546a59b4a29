package providers

import (
	"fmt"
	"strconv"
)

// The engine distinguishes three failure families. Configuration problems
// surface once, at construction, and never after. Everything that goes wrong
// during a login attempt is either a transport failure (the provider was
// unreachable or answered non-2xx) or a malformed response (2xx but the body
// lacked the fields the contract requires); both abort that attempt only and
// propagate identically.

// ConfigError reports an invalid provider configuration. It is returned by
// provider constructors; a successfully constructed provider never produces
// one.
type ConfigError struct {
	Provider string // provider display name, empty for shared plumbing
	Reason   string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Provider == "" {
		return "provider config: " + e.Reason
	}
	return e.Provider + " config: " + e.Reason
}

// NewConfigError creates a ConfigError with a formatted reason.
func NewConfigError(provider, format string, args ...any) *ConfigError {
	return &ConfigError{Provider: provider, Reason: fmt.Sprintf(format, args...)}
}

// TransportError reports an outbound provider call that failed at the
// transport level or returned a non-success status. The engine never
// retries; retry policy, if any, belongs to the injected HTTP client.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int    // zero when no response was received
	Body       string // truncated response snippet for non-2xx statuses
	Err        error  // underlying transport error, nil for status failures
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	}
	msg := e.Method + " " + e.URL + ": unexpected status " + strconv.Itoa(e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Unwrap returns the underlying transport error, if any.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// MalformedResponseError reports a provider response that was received but
// did not carry what the contract requires: undecodable JSON, a missing
// access_token, a GraphQL error payload. It propagates exactly like a
// TransportError: the login attempt is aborted, nothing is retried.
type MalformedResponseError struct {
	URL    string
	Reason string
	Err    error // underlying decode error, may be nil
}

// Error implements the error interface.
func (e *MalformedResponseError) Error() string {
	msg := "malformed response from " + e.URL + ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying decode error, if any.
func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}
