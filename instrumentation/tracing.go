package instrumentation

import (
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SpanLoginVerify is the span wrapping the verification branch of a login:
// code exchange, identity fetch, and session write.
const SpanLoginVerify = "consoleauth.login.verify"

// Span attribute keys. Never attach credential values (authorization codes,
// access tokens, client secrets); attach only flow metadata.
const (
	// AttrProvider is the provider display name.
	AttrProvider = "login.provider"

	// AttrBranch is the branch taken, BranchRedirect or BranchVerify.
	AttrBranch = "login.branch"

	// AttrStage is the stage a failure occurred in (Stage* values).
	AttrStage = "login.stage"

	// AttrRedirectTarget marks whether the request carried a post-login
	// redirect target. Boolean; the target itself is caller-controlled
	// input and stays out of traces.
	AttrRedirectTarget = "login.redirect_target_present"
)

// Span event names emitted inside SpanLoginVerify.
const (
	EventCodeExchanged   = "code_exchanged"
	EventIdentityFetched = "identity_fetched"
	EventSessionWritten  = "session_written"
)

// RecordError records an error on a span with an error status. Nil-safe.
func RecordError(span trace.Span, err error) {
	if span != nil && err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess marks a span as successful. Nil-safe.
func SetSpanSuccess(span trace.Span) {
	if span != nil {
		span.SetStatus(codes.Ok, "")
	}
}
