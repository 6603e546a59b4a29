package instrumentation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute values for the login branch dimension.
const (
	BranchRedirect = "redirect"
	BranchVerify   = "verify"
)

// Metric attribute values for the failure stage dimension.
const (
	StageRateLimit    = "rate_limit"
	StageLoginURL     = "login_url"
	StageExchange     = "exchange"
	StageIdentity     = "fetch_identity"
	StageSessionWrite = "session_write"
)

// Metrics holds the login flow instruments.
type Metrics struct {
	// LoginRequests counts requests to the login endpoint by branch taken.
	LoginRequests metric.Int64Counter

	// LoginFailures counts failed verifications by the stage that failed.
	LoginFailures metric.Int64Counter

	// LoginDuration tracks how long each branch took, in milliseconds.
	LoginDuration metric.Float64Histogram

	// SessionWrites counts identities written to the session store.
	SessionWrites metric.Int64Counter
}

// newMetrics creates the login instruments on the instance's meter.
func newMetrics(inst *Instrumentation) (*Metrics, error) {
	meter := inst.Meter("login")
	m := &Metrics{}

	var err error
	m.LoginRequests, err = meter.Int64Counter(
		"consoleauth.login.requests",
		metric.WithDescription("Requests handled by the login endpoint"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create login.requests counter: %w", err)
	}

	m.LoginFailures, err = meter.Int64Counter(
		"consoleauth.login.failures",
		metric.WithDescription("Login verifications that failed"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create login.failures counter: %w", err)
	}

	m.LoginDuration, err = meter.Float64Histogram(
		"consoleauth.login.duration",
		metric.WithDescription("Login branch duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("create login.duration histogram: %w", err)
	}

	m.SessionWrites, err = meter.Int64Counter(
		"consoleauth.sessions.writes",
		metric.WithDescription("Identities written to the session store"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create sessions.writes counter: %w", err)
	}

	return m, nil
}

// RecordLoginRequest counts one request through the given branch.
func (m *Metrics) RecordLoginRequest(ctx context.Context, provider, branch string) {
	m.LoginRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("branch", branch),
	))
}

// RecordLoginFailure counts one verification failure at the given stage.
func (m *Metrics) RecordLoginFailure(ctx context.Context, provider, stage string) {
	m.LoginFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("stage", stage),
	))
}

// RecordLoginDuration records how long a branch took.
func (m *Metrics) RecordLoginDuration(ctx context.Context, provider, branch string, durationMs float64) {
	m.LoginDuration.Record(ctx, durationMs, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("branch", branch),
	))
}

// RecordSessionWrite counts one identity written to the session store.
func (m *Metrics) RecordSessionWrite(ctx context.Context, provider string) {
	m.SessionWrites.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
	))
}
