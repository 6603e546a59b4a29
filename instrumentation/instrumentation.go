package instrumentation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const (
	// DefaultServiceName identifies the engine when the console does not
	// name itself.
	DefaultServiceName = "consoleauth"

	// DefaultServiceVersion is used when none is provided.
	DefaultServiceVersion = "unknown"

	// scopePrefix namespaces meter and tracer scopes.
	scopePrefix = "github.com/TheRakeshPurohit/consoleauth/"
)

// Config holds instrumentation configuration.
type Config struct {
	// ServiceName names the embedding console (default "consoleauth").
	ServiceName string

	// ServiceVersion is the console's version.
	ServiceVersion string

	// Enabled activates instrumentation. When false, no-op providers are
	// used and nothing is recorded.
	Enabled bool

	// MeterProvider overrides the provider used for metrics. When nil and
	// Enabled, the otel global provider is used.
	MeterProvider metric.MeterProvider

	// TracerProvider overrides the provider used for traces. When nil and
	// Enabled, the otel global provider is used.
	TracerProvider trace.TracerProvider

	// Resource overrides the service identity attributes.
	Resource *resource.Resource
}

// Instrumentation hands out meters and tracers and owns the login metrics
// bundle. A disabled instance is fully functional; recording is simply a
// no-op.
type Instrumentation struct {
	config   Config
	resource *resource.Resource

	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider

	metrics *Metrics
}

// New creates an instrumentation instance.
func New(config Config) (*Instrumentation, error) {
	if config.ServiceName == "" {
		config.ServiceName = DefaultServiceName
	}
	if config.ServiceVersion == "" {
		config.ServiceVersion = DefaultServiceVersion
	}

	res := config.Resource
	if res == nil {
		var err error
		res, err = resource.New(
			context.Background(),
			resource.WithAttributes(
				semconv.ServiceName(config.ServiceName),
				semconv.ServiceVersion(config.ServiceVersion),
			),
		)
		if err != nil {
			return nil, fmt.Errorf("create resource: %w", err)
		}
	}

	inst := &Instrumentation{
		config:   config,
		resource: res,
	}

	switch {
	case !config.Enabled:
		inst.meterProvider = metricnoop.NewMeterProvider()
		inst.tracerProvider = tracenoop.NewTracerProvider()
	default:
		inst.meterProvider = config.MeterProvider
		if inst.meterProvider == nil {
			inst.meterProvider = otel.GetMeterProvider()
		}
		inst.tracerProvider = config.TracerProvider
		if inst.tracerProvider == nil {
			inst.tracerProvider = otel.GetTracerProvider()
		}
	}

	metrics, err := newMetrics(inst)
	if err != nil {
		return nil, fmt.Errorf("create metrics: %w", err)
	}
	inst.metrics = metrics

	return inst, nil
}

// Disabled returns an instrumentation instance that records nothing. It is
// what handler construction falls back to, so call sites never nil-check.
func Disabled() *Instrumentation {
	inst, err := New(Config{Enabled: false})
	if err != nil {
		// Unreachable: the disabled path has no failing constructor.
		panic(fmt.Sprintf("instrumentation: disabled instance: %v", err))
	}
	return inst
}

// Meter returns a named meter for the given scope (e.g. "login").
func (i *Instrumentation) Meter(scope string) metric.Meter {
	return i.meterProvider.Meter(scopePrefix + scope)
}

// Tracer returns a named tracer for the given scope.
func (i *Instrumentation) Tracer(scope string) trace.Tracer {
	return i.tracerProvider.Tracer(scopePrefix + scope)
}

// Metrics returns the login metrics bundle.
func (i *Instrumentation) Metrics() *Metrics {
	return i.metrics
}

// Resource returns the service identity attributes, for consoles building
// their own SDK providers.
func (i *Instrumentation) Resource() *resource.Resource {
	return i.resource
}

// Enabled reports whether recording is active.
func (i *Instrumentation) Enabled() bool {
	return i.config.Enabled
}
