// Package instrumentation provides OpenTelemetry metrics and tracing for the
// login engine.
//
// The engine never builds an exporter pipeline itself. Disabled (the
// default), every meter and tracer comes from the otel no-op providers, so
// call sites record unconditionally at zero cost. Enabled, the providers are
// taken from the embedding console: either injected through Config or read
// from the otel globals the console has set.
//
//	inst, err := instrumentation.New(instrumentation.Config{
//		ServiceName:    "console",
//		ServiceVersion: version,
//		Enabled:        true,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Resource() exposes the service identity attributes so the console can
// attach them to its own SDK providers.
package instrumentation
