// Package instrumentation provides OpenTelemetry instrumentation for authbridge.
//
// This package enables observability of sign-in flows through:
//   - OpenTelemetry metrics for sign-in attempts, identity provider calls and backend requests
//   - Distributed tracing for identity provider and backend round trips
//   - Prometheus export, pushed to a Pushgateway when the CLI exits
//   - OTLP export support for modern observability platforms
//   - Audit logging of sign-in attempts with PII controls
//
// # Metrics
//
// Sign-in Metrics:
//   - auth_signin_total: Counter of bridge operations by provider, operation and status
//   - auth_signin_duration_seconds: Histogram of end-to-end bridge operation durations
//
// Identity Provider Metrics:
//   - identity_operations_total: Counter of identity provider calls by operation and status
//   - identity_operation_duration_seconds: Histogram of identity provider call durations
//
// Backend Metrics:
//   - backend_requests_total: Counter of backend session requests by provider and HTTP status
//   - backend_request_duration_seconds: Histogram of backend session request durations
//
// # Tracing
//
// Distributed tracing spans are created for:
//   - Bridge operations (bridge.<operation>)
//   - Identity provider calls (identity.<operation>)
//   - Backend session requests (backend.<provider>), plus otelhttp client spans
//
// # Configuration
//
// Instrumentation can be configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: Metrics exporter type (prometheus, otlp, stdout, default: prometheus)
//   - TRACING_EXPORTER: Tracing exporter type (otlp, stdout, none, default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: authbridge)
//   - PROMETHEUS_PUSHGATEWAY_URL: Pushgateway receiving metrics at exit (default: unset, no push)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	recorder := provider.Metrics()
//	recorder.RecordSignIn(ctx, "google", "signin_federated", "success", time.Since(start))
package instrumentation
