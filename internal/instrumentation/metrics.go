package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrStatus     = "status"
	attrOperation  = "operation"
	attrProvider   = "provider"
	attrStatusCode = "status_code"
	attrUserDomain = "user_domain"
)

// Metrics provides methods for recording observability metrics.
type Metrics struct {
	// Bridge operation metrics
	signInTotal    metric.Int64Counter
	signInDuration metric.Float64Histogram

	// Identity provider metrics
	identityOperationsTotal   metric.Int64Counter
	identityOperationDuration metric.Float64Histogram

	// Backend metrics
	backendRequestsTotal   metric.Int64Counter
	backendRequestDuration metric.Float64Histogram

	// detailedLabels controls whether high-cardinality labels are included
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The detailedLabels parameter controls whether high-cardinality labels are included.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	m.signInTotal, err = meter.Int64Counter(
		"auth_signin_total",
		metric.WithDescription("Total number of bridge sign-in operations"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth_signin_total counter: %w", err)
	}

	m.signInDuration, err = meter.Float64Histogram(
		"auth_signin_duration_seconds",
		metric.WithDescription("End-to-end bridge operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 120.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth_signin_duration_seconds histogram: %w", err)
	}

	m.identityOperationsTotal, err = meter.Int64Counter(
		"identity_operations_total",
		metric.WithDescription("Total number of identity provider operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity_operations_total counter: %w", err)
	}

	m.identityOperationDuration, err = meter.Float64Histogram(
		"identity_operation_duration_seconds",
		metric.WithDescription("Identity provider operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity_operation_duration_seconds histogram: %w", err)
	}

	m.backendRequestsTotal, err = meter.Int64Counter(
		"backend_requests_total",
		metric.WithDescription("Total number of backend session requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend_requests_total counter: %w", err)
	}

	m.backendRequestDuration, err = meter.Float64Histogram(
		"backend_request_duration_seconds",
		metric.WithDescription("Backend session request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend_request_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordSignIn records one bridge operation.
//
// Parameters:
//   - provider: backend provider selector (google, facebook, phone, email)
//   - operation: bridge operation (signin_federated, signin_email, signup_email, verify_otp, ...)
//   - status: Result status ("success" or "error")
//   - duration: Time taken for the whole operation
func (m *Metrics) RecordSignIn(ctx context.Context, provider, operation, status string, duration time.Duration) {
	m.RecordSignInWithUser(ctx, provider, operation, status, "", duration)
}

// RecordSignInWithUser is like RecordSignIn but adds the user's email domain
// when detailed labels are enabled.
func (m *Metrics) RecordSignInWithUser(ctx context.Context, provider, operation, status, email string, duration time.Duration) {
	if m.signInTotal == nil || m.signInDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrProvider, provider),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}

	if m.detailedLabels && email != "" {
		attrs = append(attrs, attribute.String(attrUserDomain, ExtractUserDomain(email)))
	}

	m.signInTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.signInDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordIdentityOperation records an identity provider call.
func (m *Metrics) RecordIdentityOperation(ctx context.Context, operation, status string, duration time.Duration) {
	if m.identityOperationsTotal == nil || m.identityOperationDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}

	m.identityOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.identityOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordBackendRequest records a backend session request. A zero statusCode
// means the request never produced a response (transport failure).
func (m *Metrics) RecordBackendRequest(ctx context.Context, provider string, statusCode int, duration time.Duration) {
	if m.backendRequestsTotal == nil || m.backendRequestDuration == nil {
		return // Instrumentation not initialized
	}

	code := StatusError
	if statusCode > 0 {
		code = strconv.Itoa(statusCode)
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrProvider, provider),
		attribute.String(attrStatusCode, code),
	}

	m.backendRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.backendRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}
