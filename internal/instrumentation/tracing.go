package instrumentation

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the default tracer name for the authbridge module.
const TracerName = "github.com/teemow/authbridge"

// Span attribute keys for operations.
const (
	// SpanAttrOperation is the bridge or identity operation attribute.
	SpanAttrOperation = "auth.operation"

	// SpanAttrProvider is the backend provider selector attribute.
	SpanAttrProvider = "auth.provider"

	// SpanAttrIdentityProvider is the identity provider ID (google.com, password, phone, ...).
	SpanAttrIdentityProvider = "identity.provider_id"

	// SpanAttrUserDomain is the signed-in user's email domain.
	SpanAttrUserDomain = "auth.user_domain"

	// SpanAttrRequestID is the backend request identifier.
	SpanAttrRequestID = "backend.request_id"

	// SpanAttrStatus is the operation status attribute.
	SpanAttrStatus = "auth.status"
)

// SpanAttributeBuilder helps construct OpenTelemetry span attributes
// with consistent naming.
type SpanAttributeBuilder struct {
	attrs []attribute.KeyValue
}

// NewSpanAttributeBuilder creates a new SpanAttributeBuilder.
func NewSpanAttributeBuilder() *SpanAttributeBuilder {
	return &SpanAttributeBuilder{
		attrs: make([]attribute.KeyValue, 0, 6),
	}
}

// WithOperation adds the operation attribute.
func (b *SpanAttributeBuilder) WithOperation(operation string) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, attribute.String(SpanAttrOperation, operation))
	return b
}

// WithProvider adds the backend provider attribute.
func (b *SpanAttributeBuilder) WithProvider(provider string) *SpanAttributeBuilder {
	if provider != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrProvider, provider))
	}
	return b
}

// WithIdentityProvider adds the identity provider ID attribute.
func (b *SpanAttributeBuilder) WithIdentityProvider(providerID string) *SpanAttributeBuilder {
	if providerID != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrIdentityProvider, providerID))
	}
	return b
}

// WithUser adds the user's email domain; the full address never reaches a span.
func (b *SpanAttributeBuilder) WithUser(email string) *SpanAttributeBuilder {
	if email != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrUserDomain, ExtractUserDomain(email)))
	}
	return b
}

// Build returns the constructed attributes.
func (b *SpanAttributeBuilder) Build() []attribute.KeyValue {
	return b.attrs
}

// StartSpan starts a new span with the given name, kind and attributes.
// The caller is responsible for ending the span with defer span.End().
func StartSpan(ctx context.Context, name string, kind trace.SpanKind, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...), trace.WithSpanKind(kind))
}

// StartBridgeSpan starts the span covering one bridge operation. subject is
// reduced to its email domain; phone numbers and empty subjects add nothing.
func StartBridgeSpan(ctx context.Context, operation, provider, subject string) (context.Context, trace.Span) {
	b := NewSpanAttributeBuilder().
		WithOperation(operation).
		WithProvider(provider)
	if strings.Contains(subject, "@") {
		b.WithUser(subject)
	}
	return StartSpan(ctx, "bridge."+operation, trace.SpanKindInternal, b.Build()...)
}

// StartIdentitySpan starts a span for an identity provider call.
func StartIdentitySpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+1)
	allAttrs = append(allAttrs, attribute.String(SpanAttrOperation, operation))
	allAttrs = append(allAttrs, attrs...)
	return StartSpan(ctx, "identity."+operation, trace.SpanKindClient, allAttrs...)
}

// StartBackendSpan starts a span for a backend session request.
func StartBackendSpan(ctx context.Context, provider, requestID string) (context.Context, trace.Span) {
	return StartSpan(ctx, "backend."+provider, trace.SpanKindClient,
		attribute.String(SpanAttrProvider, provider),
		attribute.String(SpanAttrRequestID, requestID),
	)
}

// SetSpanError records an error on the span and sets the status to error.
func SetSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess sets the span status to OK.
func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// EndSpan finishes span, marking it according to err.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		SetSpanError(span, err)
	} else {
		SetSpanSuccess(span)
	}
	span.End()
}

// AddSpanEvent adds an event to the span carried by ctx.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}

// GetTraceID returns the trace ID from the current span in context.
// Returns empty string if no valid span is present.
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}

// GetSpanID returns the span ID from the current span in context.
// Returns empty string if no valid span is present.
func GetSpanID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().SpanID().String()
	}
	return ""
}
