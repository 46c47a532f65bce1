package instrumentation

import (
	"context"
	"log/slog"
	"time"
)

// SignInAttempt captures one bridge operation for audit logging.
//
// # Privacy Considerations
//
// The Subject field holds an email address or phone number. General logs
// only carry the email domain; the full subject is written only when the
// audit logger is configured with IncludePII.
type SignInAttempt struct {
	// Operation is the bridge operation (signin_email, send_otp, ...).
	Operation string

	// Provider is the backend provider selector (google, facebook, phone, email).
	Provider string

	// Subject is the email address or phone number the attempt was made for.
	Subject string

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	// ErrorCode is the identity provider error code, when one is known.
	ErrorCode string

	// BackendStatus is the HTTP status the backend answered with, 0 if the
	// backend was not reached.
	BackendStatus int

	TraceID string
	SpanID  string
}

// NewSignInAttempt creates a new SignInAttempt with timing started.
// Call Complete() when the operation finishes.
func NewSignInAttempt(operation, provider string) *SignInAttempt {
	return &SignInAttempt{
		Operation: operation,
		Provider:  provider,
		StartTime: time.Now(),
	}
}

// WithSubject sets the email address or phone number of the attempt.
func (a *SignInAttempt) WithSubject(subject string) *SignInAttempt {
	a.Subject = subject
	return a
}

// WithSpanContext extracts trace context from the current span.
func (a *SignInAttempt) WithSpanContext(ctx context.Context) *SignInAttempt {
	a.TraceID = GetTraceID(ctx)
	a.SpanID = GetSpanID(ctx)
	return a
}

// Complete marks the attempt as completed and calculates duration.
func (a *SignInAttempt) Complete(err error) *SignInAttempt {
	a.Duration = time.Since(a.StartTime)
	a.Success = err == nil
	if err != nil {
		a.Error = err.Error()
	}
	return a
}

// UserDomain returns the domain portion of the subject, or "" for phone numbers.
func (a *SignInAttempt) UserDomain() string {
	if a.Subject == "" || a.Subject[0] == '+' {
		return ""
	}
	return ExtractUserDomain(a.Subject)
}

// Status returns "success" or "error" based on the Success field.
func (a *SignInAttempt) Status() string {
	if a.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns slog attributes with cardinality-controlled values.
func (a *SignInAttempt) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("operation", a.Operation),
		slog.Duration("duration", a.Duration),
		slog.Bool("success", a.Success),
	}
	if a.Provider != "" {
		attrs = append(attrs, slog.String("provider", a.Provider))
	}
	if d := a.UserDomain(); d != "" {
		attrs = append(attrs, slog.String("user_domain", d))
	}
	return a.appendOutcome(attrs)
}

// LogAuditAttrs returns slog attributes including the full subject.
func (a *SignInAttempt) LogAuditAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("operation", a.Operation),
		slog.String("user", a.Subject),
		slog.Duration("duration", a.Duration),
		slog.Bool("success", a.Success),
	}
	if a.Provider != "" {
		attrs = append(attrs, slog.String("provider", a.Provider))
	}
	if a.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", a.SpanID))
	}
	return a.appendOutcome(attrs)
}

func (a *SignInAttempt) appendOutcome(attrs []slog.Attr) []slog.Attr {
	if a.BackendStatus != 0 {
		attrs = append(attrs, slog.Int("backend_status", a.BackendStatus))
	}
	if a.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", a.TraceID))
	}
	if a.ErrorCode != "" {
		attrs = append(attrs, slog.String("error_code", a.ErrorCode))
	}
	if a.Error != "" {
		attrs = append(attrs, slog.String("error", a.Error))
	}
	return attrs
}

// AuditLogger provides structured audit logging for sign-in attempts.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates a new AuditLogger with the given slog.Logger.
// PII is not included by default.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:  logger,
		enabled: true,
	}
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogSignIn logs a completed attempt. A nil AuditLogger is a no-op.
func (al *AuditLogger) LogSignIn(a *SignInAttempt) {
	if al == nil || !al.enabled || a == nil {
		return
	}

	var attrs []slog.Attr
	if al.includePII {
		attrs = a.LogAuditAttrs()
	} else {
		attrs = a.LogAttrs()
	}

	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if a.Success {
		al.logger.Info("signin_completed", args...)
	} else {
		al.logger.Warn("signin_failed", args...)
	}
}
