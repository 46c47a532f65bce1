// Package logging provides structured logging utilities for authbridge.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Handler construction from configuration (text or JSON, level)
//   - PII sanitization (email anonymization, token masking)
//   - Consistent attribute naming across the codebase
//   - Logger adapter interface for flexibility
//
// # Usage Patterns
//
// Log with standard attributes:
//
//	logger.Info("signed in",
//	    logging.Provider("google"),
//	    logging.Status(logging.StatusSuccess))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("account created",
//	    logging.UserHash(email))
//	logger.Debug("claims not decoded",
//	    "token", logging.SanitizeToken(idToken))
//
// # Security Considerations
//
//   - User emails and phone numbers are hashed to prevent PII leakage while allowing correlation
//   - Passwords, OTP codes and tokens are never logged directly
package logging
