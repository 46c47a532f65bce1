package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
)

// Error is a failure reported by the identity provider. Code is stable
// across transports (auth/email-already-in-use, auth/popup-closed-by-user, ...)
// and is what errors.Is compares.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("identity: %s", e.Code)
	}
	return fmt.Sprintf("identity: %s (%s)", e.Message, e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinel errors for the failures callers are expected to branch on.
var (
	ErrEmailAlreadyInUse       = &Error{Code: "auth/email-already-in-use", Message: "email already in use"}
	ErrInvalidEmail            = &Error{Code: "auth/invalid-email", Message: "invalid email"}
	ErrInvalidCredential       = &Error{Code: "auth/invalid-credential", Message: "invalid credentials"}
	ErrUserDisabled            = &Error{Code: "auth/user-disabled", Message: "user account is disabled"}
	ErrUserNotFound            = &Error{Code: "auth/user-not-found", Message: "user not found"}
	ErrWeakPassword            = &Error{Code: "auth/weak-password", Message: "password is too weak"}
	ErrOperationNotAllowed     = &Error{Code: "auth/operation-not-allowed", Message: "sign-in method is disabled for this project"}
	ErrTooManyRequests         = &Error{Code: "auth/too-many-requests", Message: "too many attempts, try again later"}
	ErrQuotaExceeded           = &Error{Code: "auth/quota-exceeded", Message: "project quota exceeded"}
	ErrInvalidPhoneNumber      = &Error{Code: "auth/invalid-phone-number", Message: "invalid phone number"}
	ErrMissingPhoneNumber      = &Error{Code: "auth/missing-phone-number", Message: "missing phone number"}
	ErrInvalidVerificationCode = &Error{Code: "auth/invalid-verification-code", Message: "invalid verification code"}
	ErrCodeExpired             = &Error{Code: "auth/code-expired", Message: "verification code expired"}
	ErrInvalidAppCredential    = &Error{Code: "auth/invalid-app-credential", Message: "invalid reCAPTCHA token"}
	ErrMissingAppCredential    = &Error{Code: "auth/missing-app-credential", Message: "missing reCAPTCHA token"}
	ErrInvalidIdpResponse      = &Error{Code: "auth/invalid-idp-response", Message: "invalid identity provider response"}
	ErrPopupClosedByUser       = &Error{Code: "auth/popup-closed-by-user", Message: "the sign-in flow was closed before completion"}
	ErrProviderNotConfigured   = &Error{Code: "auth/provider-not-configured", Message: "identity provider is not configured"}
	ErrTokenExpired            = &Error{Code: "auth/user-token-expired", Message: "user token expired"}
	ErrNetworkRequestFailed    = &Error{Code: "auth/network-request-failed", Message: "network request failed"}
	ErrInternal                = &Error{Code: "auth/internal-error", Message: "internal error"}
)

// serverCodes maps Identity Toolkit error messages onto client codes.
var serverCodes = map[string]*Error{
	"EMAIL_EXISTS":                ErrEmailAlreadyInUse,
	"INVALID_EMAIL":               ErrInvalidEmail,
	"MISSING_EMAIL":               ErrInvalidEmail,
	"INVALID_PASSWORD":            ErrInvalidCredential,
	"INVALID_LOGIN_CREDENTIALS":   ErrInvalidCredential,
	"EMAIL_NOT_FOUND":             ErrUserNotFound,
	"USER_NOT_FOUND":              ErrUserNotFound,
	"USER_DISABLED":               ErrUserDisabled,
	"WEAK_PASSWORD":               ErrWeakPassword,
	"OPERATION_NOT_ALLOWED":       ErrOperationNotAllowed,
	"PASSWORD_LOGIN_DISABLED":     ErrOperationNotAllowed,
	"TOO_MANY_ATTEMPTS_TRY_LATER": ErrTooManyRequests,
	"QUOTA_EXCEEDED":              ErrQuotaExceeded,
	"INVALID_PHONE_NUMBER":        ErrInvalidPhoneNumber,
	"MISSING_PHONE_NUMBER":        ErrMissingPhoneNumber,
	"INVALID_CODE":                ErrInvalidVerificationCode,
	"INVALID_SESSION_INFO":        ErrInvalidVerificationCode,
	"SESSION_EXPIRED":             ErrCodeExpired,
	"INVALID_RECAPTCHA_TOKEN":     ErrInvalidAppCredential,
	"CAPTCHA_CHECK_FAILED":        ErrInvalidAppCredential,
	"MISSING_RECAPTCHA_TOKEN":     ErrMissingAppCredential,
	"INVALID_IDP_RESPONSE":        ErrInvalidIdpResponse,
	"TOKEN_EXPIRED":               ErrTokenExpired,
	"INVALID_ID_TOKEN":            ErrTokenExpired,
}

// mapError converts a transport or API failure into an *Error. Context
// errors are returned unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var idErr *Error
	if errors.As(err, &idErr) {
		return err
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return fromServerMessage(apiErr.Message, apiErr)
	}

	return &Error{Code: ErrNetworkRequestFailed.Code, Message: ErrNetworkRequestFailed.Message, Err: err}
}

// fromServerMessage translates messages like "WEAK_PASSWORD : Password should
// be at least 6 characters" into an *Error.
func fromServerMessage(message string, cause error) *Error {
	key, detail, _ := strings.Cut(message, ":")
	key = strings.TrimSpace(key)
	detail = strings.TrimSpace(detail)

	if known, ok := serverCodes[key]; ok {
		msg := known.Message
		if detail != "" {
			msg = detail
		}
		return &Error{Code: known.Code, Message: msg, Err: cause}
	}

	if key == "" {
		return &Error{Code: ErrInternal.Code, Message: ErrInternal.Message, Err: cause}
	}

	return &Error{
		Code:    "auth/" + strings.ReplaceAll(strings.ToLower(key), "_", "-"),
		Message: message,
		Err:     cause,
	}
}

// Code returns the identity error code carried by err, or "" when err is not
// an identity provider failure.
func Code(err error) string {
	var idErr *Error
	if errors.As(err, &idErr) {
		return idErr.Code
	}
	return ""
}
