package instrumentation

import "strings"

// Cardinality management helpers for metrics.
// These functions reduce high-cardinality label values to prevent metrics explosion.
// Always use these helpers when recording metrics with user identifiers.

// ExtractUserDomain extracts the domain part from an email address.
//
// Example:
//
//	ExtractUserDomain("ada@example.com")  // "example.com"
//	ExtractUserDomain("+15551234567")     // "unknown"
//	ExtractUserDomain("")                 // "unknown"
func ExtractUserDomain(email string) string {
	if email == "" {
		return "unknown"
	}

	parts := strings.Split(email, "@")
	if len(parts) == 2 && parts[1] != "" {
		return strings.ToLower(parts[1])
	}

	return "unknown"
}

// Bridge operation names used as metric labels, span names and audit records.
const (
	OperationSignInFederated = "signin_federated"
	OperationSignInEmail     = "signin_email"
	OperationSignUpEmail     = "signup_email"
	OperationSendOTP         = "send_otp"
	OperationVerifyOTP       = "verify_otp"
	OperationPasswordReset   = "password_reset"
)

// Identity provider operation names.
const (
	IdentityVerifyPassword   = "verify_password"
	IdentitySignUp           = "signup_new_user"
	IdentitySetAccountInfo   = "set_account_info"
	IdentityVerifyAssertion  = "verify_assertion"
	IdentitySendCode         = "send_verification_code"
	IdentityVerifyPhone      = "verify_phone_number"
	IdentityOobCode          = "get_oob_confirmation_code"
	IdentityGetAccountInfo   = "get_account_info"
	IdentityFederatedConsent = "federated_consent"
)
