package identity

import (
	"context"
	"errors"
	"strings"
)

// NormalizePhoneNumber prefixes phone with "+" when it has no leading plus.
func NormalizePhoneNumber(phone string) string {
	phone = strings.TrimSpace(phone)
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	return "+" + phone
}

// ConfirmFunc completes a phone sign-in with the code the user received.
type ConfirmFunc func(ctx context.Context, code string) (*User, error)

// Confirmation is the pending state between sending a code and confirming it.
type Confirmation struct {
	// VerificationID identifies the code delivery session.
	VerificationID string
	PhoneNumber    string

	confirm ConfirmFunc
}

// NewConfirmation returns a Confirmation that completes through confirm.
func NewConfirmation(verificationID, phoneNumber string, confirm ConfirmFunc) *Confirmation {
	return &Confirmation{
		VerificationID: verificationID,
		PhoneNumber:    phoneNumber,
		confirm:        confirm,
	}
}

// Confirm signs the user in with code.
func (c *Confirmation) Confirm(ctx context.Context, code string) (*User, error) {
	if c == nil || c.confirm == nil {
		return nil, errors.New("identity: confirmation is not pending")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, &Error{Code: ErrInvalidVerificationCode.Code, Message: "verification code is empty"}
	}
	return c.confirm(ctx, code)
}
