package identity

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhoneNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "15551234567", want: "+15551234567"},
		{in: "+15551234567", want: "+15551234567"},
		{in: " 447700900123 ", want: "+447700900123"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhoneNumber(tt.in))
		})
	}
}

type staticVerifier struct {
	token  string
	resets int
}

func (v *staticVerifier) Verify(context.Context) (string, error) { return v.token, nil }

func (v *staticVerifier) Reset() { v.resets++ }

func TestSignInWithPhoneNumber(t *testing.T) {
	fake, srv := newFakeToolkit(t)
	token := idToken(t, jwt.MapClaims{
		"sub":          "p1",
		"phone_number": "+15551234567",
		"firebase": map[string]any{
			"sign_in_provider": "phone",
			"identities":       map[string]any{"phone": []any{"+15551234567"}},
		},
	})

	fake.respond("sendVerificationCode", map[string]any{"sessionInfo": "session-1"})
	fake.respond("verifyPhoneNumber", map[string]any{
		"localId":      "p1",
		"idToken":      token,
		"refreshToken": "refresh",
		"expiresIn":    "3600",
		"phoneNumber":  "+15551234567",
	})
	fake.respond("getAccountInfo", accountInfo(map[string]any{"localId": "p1"}))

	c := newTestClient(t, srv, Config{})
	verifier := &staticVerifier{token: "recaptcha-token"}

	confirmation, err := c.SignInWithPhoneNumber(context.Background(), "15551234567", verifier)
	require.NoError(t, err)
	assert.Equal(t, "session-1", confirmation.VerificationID)
	assert.Equal(t, "+15551234567", confirmation.PhoneNumber)
	assert.Equal(t, 1, verifier.resets)

	sent := fake.callsTo("sendVerificationCode")
	require.Len(t, sent, 1)
	assert.Equal(t, "+15551234567", sent[0].Body["phoneNumber"])
	assert.Equal(t, "recaptcha-token", sent[0].Body["recaptchaToken"])

	u, err := confirmation.Confirm(context.Background(), "123456")
	require.NoError(t, err)

	assert.Equal(t, "p1", u.UID)
	assert.Equal(t, "+15551234567", u.PhoneNumber)
	assert.Empty(t, u.Email)
	require.Len(t, u.ProviderData, 1)
	assert.Equal(t, ProviderPhone, u.ProviderID())
	assert.Equal(t, "+15551234567", u.ProviderData[0].UID)

	verified := fake.callsTo("verifyPhoneNumber")
	require.Len(t, verified, 1)
	assert.Equal(t, "session-1", verified[0].Body["sessionInfo"])
	assert.Equal(t, "123456", verified[0].Body["code"])
}

func TestSignInWithPhoneNumber_InvalidNumber(t *testing.T) {
	fake, srv := newFakeToolkit(t)
	fake.fail("sendVerificationCode", "INVALID_PHONE_NUMBER : TOO_SHORT")

	c := newTestClient(t, srv, Config{})
	_, err := c.SignInWithPhoneNumber(context.Background(), "1", nil)

	assert.ErrorIs(t, err, ErrInvalidPhoneNumber)
}

func TestConfirmation_WrongCode(t *testing.T) {
	fake, srv := newFakeToolkit(t)
	fake.respond("sendVerificationCode", map[string]any{"sessionInfo": "session-1"})
	fake.fail("verifyPhoneNumber", "INVALID_CODE")

	c := newTestClient(t, srv, Config{})
	confirmation, err := c.SignInWithPhoneNumber(context.Background(), "+15551234567", NoopVerifier{})
	require.NoError(t, err)

	_, err = confirmation.Confirm(context.Background(), "000000")
	assert.ErrorIs(t, err, ErrInvalidVerificationCode)
	assert.Empty(t, fake.callsTo("getAccountInfo"))
}

func TestConfirmation_Expired(t *testing.T) {
	fake, srv := newFakeToolkit(t)
	fake.respond("sendVerificationCode", map[string]any{"sessionInfo": "session-1"})
	fake.fail("verifyPhoneNumber", "SESSION_EXPIRED")

	c := newTestClient(t, srv, Config{})
	confirmation, err := c.SignInWithPhoneNumber(context.Background(), "+15551234567", NoopVerifier{})
	require.NoError(t, err)

	_, err = confirmation.Confirm(context.Background(), "123456")
	assert.ErrorIs(t, err, ErrCodeExpired)
}

func TestConfirmation_EmptyCode(t *testing.T) {
	called := false
	confirmation := NewConfirmation("v", "+1", func(context.Context, string) (*User, error) {
		called = true
		return &User{}, nil
	})

	_, err := confirmation.Confirm(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrInvalidVerificationCode)
	assert.False(t, called)
}

func TestConfirmation_NotPending(t *testing.T) {
	var confirmation *Confirmation
	_, err := confirmation.Confirm(context.Background(), "123456")
	assert.Error(t, err)
}
