package identity

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIDToken(t *testing.T) {
	token := idToken(t, jwt.MapClaims{
		"sub":            "u1",
		"name":           "Ada Lovelace",
		"picture":        "https://example.com/ada.png",
		"email":          "ada@example.com",
		"email_verified": true,
		"firebase": map[string]any{
			"sign_in_provider": "google.com",
			"identities":       map[string]any{"google.com": []any{"1234"}},
		},
	})

	claims, err := ParseIDToken(token)
	require.NoError(t, err)

	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "Ada Lovelace", claims.Name)
	assert.True(t, claims.EmailVerified)
	assert.Equal(t, ProviderGoogle, claims.Firebase.SignInProvider)
	assert.Equal(t, []string{"1234"}, claims.Firebase.Identities[ProviderGoogle])
}

func TestParseIDToken_Malformed(t *testing.T) {
	_, err := ParseIDToken("not-a-jwt")
	assert.Error(t, err)
}

func TestApplyClaims_KeepsExistingFields(t *testing.T) {
	u := &User{UID: "u1", DisplayName: "Ada", ProviderData: []UserInfo{}}
	applyClaims(u, &Claims{
		Name:    "Someone Else",
		Picture: "https://example.com/p.png",
		Email:   "ada@example.com",
		Firebase: FirebaseClaims{
			SignInProvider: ProviderPassword,
		},
	})

	assert.Equal(t, "Ada", u.DisplayName)
	assert.Equal(t, "https://example.com/p.png", u.PhotoURL)
	require.Len(t, u.ProviderData, 1)
	assert.Equal(t, "ada@example.com", u.ProviderData[0].UID)
}
