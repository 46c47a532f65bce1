package identity

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the fields of a Firebase ID token the bridge reads.
type Claims struct {
	jwt.RegisteredClaims
	Name          string         `json:"name,omitempty"`
	Picture       string         `json:"picture,omitempty"`
	Email         string         `json:"email,omitempty"`
	EmailVerified bool           `json:"email_verified,omitempty"`
	PhoneNumber   string         `json:"phone_number,omitempty"`
	AuthTime      int64          `json:"auth_time,omitempty"`
	Firebase      FirebaseClaims `json:"firebase"`
}

// FirebaseClaims is the "firebase" object of an ID token.
type FirebaseClaims struct {
	SignInProvider string              `json:"sign_in_provider"`
	Identities     map[string][]string `json:"identities,omitempty"`
}

// ParseIDToken decodes the claims of an ID token. The signature is NOT
// checked; the result is only used to fill in profile fields the REST
// responses leave out.
func ParseIDToken(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to decode ID token: %w", err)
	}
	return claims, nil
}

// applyClaims fills empty user fields from the ID token claims.
func applyClaims(u *User, c *Claims) {
	if u.UID == "" {
		u.UID = c.Subject
	}
	if u.Email == "" {
		u.Email = c.Email
	}
	if !u.EmailVerified {
		u.EmailVerified = c.EmailVerified
	}
	if u.DisplayName == "" {
		u.DisplayName = c.Name
	}
	if u.PhotoURL == "" {
		u.PhotoURL = c.Picture
	}
	if u.PhoneNumber == "" {
		u.PhoneNumber = c.PhoneNumber
	}
	if len(u.ProviderData) == 0 && c.Firebase.SignInProvider != "" {
		info := UserInfo{
			ProviderID:  c.Firebase.SignInProvider,
			DisplayName: u.DisplayName,
			Email:       u.Email,
			PhoneNumber: u.PhoneNumber,
			PhotoURL:    u.PhotoURL,
		}
		if ids := c.Firebase.Identities[c.Firebase.SignInProvider]; len(ids) > 0 {
			info.UID = ids[0]
		}
		if info.UID == "" {
			switch c.Firebase.SignInProvider {
			case ProviderPhone:
				info.UID = u.PhoneNumber
			case ProviderPassword:
				info.UID = u.Email
			}
		}
		u.ProviderData = []UserInfo{info}
	}
}
