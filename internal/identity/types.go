package identity

import "strconv"

// Provider IDs as reported by the identity provider.
const (
	ProviderGoogle   = "google.com"
	ProviderFacebook = "facebook.com"
	ProviderPassword = "password"
	ProviderPhone    = "phone"
	ProviderFirebase = "firebase"
)

// DefaultAppName is the app name stamped on user records.
const DefaultAppName = "[DEFAULT]"

// User is an authenticated identity. Its JSON form matches the serialized
// user of the Firebase client SDKs, which is what the backend reads.
type User struct {
	UID             string       `json:"uid"`
	Email           string       `json:"email,omitempty"`
	EmailVerified   bool         `json:"emailVerified"`
	DisplayName     string       `json:"displayName,omitempty"`
	IsAnonymous     bool         `json:"isAnonymous"`
	PhotoURL        string       `json:"photoURL,omitempty"`
	PhoneNumber     string       `json:"phoneNumber,omitempty"`
	ProviderData    []UserInfo   `json:"providerData"`
	STSTokenManager TokenManager `json:"stsTokenManager"`
	CreatedAt       string       `json:"createdAt,omitempty"`
	LastLoginAt     string       `json:"lastLoginAt,omitempty"`
	APIKey          string       `json:"apiKey"`
	AppName         string       `json:"appName"`
}

// UserInfo is the profile a single linked provider holds for a user.
type UserInfo struct {
	ProviderID  string `json:"providerId"`
	UID         string `json:"uid"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty"`
}

// TokenManager carries the tokens issued for a user.
type TokenManager struct {
	RefreshToken string `json:"refreshToken"`
	AccessToken  string `json:"accessToken"`
	// ExpirationTime is in Unix milliseconds.
	ExpirationTime int64 `json:"expirationTime"`
}

// IDToken returns the user's current ID token.
func (u *User) IDToken() string {
	return u.STSTokenManager.AccessToken
}

// ProviderID returns the provider of the first linked profile, or "" if none.
func (u *User) ProviderID() string {
	if len(u.ProviderData) == 0 {
		return ""
	}
	return u.ProviderData[0].ProviderID
}

// Profile holds the profile fields that UpdateProfile changes. Empty fields
// are left untouched.
type Profile struct {
	DisplayName string
	PhotoURL    string
}

func millis(ms int64) string {
	if ms == 0 {
		return ""
	}
	return strconv.FormatInt(ms, 10)
}
