package backend

import (
	"fmt"
	"strings"
)

// Provider selects the backend endpoint a sign-in is registered with.
type Provider string

const (
	ProviderGoogle   Provider = "google"
	ProviderFacebook Provider = "facebook"
	ProviderPhone    Provider = "phone"
	ProviderEmail    Provider = "email"
)

// Providers lists every valid Provider.
var Providers = []Provider{ProviderGoogle, ProviderFacebook, ProviderPhone, ProviderEmail}

// ParseProvider returns the Provider named s (case-insensitive).
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown provider %q", s)
	}
	return p, nil
}

// Valid reports whether p is a known provider.
func (p Provider) Valid() bool {
	switch p {
	case ProviderGoogle, ProviderFacebook, ProviderPhone, ProviderEmail:
		return true
	}
	return false
}

func (p Provider) String() string {
	return string(p)
}

// Session is the backend's JSON response, forwarded untouched.
type Session map[string]any

// Token returns the session token when the response carries one.
func (s Session) Token() string {
	t, _ := s["token"].(string)
	return t
}

// Request is the body of a sign-in registration.
type Request struct {
	User any `json:"user"`
}

// Error reports a non-2xx backend answer. The response body is not kept.
type Error struct {
	Provider   Provider
	StatusCode int
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to sign in with %s", e.Provider)
}
