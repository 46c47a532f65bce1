package identity

import (
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"
)

// FederatedProvider describes an OAuth identity provider usable with
// SignInWithPopup.
type FederatedProvider struct {
	// ID is the identity provider ID (google.com, facebook.com).
	ID           string
	ClientID     string
	ClientSecret string
	Endpoint     oauth2.Endpoint
	Scopes       []string
	// AuthParams are extra authorization request parameters.
	AuthParams map[string]string
}

// GoogleProvider returns the Google provider for the given OAuth client.
func GoogleProvider(clientID, clientSecret string, scopes ...string) FederatedProvider {
	if len(scopes) == 0 {
		scopes = []string{"openid", "email", "profile"}
	}
	return FederatedProvider{
		ID:           ProviderGoogle,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       scopes,
		AuthParams:   map[string]string{"prompt": "select_account"},
	}
}

// FacebookProvider returns the Facebook provider for the given app.
func FacebookProvider(appID, appSecret string, scopes ...string) FederatedProvider {
	if len(scopes) == 0 {
		scopes = []string{"email", "public_profile"}
	}
	return FederatedProvider{
		ID:           ProviderFacebook,
		ClientID:     appID,
		ClientSecret: appSecret,
		Endpoint:     facebook.Endpoint,
		Scopes:       scopes,
		AuthParams: map[string]string{
			"facebook_application_id": appID,
			"display":                 "popup",
		},
	}
}

// Configured reports whether the provider has a client ID.
func (p FederatedProvider) Configured() bool {
	return p.ClientID != ""
}

// OAuthConfig returns the authorization code flow configuration for redirectURL.
func (p FederatedProvider) OAuthConfig(redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		Endpoint:     p.Endpoint,
		RedirectURL:  redirectURL,
		Scopes:       p.Scopes,
	}
}

func (p FederatedProvider) authCodeOptions() []oauth2.AuthCodeOption {
	opts := make([]oauth2.AuthCodeOption, 0, len(p.AuthParams))
	for k, v := range p.AuthParams {
		opts = append(opts, oauth2.SetAuthURLParam(k, v))
	}
	return opts
}

// IdPCredential is what a completed consent flow yields.
type IdPCredential struct {
	ProviderID  string
	IDToken     string
	AccessToken string
	// RequestURI is the redirect URI the provider sent the user back to.
	RequestURI string
}

// PostBody encodes the credential in the form verifyAssertion expects.
func (c *IdPCredential) PostBody() string {
	v := url.Values{}
	if c.IDToken != "" {
		v.Set("id_token", c.IDToken)
	}
	if c.AccessToken != "" {
		v.Set("access_token", c.AccessToken)
	}
	v.Set("providerId", c.ProviderID)
	return v.Encode()
}
