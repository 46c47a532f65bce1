package identity

import (
	"context"
	"fmt"
	"time"

	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"

	"github.com/teemow/authbridge/internal/instrumentation"
	"github.com/teemow/authbridge/internal/logging"
)

// Config configures a Client.
type Config struct {
	// APIKey is the web API key of the Firebase project.
	APIKey string

	// Endpoint overrides the Identity Toolkit base URL (emulator, tests).
	// It must end with a slash.
	Endpoint string

	// AppName is stamped on user records. Defaults to DefaultAppName.
	AppName string

	// AuthDomain is the project's auth domain. It forms the request URI of
	// federated credentials that carry none.
	AuthDomain string

	// Federated lists the providers available to SignInWithPopup.
	Federated []FederatedProvider

	// Popup runs the consent step of federated sign-in.
	Popup Popup

	Logger  logging.Logger
	Metrics *instrumentation.Metrics
}

// Client talks to the Identity Toolkit API on behalf of a Firebase web app.
type Client struct {
	svc       *identitytoolkit.Service
	apiKey    string
	appName   string
	handler   string
	federated map[string]FederatedProvider
	popup     Popup
	logger    logging.Logger
	metrics   *instrumentation.Metrics
	now       func() time.Time
}

// NewClient creates a new identity client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("identity: API key is required")
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := identitytoolkit.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Identity Toolkit service: %w", err)
	}

	c := &Client{
		svc:       svc,
		apiKey:    cfg.APIKey,
		appName:   cfg.AppName,
		federated: make(map[string]FederatedProvider, len(cfg.Federated)),
		popup:     cfg.Popup,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		now:       time.Now,
	}
	if c.appName == "" {
		c.appName = DefaultAppName
	}
	c.handler = "http://localhost"
	if cfg.AuthDomain != "" {
		c.handler = "https://" + cfg.AuthDomain + "/__/auth/handler"
	}
	if c.logger == nil {
		c.logger = logging.DiscardLogger()
	}
	if c.metrics == nil {
		c.metrics = &instrumentation.Metrics{}
	}
	for _, p := range cfg.Federated {
		c.federated[p.ID] = p
	}

	return c, nil
}

// do runs one Identity Toolkit call with tracing, metrics and error mapping.
// providerID tags the span and may be empty.
func (c *Client) do(ctx context.Context, operation, providerID string, fn func(ctx context.Context) error) error {
	ctx, span := instrumentation.StartIdentitySpan(ctx, operation,
		instrumentation.NewSpanAttributeBuilder().WithIdentityProvider(providerID).Build()...,
	)
	start := time.Now()

	err := mapError(fn(ctx))

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		c.logger.Debug("identity operation failed", "operation", operation, "code", Code(err))
	}
	c.metrics.RecordIdentityOperation(ctx, operation, status, time.Since(start))
	instrumentation.EndSpan(span, err)

	return err
}

func (c *Client) newUser(localID, idToken, refreshToken string, expiresIn int64) *User {
	u := &User{
		UID:          localID,
		ProviderData: []UserInfo{},
		STSTokenManager: TokenManager{
			AccessToken:  idToken,
			RefreshToken: refreshToken,
		},
		APIKey:  c.apiKey,
		AppName: c.appName,
	}
	if expiresIn > 0 {
		u.STSTokenManager.ExpirationTime = c.now().Add(time.Duration(expiresIn) * time.Second).UnixMilli()
	}
	return u
}

// complete fills the rest of the user record from the account lookup and the
// ID token claims.
func (c *Client) complete(ctx context.Context, u *User) error {
	if err := c.reload(ctx, u); err != nil {
		return err
	}
	if claims, err := ParseIDToken(u.IDToken()); err == nil {
		applyClaims(u, claims)
	} else {
		c.logger.Debug("ID token claims not decoded",
			"token", logging.SanitizeToken(u.IDToken()),
			"error", err,
		)
	}
	return nil
}

// reload refreshes u from getAccountInfo.
func (c *Client) reload(ctx context.Context, u *User) error {
	var info *identitytoolkit.UserInfo
	err := c.do(ctx, instrumentation.IdentityGetAccountInfo, "", func(ctx context.Context) error {
		resp, err := c.svc.Relyingparty.GetAccountInfo(&identitytoolkit.IdentitytoolkitRelyingpartyGetAccountInfoRequest{
			IdToken: u.IDToken(),
		}).Context(ctx).Do()
		if err != nil {
			return err
		}
		if len(resp.Users) == 0 {
			return ErrUserNotFound
		}
		info = resp.Users[0]
		return nil
	})
	if err != nil {
		return err
	}

	if info.LocalId != "" {
		u.UID = info.LocalId
	}
	if info.Email != "" {
		u.Email = info.Email
	}
	if info.DisplayName != "" {
		u.DisplayName = info.DisplayName
	}
	if info.PhotoUrl != "" {
		u.PhotoURL = info.PhotoUrl
	}
	if info.PhoneNumber != "" {
		u.PhoneNumber = info.PhoneNumber
	}
	u.EmailVerified = info.EmailVerified
	u.CreatedAt = millis(info.CreatedAt)
	u.LastLoginAt = millis(info.LastLoginAt)

	providers := make([]UserInfo, 0, len(info.ProviderUserInfo))
	for _, p := range info.ProviderUserInfo {
		if p == nil {
			continue
		}
		providers = append(providers, UserInfo{
			ProviderID:  p.ProviderId,
			UID:         p.RawId,
			DisplayName: p.DisplayName,
			Email:       p.Email,
			PhoneNumber: p.PhoneNumber,
			PhotoURL:    p.PhotoUrl,
		})
	}
	u.ProviderData = providers

	return nil
}

// SignInWithEmailAndPassword signs in an existing email/password account.
func (c *Client) SignInWithEmailAndPassword(ctx context.Context, email, password string) (*User, error) {
	var u *User
	err := c.do(ctx, instrumentation.IdentityVerifyPassword, ProviderPassword, func(ctx context.Context) error {
		resp, err := c.svc.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
			Email:             email,
			Password:          password,
			ReturnSecureToken: true,
		}).Context(ctx).Do()
		if err != nil {
			return err
		}
		u = c.newUser(resp.LocalId, resp.IdToken, resp.RefreshToken, resp.ExpiresIn)
		u.Email = resp.Email
		u.DisplayName = resp.DisplayName
		u.PhotoURL = resp.PhotoUrl
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := c.complete(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUserWithEmailAndPassword creates an email/password account and signs it in.
func (c *Client) CreateUserWithEmailAndPassword(ctx context.Context, email, password string) (*User, error) {
	var u *User
	err := c.do(ctx, instrumentation.IdentitySignUp, ProviderPassword, func(ctx context.Context) error {
		resp, err := c.svc.Relyingparty.SignupNewUser(&identitytoolkit.IdentitytoolkitRelyingpartySignupNewUserRequest{
			Email:    email,
			Password: password,
		}).Context(ctx).Do()
		if err != nil {
			return err
		}
		u = c.newUser(resp.LocalId, resp.IdToken, resp.RefreshToken, resp.ExpiresIn)
		u.Email = resp.Email
		u.DisplayName = resp.DisplayName
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := c.complete(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateProfile changes the display name and/or photo URL of u and applies
// the result to u.
func (c *Client) UpdateProfile(ctx context.Context, u *User, profile Profile) error {
	if profile.DisplayName == "" && profile.PhotoURL == "" {
		return nil
	}

	return c.do(ctx, instrumentation.IdentitySetAccountInfo, "", func(ctx context.Context) error {
		resp, err := c.svc.Relyingparty.SetAccountInfo(&identitytoolkit.IdentitytoolkitRelyingpartySetAccountInfoRequest{
			IdToken:           u.IDToken(),
			DisplayName:       profile.DisplayName,
			PhotoUrl:          profile.PhotoURL,
			ReturnSecureToken: true,
		}).Context(ctx).Do()
		if err != nil {
			return err
		}

		if profile.DisplayName != "" {
			u.DisplayName = profile.DisplayName
		}
		if profile.PhotoURL != "" {
			u.PhotoURL = profile.PhotoURL
		}
		for i := range u.ProviderData {
			if u.ProviderData[i].ProviderID == ProviderPassword {
				u.ProviderData[i].DisplayName = u.DisplayName
				u.ProviderData[i].PhotoURL = u.PhotoURL
			}
		}
		if resp.IdToken != "" {
			u.STSTokenManager.AccessToken = resp.IdToken
			u.STSTokenManager.RefreshToken = resp.RefreshToken
			if resp.ExpiresIn > 0 {
				u.STSTokenManager.ExpirationTime = c.now().Add(time.Duration(resp.ExpiresIn) * time.Second).UnixMilli()
			}
		}
		return nil
	})
}

// SignInWithPopup signs in through the federated provider with the given ID.
func (c *Client) SignInWithPopup(ctx context.Context, providerID string) (*User, error) {
	provider, ok := c.federated[providerID]
	if !ok || !provider.Configured() {
		return nil, &Error{
			Code:    ErrProviderNotConfigured.Code,
			Message: fmt.Sprintf("%s is not configured", providerID),
		}
	}
	if c.popup == nil {
		return nil, &Error{Code: ErrProviderNotConfigured.Code, Message: "no popup flow available"}
	}

	var cred *IdPCredential
	err := c.do(ctx, instrumentation.IdentityFederatedConsent, providerID, func(ctx context.Context) error {
		var err error
		cred, err = c.popup.Authorize(ctx, provider)
		return err
	})
	if err != nil {
		return nil, err
	}

	var u *User
	err = c.do(ctx, instrumentation.IdentityVerifyAssertion, providerID, func(ctx context.Context) error {
		resp, err := c.svc.Relyingparty.VerifyAssertion(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyAssertionRequest{
			RequestUri:          c.requestURI(cred),
			PostBody:            cred.PostBody(),
			ReturnSecureToken:   true,
			ReturnIdpCredential: true,
		}).Context(ctx).Do()
		if err != nil {
			return err
		}
		if resp.ErrorMessage != "" {
			return fromServerMessage(resp.ErrorMessage, nil)
		}
		if resp.NeedConfirmation {
			return &Error{
				Code:    "auth/account-exists-with-different-credential",
				Message: "an account already exists with the same email address",
			}
		}
		u = c.newUser(resp.LocalId, resp.IdToken, resp.RefreshToken, resp.ExpiresIn)
		u.Email = resp.Email
		u.EmailVerified = resp.EmailVerified
		u.DisplayName = resp.DisplayName
		u.PhotoURL = resp.PhotoUrl
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := c.complete(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (c *Client) requestURI(cred *IdPCredential) string {
	if cred.RequestURI != "" {
		return cred.RequestURI
	}
	return c.handler
}

// SignInWithPhoneNumber sends a verification code to phone. The returned
// Confirmation completes the sign-in.
func (c *Client) SignInWithPhoneNumber(ctx context.Context, phone string, verifier Verifier) (*Confirmation, error) {
	phone = NormalizePhoneNumber(phone)
	if verifier == nil {
		verifier = NoopVerifier{}
	}

	token, err := verifier.Verify(ctx)
	if err != nil {
		return nil, err
	}

	var sessionInfo string
	err = c.do(ctx, instrumentation.IdentitySendCode, ProviderPhone, func(ctx context.Context) error {
		resp, err := c.svc.Relyingparty.SendVerificationCode(&identitytoolkit.IdentitytoolkitRelyingpartySendVerificationCodeRequest{
			PhoneNumber:    phone,
			RecaptchaToken: token,
		}).Context(ctx).Do()
		if err != nil {
			return err
		}
		sessionInfo = resp.SessionInfo
		return nil
	})
	// A reCAPTCHA token is single use.
	verifier.Reset()
	if err != nil {
		return nil, err
	}

	return NewConfirmation(sessionInfo, phone, func(ctx context.Context, code string) (*User, error) {
		return c.confirmPhone(ctx, sessionInfo, code)
	}), nil
}

func (c *Client) confirmPhone(ctx context.Context, sessionInfo, code string) (*User, error) {
	var u *User
	err := c.do(ctx, instrumentation.IdentityVerifyPhone, ProviderPhone, func(ctx context.Context) error {
		resp, err := c.svc.Relyingparty.VerifyPhoneNumber(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPhoneNumberRequest{
			SessionInfo: sessionInfo,
			Code:        code,
		}).Context(ctx).Do()
		if err != nil {
			return err
		}
		u = c.newUser(resp.LocalId, resp.IdToken, resp.RefreshToken, resp.ExpiresIn)
		u.PhoneNumber = resp.PhoneNumber
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := c.complete(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// SendPasswordResetEmail asks the provider to email a password reset link.
func (c *Client) SendPasswordResetEmail(ctx context.Context, email string) error {
	return c.do(ctx, instrumentation.IdentityOobCode, ProviderPassword, func(ctx context.Context) error {
		_, err := c.svc.Relyingparty.GetOobConfirmationCode(&identitytoolkit.Relyingparty{
			RequestType: "PASSWORD_RESET",
			Email:       email,
		}).Context(ctx).Do()
		return err
	})
}
