package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/teemow/authbridge/internal/avatar"
	"github.com/teemow/authbridge/internal/backend"
	"github.com/teemow/authbridge/internal/identity"
	"github.com/teemow/authbridge/internal/instrumentation"
	"github.com/teemow/authbridge/internal/logging"
)

// IdentityProvider is the identity SDK the bridge signs users in with.
type IdentityProvider interface {
	SignInWithPopup(ctx context.Context, providerID string) (*identity.User, error)
	SignInWithEmailAndPassword(ctx context.Context, email, password string) (*identity.User, error)
	CreateUserWithEmailAndPassword(ctx context.Context, email, password string) (*identity.User, error)
	UpdateProfile(ctx context.Context, user *identity.User, profile identity.Profile) error
	SignInWithPhoneNumber(ctx context.Context, phone string, verifier identity.Verifier) (*identity.Confirmation, error)
	SendPasswordResetEmail(ctx context.Context, email string) error
}

// SessionBackend registers authenticated identities and returns the session.
type SessionBackend interface {
	SignIn(ctx context.Context, provider backend.Provider, user any) (backend.Session, error)
}

// Options configures a Bridge. All fields are optional.
type Options struct {
	Logger  logging.Logger
	Metrics *instrumentation.Metrics
	Audit   *instrumentation.AuditLogger

	// Avatar maps a display name to an image URL for sign-ups without a
	// photo. Defaults to avatar.InitialsImage.
	Avatar func(name string) string

	// Prompt is where interactive human verification writes its prompts.
	// Defaults to os.Stderr.
	Prompt io.Writer
}

// Bridge turns identity provider sign-ins into backend sessions. It keeps no
// state between calls and is safe for concurrent use.
type Bridge struct {
	idp      IdentityProvider
	sessions SessionBackend
	logger   logging.Logger
	metrics  *instrumentation.Metrics
	audit    *instrumentation.AuditLogger
	avatar   func(name string) string
	prompt   io.Writer
}

// ErrMissingName is returned by SignUpWithEmail when no display name is given.
var ErrMissingName = errors.New("display name is required")

// federatedIDs maps backend providers to the identity provider IDs used for
// popup sign-in.
var federatedIDs = map[backend.Provider]string{
	backend.ProviderGoogle:   identity.ProviderGoogle,
	backend.ProviderFacebook: identity.ProviderFacebook,
}

// signUpRecord is the user record sent on email sign-up.
type signUpRecord struct {
	*identity.User
	ProfileImageURL string `json:"profile_image_url"`
}

// New creates a Bridge.
func New(idp IdentityProvider, sessions SessionBackend, opts Options) *Bridge {
	b := &Bridge{
		idp:      idp,
		sessions: sessions,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		audit:    opts.Audit,
		avatar:   opts.Avatar,
		prompt:   opts.Prompt,
	}
	if b.logger == nil {
		b.logger = logging.DiscardLogger()
	}
	if b.metrics == nil {
		b.metrics = &instrumentation.Metrics{}
	}
	if b.avatar == nil {
		b.avatar = avatar.InitialsImage
	}
	if b.prompt == nil {
		b.prompt = os.Stderr
	}
	return b
}

// run wraps one bridge operation with tracing, metrics and audit logging.
func (b *Bridge) run(ctx context.Context, operation string, provider backend.Provider, subject string, fn func(ctx context.Context) (backend.Session, error)) (backend.Session, error) {
	ctx, span := instrumentation.StartBridgeSpan(ctx, operation, string(provider), subject)
	attempt := instrumentation.NewSignInAttempt(operation, string(provider)).
		WithSubject(subject).
		WithSpanContext(ctx)

	session, err := fn(ctx)

	attempt.Complete(err)
	attempt.ErrorCode = identity.Code(err)
	var backendErr *backend.Error
	if errors.As(err, &backendErr) {
		attempt.BackendStatus = backendErr.StatusCode
	}

	if strings.Contains(subject, "@") {
		b.metrics.RecordSignInWithUser(ctx, string(provider), operation, attempt.Status(), subject, attempt.Duration)
	} else {
		b.metrics.RecordSignIn(ctx, string(provider), operation, attempt.Status(), attempt.Duration)
	}
	b.audit.LogSignIn(attempt)
	instrumentation.EndSpan(span, err)

	return session, err
}

// providerFailed logs an identity provider failure. The error is returned to
// the caller unchanged.
func (b *Bridge) providerFailed(operation string, provider backend.Provider, subject string, err error) error {
	b.logger.Error("identity provider operation failed",
		logging.Operation(operation),
		logging.Provider(string(provider)),
		logging.UserHash(subject),
		"code", identity.Code(err),
		logging.Err(err),
	)
	return err
}

// register posts record, which wraps user, to the backend endpoint of
// provider.
func (b *Bridge) register(ctx context.Context, operation string, provider backend.Provider, user *identity.User, record any) (backend.Session, error) {
	instrumentation.AddSpanEvent(ctx, "identity.signed_in",
		instrumentation.NewSpanAttributeBuilder().
			WithIdentityProvider(user.ProviderID()).
			Build()...,
	)

	subject := user.Email
	if subject == "" {
		subject = user.PhoneNumber
	}

	start := time.Now()
	session, err := b.sessions.SignIn(ctx, provider, record)
	if err != nil {
		b.logger.Error("backend sign-in failed",
			logging.Operation(operation),
			logging.Provider(string(provider)),
			logging.UserHash(subject),
			logging.Err(err),
		)
		return nil, err
	}
	b.logger.Info("signed in",
		logging.Operation(operation),
		logging.Provider(string(provider)),
		logging.UserHash(subject),
		logging.Status(instrumentation.StatusSuccess),
		"duration", time.Since(start),
	)
	return session, nil
}

// SignInWithProvider signs in through the federated provider's consent flow
// and registers the result with /auths/{provider}.
func (b *Bridge) SignInWithProvider(ctx context.Context, provider backend.Provider) (backend.Session, error) {
	providerID, ok := federatedIDs[provider]
	if !ok {
		return nil, fmt.Errorf("%s is not a federated provider", provider)
	}

	op := instrumentation.OperationSignInFederated
	return b.run(ctx, op, provider, "", func(ctx context.Context) (backend.Session, error) {
		user, err := b.idp.SignInWithPopup(ctx, providerID)
		if err != nil {
			return nil, b.providerFailed(op, provider, "", err)
		}
		return b.register(ctx, op, provider, user, user)
	})
}

// SignInWithGoogle signs in with Google.
func (b *Bridge) SignInWithGoogle(ctx context.Context) (backend.Session, error) {
	return b.SignInWithProvider(ctx, backend.ProviderGoogle)
}

// SignInWithFacebook signs in with Facebook.
func (b *Bridge) SignInWithFacebook(ctx context.Context) (backend.Session, error) {
	return b.SignInWithProvider(ctx, backend.ProviderFacebook)
}

// SignInWithEmail signs in an email/password account.
func (b *Bridge) SignInWithEmail(ctx context.Context, email, password string) (backend.Session, error) {
	op := instrumentation.OperationSignInEmail
	return b.run(ctx, op, backend.ProviderEmail, email, func(ctx context.Context) (backend.Session, error) {
		user, err := b.idp.SignInWithEmailAndPassword(ctx, email, password)
		if err != nil {
			return nil, b.providerFailed(op, backend.ProviderEmail, email, err)
		}
		return b.register(ctx, op, backend.ProviderEmail, user, user)
	})
}

// SignUpWithEmail creates an email/password account named name. The display
// name is set before registering, and accounts without a photo get an
// initials avatar as profile_image_url. An empty name fails with
// ErrMissingName before the account is created.
func (b *Bridge) SignUpWithEmail(ctx context.Context, name, email, password string) (backend.Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMissingName
	}

	op := instrumentation.OperationSignUpEmail
	return b.run(ctx, op, backend.ProviderEmail, email, func(ctx context.Context) (backend.Session, error) {
		user, err := b.idp.CreateUserWithEmailAndPassword(ctx, email, password)
		if err != nil {
			return nil, b.providerFailed(op, backend.ProviderEmail, email, err)
		}

		if err := b.idp.UpdateProfile(ctx, user, identity.Profile{DisplayName: name}); err != nil {
			return nil, b.providerFailed(op, backend.ProviderEmail, email, err)
		}

		record := signUpRecord{User: user, ProfileImageURL: user.PhotoURL}
		if record.ProfileImageURL == "" {
			record.ProfileImageURL = b.avatar(user.DisplayName)
		}

		return b.register(ctx, op, backend.ProviderEmail, user, record)
	})
}

// InitRecaptchaVerifier binds human verification to container. Outside an
// interactive terminal it returns identity.NoopVerifier.
func (b *Bridge) InitRecaptchaVerifier(container io.Reader) identity.Verifier {
	v := identity.NewVerifier(container, b.prompt, b.logger)
	if _, ok := v.(identity.NoopVerifier); ok {
		b.logger.Debug("no interactive container, human verification disabled")
	}
	return v
}

// SendOTPToPhone sends a one-time code to phone, adding a leading "+" when
// missing. The returned confirmation is passed to VerifyOTP.
func (b *Bridge) SendOTPToPhone(ctx context.Context, phone string, verifier identity.Verifier) (*identity.Confirmation, error) {
	phone = identity.NormalizePhoneNumber(phone)
	op := instrumentation.OperationSendOTP

	var confirmation *identity.Confirmation
	_, err := b.run(ctx, op, backend.ProviderPhone, phone, func(ctx context.Context) (backend.Session, error) {
		var err error
		confirmation, err = b.idp.SignInWithPhoneNumber(ctx, phone, verifier)
		if err != nil {
			return nil, b.providerFailed(op, backend.ProviderPhone, phone, err)
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return confirmation, nil
}

// VerifyOTP confirms the code and registers the phone identity.
func (b *Bridge) VerifyOTP(ctx context.Context, confirmation *identity.Confirmation, code string) (backend.Session, error) {
	op := instrumentation.OperationVerifyOTP
	subject := ""
	if confirmation != nil {
		subject = confirmation.PhoneNumber
	}

	return b.run(ctx, op, backend.ProviderPhone, subject, func(ctx context.Context) (backend.Session, error) {
		user, err := confirmation.Confirm(ctx, code)
		if err != nil {
			return nil, b.providerFailed(op, backend.ProviderPhone, subject, err)
		}
		return b.register(ctx, op, backend.ProviderPhone, user, user)
	})
}

// SendPasswordResetEmail triggers the provider's password reset email.
func (b *Bridge) SendPasswordResetEmail(ctx context.Context, email string) error {
	op := instrumentation.OperationPasswordReset
	_, err := b.run(ctx, op, backend.ProviderEmail, email, func(ctx context.Context) (backend.Session, error) {
		if err := b.idp.SendPasswordResetEmail(ctx, email); err != nil {
			return nil, b.providerFailed(op, backend.ProviderEmail, email, err)
		}
		return nil, nil
	})
	return err
}
