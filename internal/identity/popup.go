package identity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/browser"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/teemow/authbridge/internal/logging"
)

const callbackPath = "/callback"

// Popup runs the interactive consent step of a federated sign-in.
type Popup interface {
	Authorize(ctx context.Context, provider FederatedProvider) (*IdPCredential, error)
}

// LoopbackPopup opens the provider's consent page in the system browser and
// receives the authorization code on a loopback HTTP listener.
type LoopbackPopup struct {
	// ListenAddr is the callback listener address, 127.0.0.1:0 when empty.
	ListenAddr string

	// Timeout bounds the whole consent step. Zero means no limit beyond ctx.
	Timeout time.Duration

	// Open launches the consent page. Defaults to the system browser.
	Open func(url string) error

	// Out receives the consent URL when no browser can be opened.
	Out io.Writer

	Logger logging.Logger
}

type callbackResult struct {
	code string
	err  error
}

// Authorize runs the authorization code flow with PKCE for provider.
// Leaving the flow without completing it yields ErrPopupClosedByUser.
func (p *LoopbackPopup) Authorize(ctx context.Context, provider FederatedProvider) (*IdPCredential, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	logger := p.Logger
	if logger == nil {
		logger = logging.DiscardLogger()
	}

	addr := p.ListenAddr
	if addr == "" {
		addr = "127.0.0.1:0"
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start callback listener: %w", err)
	}

	redirectURL := fmt.Sprintf("http://%s%s", ln.Addr().String(), callbackPath)
	conf := provider.OAuthConfig(redirectURL)
	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	opts := append(provider.authCodeOptions(), oauth2.S256ChallengeOption(verifier))
	authURL := conf.AuthCodeURL(state, opts...)

	results := make(chan callbackResult, 1)
	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		res := parseCallback(r, state)
		if res.err != nil {
			http.Error(w, "Sign-in was not completed. You can close this window.", http.StatusBadRequest)
		} else {
			_, _ = io.WriteString(w, "Sign-in complete. You can close this window.")
		}
		select {
		case results <- res:
		default:
		}
	})

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var code string
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("callback listener failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		if err := p.open(authURL); err != nil {
			logger.Warn("failed to open browser", "provider", provider.ID, "error", err)
			if p.Out != nil {
				_, _ = fmt.Fprintf(p.Out, "Open this URL to continue signing in:\n\n%s\n\n", authURL)
			}
		}

		select {
		case res := <-results:
			if res.err != nil {
				return res.err
			}
			code = res.code
			return nil
		case <-gctx.Done():
			return &Error{Code: ErrPopupClosedByUser.Code, Message: ErrPopupClosedByUser.Message, Err: gctx.Err()}
		}
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Debug("authorization code received", "provider", provider.ID)

	tok, err := conf.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, &Error{Code: ErrInvalidIdpResponse.Code, Message: "failed to exchange authorization code", Err: err}
	}

	cred := &IdPCredential{
		ProviderID:  provider.ID,
		AccessToken: tok.AccessToken,
		RequestURI:  redirectURL,
	}
	if idToken, ok := tok.Extra("id_token").(string); ok {
		cred.IDToken = idToken
	}
	return cred, nil
}

func (p *LoopbackPopup) open(url string) error {
	if p.Open != nil {
		return p.Open(url)
	}
	return browser.OpenURL(url)
}

// parseCallback validates the provider redirect.
func parseCallback(r *http.Request, state string) callbackResult {
	q := r.URL.Query()
	if q.Get("state") != state {
		return callbackResult{err: &Error{Code: ErrInvalidIdpResponse.Code, Message: "state mismatch in provider redirect"}}
	}
	if e := q.Get("error"); e != "" {
		if e == "access_denied" {
			return callbackResult{err: ErrPopupClosedByUser}
		}
		msg := e
		if d := q.Get("error_description"); d != "" {
			msg = e + ": " + d
		}
		return callbackResult{err: &Error{Code: ErrInvalidIdpResponse.Code, Message: msg}}
	}
	code := q.Get("code")
	if code == "" {
		return callbackResult{err: &Error{Code: ErrInvalidIdpResponse.Code, Message: "provider redirect carried no code"}}
	}
	return callbackResult{code: code}
}
