package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/authbridge/internal/backend"
	"github.com/teemow/authbridge/internal/bridge"
	"github.com/teemow/authbridge/internal/config"
	"github.com/teemow/authbridge/internal/identity"
	"github.com/teemow/authbridge/internal/instrumentation"
	"github.com/teemow/authbridge/internal/logging"
)

var errBrowserDisabled = errors.New("browser launch disabled by popup.open_browser")

// runtime holds the per-invocation wiring. It is built on first use so that
// commands like version run without configuration.
type runtime struct {
	cfgFile string
	debug   bool

	instr  *instrumentation.Provider
	bridge *bridge.Bridge
}

// Bridge loads configuration and wires the identity client, backend client
// and instrumentation into a Bridge.
func (rt *runtime) Bridge(cmd *cobra.Command) (*bridge.Bridge, error) {
	if rt.bridge != nil {
		return rt.bridge, nil
	}

	ctx := cmd.Context()

	cfg, err := config.Load(rt.cfgFile)
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if rt.debug {
		level = "debug"
	}
	logger := logging.NewLogger(cmd.ErrOrStderr(), level, cfg.Logging.Format)
	slog.SetDefault(logger)
	adapter := logging.NewSlogAdapter(logger)

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	instr, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize instrumentation: %w", err)
	}
	rt.instr = instr
	metrics := instr.Metrics()

	popup := &identity.LoopbackPopup{
		ListenAddr: cfg.Popup.ListenAddr,
		Timeout:    cfg.Popup.Timeout,
		Out:        cmd.ErrOrStderr(),
		Logger:     adapter,
	}
	if !cfg.Popup.OpenBrowser {
		popup.Open = func(string) error { return errBrowserDisabled }
	}

	idp, err := identity.NewClient(ctx, identity.Config{
		APIKey:     cfg.Firebase.APIKey,
		Endpoint:   toolkitEndpoint(cfg.Firebase.Endpoint),
		AuthDomain: cfg.Firebase.AuthDomain,
		Federated:  federatedProviders(cfg),
		Popup:      popup,
		Logger:     adapter,
		Metrics:    metrics,
	})
	if err != nil {
		return nil, err
	}

	sessions, err := backend.NewClient(backend.Config{
		BaseURL: cfg.Backend.BaseURL,
		Logger:  adapter,
		Metrics: metrics,
	})
	if err != nil {
		return nil, err
	}

	rt.bridge = bridge.New(idp, sessions, bridge.Options{
		Logger:  adapter,
		Metrics: metrics,
		Audit:   instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging),
		Prompt:  cmd.ErrOrStderr(),
	})

	logger.Debug("bridge initialized",
		"backend", cfg.Backend.BaseURL,
		"project", cfg.Firebase.ProjectID,
		"google", cfg.Google.Configured(),
		"facebook", cfg.Facebook.Configured(),
	)
	return rt.bridge, nil
}

// withBridge adapts fn to a cobra RunE. Telemetry is flushed when fn
// returns, whether or not it failed.
func (rt *runtime) withBridge(fn func(cmd *cobra.Command, args []string, b *bridge.Bridge) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer rt.shutdown(cmd.Context())

		b, err := rt.Bridge(cmd)
		if err != nil {
			return err
		}
		return fn(cmd, args, b)
	}
}

// shutdown pushes collected metrics and flushes telemetry.
func (rt *runtime) shutdown(ctx context.Context) {
	if rt.instr == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), instrumentation.DefaultPushTimeout)
	defer cancel()

	if err := rt.instr.Push(ctx); err != nil {
		slog.Warn("failed to push metrics", logging.Err(err))
	}
	if err := rt.instr.Shutdown(ctx); err != nil {
		slog.Warn("failed to shut down instrumentation", logging.Err(err))
	}
}

func federatedProviders(cfg *config.Config) []identity.FederatedProvider {
	var providers []identity.FederatedProvider
	if cfg.Google.Configured() {
		providers = append(providers, identity.GoogleProvider(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.Scopes...))
	}
	if cfg.Facebook.Configured() {
		providers = append(providers, identity.FacebookProvider(cfg.Facebook.ClientID, cfg.Facebook.ClientSecret, cfg.Facebook.Scopes...))
	}
	return providers
}

// toolkitEndpoint returns endpoint with the trailing slash the generated
// Identity Toolkit client expects.
func toolkitEndpoint(endpoint string) string {
	if endpoint == "" || strings.HasSuffix(endpoint, "/") {
		return endpoint
	}
	return endpoint + "/"
}
