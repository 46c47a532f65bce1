package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/authbridge/internal/backend"
	"github.com/teemow/authbridge/internal/bridge"
)

func newSignInCmd(rt *runtime) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "signin <google|facebook|email>",
		Short: "Sign in and print the backend session",
		Long: `Sign in with a federated provider or with email and password, then
register the identity with the backend.

Federated sign-in opens the provider's consent page in the browser and waits
for the redirect on a loopback address.`,
		Example: `  authbridge signin google
  authbridge signin email --email ada@example.com --password secret`,
		ValidArgs: []string{string(backend.ProviderGoogle), string(backend.ProviderFacebook), string(backend.ProviderEmail)},
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(1)(cmd, args); err != nil {
				return err
			}
			provider, err := backend.ParseProvider(args[0])
			if err != nil {
				return err
			}
			switch {
			case provider == backend.ProviderPhone:
				return errors.New("use the phone command to sign in with a phone number")
			case provider == backend.ProviderEmail && (email == "" || password == ""):
				return errors.New("--email and --password are required for email sign-in")
			}
			return nil
		},
		RunE: rt.withBridge(func(cmd *cobra.Command, args []string, b *bridge.Bridge) error {
			provider, _ := backend.ParseProvider(args[0])

			var (
				session backend.Session
				err     error
			)
			if provider == backend.ProviderEmail {
				session, err = b.SignInWithEmail(cmd.Context(), email, password)
			} else {
				session, err = b.SignInWithProvider(cmd.Context(), provider)
			}
			if err != nil {
				return fmt.Errorf("sign-in with %s failed: %w", provider, err)
			}

			success(cmd.ErrOrStderr(), "Signed in with %s", provider)
			return writeSession(cmd.OutOrStdout(), session)
		}),
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email (email sign-in)")
	cmd.Flags().StringVar(&password, "password", "", "Account password (email sign-in)")
	return cmd
}
