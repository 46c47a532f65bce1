package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/authbridge/internal/bridge"
)

func newSignUpCmd(rt *runtime) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an email/password account and print the backend session",
		Long: `Create an email/password account, set its display name and register it with
the backend. Accounts without a photo get a generated initials avatar.`,
		Example: `  authbridge signup --name "Ada Lovelace" --email ada@example.com --password secret`,
		Args:    cobra.NoArgs,
		RunE: rt.withBridge(func(cmd *cobra.Command, args []string, b *bridge.Bridge) error {
			session, err := b.SignUpWithEmail(cmd.Context(), name, email, password)
			if err != nil {
				return fmt.Errorf("sign-up failed: %w", err)
			}

			success(cmd.ErrOrStderr(), "Created account %s", email)
			return writeSession(cmd.OutOrStdout(), session)
		}),
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
