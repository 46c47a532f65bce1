package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/authbridge/internal/bridge"
)

func newResetPasswordCmd(rt *runtime) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Send a password reset email",
		Args:  cobra.NoArgs,
		RunE: rt.withBridge(func(cmd *cobra.Command, args []string, b *bridge.Bridge) error {
			if err := b.SendPasswordResetEmail(cmd.Context(), email); err != nil {
				return fmt.Errorf("failed to send password reset email: %w", err)
			}

			success(cmd.ErrOrStderr(), "Password reset email sent to %s", email)
			return nil
		}),
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
