package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version will be set by main
var version = "dev"

// rootCmd represents the base command for the authbridge application
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	rt := &runtime{}

	cmd := &cobra.Command{
		Use:   "authbridge",
		Short: "Signs users in with Firebase and exchanges the identity for a backend session",
		Long: `authbridge signs a user in with the Firebase identity provider (Google,
Facebook, email/password or phone) and registers the authenticated identity
with the backend session API.

The backend's JSON response is written to stdout. Configuration is read from
authbridge.yaml and AUTHBRIDGE_* environment variables.`,
		SilenceUsage: true,
		Version:      version,
	}
	cmd.SetVersionTemplate(`{{printf "authbridge version %s\n" .Version}}`)

	cmd.PersistentFlags().StringVar(&rt.cfgFile, "config", "", "Config file (default: ./authbridge.yaml or $HOME/.config/authbridge/authbridge.yaml)")
	cmd.PersistentFlags().BoolVar(&rt.debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(newSignInCmd(rt))
	cmd.AddCommand(newSignUpCmd(rt))
	cmd.AddCommand(newPhoneCmd(rt))
	cmd.AddCommand(newResetPasswordCmd(rt))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
