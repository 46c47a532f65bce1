package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/authbridge/internal/bridge"
	"github.com/teemow/authbridge/internal/identity"
)

func newPhoneCmd(rt *runtime) *cobra.Command {
	var number, code string

	cmd := &cobra.Command{
		Use:   "phone",
		Short: "Sign in with a one-time code sent to a phone number",
		Long: `Send a one-time code to the phone number, then read the code and register
the confirmed identity with the backend.

A leading "+" is added to the number when missing. In an interactive
terminal the reCAPTCHA response token is requested before the code is sent.`,
		Example: `  authbridge phone --number 15551234567
  authbridge phone --number +15551234567 --code 123456`,
		Args: cobra.NoArgs,
		RunE: rt.withBridge(func(cmd *cobra.Command, args []string, b *bridge.Bridge) error {
			in := cmd.InOrStdin()
			verifier := b.InitRecaptchaVerifier(in)
			if _, ok := verifier.(identity.NoopVerifier); ok {
				warn(cmd.ErrOrStderr(), "No interactive terminal, sending the code without reCAPTCHA")
			}

			confirmation, err := b.SendOTPToPhone(cmd.Context(), number, verifier)
			if err != nil {
				return fmt.Errorf("failed to send verification code: %w", err)
			}
			success(cmd.ErrOrStderr(), "Verification code sent to %s", confirmation.PhoneNumber)

			if code == "" {
				code, err = readLine(in, cmd.ErrOrStderr(), "Enter the verification code: ")
				if err != nil {
					return err
				}
			}

			session, err := b.VerifyOTP(cmd.Context(), confirmation, code)
			if err != nil {
				return fmt.Errorf("phone sign-in failed: %w", err)
			}

			success(cmd.ErrOrStderr(), "Signed in with %s", confirmation.PhoneNumber)
			return writeSession(cmd.OutOrStdout(), session)
		}),
	}

	cmd.Flags().StringVar(&number, "number", "", "Phone number in E.164 format")
	cmd.Flags().StringVar(&code, "code", "", "Verification code (prompted for when empty)")
	_ = cmd.MarkFlagRequired("number")
	return cmd
}

func readLine(in io.Reader, prompt io.Writer, label string) (string, error) {
	_, _ = fmt.Fprint(prompt, label)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", errors.New("no verification code entered")
	}
	return line, nil
}
