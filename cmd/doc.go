// Package cmd implements the command-line interface for authbridge.
//
// This package provides the following commands:
//   - signin: Sign in with Google, Facebook or email/password
//   - signup: Create an email/password account
//   - phone: Sign in with a one-time code sent to a phone number
//   - reset-password: Send a password reset email
//   - version: Display version information
//
// Every sign-in command prints the backend session JSON on stdout.
package cmd
