package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/teemow/authbridge/internal/backend"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warnColor    = color.New(color.FgYellow)
)

// writeSession prints the backend response as indented JSON.
func writeSession(w io.Writer, session backend.Session) error {
	if session == nil {
		session = backend.Session{}
	}
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func success(w io.Writer, format string, args ...any) {
	_, _ = successColor.Fprintf(w, "✓ "+format+"\n", args...)
}

func warn(w io.Writer, format string, args ...any) {
	_, _ = warnColor.Fprintf(w, "⚠ "+format+"\n", args...)
}
