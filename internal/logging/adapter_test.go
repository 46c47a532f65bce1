package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewSlogAdapter_WithNil(t *testing.T) {
	adapter := NewSlogAdapter(nil)
	if adapter == nil {
		t.Fatal("NewSlogAdapter returned nil")
	}
	if adapter.logger == nil {
		t.Error("adapter.logger should not be nil when created with nil")
	}
}

func TestNewSlogAdapter_WithLogger(t *testing.T) {
	logger := slog.Default()
	adapter := NewSlogAdapter(logger)
	if adapter.Logger() != logger {
		t.Error("Logger() should return the underlying logger")
	}
}

func TestSlogAdapter_Levels(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(NewLogger(&buf, "debug", FormatText))

	adapter.Debug("debug message", "key", "value")
	adapter.Info("info message", "key", "value")
	adapter.Warn("warn message", "key", "value")
	adapter.Error("error message", "key", "value")

	out := buf.String()
	for _, want := range []string{"debug message", "info message", "warn message", "error message"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestSlogAdapter_With(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(NewLogger(&buf, "info", FormatText)).With(KeyProvider, "phone")

	adapter.Info("reCAPTCHA verified")

	if !strings.Contains(buf.String(), "provider=phone") {
		t.Errorf("expected provider attribute, got %q", buf.String())
	}
}

func TestDiscardLogger(t *testing.T) {
	// Should not panic
	DiscardLogger().Info("dropped", "key", "value")
}

func TestLoggerInterface(t *testing.T) {
	var _ Logger = (*SlogAdapter)(nil)
}
