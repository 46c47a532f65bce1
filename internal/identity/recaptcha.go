package identity

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/teemow/authbridge/internal/logging"
)

// RecaptchaTokenTTL is how long a solved challenge stays valid.
const RecaptchaTokenTTL = 2 * time.Minute

// Verifier yields a human-verification token for phone sign-in.
type Verifier interface {
	// Verify returns a reCAPTCHA response token, solving a challenge if needed.
	Verify(ctx context.Context) (string, error)
	// Reset discards any cached token.
	Reset()
}

// NoopVerifier is used where no interactive environment exists. It yields
// an empty token, which only emulators and test phone numbers accept.
type NoopVerifier struct{}

func (NoopVerifier) Verify(context.Context) (string, error) { return "", nil }

func (NoopVerifier) Reset() {}

// isInteractive reports whether container is attached to a terminal.
func isInteractive(container any) bool {
	f, ok := container.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// NewVerifier binds a verifier to container. A container that is not an
// interactive terminal yields NoopVerifier.
func NewVerifier(container io.Reader, prompt io.Writer, logger logging.Logger) Verifier {
	if container == nil || !isInteractive(container) {
		return NoopVerifier{}
	}
	return NewTerminalVerifier(container, prompt, logger)
}

// TerminalVerifier asks the user to paste the response token of a solved
// reCAPTCHA challenge. The token is cached until it expires.
type TerminalVerifier struct {
	mu       sync.Mutex
	in       *bufio.Reader
	out      io.Writer
	logger   logging.Logger
	now      func() time.Time
	token    string
	solvedAt time.Time
}

// NewTerminalVerifier returns a verifier reading tokens from in.
func NewTerminalVerifier(in io.Reader, out io.Writer, logger logging.Logger) *TerminalVerifier {
	if out == nil {
		out = io.Discard
	}
	if logger == nil {
		logger = logging.DiscardLogger()
	}
	return &TerminalVerifier{
		in:     bufio.NewReader(in),
		out:    out,
		logger: logger,
		now:    time.Now,
	}
}

// Verify returns the cached token or prompts for a new one.
func (v *TerminalVerifier) Verify(ctx context.Context) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.token != "" {
		if v.now().Sub(v.solvedAt) < RecaptchaTokenTTL {
			return v.token, nil
		}
		v.token = ""
		v.logger.Info("reCAPTCHA expired")
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	_, _ = fmt.Fprint(v.out, "Paste the reCAPTCHA response token: ")
	line, err := v.in.ReadString('\n')
	token := strings.TrimSpace(line)
	if err != nil && !(errors.Is(err, io.EOF) && token != "") {
		return "", fmt.Errorf("failed to read reCAPTCHA token: %w", err)
	}
	if token == "" {
		return "", ErrMissingAppCredential
	}

	v.token = token
	v.solvedAt = v.now()
	v.logger.Info("reCAPTCHA verified")
	return token, nil
}

// Reset discards the cached token.
func (v *TerminalVerifier) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.token = ""
}
