package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/net/publicsuffix"

	"github.com/teemow/authbridge/internal/instrumentation"
	"github.com/teemow/authbridge/internal/logging"
)

// RequestIDHeader carries the per-attempt request ID.
const RequestIDHeader = "X-Request-ID"

// Config configures a Client.
type Config struct {
	// BaseURL is the API root, for example https://chat.example.com/api/v1.
	BaseURL string

	// HTTPClient overrides the default client. Its Jar should be set for
	// session cookies to be kept.
	HTTPClient *http.Client

	Logger  logging.Logger
	Metrics *instrumentation.Metrics
}

// Client registers authenticated identities with the backend.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  logging.Logger
	metrics *instrumentation.Metrics
}

// NewClient creates a backend client with a cookie jar and traced transport.
// No client timeout is set; deadlines come from the caller's context.
func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid backend base URL %q", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		httpClient = &http.Client{
			Jar:       jar,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	c := &Client{
		baseURL: base,
		http:    httpClient,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}
	if c.logger == nil {
		c.logger = logging.DiscardLogger()
	}
	if c.metrics == nil {
		c.metrics = &instrumentation.Metrics{}
	}
	return c, nil
}

// Endpoint returns the URL sign-ins for provider are posted to.
func (c *Client) Endpoint(provider Provider) string {
	return c.baseURL.JoinPath("auths", string(provider)).String()
}

// SignIn posts {"user": user} to /auths/{provider} and returns the decoded
// response. A non-2xx answer yields *Error.
func (c *Client) SignIn(ctx context.Context, provider Provider, user any) (Session, error) {
	if !provider.Valid() {
		return nil, fmt.Errorf("unknown provider %q", provider)
	}

	body, err := json.Marshal(Request{User: user})
	if err != nil {
		return nil, fmt.Errorf("failed to encode sign-in request: %w", err)
	}

	requestID := uuid.NewString()
	ctx, span := instrumentation.StartBackendSpan(ctx, string(provider), requestID)
	start := time.Now()

	session, status, err := c.post(ctx, provider, requestID, body)

	c.metrics.RecordBackendRequest(ctx, string(provider), status, time.Since(start))
	instrumentation.EndSpan(span, err)

	if err != nil {
		c.logger.Warn("backend sign-in failed",
			logging.Provider(string(provider)),
			logging.RequestID(requestID),
			"status_code", status,
			logging.Err(err),
		)
		return nil, err
	}

	c.logger.Debug("backend sign-in succeeded",
		logging.Provider(string(provider)),
		logging.RequestID(requestID),
	)
	return session, nil
}

func (c *Client) post(ctx context.Context, provider Provider, requestID string, body []byte) (Session, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(provider), bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build sign-in request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to sign in with %s: %w", provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, &Error{Provider: provider, StatusCode: resp.StatusCode}
	}

	session := Session{}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil && !errors.Is(err, io.EOF) {
		return nil, resp.StatusCode, fmt.Errorf("failed to decode %s sign-in response: %w", provider, err)
	}
	return session, resp.StatusCode, nil
}
