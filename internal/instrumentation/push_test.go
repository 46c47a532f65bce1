package instrumentation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type pushRecorder struct {
	mu      sync.Mutex
	methods []string
	paths   []string
}

func (r *pushRecorder) handler(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		r.mu.Lock()
		r.methods = append(r.methods, req.Method)
		r.paths = append(r.paths, req.URL.Path)
		r.mu.Unlock()
		w.WriteHeader(status)
	}
}

func (r *pushRecorder) calls() ([]string, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.methods...), append([]string(nil), r.paths...)
}

func newPushProvider(t *testing.T, ctx context.Context, url string) *Provider {
	t.Helper()
	provider, err := NewProvider(ctx, Config{
		ServiceName:       "authbridge",
		ServiceVersion:    "test",
		ServiceInstanceID: "cli-1",
		Enabled:           true,
		MetricsExporter:   ExporterPrometheus,
		TracingExporter:   ExporterNone,
		PushgatewayURL:    url,
		PushJobName:       "authbridge-cli",
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return provider
}

func TestProvider_Push(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rec := &pushRecorder{}
	srv := httptest.NewServer(rec.handler(http.StatusOK))
	defer srv.Close()

	provider := newPushProvider(t, ctx, srv.URL)
	provider.Metrics().RecordBackendRequest(ctx, "google", http.StatusOK, 40*time.Millisecond)

	if err := provider.Push(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	methods, paths := rec.calls()
	if len(paths) != 1 {
		t.Fatalf("expected 1 push request, got %d", len(paths))
	}
	if methods[0] != http.MethodPost {
		t.Errorf("expected POST, got %s", methods[0])
	}
	if paths[0] != "/metrics/job/authbridge-cli/instance/cli-1" {
		t.Errorf("unexpected push path %q", paths[0])
	}
}

func TestProvider_Push_GatewayError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rec := &pushRecorder{}
	srv := httptest.NewServer(rec.handler(http.StatusInternalServerError))
	defer srv.Close()

	provider := newPushProvider(t, ctx, srv.URL)

	if err := provider.Push(ctx); err == nil {
		t.Error("expected error when pushgateway rejects the push")
	}
}

func TestProvider_Push_NoGateway(t *testing.T) {
	ctx := context.Background()

	provider, err := NewProvider(ctx, Config{
		ServiceName:     "authbridge",
		Enabled:         true,
		MetricsExporter: ExporterPrometheus,
		TracingExporter: ExporterNone,
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	defer func() { _ = provider.Shutdown(ctx) }()

	if err := provider.Push(ctx); err != nil {
		t.Errorf("expected push without gateway to be a no-op, got %v", err)
	}
}

func TestProvider_Push_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{
		Enabled:        false,
		PushgatewayURL: "http://127.0.0.1:1",
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	if err := provider.Push(context.Background()); err != nil {
		t.Errorf("expected disabled push to be a no-op, got %v", err)
	}
}
