package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeToolkit is an Identity Toolkit stand-in keyed by method name
// (verifyPassword, getAccountInfo, ...).
type fakeToolkit struct {
	t        *testing.T
	mu       sync.Mutex
	handlers map[string]func(body map[string]any) (int, any)
	calls    []fakeCall
}

type fakeCall struct {
	Method string
	Key    string
	Body   map[string]any
}

func newFakeToolkit(t *testing.T) (*fakeToolkit, *httptest.Server) {
	t.Helper()
	f := &fakeToolkit{t: t, handlers: map[string]func(map[string]any) (int, any){}}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeToolkit) on(method string, h func(body map[string]any) (int, any)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method] = h
}

func (f *fakeToolkit) respond(method string, resp any) {
	f.on(method, func(map[string]any) (int, any) { return http.StatusOK, resp })
}

func (f *fakeToolkit) fail(method, message string) {
	f.on(method, func(map[string]any) (int, any) {
		return http.StatusBadRequest, map[string]any{
			"error": map[string]any{
				"code":    400,
				"message": message,
				"errors":  []any{map[string]any{"message": message, "domain": "global", "reason": "invalid"}},
			},
		}
	})
}

func (f *fakeToolkit) callsTo(method string) []fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []fakeCall
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeToolkit) serve(w http.ResponseWriter, r *http.Request) {
	method := strings.TrimPrefix(r.URL.Path, "/")

	body := map[string]any{}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{Method: method, Key: r.URL.Query().Get("key"), Body: body})
	h, ok := f.handlers[method]
	f.mu.Unlock()

	if !ok {
		f.t.Errorf("unexpected Identity Toolkit call %q", method)
		w.WriteHeader(http.StatusNotFound)
		return
	}

	status, resp := h(body)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// accountInfo is a getAccountInfo response for a single user.
func accountInfo(user map[string]any) map[string]any {
	return map[string]any{
		"kind":  "identitytoolkit#GetAccountInfoResponse",
		"users": []any{user},
	}
}

func newTestClient(t *testing.T, srv *httptest.Server, cfg Config) *Client {
	t.Helper()
	cfg.APIKey = "test-key"
	cfg.Endpoint = srv.URL + "/"
	c, err := NewClient(context.Background(), cfg)
	require.NoError(t, err)
	return c
}
