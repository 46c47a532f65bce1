package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/authbridge/internal/backend"
)

// recorder is an httptest handler answering each path with a canned JSON
// response and keeping the decoded request bodies.
type recorder struct {
	mu        sync.Mutex
	responses map[string]string
	status    int
	bodies    map[string][]map[string]any
}

func newRecorder(t *testing.T, status int, responses map[string]string) (*recorder, *httptest.Server) {
	t.Helper()
	r := &recorder{responses: responses, status: status, bodies: map[string][]map[string]any{}}
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return r, srv
}

func (r *recorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(req.Body).Decode(&body)

	r.mu.Lock()
	r.bodies[req.URL.Path] = append(r.bodies[req.URL.Path], body)
	resp, ok := r.responses[req.URL.Path]
	r.mu.Unlock()

	if !ok {
		http.NotFound(w, req)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(r.status)
	_, _ = w.Write([]byte(resp))
}

func (r *recorder) calls(path string) []map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bodies[path]
}

// writeConfig isolates the test from host configuration and writes a config
// file pointing at the given Identity Toolkit and backend servers.
func writeConfig(t *testing.T, toolkitURL, backendURL string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	t.Setenv("INSTRUMENTATION_ENABLED", "false")
	for _, key := range []string{"AUTHBRIDGE_FIREBASE_API_KEY", "AUTHBRIDGE_FIREBASE_ENDPOINT", "AUTHBRIDGE_BACKEND_BASE_URL"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	path := filepath.Join(dir, "authbridge.yaml")
	content := fmt.Sprintf(`firebase:
  api_key: test-key
  endpoint: %s
backend:
  base_url: %s/api/v1
logging:
  level: error
`, toolkitURL, backendURL)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersionCmd(t *testing.T) {
	stdout, _, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "authbridge version dev\n", stdout)
}

func TestSignInCmd_Args(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "no provider", args: []string{"signin"}, want: "accepts 1 arg"},
		{name: "unknown provider", args: []string{"signin", "twitter"}, want: "unknown provider"},
		{name: "phone provider", args: []string{"signin", "phone"}, want: "phone command"},
		{name: "email without password", args: []string{"signin", "email", "--email", "a@b.com"}, want: "--password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, "", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSignUpCmd_RequiresName(t *testing.T) {
	_, _, err := execute(t, "", "signup", "--email", "ada@example.com", "--password", "secret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"name"`)
}

func TestSignInCmd_Email(t *testing.T) {
	toolkit, toolkitSrv := newRecorder(t, http.StatusOK, map[string]string{
		"/verifyPassword": `{"localId":"u1","email":"a@b.com","idToken":"id-1","refreshToken":"r-1","expiresIn":"3600"}`,
		"/getAccountInfo": `{"users":[{"localId":"u1","email":"a@b.com"}]}`,
	})
	api, apiSrv := newRecorder(t, http.StatusOK, map[string]string{
		"/api/v1/auths/email": `{"token":"t1"}`,
	})
	cfg := writeConfig(t, toolkitSrv.URL, apiSrv.URL)

	stdout, stderr, err := execute(t, "", "--config", cfg, "signin", "email", "--email", "a@b.com", "--password", "secret")
	require.NoError(t, err)

	var session backend.Session
	require.NoError(t, json.Unmarshal([]byte(stdout), &session))
	assert.Equal(t, "t1", session.Token())
	assert.Contains(t, stderr, "Signed in with email")

	require.Len(t, toolkit.calls("/verifyPassword"), 1)
	assert.Equal(t, "secret", toolkit.calls("/verifyPassword")[0]["password"])

	calls := api.calls("/api/v1/auths/email")
	require.Len(t, calls, 1)
	user := calls[0]["user"].(map[string]any)
	assert.Equal(t, "u1", user["uid"])
}

func TestSignInCmd_BackendFailure(t *testing.T) {
	_, toolkitSrv := newRecorder(t, http.StatusOK, map[string]string{
		"/verifyPassword": `{"localId":"u1","idToken":"id-1","expiresIn":"3600"}`,
		"/getAccountInfo": `{"users":[{"localId":"u1"}]}`,
	})
	_, apiSrv := newRecorder(t, http.StatusInternalServerError, map[string]string{
		"/api/v1/auths/email": `{"secret":"should not be shown"}`,
	})
	cfg := writeConfig(t, toolkitSrv.URL, apiSrv.URL)

	stdout, _, err := execute(t, "", "--config", cfg, "signin", "email", "--email", "a@b.com", "--password", "secret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to sign in with email")
	assert.NotContains(t, err.Error(), "should not be shown")
	assert.Empty(t, stdout)
}

func TestPhoneCmd(t *testing.T) {
	toolkit, toolkitSrv := newRecorder(t, http.StatusOK, map[string]string{
		"/sendVerificationCode": `{"sessionInfo":"session-1"}`,
		"/verifyPhoneNumber":    `{"localId":"p1","idToken":"id-p","expiresIn":"3600","phoneNumber":"+15551234567"}`,
		"/getAccountInfo":       `{"users":[{"localId":"p1","phoneNumber":"+15551234567"}]}`,
	})
	api, apiSrv := newRecorder(t, http.StatusOK, map[string]string{
		"/api/v1/auths/phone": `{"token":"phone-token"}`,
	})
	cfg := writeConfig(t, toolkitSrv.URL, apiSrv.URL)

	stdout, stderr, err := execute(t, "654321\n", "--config", cfg, "phone", "--number", "15551234567")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Enter the verification code")

	sent := toolkit.calls("/sendVerificationCode")
	require.Len(t, sent, 1)
	assert.Equal(t, "+15551234567", sent[0]["phoneNumber"])

	verified := toolkit.calls("/verifyPhoneNumber")
	require.Len(t, verified, 1)
	assert.Equal(t, "654321", verified[0]["code"])
	assert.Equal(t, "session-1", verified[0]["sessionInfo"])

	require.Len(t, api.calls("/api/v1/auths/phone"), 1)
	assert.Contains(t, stdout, "phone-token")
}

func TestResetPasswordCmd(t *testing.T) {
	toolkit, toolkitSrv := newRecorder(t, http.StatusOK, map[string]string{
		"/getOobConfirmationCode": `{"email":"ada@example.com"}`,
	})
	api, apiSrv := newRecorder(t, http.StatusOK, nil)
	cfg := writeConfig(t, toolkitSrv.URL, apiSrv.URL)

	stdout, stderr, err := execute(t, "", "--config", cfg, "reset-password", "--email", "ada@example.com")
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "ada@example.com")

	calls := toolkit.calls("/getOobConfirmationCode")
	require.Len(t, calls, 1)
	assert.Equal(t, "PASSWORD_RESET", calls[0]["requestType"])
	assert.Empty(t, api.bodies)
}

func TestSignInCmd_MissingAPIKey(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	t.Setenv("INSTRUMENTATION_ENABLED", "false")
	t.Setenv("AUTHBRIDGE_FIREBASE_API_KEY", "")
	require.NoError(t, os.Unsetenv("AUTHBRIDGE_FIREBASE_API_KEY"))

	_, _, err := execute(t, "", "signin", "google")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key")
}

func TestWriteSession(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSession(&buf, nil))
	assert.Equal(t, "{}\n", buf.String())

	buf.Reset()
	require.NoError(t, writeSession(&buf, backend.Session{"token": "t1"}))
	assert.JSONEq(t, `{"token":"t1"}`, buf.String())
}

func TestToolkitEndpoint(t *testing.T) {
	assert.Equal(t, "", toolkitEndpoint(""))
	assert.Equal(t, "http://localhost:9099/", toolkitEndpoint("http://localhost:9099"))
	assert.Equal(t, "http://localhost:9099/", toolkitEndpoint("http://localhost:9099/"))
}
