package kayannotes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/getkayan/kayan-notes/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin-password"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		AppName:           "notes-backend",
		AppVersion:        "test",
		GlobalPrefix:      "api",
		DBType:            "sqlite",
		DSN:               filepath.Join(t.TempDir(), "notes.db"),
		JWTSecret:         "test-secret",
		JWTExpiresIn:      time.Hour,
		JWTIssuer:         "notes-backend",
		JWTAudience:       "notes-app",
		BcryptRounds:      bcrypt.MinCost,
		CORSOrigin:        "*",
		RateLimitTTL:      time.Minute,
		RateLimitLimit:    100,
		LoginRateLimit:    5,
		LoginRateWindow:   time.Minute,
		SAUser:            adminEmail,
		SAPassword:        adminPassword,
		PolicyCombinator:  "first_match",
		PublicBaseURL:     "http://localhost:3000/api",
		Environment:       "test",
		TraceSamplingRate: 1,
		MetricsEnabled:    true,
	}
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	app, err := New(context.Background(), cfg, nil, Options{Registry: prometheus.NewRegistry()})
	require.NoError(t, err)
	t.Cleanup(func() { app.Shutdown(context.Background()) })
	return app
}

func serve(app *App, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Echo.ServeHTTP(rec, req)
	return rec
}

func loginAdmin(t *testing.T, app *App) string {
	t.Helper()
	rec := serve(app, http.MethodPost, "/api/auth/login", "", map[string]string{"email": adminEmail, "password": adminPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func TestNewServesAPI(t *testing.T) {
	app := newTestApp(t, testConfig(t))

	assert.Equal(t, http.StatusOK, serve(app, http.MethodGet, "/healthz", "", nil).Code)
	rec := serve(app, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database"`)

	token := loginAdmin(t, app)
	rec = serve(app, http.MethodPost, "/api/notes", token, map[string]string{"title": "First", "description": "hello world"})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, http.StatusOK, serve(app, http.MethodGet, "/api/admin/notes", token, nil).Code)

	rec = serve(app, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "notes_policy_decisions_ratio_total")
	assert.Contains(t, body, "notes_requests_total{")
	assert.NotContains(t, body, "notes_echo_")
}

func TestNewSeedsAdminOnce(t *testing.T) {
	cfg := testConfig(t)
	first := newTestApp(t, cfg)
	require.NoError(t, first.Shutdown(context.Background()))

	cfg.SAPassword = "another-password"
	second := newTestApp(t, cfg)
	loginAdmin(t, second) // original password still valid
}

func TestPolicyFileWithDenyOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policies.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
policies:
  - id: admin-notes-deny-seed-admin
    resource: admin_notes
    action: list
    effect: deny
    conditions:
      - attribute: user.email
        operator: equals
        value: admin@example.com
`), 0o600))

	cfg := testConfig(t)
	cfg.PolicyFile = path
	cfg.PolicyCombinator = "deny_overrides"
	app := newTestApp(t, cfg)

	token := loginAdmin(t, app)
	assert.Equal(t, http.StatusForbidden, serve(app, http.MethodGet, "/api/admin/notes", token, nil).Code)
	assert.Equal(t, http.StatusOK, serve(app, http.MethodGet, "/api/users", token, nil).Code)
}

func TestNewRejectsBadPolicyConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.PolicyCombinator = "most_specific"
	_, err := New(context.Background(), cfg, nil, Options{Registry: prometheus.NewRegistry()})
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.PolicyFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = New(context.Background(), cfg, nil, Options{Registry: prometheus.NewRegistry()})
	assert.Error(t, err)
}

func TestBodyLimit(t *testing.T) {
	app := newTestApp(t, testConfig(t))
	token := loginAdmin(t, app)

	big := map[string]string{"title": "Big", "description": strings.Repeat("x", 2<<20)}
	rec := serve(app, http.MethodPost, "/api/notes", token, big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, rec.Body.String())
}

func TestGlobalRateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimitLimit = 2
	app := newTestApp(t, cfg)

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, serve(app, http.MethodGet, "/api/public/health", "", nil).Code)
	}
	rec := serve(app, http.MethodGet, "/api/public/health", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, serve(app, http.MethodGet, "/healthz", "", nil).Code, "probes are outside the API prefix")
}

func TestSplitOrigins(t *testing.T) {
	assert.Equal(t, []string{"*"}, splitOrigins(""))
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, splitOrigins("https://a.example, https://b.example"))
}
