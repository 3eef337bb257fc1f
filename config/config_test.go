package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "api", cfg.GlobalPrefix)
	assert.Equal(t, "sqlite", cfg.DBType)
	assert.Equal(t, time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, "notes-backend", cfg.JWTIssuer)
	assert.Equal(t, "notes-app", cfg.JWTAudience)
	assert.Equal(t, 12, cfg.BcryptRounds)
	assert.Equal(t, time.Minute, cfg.RateLimitTTL)
	assert.Equal(t, 100, cfg.RateLimitLimit)
	assert.Equal(t, 5, cfg.LoginRateLimit)
	assert.Equal(t, 15*time.Minute, cfg.LoginRateWindow)
	assert.Equal(t, "first_match", cfg.PolicyCombinator)
	assert.Equal(t, "http://localhost:3000/api", cfg.PublicBaseURL)
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, 1.0, cfg.TraceSamplingRate)
}

func TestLoadConfigFromEnv(t *testing.T) {
	viper.Reset()
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "8081")
	t.Setenv("GLOBAL_PREFIX", "/v1/")
	t.Setenv("JWT_EXPIRES_IN", "15m")
	t.Setenv("POLICY_COMBINATOR", "deny_overrides")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, "v1", cfg.GlobalPrefix)
	assert.Equal(t, 15*time.Minute, cfg.JWTExpiresIn)
	assert.Equal(t, "deny_overrides", cfg.PolicyCombinator)
	assert.Equal(t, "http://localhost:8081/v1", cfg.PublicBaseURL)
}

func TestValidate(t *testing.T) {
	viper.Reset()
	t.Setenv("JWT_SECRET", "")
	_, err := LoadConfig()
	assert.ErrorContains(t, err, "JWT_SECRET")

	cfg := &Config{JWTSecret: "x", JWTExpiresIn: time.Hour, RateLimitLimit: 1, RateLimitTTL: time.Second, SAUser: "admin@example.com"}
	assert.ErrorContains(t, cfg.Validate(), "SA_PASSWORD")

	cfg = &Config{JWTSecret: "x", JWTExpiresIn: time.Hour, RateLimitLimit: 1, RateLimitTTL: time.Second, TraceSamplingRate: 2}
	assert.ErrorContains(t, cfg.Validate(), "TRACE_SAMPLING_RATE")
}

func TestLoadDotEnv(t *testing.T) {
	viper.Reset()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("JWT_SECRET=from-file\nNOTES_TEST_ONLY=1\n"), 0o600))
	t.Setenv("JWT_SECRET", "from-env")
	t.Cleanup(func() { os.Unsetenv("NOTES_TEST_ONLY") })

	assert.True(t, LoadDotEnv(path))
	assert.Equal(t, "1", os.Getenv("NOTES_TEST_ONLY"))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWTSecret, "existing variables win over the file")

	assert.False(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}
