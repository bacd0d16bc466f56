package config

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-at-least-16-chars"

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{"JWT_SECRET": testSecret})
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "data/ysws.db", cfg.DBPath)
	assert.Equal(t, int32(10), cfg.DBMaxConns)
	assert.Equal(t, 30*time.Minute, cfg.DBMaxConnLifetime)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"password"}, cfg.AuthProviders)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, "http://localhost:8080/auth/github/callback", cfg.GitHubCallbackURL)
	assert.True(t, cfg.ProviderEnabled("password"))
	assert.False(t, cfg.ProviderEnabled("github"))
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"PORT":                 "9090",
		"DB_DRIVER":            "Postgres",
		"DATABASE_URL":         "postgres://ysws@localhost/ysws",
		"DB_MAX_CONNS":         "4",
		"DB_MAX_CONN_LIFETIME": "5m",
		"JWT_SECRET":           testSecret,
		"TOKEN_TTL":            "90m",
		"AUTH_PROVIDERS":       "password, GitHub",
		"GITHUB_CLIENT_ID":     "id",
		"GITHUB_CLIENT_SECRET": "secret",
		"COOKIE_SECURE":        "true",
		"LOG_LEVEL":            "debug",
		"LOG_FORMAT":           "json",
	})
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, 90*time.Minute, cfg.TokenTTL)
	assert.Equal(t, int32(4), cfg.DBMaxConns)
	assert.Equal(t, 5*time.Minute, cfg.DBMaxConnLifetime)
	assert.Equal(t, []string{"password", "github"}, cfg.AuthProviders)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, "http://localhost:9090/auth/github/callback", cfg.GitHubCallbackURL)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		wantErr string
	}{
		{"missing secret", map[string]string{}, "JWT_SECRET"},
		{"short secret", map[string]string{"JWT_SECRET": "short"}, "at least 16"},
		{"bad port", map[string]string{"JWT_SECRET": testSecret, "PORT": "http"}, "parse env"},
		{"bad ttl", map[string]string{"JWT_SECRET": testSecret, "TOKEN_TTL": "forever"}, "parse env"},
		{"postgres without url", map[string]string{"JWT_SECRET": testSecret, "DB_DRIVER": "postgres"}, "DATABASE_URL"},
		{"postgres empty pool", map[string]string{"JWT_SECRET": testSecret, "DB_DRIVER": "postgres", "DATABASE_URL": "postgres://localhost/ysws", "DB_MAX_CONNS": "0"}, "DB_MAX_CONNS"},
		{"postgres zero lifetime", map[string]string{"JWT_SECRET": testSecret, "DB_DRIVER": "postgres", "DATABASE_URL": "postgres://localhost/ysws", "DB_MAX_CONN_LIFETIME": "0s"}, "DB_MAX_CONN_LIFETIME"},
		{"unknown driver", map[string]string{"JWT_SECRET": testSecret, "DB_DRIVER": "mysql"}, "DB_DRIVER"},
		{"github without creds", map[string]string{"JWT_SECRET": testSecret, "AUTH_PROVIDERS": "github"}, "GITHUB_CLIENT_ID"},
		{"unknown provider", map[string]string{"JWT_SECRET": testSecret, "AUTH_PROVIDERS": "password,saml"}, "saml"},
		{"no providers", map[string]string{"JWT_SECRET": testSecret, "AUTH_PROVIDERS": " , "}, "AUTH_PROVIDERS"},
		{"bad log level", map[string]string{"JWT_SECRET": testSecret, "LOG_LEVEL": "loud"}, "LOG_LEVEL"},
		{"bad log format", map[string]string{"JWT_SECRET": testSecret, "LOG_FORMAT": "xml"}, "LOG_FORMAT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(tt.vars)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_ReadsProcessEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("PORT", "7070")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Port)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	cfg := Config{LogLevel: "warn", LogFormat: "json"}
	logger := cfg.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.HasPrefix(out, "{"), "expected JSON output, got %q", out)
	assert.Contains(t, out, `"k":"v"`)
}
