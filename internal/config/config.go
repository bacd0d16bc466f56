// Package config reads server settings from the environment.
//
// A .env file in the working directory is loaded first when present; real
// environment variables always win over it.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/sakif/ysws-hunt/internal/auth"
)

// Supported DB_DRIVER values.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Port int `env:"PORT" envDefault:"8080"`

	DBDriver    string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBPath      string `env:"DB_PATH" envDefault:"data/ysws.db"`
	DatabaseURL string `env:"DATABASE_URL"`
	DBMaxConns  int32  `env:"DB_MAX_CONNS" envDefault:"10"`

	DBMaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"30m"`

	JWTSecret    string        `env:"JWT_SECRET,required,notEmpty"`
	TokenTTL     time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	CookieSecure bool          `env:"COOKIE_SECURE" envDefault:"false"`

	AuthProviders      []string `env:"AUTH_PROVIDERS" envDefault:"password" envSeparator:","`
	GitHubClientID     string   `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string   `env:"GITHUB_CLIENT_SECRET"`
	GitHubCallbackURL  string   `env:"GITHUB_CALLBACK_URL"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads .env (if any) and the process environment, then validates.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: loading .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	return finish(cfg)
}

// LoadFrom parses configuration from vars instead of the process
// environment. Tests use it.
func LoadFrom(vars map[string]string) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Environment: vars})
	if err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	return finish(cfg)
}

func finish(cfg Config) (Config, error) {
	for i, p := range cfg.AuthProviders {
		cfg.AuthProviders[i] = strings.ToLower(strings.TrimSpace(p))
	}
	cfg.AuthProviders = slices.DeleteFunc(cfg.AuthProviders, func(p string) bool { return p == "" })
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))

	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}

	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH is required for sqlite"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for postgres"))
		}
		if c.DBMaxConns <= 0 {
			errs = append(errs, errors.New("DB_MAX_CONNS must be positive"))
		}
		if c.DBMaxConnLifetime <= 0 {
			errs = append(errs, errors.New("DB_MAX_CONN_LIFETIME must be positive"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver))
	}

	if len(c.JWTSecret) < auth.MinSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters", auth.MinSecretLength))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}

	if len(c.AuthProviders) == 0 {
		errs = append(errs, errors.New("AUTH_PROVIDERS must name at least one provider"))
	}
	for _, p := range c.AuthProviders {
		switch p {
		case auth.ProviderPassword:
		case auth.ProviderGitHub:
			if c.GitHubClientID == "" || c.GitHubClientSecret == "" {
				errs = append(errs, errors.New("GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET are required when github sign-in is enabled"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown auth provider %q", p))
		}
	}

	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ProviderEnabled reports whether name is listed in AUTH_PROVIDERS.
func (c Config) ProviderEnabled(name string) bool {
	return slices.Contains(c.AuthProviders, name)
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}
