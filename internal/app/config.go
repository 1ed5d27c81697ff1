package app

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ErrConfiguration reports missing or malformed runtime configuration.
var ErrConfiguration = errors.New("app: invalid configuration")

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	SessionSecret string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"168h"`
	SessionCookie string        `envconfig:"SESSION_COOKIE" default:"portal_session"`

	AuthTokenSecret string `envconfig:"AUTH_TOKEN_SECRET"`
	AuthTokenCookie string `envconfig:"AUTH_TOKEN_COOKIE" default:"portal-access-token"`
}

// LoadConfig reads configuration from environment variables. A .env file in
// the working directory is applied first when present; real environment
// variables take precedence over it.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: read .env: %v", ErrConfiguration, err)
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, fmt.Errorf("%w: DATABASE_URL must be provided", ErrConfiguration)
	}
	if strings.TrimSpace(cfg.SessionSecret) == "" {
		return nil, fmt.Errorf("%w: SESSION_SECRET must be provided", ErrConfiguration)
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("%w: SESSION_TTL must be positive", ErrConfiguration)
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// TokenResolverEnabled reports whether provider access-token cookies are accepted.
func (c *Config) TokenResolverEnabled() bool {
	return c != nil && c.AuthTokenSecret != ""
}
