// Package config loads the client configuration from the environment.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
)

// Config is the environment-driven configuration for the auth client.
type Config struct {
	// APIBaseURL is where the authentication backend lives.
	APIBaseURL string `env:"AUTH_API_BASE_URL" envDefault:"http://localhost:8080"`

	// RequestTimeout is the network-level timeout on every backend call.
	RequestTimeout time.Duration `env:"AUTH_REQUEST_TIMEOUT" envDefault:"10s"`

	// StateDir holds the durable session projection. Defaults to an
	// app-specific directory under the user config dir.
	StateDir string `env:"AUTH_STATE_DIR"`

	// TokenTTL is the expiry written on the durable credential record.
	TokenTTL time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"168h"`

	// Google OAuth settings for building the consent URL. The code-for-token
	// exchange happens backend-side, so no client secret is needed here.
	GoogleClientID    string `env:"AUTH_GOOGLE_CLIENT_ID"`
	GoogleRedirectURL string `env:"AUTH_GOOGLE_REDIRECT_URL"`

	// LogLevel is a zerolog level string (debug, info, warn, error).
	LogLevel string `env:"AUTH_LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment into a Config and fills derived defaults.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "[config.Load] parsing environment")
	}

	if cfg.StateDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return Config{}, errors.Wrap(err, "[config.Load] resolving user config dir")
		}
		cfg.StateDir = filepath.Join(base, "authflow")
	}
	return cfg, nil
}
