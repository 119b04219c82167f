// ABOUTME: Configuration loader for the web front-end server
// ABOUTME: Loads .env then environment variables with defaults and validates them

package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// DefaultBackendURL is used when neither API_URL nor NEXT_PUBLIC_API_URL is set.
const DefaultBackendURL = "http://localhost:8000"

type Config struct {
	// Server
	Port    string `env:"PORT, default=3000"`
	AppEnv  string `env:"APP_ENV, default=development"` // "production" enables Secure cookies
	NodeEnv string `env:"NODE_ENV"`                     // honoured for deployments that only set NODE_ENV

	// Backend API. APIURL is server-only; PublicAPIURL is the client-exposed fallback.
	APIURL       string `env:"API_URL"`
	PublicAPIURL string `env:"NEXT_PUBLIC_API_URL"`

	// Rate Limiting
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED, default=true"`
	RateLimitAuth    int  `env:"RATE_LIMIT_AUTH, default=5"`     // per minute, login/register
	RateLimitRefresh int  `env:"RATE_LIMIT_REFRESH, default=10"` // per minute, refresh
	RateLimitDefault int  `env:"RATE_LIMIT_DEFAULT, default=100"`

	HealthCacheTTL time.Duration `env:"HEALTH_CACHE_TTL, default=10s"`
	ProxyTimeout   time.Duration `env:"PROXY_TIMEOUT, default=60s"`
	ProxyMaxBody   int64         `env:"PROXY_MAX_BODY_BYTES, default=104857600"` // per proxied request or response
}

// BackendURL returns the backend base URL without a trailing slash.
func (c *Config) BackendURL() string {
	u := c.APIURL
	if u == "" {
		u = c.PublicAPIURL
	}
	if u == "" {
		u = DefaultBackendURL
	}
	return strings.TrimRight(u, "/")
}

// IsProduction reports whether cookies must carry the Secure attribute.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production") || strings.EqualFold(c.NodeEnv, "production")
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	return LoadContext(context.Background(), ".env")
}

// LoadContext is Load with an explicit context and dotenv file list.
// Variables already present in the environment win over dotenv values.
func LoadContext(ctx context.Context, dotenvFiles ...string) (*Config, error) {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.BackendURL())
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend URL %q must include scheme and host", c.BackendURL())
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend URL scheme must be http or https, got %q", u.Scheme)
	}

	for _, rl := range []struct {
		name  string
		value int
	}{
		{"RATE_LIMIT_AUTH", c.RateLimitAuth},
		{"RATE_LIMIT_REFRESH", c.RateLimitRefresh},
		{"RATE_LIMIT_DEFAULT", c.RateLimitDefault},
	} {
		if rl.value < 1 || rl.value > 10000 {
			return fmt.Errorf("%s must be between 1 and 10000, got %d", rl.name, rl.value)
		}
	}

	if c.HealthCacheTTL < 0 {
		return fmt.Errorf("HEALTH_CACHE_TTL must not be negative, got %s", c.HealthCacheTTL)
	}
	if c.ProxyTimeout <= 0 {
		return fmt.Errorf("PROXY_TIMEOUT must be positive, got %s", c.ProxyTimeout)
	}
	if c.ProxyMaxBody <= 0 {
		return fmt.Errorf("PROXY_MAX_BODY_BYTES must be positive, got %d", c.ProxyMaxBody)
	}
	return nil
}
