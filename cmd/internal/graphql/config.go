package graphql

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	defaultMaxBodyBytes = 1 << 20
	defaultTimeout      = 30 * time.Second
)

// Config covers the unary proxy and the client config route.
type Config struct {
	BackendURL string `env:"GRAPHQL_BACKEND_URL"`
	APIKey     string `env:"X_API_KEY"`

	// ClientAPIKey is handed to authenticated browsers by /api/config.
	ClientAPIKey string `env:"GRAPHQL_API_KEY"`

	MaxBodyBytes int64         `env:"GRAPHQL_MAX_BODY_BYTES" envDefault:"1048576"`
	Timeout      time.Duration `env:"GRAPHQL_TIMEOUT" envDefault:"30s"`
}

func DefaultConfig() Config {
	return Config{MaxBodyBytes: defaultMaxBodyBytes, Timeout: defaultTimeout}
}

// Enabled reports whether requests can be proxied at all.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.BackendURL) != "" && c.APIKey != ""
}

// Validate rejects a backend URL that can never be dialed. Missing values are
// not errors; the handlers answer 500 for them.
func (c Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("graphql: negative GRAPHQL_TIMEOUT")
	}
	raw := strings.TrimSpace(c.BackendURL)
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("graphql: GRAPHQL_BACKEND_URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("graphql: GRAPHQL_BACKEND_URL must be an absolute http(s) URL")
	}
	return nil
}
