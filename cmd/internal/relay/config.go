package relay

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Path is the only upgrade target the gateway serves.
const Path = "/api/graphql/ws"

const (
	defaultDialTimeout     = 10 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultCloseTimeout    = time.Second
	defaultMaxMessageBytes = 16 << 20
)

// Config is the relay section of the process configuration.
type Config struct {
	BackendURL string `env:"GRAPHQL_BACKEND_WS_URL"`
	APIKey     string `env:"X_API_KEY"`

	// DialTimeout bounds the backend handshake. Zero disables the bound.
	DialTimeout time.Duration `env:"BACKEND_DIAL_TIMEOUT" envDefault:"10s"`
	// WriteTimeout bounds each forwarded frame. Zero disables the bound.
	WriteTimeout    time.Duration `env:"RELAY_WRITE_TIMEOUT" envDefault:"10s"`
	// CloseTimeout bounds the client close handshake. A client that has not
	// answered by then has its connection dropped. Zero leaves the library's
	// own bound in place.
	CloseTimeout    time.Duration `env:"RELAY_CLOSE_TIMEOUT" envDefault:"1s"`
	MaxMessageBytes int64         `env:"RELAY_MAX_MESSAGE_BYTES" envDefault:"16777216"`

	// OriginPatterns authorizes cross-origin browser handshakes.
	// Same-host origins are always accepted.
	OriginPatterns []string `env:"RELAY_ORIGIN_PATTERNS" envSeparator:","`
}

// DefaultConfig returns a disabled relay with default limits.
func DefaultConfig() Config {
	return Config{
		DialTimeout:     defaultDialTimeout,
		WriteTimeout:    defaultWriteTimeout,
		CloseTimeout:    defaultCloseTimeout,
		MaxMessageBytes: defaultMaxMessageBytes,
	}
}

// Enabled reports whether both the backend URL and the API key are set.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.BackendURL) != "" && c.APIKey != ""
}

// Validate checks the backend URL of an enabled relay and the numeric limits.
func (c Config) Validate() error {
	if c.DialTimeout < 0 || c.WriteTimeout < 0 || c.CloseTimeout < 0 {
		return fmt.Errorf("%w: negative timeout", ErrConfig)
	}
	if c.MaxMessageBytes <= 0 {
		return fmt.Errorf("%w: RELAY_MAX_MESSAGE_BYTES must be positive", ErrConfig)
	}
	if !c.Enabled() {
		return nil
	}

	u, err := url.Parse(strings.TrimSpace(c.BackendURL))
	if err != nil {
		return fmt.Errorf("%w: GRAPHQL_BACKEND_WS_URL: %v", ErrConfig, err)
	}
	switch u.Scheme {
	case "ws", "wss", "http", "https":
	default:
		return fmt.Errorf("%w: GRAPHQL_BACKEND_WS_URL scheme %q", ErrConfig, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: GRAPHQL_BACKEND_WS_URL has no host", ErrConfig)
	}
	return nil
}

func (c Config) normalized() Config {
	c.BackendURL = strings.TrimSpace(c.BackendURL)
	if c.MaxMessageBytes <= 0 {
		c.MaxMessageBytes = defaultMaxMessageBytes
	}

	patterns := make([]string, 0, len(c.OriginPatterns))
	for _, p := range c.OriginPatterns {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}
	c.OriginPatterns = patterns
	return c
}
