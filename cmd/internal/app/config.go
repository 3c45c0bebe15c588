package app

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"strings"
	"time"

	"gqlgate/cmd/internal/auth/gate"
	"gqlgate/cmd/internal/graphql"
	"gqlgate/cmd/internal/relay"
	"gqlgate/cmd/security/password"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrConfig wraps every configuration load failure.
var ErrConfig = errors.New("app: invalid config")

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	Port     int    `env:"PORT" envDefault:"3000"`
	Hostname string `env:"HOSTNAME" envDefault:"localhost"`
	// HTTPAddr overrides the listen address derived from PORT.
	HTTPAddr string `env:"HTTP_ADDR"`
	Env      string `env:"NODE_ENV" envDefault:"development"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	// WriteTimeout stays unset by default. Relay connections are long-lived
	// and the gateway clears deadlines before upgrading.
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"0s"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	MaxHeaderBytes  int           `env:"HTTP_MAX_HEADER_BYTES" envDefault:"1048576"`

	// MetricsAddr enables a separate Prometheus listener when set.
	MetricsAddr string `env:"METRICS_ADDR"`
	// UIUpstreamURL receives every request no other route matches.
	UIUpstreamURL string `env:"UI_UPSTREAM_URL"`

	AuthPassword     string `env:"AUTH_PASSWORD"`
	AuthPasswordHash string `env:"AUTH_PASSWORD_HASH"`
	TokenHMACKey     string `env:"TOKEN_HMAC_KEY"`

	Gate     gate.Config
	Relay    relay.Config
	GraphQL  graphql.Config
	Password password.Config
}

// DefaultConfig returns the configuration used when no variables are set.
func DefaultConfig() Config {
	return Config{
		Port:              3000,
		Hostname:          "localhost",
		Env:               "development",
		LogLevel:          "info",
		LogFormat:         "json",
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Gate:              gate.DefaultConfig(),
		Relay:             relay.DefaultConfig(),
		GraphQL:           graphql.DefaultConfig(),
		Password:          password.DefaultConfig(),
	}
}

// LoadConfig reads an optional .env file, then parses the environment on top
// of DefaultConfig. Variables already set in the environment win over .env.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, errors.Join(ErrConfig, fmt.Errorf("load .env: %w", err))
	}
	return parseConfig()
}

func parseConfig() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(ErrConfig, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	cfg.Gate.CookieSecure = cfg.Production()
	return cfg, nil
}

func (c Config) validate() error {
	if c.HTTPAddr == "" && (c.Port <= 0 || c.Port > 65535) {
		return fmt.Errorf("%w: PORT out of range: %d", ErrConfig, c.Port)
	}
	if err := c.Password.Check(); err != nil {
		return errors.Join(ErrConfig, err)
	}
	if err := c.Relay.Validate(); err != nil {
		return errors.Join(ErrConfig, err)
	}
	if err := c.GraphQL.Validate(); err != nil {
		return errors.Join(ErrConfig, err)
	}
	return nil
}

// Production reports whether NODE_ENV selects production behavior.
func (c Config) Production() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "production")
}

// ListenAddr is HTTP_ADDR when set, otherwise all interfaces on PORT.
func (c Config) ListenAddr() string {
	if c.HTTPAddr != "" {
		return c.HTTPAddr
	}
	return net.JoinHostPort("", strconv.Itoa(c.Port))
}

// PublicURL is the address printed in the startup log.
func (c Config) PublicURL() string {
	host := c.Hostname
	if host == "" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(c.Port))
}
