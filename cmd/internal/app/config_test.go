package app

import (
	"errors"
	"testing"
	"time"
)

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := parseConfig()
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}

	if cfg.Port != 3000 {
		t.Fatalf("port=%d want=3000", cfg.Port)
	}
	if cfg.ListenAddr() != ":3000" {
		t.Fatalf("listen addr=%q", cfg.ListenAddr())
	}
	if cfg.WriteTimeout != 0 {
		t.Fatalf("write timeout must default to 0, got %v", cfg.WriteTimeout)
	}
	if cfg.Relay.DialTimeout != 10*time.Second {
		t.Fatalf("dial timeout=%v", cfg.Relay.DialTimeout)
	}
	if cfg.Relay.CloseTimeout != time.Second {
		t.Fatalf("close timeout=%v", cfg.Relay.CloseTimeout)
	}
	if cfg.Relay.MaxMessageBytes != 16<<20 {
		t.Fatalf("max message bytes=%d", cfg.Relay.MaxMessageBytes)
	}
	if cfg.Gate.Realm != "IOTA Gas Station" || cfg.Gate.CookieName != "auth_token" {
		t.Fatalf("gate defaults: %+v", cfg.Gate)
	}
	if cfg.Gate.CookieMaxAge != 7*24*time.Hour {
		t.Fatalf("cookie max age=%v", cfg.Gate.CookieMaxAge)
	}
	if cfg.Gate.CookieSecure {
		t.Fatalf("cookie must not be Secure outside production")
	}
	if cfg.GraphQL.MaxBodyBytes != 1<<20 {
		t.Fatalf("graphql body limit=%d", cfg.GraphQL.MaxBodyBytes)
	}
}

func TestParseConfig_FromEnv(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("NODE_ENV", "production")
	t.Setenv("GRAPHQL_BACKEND_WS_URL", "wss://api.example.com/graphql")
	t.Setenv("GRAPHQL_BACKEND_URL", "https://api.example.com/graphql")
	t.Setenv("X_API_KEY", "secret")
	t.Setenv("GRAPHQL_API_KEY", "public")
	t.Setenv("AUTH_PASSWORD", "letmein")
	t.Setenv("AUTH_SKIP_PATHS", "/assets, /healthz")
	t.Setenv("BACKEND_DIAL_TIMEOUT", "0s")
	t.Setenv("RELAY_ORIGIN_PATTERNS", "app.example.com,*.example.org")
	t.Setenv("ARGON2_ITERATIONS", "4")

	cfg, err := parseConfig()
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}

	if cfg.ListenAddr() != ":8081" {
		t.Fatalf("listen addr=%q", cfg.ListenAddr())
	}
	if !cfg.Production() || !cfg.Gate.CookieSecure {
		t.Fatalf("production must set Secure cookies")
	}
	if !cfg.Relay.Enabled() || cfg.Relay.APIKey != "secret" {
		t.Fatalf("relay config: %+v", cfg.Relay)
	}
	if cfg.GraphQL.APIKey != "secret" || cfg.GraphQL.ClientAPIKey != "public" {
		t.Fatalf("graphql config: %+v", cfg.GraphQL)
	}
	if cfg.Relay.DialTimeout != 0 {
		t.Fatalf("dial timeout=%v want 0 (disabled)", cfg.Relay.DialTimeout)
	}
	if len(cfg.Relay.OriginPatterns) != 2 {
		t.Fatalf("origin patterns=%v", cfg.Relay.OriginPatterns)
	}
	if len(cfg.Gate.SkipPaths) != 2 {
		t.Fatalf("skip paths=%v", cfg.Gate.SkipPaths)
	}
	if cfg.AuthPassword != "letmein" {
		t.Fatalf("auth password not loaded")
	}
	if cfg.Password.Params.Iterations != 4 {
		t.Fatalf("argon2 iterations=%d", cfg.Password.Params.Iterations)
	}
}

func TestParseConfig_Invalid(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
	}{
		{name: "port not a number", key: "PORT", val: "http"},
		{name: "port out of range", key: "PORT", val: "70000"},
		{name: "bad duration", key: "BACKEND_DIAL_TIMEOUT", val: "soon"},
		{name: "bad relay scheme", key: "GRAPHQL_BACKEND_WS_URL", val: "ftp://api.example.com"},
		{name: "relative graphql url", key: "GRAPHQL_BACKEND_URL", val: "/graphql"},
		{name: "argon2 out of range", key: "ARGON2_ITERATIONS", val: "99"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("X_API_KEY", "secret")
			t.Setenv(tc.key, tc.val)

			_, err := parseConfig()
			if !errors.Is(err, ErrConfig) {
				t.Fatalf("expected ErrConfig, got %v", err)
			}
		})
	}
}

func TestConfig_PublicURL(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Hostname = "gas.example.com"
	cfg.Port = 8080
	if got := cfg.PublicURL(); got != "http://gas.example.com:8080" {
		t.Fatalf("PublicURL()=%q", got)
	}

	cfg.HTTPAddr = "127.0.0.1:9999"
	if got := cfg.ListenAddr(); got != "127.0.0.1:9999" {
		t.Fatalf("ListenAddr()=%q", got)
	}
}
