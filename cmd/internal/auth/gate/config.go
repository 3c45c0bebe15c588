package gate

import (
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultCookieName is the session cookie read and written by the gate.
	DefaultCookieName = "auth_token"
	// DefaultRealm is the Basic challenge realm.
	DefaultRealm = "IOTA Gas Station"
	// DefaultCookieMaxAge is how long browsers keep the session cookie.
	DefaultCookieMaxAge = 7 * 24 * time.Hour
)

// DefaultSkipPaths are path prefixes served without authentication.
var DefaultSkipPaths = []string{
	"/_next/static",
	"/_next/image",
	"/favicon.ico",
	"/icon.svg",
	"/healthz",
	"/readyz",
}

// Config controls cookie attributes, the challenge realm, and the allow-list.
type Config struct {
	CookieName   string        `env:"AUTH_COOKIE_NAME" envDefault:"auth_token"`
	CookieMaxAge time.Duration `env:"AUTH_COOKIE_MAX_AGE" envDefault:"168h"`
	Realm        string        `env:"AUTH_REALM" envDefault:"IOTA Gas Station"`
	SkipPaths    []string      `env:"AUTH_SKIP_PATHS" envSeparator:"," envDefault:"/_next/static,/_next/image,/favicon.ico,/icon.svg,/healthz,/readyz"`

	// CookieSecure sets the Secure attribute. The app derives it from NODE_ENV.
	CookieSecure bool
}

// DefaultConfig returns the gate defaults for a non-production environment.
func DefaultConfig() Config {
	return Config{
		CookieName:   DefaultCookieName,
		CookieMaxAge: DefaultCookieMaxAge,
		Realm:        DefaultRealm,
		SkipPaths:    append([]string(nil), DefaultSkipPaths...),
	}
}

func (c Config) normalized() Config {
	if strings.TrimSpace(c.CookieName) == "" {
		c.CookieName = DefaultCookieName
	}
	if c.CookieMaxAge <= 0 {
		c.CookieMaxAge = DefaultCookieMaxAge
	}
	// Quotes would break the challenge header.
	c.Realm = strings.ReplaceAll(strings.TrimSpace(c.Realm), `"`, "")
	if c.Realm == "" {
		c.Realm = DefaultRealm
	}

	skip := make([]string, 0, len(c.SkipPaths))
	for _, p := range c.SkipPaths {
		if p = strings.TrimSpace(p); p != "" {
			skip = append(skip, p)
		}
	}
	c.SkipPaths = skip
	return c
}

func (c Config) cookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     c.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(c.CookieMaxAge / time.Second),
		HttpOnly: true,
		Secure:   c.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (c Config) challenge() string {
	return `Basic realm="` + c.Realm + `", charset="UTF-8"`
}
