package gate

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"gqlgate/cmd/internal/auth/session"
	"gqlgate/cmd/internal/metrics"
	"gqlgate/cmd/security/password"
)

// Verifier checks Basic credentials. *password.Verifier implements it.
type Verifier interface {
	Verify(username, password string) (bool, error)
}

// Issuer mints a token that the store recognizes before it is returned.
// *session.Issuer implements it.
type Issuer interface {
	Issue() (string, error)
}

// Gate is the auth middleware. It is safe for concurrent use.
type Gate struct {
	log *slog.Logger
	cfg Config

	store    session.Store
	issuer   Issuer
	verifier Verifier
	metrics  *metrics.Metrics

	unavailableOnce sync.Once
}

// New constructs a Gate. A nil logger falls back to slog.Default.
func New(log *slog.Logger, cfg Config, store session.Store, issuer Issuer, verifier Verifier, m *metrics.Metrics) (*Gate, error) {
	if store == nil || issuer == nil {
		return nil, errors.New("gate: store and issuer are required")
	}
	if verifier == nil {
		return nil, errors.New("gate: nil verifier")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Gate{
		log:      log,
		cfg:      cfg.normalized(),
		store:    store,
		issuer:   issuer,
		verifier: verifier,
		metrics:  m,
	}, nil
}

// Middleware wraps next with the gate.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.skipped(r.URL.Path) {
			g.metrics.AuthDecision(metrics.AuthSkipped)
			next.ServeHTTP(w, r)
			return
		}

		if g.hasSession(r) {
			g.metrics.AuthDecision(metrics.AuthSession)
			next.ServeHTTP(w, r)
			return
		}

		ok, err := g.checkBasic(r)
		if err != nil {
			if errors.Is(err, password.ErrVerificationUnavailable) {
				g.unavailableOnce.Do(func() {
					g.log.Error("auth.verify.unavailable", "hint", "set AUTH_PASSWORD or AUTH_PASSWORD_HASH")
				})
				g.metrics.AuthDecision(metrics.AuthUnavailable)
			} else {
				g.log.Warn("auth.verify.fail", "err", err, "path", r.URL.Path)
				g.metrics.AuthDecision(metrics.AuthDenied)
			}
			g.requestAuthentication(w)
			return
		}
		if !ok {
			g.metrics.AuthDecision(metrics.AuthDenied)
			g.requestAuthentication(w)
			return
		}

		tok, err := g.issuer.Issue()
		if err != nil {
			g.log.Error("auth.token.issue.fail", "err", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		http.SetCookie(w, g.cfg.cookie(tok))

		g.metrics.TokenIssued()
		g.metrics.AuthDecision(metrics.AuthCredentials)
		g.log.Info("auth.session.issued", "remote", r.RemoteAddr, "path", r.URL.Path)

		next.ServeHTTP(w, r)
	})
}

func (g *Gate) skipped(path string) bool {
	for _, p := range g.cfg.SkipPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func (g *Gate) hasSession(r *http.Request) bool {
	c, err := r.Cookie(g.cfg.CookieName)
	if err != nil || c.Value == "" {
		return false
	}
	return g.store.Contains(c.Value)
}

// checkBasic returns (false, nil) for a missing or malformed header.
func (g *Gate) checkBasic(r *http.Request) (bool, error) {
	user, pass, ok := r.BasicAuth()
	if !ok {
		return false, nil
	}
	return g.verifier.Verify(user, pass)
}

func (g *Gate) requestAuthentication(w http.ResponseWriter) {
	h := w.Header()
	h.Set("WWW-Authenticate", g.cfg.challenge())
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte("Authentication required"))
}
