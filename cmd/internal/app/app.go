// Package app wires the gqlgate runtime: config, logging, the auth gate,
// the relay gateway, the unary proxy, and the HTTP servers.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"gqlgate/cmd/internal/auth/gate"
	"gqlgate/cmd/internal/auth/session"
	"gqlgate/cmd/internal/graphql"
	"gqlgate/cmd/internal/metrics"
	"gqlgate/cmd/internal/relay"
	"gqlgate/cmd/security/password"
	"gqlgate/cmd/security/token"
)

// App owns the session store, the gateway, and the HTTP server wiring.
type App struct {
	cfg Config
	log Logger

	metrics *metrics.Metrics
	store   *session.MemoryStore
	gate    *gate.Gate
	gateway *relay.Gateway
	proxy   *graphql.Proxy
	ui      http.Handler
}

// New constructs a fully wired App instance from config and logger.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	hasher, err := token.NewHasher(cfg.TokenHMACKey)
	if err != nil {
		return nil, fmt.Errorf("TOKEN_HMAC_KEY: %w", err)
	}
	store := session.NewMemoryStore(hasher)

	issuer, err := session.NewIssuer(store, session.DefaultTokenBytes)
	if err != nil {
		return nil, err
	}

	verifier, err := password.NewVerifier(cfg.AuthPassword, cfg.AuthPasswordHash, cfg.Password)
	if err != nil {
		return nil, err
	}
	if !verifier.Available() {
		log.Warn("auth.disabled", "hint", "set AUTH_PASSWORD or AUTH_PASSWORD_HASH; every request will be challenged")
	}

	m := metrics.New()
	m.RegisterSessionCount(store.Len)

	g, err := gate.New(log, cfg.Gate, store, issuer, verifier, m)
	if err != nil {
		return nil, err
	}

	gw, err := relay.NewGateway(log, cfg.Relay, m)
	if err != nil {
		return nil, err
	}

	proxy, err := graphql.NewProxy(log, cfg.GraphQL, nil, m)
	if err != nil {
		return nil, err
	}

	ui, err := newUIProxy(log, cfg.UIUpstreamURL)
	if err != nil {
		return nil, err
	}

	log.Info("app.configured",
		"env", cfg.Env,
		"relay_enabled", gw.Enabled(),
		"graphql_proxy_enabled", proxy.Enabled(),
		"password_hashed", verifier.Hashed(),
		"token_hmac", hasher.Keyed(),
		"ui_upstream", ui != nil,
	)

	return &App{
		cfg:     cfg,
		log:     log,
		metrics: m,
		store:   store,
		gate:    g,
		gateway: gw,
		proxy:   proxy,
		ui:      ui,
	}, nil
}

// Run binds the listeners and serves until ctx is cancelled or a server fails.
// A bind failure is returned immediately.
func (a *App) Run(ctx context.Context) error {
	addr := a.cfg.ListenAddr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		a.log.Error("server.listen.fail", "addr", addr, "err", err)
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       a.cfg.ReadTimeout,
		WriteTimeout:      a.cfg.WriteTimeout,
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	errCh := make(chan error, 2)

	var metricsSrv *http.Server
	if a.cfg.MetricsAddr != "" {
		mln, err := net.Listen("tcp", a.cfg.MetricsAddr)
		if err != nil {
			_ = ln.Close()
			a.log.Error("metrics.listen.fail", "addr", a.cfg.MetricsAddr, "err", err)
			return fmt.Errorf("listen %s: %w", a.cfg.MetricsAddr, err)
		}
		metricsSrv = &http.Server{
			Handler:           a.metricsHandler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		a.log.Info("metrics.start", "addr", mln.Addr().String())
		go func() {
			if err := metricsSrv.Serve(mln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	a.log.Info("server.start", "addr", ln.Addr().String(), "url", a.cfg.PublicURL())
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case runErr = <-errCh:
		a.log.Error("server.fail", "err", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), nonZeroDuration(a.cfg.ShutdownTimeout, 10*time.Second))
	defer cancel()

	// Hijacked relay connections are invisible to Shutdown.
	if err := a.gateway.Close(shutdownCtx); err != nil {
		a.log.Warn("relay.close.fail", "err", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		runErr = errors.Join(runErr, err)
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}

	a.log.Info("server.stopped", "session_tokens", a.store.Len())
	return runErr
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
