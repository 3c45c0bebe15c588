// Package graphql serves the unary GraphQL proxy and the browser config route.
//
// Both handlers sit behind the auth gate. The proxy adds the backend API key
// server-side so browsers never hold it.
package graphql

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"gqlgate/cmd/internal/metrics"

	"github.com/hashicorp/go-cleanhttp"
)

// Proxy forwards POST /api/graphql to the backend with the API key attached.
type Proxy struct {
	log     *slog.Logger
	cfg     Config
	client  *http.Client
	metrics *metrics.Metrics
}

// NewProxy builds a Proxy. A nil client gets a pooled cleanhttp client
// bounded by cfg.Timeout.
func NewProxy(log *slog.Logger, cfg Config, client *http.Client, m *metrics.Metrics) (*Proxy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	cfg.BackendURL = strings.TrimSpace(cfg.BackendURL)

	if client == nil {
		client = cleanhttp.DefaultPooledClient()
		client.Timeout = cfg.Timeout
	}

	if cfg.BackendURL == "" {
		log.Warn("graphql.proxy.disabled", "hint", "set GRAPHQL_BACKEND_URL")
	} else if cfg.APIKey == "" {
		log.Warn("graphql.proxy.disabled", "hint", "set X_API_KEY")
	}

	return &Proxy{log: log, cfg: cfg, client: client, metrics: m}, nil
}

// Enabled reports whether the proxy has both a backend and a key.
func (p *Proxy) Enabled() bool { return p.cfg.Enabled() }

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		p.Forward(w, r)
	case http.MethodOptions:
		Preflight(w, r)
	default:
		w.Header().Set("Allow", "POST, OPTIONS")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// Forward relays one GraphQL request and mirrors the backend status and body.
func (p *Proxy) Forward(w http.ResponseWriter, r *http.Request) {
	if p.cfg.BackendURL == "" {
		p.log.Error("graphql.proxy.unconfigured", "missing", "GRAPHQL_BACKEND_URL")
		p.fail(w, "GraphQL backend URL is not configured")
		return
	}
	if p.cfg.APIKey == "" {
		p.log.Error("graphql.proxy.unconfigured", "missing", "X_API_KEY")
		p.fail(w, "API key is not configured")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, p.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			p.metrics.GraphQLProxied(http.StatusRequestEntityTooLarge)
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		p.log.Info("graphql.proxy.read.fail", "err", err)
		p.metrics.GraphQLProxied(http.StatusBadRequest)
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, p.cfg.BackendURL, bytes.NewReader(body))
	if err != nil {
		p.log.Error("graphql.proxy.request.fail", "err", err)
		p.fail(w, "Failed to proxy GraphQL request")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", p.cfg.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Error("graphql.proxy.fail", "err", err)
		p.fail(w, "Failed to proxy GraphQL request")
		return
	}
	defer func() { _ = resp.Body.Close() }()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		p.log.Info("graphql.proxy.copy.fail", "err", err)
	}
	p.metrics.GraphQLProxied(resp.StatusCode)
}

func (p *Proxy) fail(w http.ResponseWriter, msg string) {
	p.metrics.GraphQLProxied(http.StatusInternalServerError)
	writeError(w, http.StatusInternalServerError, msg)
}

// Preflight answers CORS preflight requests for the proxy.
func Preflight(w http.ResponseWriter, _ *http.Request) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
	w.WriteHeader(http.StatusOK)
}
