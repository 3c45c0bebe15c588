package app

import (
	"net/http"

	"gqlgate/cmd/internal/graphql"
	"gqlgate/cmd/internal/relay"

	"github.com/go-chi/chi/v5"
)

// routes builds the router that sits behind the auth gate.
func (a *App) routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if !a.gateway.Enabled() && !a.proxy.Enabled() {
			http.Error(w, "no graphql backend configured", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	})

	r.Handle("/api/graphql", a.proxy)
	r.Method(http.MethodGet, "/api/config", graphql.ClientConfigHandler(a.log, a.cfg.GraphQL))
	r.Get(relay.Path, a.gateway.HandleRelay)

	if a.ui != nil {
		r.NotFound(a.ui.ServeHTTP)
	}
	return r
}

// Handler returns the full inbound chain. The dispatcher runs ahead of the
// gate so rejected upgrade probes never receive an HTTP response.
func (a *App) Handler() http.Handler {
	var h http.Handler = a.routes()
	h = a.gate.Middleware(h)
	h = relay.NewDispatcher(a.log, a.metrics).Wrap(h)
	h = WithRecover(h, a.log)
	h = WithRequestID(h)
	return WithRequestLogging(h, a.log)
}

func (a *App) metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	return mux
}
