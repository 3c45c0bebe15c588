package relay

import (
	"log/slog"
	"net/http"
	"strings"

	"gqlgate/cmd/internal/metrics"
)

// Dispatcher filters upgrade requests before any other handler sees them.
// Upgrades to Path pass through. Every other upgrade has its transport
// closed without a single byte written.
type Dispatcher struct {
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewDispatcher(log *slog.Logger, m *metrics.Metrics) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{log: log, metrics: m}
}

// Wrap returns next guarded by the dispatcher. Non-upgrade requests are untouched.
func (d *Dispatcher) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsUpgrade(r) || r.URL.Path == Path {
			next.ServeHTTP(w, r)
			return
		}

		d.log.Info("upgrade.reject", "path", r.URL.Path, "remote", r.RemoteAddr)
		d.metrics.UpgradeRejected()
		destroy(w)
	})
}

// IsUpgrade reports whether r asks for a protocol switch.
func IsUpgrade(r *http.Request) bool {
	if strings.TrimSpace(r.Header.Get("Upgrade")) == "" {
		return false
	}
	for _, v := range r.Header.Values("Connection") {
		for _, tok := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(tok), "upgrade") {
				return true
			}
		}
	}
	return false
}

// destroy drops the client connection. Writers that cannot be hijacked fall
// back to ErrAbortHandler, which net/http turns into a silent abort.
func destroy(w http.ResponseWriter) {
	conn, _, err := http.NewResponseController(w).Hijack()
	if err != nil {
		panic(http.ErrAbortHandler)
	}
	_ = conn.Close()
}
