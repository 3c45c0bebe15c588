package relay

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"gqlgate/cmd/internal/metrics"

	"github.com/coder/websocket"
	"github.com/hashicorp/go-cleanhttp"
)

// Gateway accepts relay upgrades and owns the live sessions.
type Gateway struct {
	log     *slog.Logger
	cfg     Config
	metrics *metrics.Metrics
	dialer  *http.Client

	// ctx ends every live session when cancelled by Close.
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	closed   bool
	sessions map[*Session]struct{}
	wg       sync.WaitGroup
}

// NewGateway validates cfg and builds a Gateway. A relay without a backend
// URL or API key is built disabled and answers 503.
func NewGateway(log *slog.Logger, cfg Config, m *metrics.Metrics) (*Gateway, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.normalized()

	g := &Gateway{
		log:      log,
		cfg:      cfg,
		metrics:  m,
		dialer:   cleanhttp.DefaultClient(),
		sessions: make(map[*Session]struct{}),
	}
	g.ctx, g.cancel = context.WithCancel(context.Background())

	if !cfg.Enabled() {
		log.Warn("relay.disabled", "hint", "set GRAPHQL_BACKEND_WS_URL and X_API_KEY")
	}
	return g, nil
}

// Enabled reports whether the relay has a backend to dial.
func (g *Gateway) Enabled() bool { return g.cfg.Enabled() }

// ServeHTTP adapter so it can be mounted as http.Handler.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.HandleRelay(w, r)
}

// HandleRelay upgrades the client and runs a Session until it ends.
func (g *Gateway) HandleRelay(w http.ResponseWriter, r *http.Request) {
	if !g.cfg.Enabled() {
		http.Error(w, "websocket proxy not configured", http.StatusServiceUnavailable)
		return
	}
	if g.ctx.Err() != nil {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}

	// Server read and write timeouts would otherwise survive the hijack.
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	hw := &hijackRecorder{ResponseWriter: w}
	conn, err := websocket.Accept(hw, r, &websocket.AcceptOptions{
		// Offer back exactly what the client asked for so the selected
		// subprotocol can be mirrored to the backend.
		Subprotocols:   offeredSubprotocols(r),
		OriginPatterns: g.cfg.OriginPatterns,
	})
	if err != nil {
		g.log.Error("ws.accept.fail", "err", err, "remote", r.RemoteAddr)
		return
	}

	s := newSession(g.ctx, g.log, g.cfg, g.metrics, g.dialer, conn, hw.conn)
	if err := g.track(s); err != nil {
		_ = conn.Close(websocket.StatusGoingAway, reasonShutdown)
		return
	}
	defer g.untrack(s)

	g.metrics.RelayOpened()
	stop := context.AfterFunc(g.ctx, s.Shutdown)
	defer stop()

	s.Run()
}

// Close ends every live session with 1001 and waits for them to finish or
// for ctx to expire. Later upgrades are refused.
func (g *Gateway) Close(ctx context.Context) error {
	g.mu.Lock()
	g.closed = true
	live := len(g.sessions)
	g.mu.Unlock()

	g.cancel()
	if live > 0 {
		g.log.Info("relay.shutdown", "sessions", live)
	}

	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("relay: waiting for sessions: %w", ctx.Err())
	}
}

// Sessions returns the number of live sessions.
func (g *Gateway) Sessions() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sessions)
}

func (g *Gateway) track(s *Session) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrGatewayClosed
	}
	g.sessions[s] = struct{}{}
	g.wg.Add(1)
	return nil
}

func (g *Gateway) untrack(s *Session) {
	g.mu.Lock()
	delete(g.sessions, s)
	g.mu.Unlock()
	g.wg.Done()
}

// offeredSubprotocols returns the client's Sec-WebSocket-Protocol offer in order.
func offeredSubprotocols(r *http.Request) []string {
	var out []string
	for _, v := range r.Header.Values("Sec-WebSocket-Protocol") {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// hijackRecorder keeps the raw connection Accept hijacks so a stalled close
// handshake can be cut short.
type hijackRecorder struct {
	http.ResponseWriter
	conn net.Conn
}

func (h *hijackRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	conn, rw, err := http.NewResponseController(h.ResponseWriter).Hijack()
	if err == nil {
		h.conn = conn
	}
	return conn, rw, err
}

func (h *hijackRecorder) Unwrap() http.ResponseWriter { return h.ResponseWriter }
