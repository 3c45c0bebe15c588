package relay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"gqlgate/cmd/internal/metrics"

	"github.com/coder/websocket"
	"github.com/jpillora/sizestr"
)

const (
	reasonBackendError = "Backend connection error"
	reasonShutdown     = "server shutting down"
)

// Session is one client to backend pairing.
//
// The client pump starts as soon as the client is accepted. The backend pump
// starts once the backend handshake completes and the session is OPEN.
// Read loops are unblocked by closing their connection, never by cancelling
// their context: coder/websocket tears a connection down without a close
// frame when a read context ends.
type Session struct {
	id      string
	log     *slog.Logger
	cfg     Config
	metrics *metrics.Metrics
	dialer  *http.Client

	client  *websocket.Conn
	raw     net.Conn // client's hijacked connection, nil if unknown
	backend atomic.Pointer[websocket.Conn]
	state   atomic.Int32

	// cancelDial aborts a backend handshake still in flight at teardown.
	dialCtx    context.Context
	cancelDial context.CancelFunc

	endOnce     sync.Once
	cause       atomic.Value
	clientOnce  sync.Once
	backendOnce sync.Once

	upBytes   atomic.Int64
	downBytes atomic.Int64
	dropped   atomic.Int64

	started time.Time
}

func newSession(parent context.Context, log *slog.Logger, cfg Config, m *metrics.Metrics, dialer *http.Client, client *websocket.Conn, raw net.Conn) *Session {
	now := time.Now().UTC()
	s := &Session{
		id:      newSessionID(now),
		cfg:     cfg,
		metrics: m,
		dialer:  dialer,
		client:  client,
		raw:     raw,
		started: now,
	}
	s.log = log.With("session_id", s.id)
	s.dialCtx, s.cancelDial = context.WithCancel(parent)
	s.cause.Store(CauseNone)
	return s
}

// ID returns the session's ULID.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State { return State(s.state.Load()) }

// Cause returns the first teardown cause, or CauseNone while live.
func (s *Session) Cause() Cause { return s.cause.Load().(Cause) }

// Dropped returns the number of frames discarded because the peer was not open.
func (s *Session) Dropped() int64 { return s.dropped.Load() }

// Shutdown ends the session with 1001 on both sides. It is safe to call
// from any goroutine and any number of times.
func (s *Session) Shutdown() { s.end(CauseShutdown) }

// Run drives the session until both pumps have exited.
func (s *Session) Run() Cause {
	s.client.SetReadLimit(s.cfg.MaxMessageBytes)

	clientDone := make(chan struct{})
	go func() {
		defer close(clientDone)
		s.pumpClient()
	}()

	backend, err := s.dialBackend()
	if err != nil {
		if s.Cause() == CauseNone {
			s.log.Warn("relay.backend.dial.fail", "err", err, "backend", s.cfg.BackendURL)
		}
		s.end(CauseDialFailed)
		<-clientDone
		return s.finish()
	}

	s.backend.Store(backend)
	backend.SetReadLimit(s.cfg.MaxMessageBytes)

	var backendDone chan struct{}
	if s.state.CompareAndSwap(int32(StatePending), int32(StateOpen)) {
		s.log.Info("relay.open", "subprotocol", backend.Subprotocol())

		backendDone = make(chan struct{})
		go func() {
			defer close(backendDone)
			s.pumpBackend()
		}()
	} else {
		// Teardown started mid-dial and found no backend to close.
		s.closeBackend(s.backendCloseFor(s.Cause()))
	}

	<-clientDone
	if backendDone != nil {
		<-backendDone
	}
	return s.finish()
}

func (s *Session) dialBackend() (*websocket.Conn, error) {
	ctx := s.dialCtx
	if s.cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.DialTimeout)
		defer cancel()
	}

	h := http.Header{}
	h.Set("X-API-Key", s.cfg.APIKey)

	opts := &websocket.DialOptions{
		HTTPClient: s.dialer,
		HTTPHeader: h,
	}
	if sp := s.client.Subprotocol(); sp != "" {
		opts.Subprotocols = []string{sp}
	}

	start := time.Now()
	conn, resp, err := websocket.Dial(ctx, s.cfg.BackendURL, opts)
	s.metrics.RelayDial(time.Since(start))
	if err != nil {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		return nil, err
	}
	return conn, nil
}

func (s *Session) pumpClient() {
	for {
		typ, data, err := s.client.Read(context.Background())
		if err != nil {
			if classifyReadErr(err) == readErrClose {
				s.end(CauseClientClosed)
			} else {
				s.logReadErr("relay.client.read.fail", err)
				s.end(CauseClientError)
			}
			return
		}

		if s.State() != StateOpen {
			s.drop(metrics.DirClientToBackend)
			continue
		}
		if err := s.write(s.backend.Load(), typ, data); err != nil {
			s.logWriteErr("relay.backend.write.fail", err)
			s.end(CauseBackendError)
			return
		}
		s.upBytes.Add(int64(len(data)))
		s.metrics.RelayFrame(metrics.DirClientToBackend, metrics.FrameForwarded, len(data))
	}
}

func (s *Session) pumpBackend() {
	backend := s.backend.Load()
	for {
		typ, data, err := backend.Read(context.Background())
		if err != nil {
			if classifyReadErr(err) == readErrClose {
				s.end(CauseBackendClosed)
			} else {
				s.logReadErr("relay.backend.read.fail", err)
				s.end(CauseBackendError)
			}
			return
		}

		if s.State() != StateOpen {
			s.drop(metrics.DirBackendToClient)
			continue
		}
		if err := s.write(s.client, typ, data); err != nil {
			s.logWriteErr("relay.client.write.fail", err)
			s.end(CauseClientError)
			return
		}
		s.downBytes.Add(int64(len(data)))
		s.metrics.RelayFrame(metrics.DirBackendToClient, metrics.FrameForwarded, len(data))
	}
}

func (s *Session) write(conn *websocket.Conn, typ websocket.MessageType, data []byte) error {
	ctx := context.Background()
	if s.cfg.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.WriteTimeout)
		defer cancel()
	}
	return conn.Write(ctx, typ, data)
}

func (s *Session) drop(direction string) {
	s.dropped.Add(1)
	s.metrics.RelayFrame(direction, metrics.FrameDropped, 0)
}

// end moves the session to CLOSING and closes the side(s) the cause implies.
// Only the first call has any effect.
func (s *Session) end(c Cause) {
	first := false
	s.endOnce.Do(func() {
		first = true
		s.cause.Store(c)
		s.state.Store(int32(StateClosing))
		s.cancelDial()
	})
	if !first {
		return
	}

	// The side that caused teardown is closed too so both pumps unblock.
	switch c {
	case CauseDialFailed, CauseBackendError:
		s.closeClient(websocket.StatusInternalError, reasonBackendError)
		s.closeBackendNow()
	case CauseBackendClosed:
		s.closeClient(websocket.StatusNormalClosure, "")
		s.closeBackend(websocket.StatusNormalClosure, "")
	case CauseClientClosed:
		s.closeBackend(websocket.StatusNormalClosure, "")
		s.closeClient(websocket.StatusNormalClosure, "")
	case CauseClientError:
		s.closeBackend(websocket.StatusNormalClosure, "")
		_ = s.client.CloseNow()
	case CauseShutdown:
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.closeBackend(websocket.StatusGoingAway, reasonShutdown)
		}()
		s.closeClient(websocket.StatusGoingAway, reasonShutdown)
		wg.Wait()
	}
}

func (s *Session) backendCloseFor(c Cause) (websocket.StatusCode, string) {
	if c == CauseShutdown {
		return websocket.StatusGoingAway, reasonShutdown
	}
	return websocket.StatusNormalClosure, ""
}

// closeClient sends the close frame and waits at most CloseTimeout for the
// client's reply. CloseNow cannot interrupt a Close already in progress, so the
// bound is enforced on the raw connection.
func (s *Session) closeClient(code websocket.StatusCode, reason string) {
	s.clientOnce.Do(func() {
		if s.raw != nil && s.cfg.CloseTimeout > 0 {
			t := time.AfterFunc(s.cfg.CloseTimeout, func() { _ = s.raw.Close() })
			defer t.Stop()
		}
		_ = s.client.Close(code, reason)
	})
}

// closeBackend is a no-op until a backend connection exists.
func (s *Session) closeBackend(code websocket.StatusCode, reason string) {
	b := s.backend.Load()
	if b == nil {
		return
	}
	s.backendOnce.Do(func() {
		_ = b.Close(code, reason)
	})
}

func (s *Session) closeBackendNow() {
	if b := s.backend.Load(); b != nil {
		_ = b.CloseNow()
	}
}

func (s *Session) finish() Cause {
	_ = s.client.CloseNow()
	s.closeBackendNow()
	s.cancelDial()
	s.state.Store(int32(StateClosed))

	cause := s.Cause()
	s.metrics.RelayEnded(string(cause))
	s.log.Info("relay.end",
		"cause", cause,
		"duration", time.Since(s.started).Round(time.Millisecond),
		"sent", sizestr.ToString(s.upBytes.Load()),
		"received", sizestr.ToString(s.downBytes.Load()),
		"dropped", s.dropped.Load(),
	)
	return cause
}

func (s *Session) logReadErr(event string, err error) {
	if s.Cause() != CauseNone {
		return
	}
	s.log.Info(event, "close_status", websocket.CloseStatus(err), "err", err)
}

func (s *Session) logWriteErr(event string, err error) {
	if s.Cause() != CauseNone {
		return
	}
	s.log.Warn(event, "err", err)
}

// ---- read error classification ----

type readErrKind uint8

const (
	readErrUnknown readErrKind = iota
	readErrClose
	readErrCtxDone
	readErrConnClosed
)

func classifyReadErr(err error) readErrKind {
	if websocket.CloseStatus(err) != -1 {
		return readErrClose
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return readErrCtxDone
	}
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF) {
		return readErrConnClosed
	}
	return readErrUnknown
}
