package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.AuthDecision(AuthDenied)
		m.TokenIssued()
		m.RelayOpened()
		m.RelayFrame(DirClientToBackend, FrameForwarded, 10)
		m.RelayDial(time.Second)
		m.RelayEnded("client_closed")
		m.UpgradeRejected()
		m.GraphQLProxied(200)
		m.RegisterSessionCount(func() int { return 1 })
	})
}

func TestRecording(t *testing.T) {
	m := New()

	m.AuthDecision(AuthSession)
	m.AuthDecision(AuthSession)
	m.AuthDecision(AuthDenied)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.authDecisions.WithLabelValues(AuthSession)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authDecisions.WithLabelValues(AuthDenied)))

	m.RelayOpened()
	m.RelayOpened()
	m.RelayEnded("backend_fault")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.relayActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.relayEnded.WithLabelValues("backend_fault")))

	m.RelayFrame(DirBackendToClient, FrameForwarded, 5)
	m.RelayFrame(DirBackendToClient, FrameDropped, 7)
	assert.Equal(t, 5.0, testutil.ToFloat64(m.relayBytes.WithLabelValues(DirBackendToClient)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.relayFrames.WithLabelValues(DirBackendToClient, FrameDropped)))

	m.GraphQLProxied(502)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.graphqlProxied.WithLabelValues("5xx")))
}

func TestHandlerExposesSessionCount(t *testing.T) {
	m := New()
	m.RegisterSessionCount(func() int { return 3 })
	m.TokenIssued()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(text, "gqlgate_session_tokens 3"), "missing session gauge")
	assert.True(t, strings.Contains(text, "gqlgate_session_tokens_issued_total 1"), "missing issued counter")
}

func TestStatusClass(t *testing.T) {
	cases := map[int]string{200: "2xx", 204: "2xx", 302: "3xx", 401: "4xx", 503: "5xx", 0: "other", 700: "other"}
	for in, want := range cases {
		assert.Equal(t, want, StatusClass(in), "status %d", in)
	}
}
