// Package main is a CI-friendly smoke test for a running gqlgate.
//
// It checks, in order:
//   - /healthz answers without credentials
//   - HTTP Basic login issues an auth_token cookie
//   - the cookie authorizes the GraphQL WebSocket relay
//   - connection_init reaches the backend and a reply comes back
//   - an upgrade on any other path is dropped without a response
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/hashicorp/go-cleanhttp"
)

const (
	relayPath          = "/api/graphql/ws"
	cookieName         = "auth_token"
	defaultSubprotocol = "graphql-transport-ws"
	maxReadBytes       = 1 << 20 // 1MiB
)

func main() {
	var (
		baseURL     = flag.String("url", "http://127.0.0.1:3000", "gqlgate base URL")
		user        = flag.String("user", "smoke", "Basic auth username (ignored by the gate)")
		pass        = flag.String("password", os.Getenv("AUTH_PASSWORD"), "Basic auth password")
		subprotocol = flag.String("subprotocol", defaultSubprotocol, "WebSocket subprotocol to offer")
		timeout     = flag.Duration("timeout", 7*time.Second, "Per-step timeout")
		verbose     = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	base, err := validateBaseURL(*baseURL)
	if err != nil {
		fatalf("invalid -url: %v", err)
	}

	client := cleanhttp.DefaultClient()
	client.Timeout = *timeout
	root := context.Background()

	mustHealthy(client, base)
	if *verbose {
		fmt.Println("healthz: ok")
	}

	token := mustLogin(client, base, *user, *pass)
	if *verbose {
		fmt.Printf("login: %s cookie issued (%d chars)\n", cookieName, len(token))
	}

	reply := mustRelayInit(root, base, token, *subprotocol, *timeout)
	if *verbose {
		fmt.Printf("relay reply: %s\n", reply)
	}

	mustRejectOtherUpgrade(base, *timeout)
	if *verbose {
		fmt.Println("non-relay upgrade: dropped")
	}

	fmt.Printf("OK: %s relay=%s\n", base.Host, relayPath)
}

func validateBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return nil, errors.New("missing host")
	}
	return u, nil
}

func endpoint(base *url.URL, path string) string {
	u := *base
	u.Path = path
	u.RawQuery = ""
	return u.String()
}

func wsEndpoint(base *url.URL) string {
	u := *base
	u.Path = relayPath
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	return u.String()
}

func mustHealthy(client *http.Client, base *url.URL) {
	resp, err := client.Get(endpoint(base, "/healthz"))
	if err != nil {
		fatalf("healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		fatalf("healthz: status=%d", resp.StatusCode)
	}
}

func mustLogin(client *http.Client, base *url.URL, user, pass string) string {
	if pass == "" {
		fatalf("login: -password (or AUTH_PASSWORD) is required")
	}

	req, err := http.NewRequest(http.MethodGet, endpoint(base, "/api/config"), nil)
	if err != nil {
		fatalf("login: %v", err)
	}
	req.SetBasicAuth(user, pass)

	resp, err := client.Do(req)
	if err != nil {
		fatalf("login: %v", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusUnauthorized {
		fatalf("login: rejected (401)")
	}
	for _, c := range resp.Cookies() {
		if c.Name == cookieName && c.Value != "" {
			return c.Value
		}
	}
	fatalf("login: status=%d but no %s cookie", resp.StatusCode, cookieName)
	return ""
}

func mustRelayInit(parent context.Context, base *url.URL, token, subprotocol string, stepTimeout time.Duration) string {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	h := http.Header{}
	h.Set("Cookie", cookieName+"="+token)

	opts := &websocket.DialOptions{HTTPHeader: h}
	if subprotocol != "" {
		opts.Subprotocols = []string{subprotocol}
	}

	conn, resp, err := websocket.Dial(ctx, wsEndpoint(base), opts)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		fatalf("relay dial: %v", err)
	}
	defer closeWS(conn)
	conn.SetReadLimit(maxReadBytes)

	if subprotocol != "" && conn.Subprotocol() != subprotocol {
		fatalf("subprotocol mismatch: got=%q want=%q", conn.Subprotocol(), subprotocol)
	}

	if err := conn.Write(ctx, websocket.MessageText, []byte(`{"type":"connection_init","payload":{}}`)); err != nil {
		fatalf("relay write: %v", err)
	}

	_, data, err := conn.Read(ctx)
	if err != nil {
		if code := websocket.CloseStatus(err); code != -1 {
			fatalf("relay closed before reply: code=%d err=%v", code, err)
		}
		fatalf("relay read: %v", err)
	}
	return string(data)
}

// mustRejectOtherUpgrade sends a raw upgrade for a non-relay path and expects
// the connection to be closed without any HTTP response.
func mustRejectOtherUpgrade(base *url.URL, stepTimeout time.Duration) {
	if base.Scheme != "http" {
		// Raw probing over TLS is out of scope for this script.
		return
	}

	host := base.Host
	if base.Port() == "" {
		host = net.JoinHostPort(base.Hostname(), "80")
	}

	conn, err := net.DialTimeout("tcp", host, stepTimeout)
	if err != nil {
		fatalf("probe dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(stepTimeout))

	req := "GET /_next/webpack-hmr HTTP/1.1\r\n" +
		"Host: " + base.Host + "\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Version: 13\r\n" +
		"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n\r\n"
	if _, err := io.WriteString(conn, req); err != nil {
		fatalf("probe write: %v", err)
	}

	line, err := bufio.NewReader(conn).ReadString('\n')
	switch {
	case errors.Is(err, io.EOF) && line == "":
		return
	case err == nil:
		fatalf("probe: expected dropped connection, got %q", strings.TrimSpace(line))
	default:
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			fatalf("probe: connection left open")
		}
		// A reset is as good as a close.
		if line == "" {
			return
		}
		fatalf("probe: %v", err)
	}
}

func closeWS(c *websocket.Conn) {
	_ = c.Close(websocket.StatusNormalClosure, "bye")
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "FAIL: "+format+"\n", args...)
	os.Exit(1)
}
