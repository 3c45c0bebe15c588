package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/hashicorp/go-cleanhttp"
)

// newUIProxy reverse-proxies unmatched routes to the page renderer.
// A blank rawURL returns a nil handler.
func newUIProxy(log *slog.Logger, rawURL string) (http.Handler, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: UI_UPSTREAM_URL: %v", ErrConfig, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: UI_UPSTREAM_URL must be an absolute http(s) URL", ErrConfig)
	}

	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(u)
			pr.SetXForwarded()
		},
		Transport: cleanhttp.DefaultPooledTransport(),
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Warn("ui.proxy.fail", "err", err, "path", r.URL.Path)
			http.Error(w, "bad gateway", http.StatusBadGateway)
		},
	}
	return rp, nil
}
