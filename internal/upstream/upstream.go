// Package upstream serves requests the gate lets through.
package upstream

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
)

// New returns a reverse proxy to upstreamURL, or a file server over dir
// when no upstream is configured.
func New(upstreamURL, dir string, log *slog.Logger) (http.Handler, error) {
	if upstreamURL == "" {
		if dir == "" {
			return nil, fmt.Errorf("upstream: neither UPSTREAM_URL nor STATIC_DIR set")
		}
		return http.FileServer(http.Dir(dir)), nil
	}
	target, err := url.Parse(upstreamURL)
	if err != nil {
		return nil, fmt.Errorf("upstream: %w", err)
	}
	if (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		return nil, fmt.Errorf("upstream: unsupported url %q", upstreamURL)
	}

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.Out.Header["X-Forwarded-For"] = pr.In.Header["X-Forwarded-For"]
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			if log != nil {
				log.Error("upstream", slog.String("err", err.Error()), slog.String("path", r.URL.Path))
			}
			http.Error(w, "bad gateway", http.StatusBadGateway)
		},
	}, nil
}
