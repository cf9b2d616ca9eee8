package middleware

import (
	"net"
	"net/http"
)

// AllowCIDR admits only connections whose socket address is inside cidr.
// Forwarding headers are ignored here on purpose: /metrics is scraped
// directly, not through the edge.
func AllowCIDR(cidr string) func(http.Handler) http.Handler {
	_, netw, err := net.ParseCIDR(cidr)
	if err != nil {
		return func(h http.Handler) http.Handler { return h }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}
			ip := net.ParseIP(host)
			if ip == nil || !netw.Contains(ip) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
