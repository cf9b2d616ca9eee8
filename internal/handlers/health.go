package handlers

import (
	"context"
	"encoding/json"
	"net/http"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health serves liveness and readiness. DB is nil when the audit trail is off.
type Health struct {
	DB      Pinger
	Version   string
	Policy    string
	Allowlist []string
}

func (h Health) Live(w http.ResponseWriter, r *http.Request) { w.WriteHeader(204) }
func (h Health) Ready(w http.ResponseWriter, r *http.Request) {
	if h.DB != nil {
		if err := h.DB.PingContext(r.Context()); err != nil {
			http.Error(w, "db down", 503)
			return
		}
	}
	w.WriteHeader(204)
}
// Info is mounted behind the metrics CIDR guard; it lists the allowlist.
func (h Health) Info(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ok": true, "version": h.Version, "deny_policy": h.Policy,
		"allowlist": h.Allowlist, "allowlist_size": len(h.Allowlist), "audit": h.DB != nil,
	})
}
