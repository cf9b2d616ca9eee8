package handlers

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Veysel440/ipgate/internal/audit"
	apperr "github.com/Veysel440/ipgate/internal/errors"
)

type AccessLister interface {
	List(ctx context.Context, f audit.Filter) ([]audit.Record, error)
}

type AdminAccess struct {
	Store   AccessLister
	Timeout time.Duration
	Log     *slog.Logger
}

func (h AdminAccess) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	limit = audit.ClampLimit(limit)

	to := time.Now()
	if s := q.Get("to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			apperr.Write(w, h.Log, r, apperr.Validation(map[string]string{"to": "must be RFC3339"}))
			return
		}
		to = t
	}
	from := to.Add(-24 * time.Hour)
	if s := q.Get("from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			apperr.Write(w, h.Log, r, apperr.Validation(map[string]string{"from": "must be RFC3339"}))
			return
		}
		from = t
	}
	outcome := q.Get("outcome")
	switch outcome {
	case "", "allow", "redirect", "block":
	default:
		apperr.Write(w, h.Log, r, apperr.Validation(map[string]string{"outcome": "one of allow, redirect, block"}))
		return
	}

	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	rows, err := h.Store.List(ctx, audit.Filter{From: from, To: to, Outcome: outcome, IP: q.Get("ip"), Limit: limit})
	if err != nil {
		apperr.Write(w, h.Log, r, apperr.E(http.StatusInternalServerError, "audit_query", "audit query failed", err, nil))
		return
	}

	if q.Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="access-log.csv"`)
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"id", "created_at", "outcome", "ip", "source", "method", "path", "rid", "cf_connecting_ip", "x_real_ip", "x_forwarded_for"})
		for _, a := range rows {
			_ = cw.Write([]string{
				strconv.FormatInt(a.ID, 10), a.CreatedAt.Format(time.RFC3339), a.Outcome, a.IP, a.Source,
				a.Method, a.Path, a.RID, a.CFConnectingIP, a.RealIP, a.ForwardedFor,
			})
		}
		cw.Flush()
		return
	}

	if rows == nil {
		rows = []audit.Record{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"from": from.Format(time.RFC3339), "to": to.Format(time.RFC3339),
		"limit": limit, "data": rows,
	})
}
