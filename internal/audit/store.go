// Package audit persists gate events so operators can review access attempts.
package audit

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/Veysel440/ipgate/internal/gate"
)

type Store struct{ DB *sql.DB }

type Record struct {
	ID             int64     `json:"id"`
	Event          string    `json:"event"`
	Outcome        string    `json:"outcome"`
	IP             string    `json:"ip"`
	Source         string    `json:"source"`
	Method         string    `json:"method"`
	Path           string    `json:"path"`
	RID            string    `json:"rid"`
	CFConnectingIP string    `json:"cf_connecting_ip"`
	RealIP         string    `json:"x_real_ip"`
	ForwardedFor   string    `json:"x_forwarded_for"`
	CreatedAt      time.Time `json:"created_at"`
}

type Filter struct {
	From, To time.Time
	Outcome  string
	IP       string
	Limit    int
}

// Column widths of access_log. Header-derived values are client controlled.
const (
	maxIP     = 64
	maxMethod = 16
	maxPath   = 2048
	maxRID    = 64
	maxHeader = 255
	maxXFF    = 1024
)

// ClampLimit bounds a listing size to 1..1000, defaulting to 100.
func ClampLimit(n int) int {
	switch {
	case n <= 0:
		return 100
	case n > 1000:
		return 1000
	}
	return n
}

// clip cuts s to n characters, the unit of a utf8mb4 VARCHAR.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	i := 0
	for j := range s {
		if i == n {
			return s[:j]
		}
		i++
	}
	return s
}

func (s Store) Insert(ctx context.Context, e gate.Event) error {
	at := e.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO access_log(event,outcome,ip,source,method,path,rid,cf_connecting_ip,x_real_ip,x_forwarded_for,created_at)
		VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
		e.Name, e.Outcome.String(), clip(e.IP.String(), maxIP), e.IP.Source.String(),
		clip(e.Method, maxMethod), clip(e.Path, maxPath), clip(e.RequestID, maxRID),
		clip(e.CFConnectingIP, maxHeader), clip(e.RealIP, maxHeader), clip(e.ForwardedFor, maxXFF), at.UTC(),
	)
	return err
}

func (s Store) List(ctx context.Context, f Filter) ([]Record, error) {
	f.Limit = ClampLimit(f.Limit)
	q := strings.Builder{}
	q.WriteString(`
		SELECT id, event, outcome, ip, source, method, path, rid, cf_connecting_ip, x_real_ip, x_forwarded_for, created_at
		FROM access_log
		WHERE created_at BETWEEN ? AND ?`)
	args := []any{f.From.UTC(), f.To.UTC()}
	if f.Outcome != "" {
		q.WriteString(" AND outcome = ?")
		args = append(args, f.Outcome)
	}
	if f.IP != "" {
		q.WriteString(" AND ip = ?")
		args = append(args, f.IP)
	}
	q.WriteString(" ORDER BY id DESC LIMIT ?")
	args = append(args, f.Limit)

	rows, err := s.DB.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var a Record
		if err := rows.Scan(&a.ID, &a.Event, &a.Outcome, &a.IP, &a.Source, &a.Method, &a.Path,
			&a.RID, &a.CFConnectingIP, &a.RealIP, &a.ForwardedFor, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
