package gate

import (
	"context"
	"log/slog"
	"time"
)

const (
	EventAllowed = "access_allowed"
	EventDenied  = "access_denied"
)

// Event is the diagnostic record emitted once per evaluated request.
type Event struct {
	Name      string
	At        time.Time
	IP        ClientIP
	Path      string
	Method    string
	Outcome   Action
	RequestID string

	// raw candidate header values as received
	CFConnectingIP string
	RealIP         string
	ForwardedFor   string
}

// Recorder receives gate events. Implementations must not block the request.
type Recorder interface {
	Record(ctx context.Context, e Event)
}

type RecorderFunc func(ctx context.Context, e Event)

func (f RecorderFunc) Record(ctx context.Context, e Event) { f(ctx, e) }

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, Event) {}

var NopRecorder Recorder = nopRecorder{}

type multi []Recorder

func (m multi) Record(ctx context.Context, e Event) {
	for _, r := range m {
		r.Record(ctx, e)
	}
}

// Recorders fans an event out to every non-nil recorder.
func Recorders(rs ...Recorder) Recorder {
	var out multi
	for _, r := range rs {
		if r != nil {
			out = append(out, r)
		}
	}
	switch len(out) {
	case 0:
		return NopRecorder
	case 1:
		return out[0]
	}
	return out
}

// LogRecorder writes events as structured log lines.
type LogRecorder struct{ L *slog.Logger }

func (l LogRecorder) Record(ctx context.Context, e Event) {
	lvl := slog.LevelInfo
	if e.Outcome != Passthrough {
		lvl = slog.LevelWarn
	}
	l.L.LogAttrs(ctx, lvl, e.Name,
		slog.String("ip", e.IP.String()),
		slog.String("source", e.IP.Source.String()),
		slog.String("path", e.Path),
		slog.String("method", e.Method),
		slog.String("outcome", e.Outcome.String()),
		slog.String("rid", e.RequestID),
		slog.Group("headers",
			slog.String("cf_connecting_ip", e.CFConnectingIP),
			slog.String("x_real_ip", e.RealIP),
			slog.String("x_forwarded_for", e.ForwardedFor),
		),
	)
}
