package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Veysel440/ipgate/internal/gate"
)

type Registry struct {
	reg       *prometheus.Registry
	HttpDur   *prometheus.HistogramVec
	Decisions *prometheus.CounterVec
	DbErr     *prometheus.CounterVec
	AuditDrop prometheus.Counter
}

func New() *Registry {
	r := prometheus.NewRegistry()
	httpDur := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)
	decisions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ipgate_decisions_total",
			Help: "Access decisions by outcome and client ip source",
		},
		[]string{"outcome", "source"},
	)
	dbErr := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_errors_total",
			Help: "DB errors by operation",
		},
		[]string{"op"},
	)
	drop := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ipgate_audit_dropped_total",
		Help: "Access records dropped because the audit queue was full",
	})

	r.MustRegister(
		httpDur, decisions, dbErr, drop,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Registry{reg: r, HttpDur: httpDur, Decisions: decisions, DbErr: dbErr, AuditDrop: drop}
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Record counts gate decisions.
func (r *Registry) Record(_ context.Context, e gate.Event) {
	r.Decisions.WithLabelValues(e.Outcome.String(), e.IP.Source.String()).Inc()
}

func (r *Registry) MW(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := &wrap{ResponseWriter: w, status: 200}
		next.ServeHTTP(ww, req)
		route := "other"
		if rc := chi.RouteContext(req.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		r.HttpDur.WithLabelValues(route, req.Method, strconv.Itoa(ww.status)).
			Observe(time.Since(start).Seconds())
	})
}

func (r *Registry) Reg() *prometheus.Registry { return r.reg }

type wrap struct {
	http.ResponseWriter
	status int
}

func (w *wrap) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
