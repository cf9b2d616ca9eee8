package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/Veysel440/ipgate/internal/audit"
	"github.com/Veysel440/ipgate/internal/config"
	"github.com/Veysel440/ipgate/internal/gate"
	"github.com/Veysel440/ipgate/internal/handlers"
	"github.com/Veysel440/ipgate/internal/jwtauth"
	"github.com/Veysel440/ipgate/internal/metrics"
	"github.com/Veysel440/ipgate/internal/middleware"
	"github.com/Veysel440/ipgate/internal/openapi"
	"github.com/Veysel440/ipgate/internal/upstream"
)

// Deps are the collaborators built outside the server. All are optional:
// a nil DB disables the audit trail, a nil Upstream is built from config.
type Deps struct {
	DB       *sql.DB
	Access   handlers.AccessLister
	Upstream http.Handler
	Log      *slog.Logger
	Version  string
}

type Server struct {
	cfg     config.Config
	log     *slog.Logger
	mx      *metrics.Registry
	gate    *gate.Gate
	up      http.Handler
	db      *sql.DB
	access  handlers.AccessLister
	sink    *audit.Sink
	keys    jwtauth.EnvProvider
	limiter *middleware.Limiter
	version string
}

func New(cfg config.Config, d Deps) (*Server, error) {
	s := &Server{
		cfg:     cfg,
		log:     d.Log,
		mx:      metrics.New(),
		db:      d.DB,
		access:  d.Access,
		up:      d.Upstream,
		keys:    jwtauth.Load(cfg.JWTKeys, cfg.JWTCurrentKID, cfg.JWTSecret),
		limiter: middleware.NewLimiter(rate.Limit(cfg.RateRPS), cfg.RateBurst, 10*time.Minute),
		version: d.Version,
	}
	if s.log == nil {
		s.log = slog.Default()
	}

	policy, err := gate.ParsePolicy(cfg.DenyPolicy)
	if err != nil {
		return nil, err
	}
	var page gate.BlockPage
	if cfg.BlockPageFile != "" {
		src, err := os.ReadFile(cfg.BlockPageFile)
		if err != nil {
			return nil, fmt.Errorf("block page: %w", err)
		}
		if page, err = gate.ParseBlockPage(string(src)); err != nil {
			return nil, fmt.Errorf("block page: %w", err)
		}
	}

	recorders := []gate.Recorder{gate.LogRecorder{L: s.log}, s.mx}
	if s.db != nil {
		store := audit.Store{DB: s.db}
		if s.access == nil {
			s.access = store
		}
		s.sink = audit.NewSink(store, audit.SinkOptions{
			Buffer:  cfg.AuditBuffer,
			Timeout: cfg.DBTimeout,
			Log:     s.log,
			OnDrop:  s.mx.AuditDrop.Inc,
			OnError: func() { s.mx.DbErr.WithLabelValues("audit_insert").Inc() },
		})
		recorders = append(recorders, s.sink)
	}

	s.gate = gate.New(gate.Options{
		Allowlist:     gate.NewAllowlist(cfg.AllowedIPs),
		Policy:        policy,
		RedirectURL:   cfg.RedirectURL,
		DebugPath:     cfg.DebugPath,
		UseRemoteAddr: cfg.UseRemoteAddr,
		Scope:         gate.Scope{SkipPrefixes: cfg.SkipPrefixes, SkipExts: cfg.SkipExts},
		Page:          page,
		Recorder:      gate.Recorders(recorders...),
	})

	if s.up == nil {
		up, err := upstream.New(cfg.UpstreamURL, cfg.StaticDir, s.log)
		if err != nil {
			return nil, err
		}
		s.up = up
	}
	return s, nil
}

// Start runs background work: the audit writer and limiter cleanup.
func (s *Server) Start(ctx context.Context) {
	if s.sink != nil {
		s.sink.Start()
	}
	go func() {
		t := time.NewTicker(time.Minute)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.limiter.Cleanup()
			}
		}
	}()
}

// Close flushes queued audit records. Call it after the HTTP server has
// shut down so events from in-flight requests are kept.
func (s *Server) Close() {
	if s.sink != nil {
		s.sink.Close()
	}
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()

	r.Use(
		otelhttp.NewMiddleware("ipgate"),
		middleware.RequestID,
		middleware.SecurityHeaders,
		middleware.RecoverJSON(s.log),
		s.mx.MW,
		middleware.Logger(s.log),
	)

	hh := handlers.Health{
		Version:   s.version,
		Policy:    s.cfg.DenyPolicy,
		Allowlist: s.gate.Allowlist().Entries(),
	}
	if s.db != nil {
		hh.DB = s.db
	}
	r.Get("/healthz", hh.Live)
	r.Get("/readyz", hh.Ready)

	r.Group(func(gr chi.Router) {
		gr.Use(middleware.AllowCIDR(s.cfg.MetricsAllowCIDR))
		gr.Handle("/metrics", s.mx.Handler())
		gr.Get("/info", hh.Info)
		if s.cfg.Env != "prod" {
			gr.Handle("/openapi.yaml", openapi.Spec())
			gr.Handle("/docs", openapi.UI())
		}
	})

	if s.access != nil && !s.keys.Empty() {
		aa := handlers.AdminAccess{Store: s.access, Timeout: s.cfg.DBTimeout, Log: s.log}
		r.Route("/admin", func(ar chi.Router) {
			ar.Use(s.limiter.Middleware, middleware.BodyLimit(1<<20), middleware.AuthWith(s.keys, s.log))
			ar.Get("/access-log", aa.List)
		})
	}

	r.Group(func(gr chi.Router) {
		gr.Use(s.gate.Middleware)
		if p := s.gate.DebugPath(); p != "" {
			gr.Handle(p, handlers.DebugIP{UseRemoteAddr: s.gate.UsesRemoteAddr()})
		}
		gr.Handle("/*", s.up)
	})

	return r
}

func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router(),
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}
}
