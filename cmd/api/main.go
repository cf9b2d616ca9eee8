package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Veysel440/ipgate/internal/config"
	"github.com/Veysel440/ipgate/internal/db"
	"github.com/Veysel440/ipgate/internal/logging"
	"github.com/Veysel440/ipgate/internal/server"
	otelsetup "github.com/Veysel440/ipgate/internal/trace"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.MergeAllowlistFile(); err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTrace, err := otelsetup.Setup(ctx, cfg.OTELEndpoint, cfg.OTELSample, "ipgate")
	if err != nil {
		log.Fatalf("otel: %v", err)
	}

	var pool *sql.DB
	if cfg.AuditEnabled() {
		pool, err = db.OpenAndMigrate(cfg)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		defer pool.Close()
	}

	srv, err := server.New(cfg, server.Deps{DB: pool, Log: logger, Version: version})
	if err != nil {
		log.Fatalf("server: %v", err)
	}
	srv.Start(ctx)
	httpSrv := srv.HTTPServer()

	go func() {
		logger.Info("listening",
			slog.String("addr", httpSrv.Addr),
			slog.String("deny_policy", cfg.DenyPolicy),
			slog.Int("allowlist", len(cfg.AllowedIPs)),
			slog.Bool("audit", pool != nil),
		)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http: %v", err)
		}
	}()

	<-ctx.Done()
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(sctx)
	srv.Close()
	_ = shutdownTrace(sctx)
	logger.Info("stopped")
}
