package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/s1natex/minitodo/internal/config"
	"github.com/s1natex/minitodo/internal/middleware"
	"github.com/s1natex/minitodo/internal/storage"
	"github.com/s1natex/minitodo/internal/tasks"
	"github.com/s1natex/minitodo/internal/telemetry"
	"github.com/s1natex/minitodo/internal/tui"
)

func main() {
	cfg, err := config.Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "minitodo: %v\n", err)
		os.Exit(2)
	}
	if err := run(cfg); err != nil {
		slog.Error("fatal", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger) // for third-party packages that use slog

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	traceOut := io.Writer(os.Stdout)
	if cfg.Mode == config.ModeTUI {
		traceOut = io.Discard
	}
	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName:  "minitodo",
		Exporter:     cfg.TraceExporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
		Writer:       traceOut,
	})
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	slot, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer slot.Close()
	logger.Info("storage_open", slog.String("backend", cfg.Storage), slog.String("data_dir", cfg.DataDir))

	store := tasks.NewStore(ctx, tasks.NewSnapshotRepo(slot), tasks.WithLogger(logger))

	if cfg.Mode == config.ModeTUI {
		return tui.Run(ctx, store)
	}
	return serve(ctx, cfg, newRouter(store, cfg, logger), logger)
}

type slotStore interface {
	tasks.Slot
	Close() error
}

func openStorage(ctx context.Context, cfg *config.Config) (slotStore, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return storage.NewMemory(), nil
	case config.StorageSQLite:
		dsn, err := storage.SQLiteFileDSN(cfg.SQLitePath())
		if err != nil {
			return nil, fmt.Errorf("sqlite dsn: %w", err)
		}
		db, err := storage.NewSQLite(dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		if err := db.ApplyMigrations(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		return db, nil
	default:
		f, err := storage.NewFile(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
}

func serve(ctx context.Context, cfg *config.Config, h http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_listen", slog.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("server_shutdown")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}

// newRouter wires the health endpoint, task routes, and middleware stack
func newRouter(store *tasks.Store, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// ---- Middleware stack (order matters a bit) ----
	// RequestID first so downstream can include it (logger, errors, etc.)
	r.Use(chimw.RequestID)

	// Panic recovery: never crash the server; returns 500 on panics
	r.Use(chimw.Recoverer)

	// Timeouts: cancel handlers that exceed this duration
	r.Use(chimw.Timeout(15 * time.Second))

	r.Use(middleware.TracingMiddleware)
	r.Use(middleware.MetricsMiddleware)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.RateLimitMiddleware(
		middleware.NewLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		"/health", "/metrics",
	))

	// ---- Routes ----

	// health
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", middleware.MetricsHandler())

	tasks.RegisterPageRoutes(r, store, logger)

	authMode, _ := middleware.ParseAuthMode(cfg.AuthMode)
	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
			ExposedHeaders:   []string{"X-Request-ID", "Trace-Id"},
			AllowCredentials: false,
			MaxAge:           300, // 5 minutes
		}))
		r.Use(middleware.AuthMiddleware(middleware.AuthConfig{
			Mode:        authMode,
			APIKey:      cfg.APIKey,
			BearerToken: cfg.BearerToken,
		}))
		tasks.RegisterAPIRoutes(r, store)
	})

	return r
}

// newLogger builds the JSON logger. The web server logs to stdout; the TUI
// owns the terminal, so it logs to a file instead.
func newLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Mode != config.ModeTUI {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts)), func() {}, nil
	}

	path := cfg.ResolvedLogFile()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return slog.New(slog.NewJSONHandler(f, opts)), func() { _ = f.Close() }, nil
}
