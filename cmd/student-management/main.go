// Command student-management serves the student records API and the HTML
// entry pages.
//
//	go run ./cmd/student-management --config=config/local.yaml
//
// or
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/student-management
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aanand-mishra/student-management/internal/config"
	"github.com/aanand-mishra/student-management/internal/metrics"
	"github.com/aanand-mishra/student-management/internal/service"
	"github.com/aanand-mishra/student-management/internal/storage"
	"github.com/aanand-mishra/student-management/internal/storage/memory"
	"github.com/aanand-mishra/student-management/internal/storage/postgres"
	"github.com/aanand-mishra/student-management/internal/storage/sqlite"
	"github.com/aanand-mishra/student-management/internal/types"
)

func main() {
	// ── 1. Load Config ────────────────────────────────────────────────────
	// A missing .env is fine; real environment variables still apply.
	// MustLoad exits the process if the YAML file is absent or invalid.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	// ── 2. Initialise Logger ──────────────────────────────────────────────
	// Every package logs through slog's default, so set it once here.
	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting student-management",
		slog.String("env", cfg.Env),
		slog.String("storage", cfg.Storage.Driver),
	)

	// ── 3. Run until a signal or a fatal server error ─────────────────────
	if err := run(cfg, log); err != nil {
		log.Error("student-management stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}

// run owns everything with a lifetime: storage, the HTTP server and the
// signal context. It returns nil after a clean shutdown.
func run(cfg *config.Config, log *slog.Logger) error {
	// SIGINT (Ctrl+C) or SIGTERM (kill, container stop) cancels ctx.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── 4. Initialise Storage ─────────────────────────────────────────────
	// The rest of the program only sees the storage.Storage interface.
	store, err := openStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialise storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	// ── 5. Wire the service ───────────────────────────────────────────────
	// Explicit composition: store → service → handlers.
	m := metrics.New(prometheus.DefaultRegisterer)
	svc := service.NewStudentService(store,
		service.WithLogger(log),
		service.WithMetrics(m),
	)
	validator := types.NewValidator(cfg.Validation.MinGPA, cfg.Validation.MaxGPA)

	// ── 6. Create the HTTP Server ─────────────────────────────────────────
	// Timeouts come from config so slow clients cannot hold connections.
	server := &http.Server{
		Addr:         cfg.HTTPServer.Addr,
		Handler:      newRouter(svc, validator, m, prometheus.DefaultGatherer, log),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	// ── 7. Start Server in a Goroutine ────────────────────────────────────
	// ListenAndServe blocks, so it runs beside the select below.
	// http.ErrServerClosed is the normal result of Shutdown.
	serveErr := make(chan error, 1)
	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// ── 8. Wait for Shutdown Signal ───────────────────────────────────────
	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("shutdown signal received, stopping server")
	}

	// ── 9. Graceful Shutdown ──────────────────────────────────────────────
	// Stop accepting connections and let in-flight requests finish within
	// http_server.shutdown_timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openStorage builds the backend named by cfg.Storage.Driver.
func openStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		return sqlite.New(cfg)
	case config.DriverPostgres:
		return postgres.New(ctx, cfg)
	case config.DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// setupLogger picks the handler by environment: text at debug level for
// local work, JSON for staging and prod.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case "staging":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
