// Package main is the entrypoint for the clipforge dashboard API server.
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
	"time"

	"github.com/joho/godotenv"
	_ "go.uber.org/automaxprocs"
	"golang.org/x/sync/errgroup"

	"github.com/kiranshivaraju/clipforge/internal/api"
	"github.com/kiranshivaraju/clipforge/internal/api/handler"
	mw "github.com/kiranshivaraju/clipforge/internal/api/middleware"
	"github.com/kiranshivaraju/clipforge/internal/backend"
	"github.com/kiranshivaraju/clipforge/internal/cache"
	"github.com/kiranshivaraju/clipforge/internal/config"
	"github.com/kiranshivaraju/clipforge/internal/dashboard"
	"github.com/kiranshivaraju/clipforge/internal/session"
	"github.com/kiranshivaraju/clipforge/internal/store"
)

const (
	shutdownTimeout = 30 * time.Second
	migrationsDir   = "migrations"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("reading .env failed", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// 1. Load config, fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded",
		"env", cfg.Server.Env,
		"backend_mode", cfg.Backend.Mode,
		"backend_url", cfg.Backend.BaseURL,
		"history", cfg.HistoryEnabled(),
		"cache", cfg.CacheEnabled(),
		"auth", cfg.Auth.Enabled,
	)

	app, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.close()

	// 2. Start HTTP server and the idle session reaper
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := newHTTPServer(addr, app.router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return app.sessions.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received, draining connections...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("server stopped gracefully")
	return nil
}

// newHTTPServer bounds header reads only. Upload bodies stream to the backend
// and jobs run as long as BACKEND_TIMEOUT allows.
func newHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// application is everything run needs after wiring.
type application struct {
	router   http.Handler
	sessions *session.Manager
	closers  []func()
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// buildApp connects the optional Postgres and Redis dependencies and builds the
// router. Whatever was opened is closed again if a later step fails.
func buildApp(ctx context.Context, cfg *config.Config) (_ *application, err error) {
	app := &application{}
	defer func() {
		if err != nil {
			app.close()
		}
	}()

	client, err := backend.NewClient(cfg.Backend)
	if err != nil {
		return nil, fmt.Errorf("create backend client: %w", err)
	}

	var sessionOpts []dashboard.Option
	checks := map[string]handler.Pinger{
		"backend":  handler.PingFunc(client.Ready),
		"database": nil,
		"cache":    nil,
	}
	deps := api.Dependencies{}

	if cfg.HistoryEnabled() {
		pool, err := store.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		app.closers = append(app.closers, pool.Close)
		slog.Info("database connected")

		if err := store.RunMigrations(cfg.Database.URL, migrationsDir); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		slog.Info("database migrations applied")

		pgStore := store.NewPostgresStore(pool)
		sessionOpts = append(sessionOpts, dashboard.WithRecorder(pgStore))
		checks["database"] = pgStore
		deps.JobHistory = handler.NewJobHistoryHandler(pgStore)
		deps.IngestionHistory = handler.NewIngestionHistoryHandler(pgStore)

		if cfg.Auth.Enabled {
			deps.Auth = mw.NewAuth(pgStore)
			deps.CreateKeyHandler = handler.NewCreateKeyHandler(pgStore)
			deps.ListKeysHandler = handler.NewListKeysHandler(pgStore)
			deps.RevokeKeyHandler = handler.NewRevokeKeyHandler(pgStore)
		}
	}

	if cfg.CacheEnabled() {
		redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("create redis cache: %w", err)
		}
		app.closers = append(app.closers, func() { redisCache.Close() })

		if err := redisCache.Ping(ctx); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		slog.Info("redis connected")

		checks["cache"] = redisCache
		if cfg.Redis.ValidationCacheTTL > 0 {
			sessionOpts = append(sessionOpts,
				dashboard.WithValidationCache(cache.NewValidationCache(redisCache, cfg.Redis.ValidationCacheTTL)))
		}
		deps.RateLimit = mw.NewRateLimit(redisCache, cfg.Auth.RateLimitPerMin)
	}

	app.sessions = session.NewManager(client, cfg.Session.IdleTTL,
		session.WithSessionOptions(sessionOpts...))

	deps.HealthHandler = handler.NewHealthHandler(checks)
	deps.CreateSession = handler.NewCreateSessionHandler(app.sessions)
	deps.GetSession = handler.NewGetSessionHandler(app.sessions)
	deps.DeleteSession = handler.NewDeleteSessionHandler(app.sessions)
	deps.ValidateURL = handler.NewValidateURLHandler(app.sessions)
	deps.IngestURL = handler.NewIngestURLHandler(app.sessions)
	deps.UploadFile = handler.NewUploadHandler(app.sessions)
	deps.CreateJob = handler.NewCreateJobHandler(app.sessions)
	deps.RunPreset = handler.NewRunPresetHandler(app.sessions)

	app.router = api.NewRouter(deps)
	return app, nil
}
