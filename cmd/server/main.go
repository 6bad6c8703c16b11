// Command server runs the classroom backend: the shared leaderboard,
// per-student progress snapshots, the class roster, the lesson catalog, and
// the teacher dashboard feed. With no database configured it runs entirely
// on in-memory stores, which is how it is used in a single-classroom setup.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hanhtrang/lop1-engine/internal/grading"
	"github.com/hanhtrang/lop1-engine/internal/leaderboard"
	"github.com/hanhtrang/lop1-engine/internal/lesson"
	"github.com/hanhtrang/lop1-engine/internal/platform/cache"
	"github.com/hanhtrang/lop1-engine/internal/platform/config"
	"github.com/hanhtrang/lop1-engine/internal/platform/database"
	"github.com/hanhtrang/lop1-engine/internal/progress"
	"github.com/hanhtrang/lop1-engine/internal/roster"
	"github.com/hanhtrang/lop1-engine/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	srv, cleanup, err := buildServer(ctx, cfg)
	if err != nil {
		slog.Error("failed to build server", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      srv.Mux(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr, "class", cfg.Class.ID)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func setupLogging(cfg config.LogConfig) {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// buildServer assembles the stores behind the HTTP surface. A configured
// database URL selects the Postgres stores; otherwise everything runs in
// memory and the process is self-contained.
func buildServer(ctx context.Context, cfg *config.Config) (*server.Server, func(), error) {
	cleanup := func() {}

	lessons, err := lesson.NewLoader(cfg.LessonsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading lesson catalog: %w", err)
	}

	var (
		boards leaderboard.Store
		snaps  progress.SnapshotStore
		rost   roster.Store
	)

	if cfg.Database.URL != "" {
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		cleanup = db.Close

		boards, err = leaderboard.NewPostgresStore(ctx, db.Pool)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("preparing leaderboard store: %w", err)
		}
		snaps, err = progress.NewPostgresSnapshotStore(ctx, db.Pool)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("preparing snapshot store: %w", err)
		}
		rost, err = roster.NewPostgresStore(ctx, db.Pool)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("preparing roster store: %w", err)
		}
		slog.Info("using postgres stores")
	} else {
		boards = leaderboard.NewMemoryStore()
		snaps = progress.NewMemorySnapshotStore()
		rost = roster.NewMemoryStore()
		slog.Info("using in-memory stores")
	}

	if cfg.Cache.URL != "" {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connecting to cache: %w", err)
		}
		dbCleanup := cleanup
		cleanup = func() {
			c.Close()
			dbCleanup()
		}
		boards = leaderboard.NewCachedStore(boards, leaderboard.NewRedisTopCache(c.Client, leaderboard.DefaultCacheTTL))
		slog.Info("leaderboard cache enabled")
	}

	var analyzer grading.Analyzer
	if cfg.Grading.URL != "" {
		analyzer = grading.NewHTTPClient(cfg.Grading.URL)
		slog.Info("grading service configured", "url", cfg.Grading.URL)
	}

	if cfg.Class.SeedRoster {
		if err := roster.Seed(ctx, rost); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("seeding roster: %w", err)
		}
	}

	return server.New(server.Config{
		Leaderboard: boards,
		Snapshots:   snaps,
		Roster:      rost,
		Lessons:     lessons,
		Grading:     analyzer,
		ClassID:     cfg.Class.ID,
	}), cleanup, nil
}
