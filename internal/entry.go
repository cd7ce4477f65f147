// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/larpo1/davidlarpent.com/internal/api"
	"github.com/larpo1/davidlarpent.com/internal/docservice"
	"github.com/larpo1/davidlarpent.com/internal/gitsnap"
	"github.com/larpo1/davidlarpent.com/internal/index"
	"github.com/larpo1/davidlarpent.com/internal/mcpserver"
	"github.com/larpo1/davidlarpent.com/internal/models"
	"github.com/larpo1/davidlarpent.com/internal/persist"
	"github.com/larpo1/davidlarpent.com/internal/sse"
	"github.com/larpo1/davidlarpent.com/internal/storage"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger. The MCP transport owns stdout, so
	// logs go to stderr in that mode.
	logOut := os.Stdout
	if app.mcpOnly {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("content_path", cfg.Content.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure content directories exist.
	for _, dir := range []string{
		filepath.Join(cfg.Content.Path, models.CollectionPosts),
		filepath.Join(cfg.Content.Path, models.CollectionSources),
		cfg.Content.ImagesPath,
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	// Initialize storage.
	store, err := storage.NewFS(cfg.Content.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	imageStore, err := storage.NewFS(cfg.Content.ImagesPath)
	if err != nil {
		return fmt.Errorf("init image storage: %w", err)
	}

	// Initialize SQLite index.
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	// Run initial sync.
	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	// Git snapshotting is best-effort and only active when the content
	// directory is inside a work tree.
	var snap *gitsnap.Snapshotter
	if s := gitsnap.New(cfg.Content.Path); s.IsRepo() {
		snap = s
	} else {
		logger.Info("git snapshots disabled: content dir is not a git repository")
	}

	// Persistence coordinator.
	coord := persist.New(store, snap, logger,
		persist.WithMode(cfg.Persist.Mode),
		persist.WithDelays(
			time.Duration(cfg.Persist.WriteDelayMS)*time.Millisecond,
			time.Duration(cfg.Persist.CommitDelayMS)*time.Millisecond,
		),
		persist.WithAutoCommit(cfg.Persist.AutoCommit),
	)

	svc := docservice.NewService(store, coord, db, nil)

	if app.mcpOnly {
		logger.Info("Starting MCP server on stdio")
		return mcpserver.New(svc, imageStore).ServeStdio()
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)

	apiRouter := api.NewRouter(svc, snap, api.RouterConfig{
		EditingEnabled: cfg.Editing.Enabled,
		Token:          cfg.Editing.Token,
		RatePerSecond:  cfg.Editing.RatePerSecond,
		RateBurst:      cfg.Editing.RateBurst,
	}, broker, cfg.Content.ImagesPath)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	// Serve uploaded images.
	r.Handle("/images/*", http.StripPrefix("/images/",
		http.FileServer(http.Dir(cfg.Content.ImagesPath))))

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	g.Go(func() error {
		return index.Watch(gCtx, db, store, cfg.Content.Path, logger, func(kind, path string) {
			collection, slug := splitDocPath(path)
			broker.PublishDocumentEvent(kind, collection, slug)
		})
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		broker.Close()

		// Flush pending deferred writes and git snapshots.
		coord.Wait()

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// splitDocPath derives (collection, slug) from a content-relative path
// like "sources/dune.md".
func splitDocPath(rel string) (string, string) {
	rel = filepath.ToSlash(rel)
	collection := ""
	if i := strings.IndexByte(rel, '/'); i > 0 {
		collection = rel[:i]
	}
	slug := strings.TrimSuffix(filepath.Base(rel), ".md")
	return collection, slug
}
