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
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/forge/internal/api"
	"github.com/starford/forge/internal/content"
	"github.com/starford/forge/internal/mcpserver"
	"github.com/starford/forge/internal/resolver"
	"github.com/starford/forge/internal/sse"
	"github.com/starford/forge/internal/workspace"
)

// drainInterval is how often the owning loop replays pending watcher
// events against the tree.
const drainInterval = 500 * time.Millisecond

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

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("content_path", cfg.Workspace.Content),
		slog.String("source_path", cfg.Workspace.Source),
		slog.String("cache_path", cfg.Cache.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	db, res, err := buildDatabase(cfg, logger)
	if err != nil {
		return err
	}
	defer res.Close()

	// Initial fast load: synchronous, events suppressed.
	if err := db.Load(); err != nil {
		return fmt.Errorf("initial load: %w", err)
	}

	// SSE broker rebroadcasting database events.
	broker := sse.NewBroker()
	defer broker.Close()
	db.Events().SubscribeItemAdded(func(it *content.Item) {
		broker.PublishItemEvent("item.added", it.Path)
	})
	db.Events().SubscribeItemRemoved(func(it *content.Item) {
		broker.PublishItemEvent("item.removed", it.Path)
	})
	db.Events().SubscribeWorkspaceModified(func() {
		broker.Publish(sse.Event{Type: "workspace.modified", Data: map[string]string{}})
	})

	// Build API service and router.
	svc := api.NewService(db)
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, http.HandlerFunc(broker.ServeHTTP))

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

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Owning loop: drains the dirty queue and services queries.
	g.Go(func() error {
		return db.Run(gCtx, drainInterval)
	})

	// Filesystem watcher feeding the dirty queue.
	g.Go(func() error {
		return content.Watch(gCtx, db, logger)
	})

	// HTTP server.
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
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP starts the MCP stdio server over the content database. Logging
// goes to stderr because stdout carries the MCP transport.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	db, res, err := buildDatabase(cfg, logger)
	if err != nil {
		return err
	}
	defer res.Close()

	if err := db.Load(); err != nil {
		return fmt.Errorf("initial load: %w", err)
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return db.Run(gCtx, drainInterval)
	})
	g.Go(func() error {
		return content.Watch(gCtx, db, logger)
	})
	g.Go(func() error {
		return mcpserver.New(db).ServeStdio()
	})
	return g.Wait()
}

// buildDatabase wires the resolver, registry, and the four mount trees.
// The returned resolver service must be closed by the caller.
func buildDatabase(cfg *Config, logger *slog.Logger) (*content.Database, *resolver.Service, error) {
	for _, dir := range []string{cfg.Workspace.Content, cfg.Workspace.Source, cfg.Workspace.Engine, cfg.Workspace.Editor} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create mount dir %s: %w", dir, err)
		}
	}

	res, err := resolver.New(cfg.Cache.Path, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("init resolver: %w", err)
	}

	type mountSpec struct {
		kind    content.MountKind
		path    string
		assets  bool
		scripts bool
	}
	specs := []mountSpec{
		{content.MountProjectContent, cfg.Workspace.Content, true, false},
		{content.MountProjectSource, cfg.Workspace.Source, false, true},
		{content.MountEnginePrivate, cfg.Workspace.Engine, true, false},
		{content.MountEditorPrivate, cfg.Workspace.Editor, true, false},
	}
	mounts := make([]*content.MountNode, 0, len(specs))
	for _, spec := range specs {
		ws, wsErr := workspace.New(spec.path)
		if wsErr != nil {
			res.Close()
			return nil, nil, fmt.Errorf("init mount %s: %w", spec.kind, wsErr)
		}
		mounts = append(mounts, content.NewMount(spec.kind, ws, spec.assets, spec.scripts))
	}

	registry := content.DefaultRegistry(false)
	db := content.New(logger, registry, res, cfg.Workspace.ScriptExt, mounts...)
	return db, res, nil
}
