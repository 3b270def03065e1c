// Package main is the entry point for the Lightway Networks site server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fibersite/internal/access"
	"fibersite/internal/cache"
	"fibersite/internal/config"
	"fibersite/internal/content"
	"fibersite/internal/database"
	"fibersite/internal/editor"
	"fibersite/internal/handlers"
	"fibersite/internal/regions"
	"fibersite/internal/render"
	"fibersite/internal/router"
	"fibersite/internal/session"
	"fibersite/internal/storage"
	"fibersite/internal/store"
)

func main() {
	// Structured logger — text output; levels below Info stay quiet outside dev.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (session store + page-content mirror).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// Initialize session store backed by Valkey.
	// In non-development environments, mark session cookies as Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)

	// Initialize the HTML template renderer.
	renderer, err := render.New(cfg.IsDev())
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}

	// Initialize data stores.
	userStore := store.NewUserStore(db)
	recordStore := store.NewRecordStore(db)
	assignmentStore := store.NewAssignmentStore(db)
	mediaStore := store.NewMediaStore(db)

	// Connect to S3-compatible object storage (optional — the site works
	// without it; media uploads are then disabled).
	storageClient, err := storage.New(
		cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
		cfg.S3Bucket, cfg.S3PublicURL,
	)
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	if storageClient != nil {
		slog.Info("s3 storage connected",
			"endpoint", cfg.S3Endpoint,
			"bucket", cfg.S3Bucket,
		)
	} else {
		slog.Warn("s3 storage not configured — media uploads disabled")
	}

	// Content pipeline: permission resolver, record-backed content service,
	// the Valkey mirror, and the region hydrator that ties them together.
	resolver := access.NewResolver(assignmentStore)
	contentService := content.NewService(recordStore)
	contentCache := cache.NewContentCache(valkeyClient, cache.DefaultContentTTL)
	hydrator := regions.NewHydrator(contentService, contentCache, regions.DefaultFetchTimeout)

	// Edit sessions live in memory, keyed by session and page.
	editorManager := editor.NewManager()

	// Create handler groups with their dependencies.
	authHandlers := handlers.NewAuth(renderer, sessionStore, userStore, editorManager)
	publicHandlers := handlers.NewPublic(renderer, hydrator)
	editorHandlers := handlers.NewEditor(renderer, editorManager, resolver, contentService, contentCache, hydrator, mediaStore, storageClient)
	adminHandlers := handlers.NewAdmin(renderer, userStore, assignmentStore, recordStore)

	// Set up the Chi router with all middleware and routes.
	r := router.New(sessionStore, authHandlers, publicHandlers, editorHandlers, adminHandlers, router.Options{
		SecureCookies: secureCookies,
	})

	// Create the HTTP server with sensible timeouts. Snapshot imports are
	// the largest request bodies; they stay well under the read timeout.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
