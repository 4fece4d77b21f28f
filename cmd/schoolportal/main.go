// Package main is the entry point for the school portal server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"schoolportal/internal/blocks"
	"schoolportal/internal/cache"
	"schoolportal/internal/config"
	"schoolportal/internal/database"
	"schoolportal/internal/engine"
	"schoolportal/internal/handlers"
	"schoolportal/internal/middleware"
	"schoolportal/internal/render"
	"schoolportal/internal/router"
	"schoolportal/internal/session"
	"schoolportal/internal/storage"
	"schoolportal/internal/store"
	"schoolportal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Text logs in development, JSON everywhere else.
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	if cfg.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"stats_poll_interval", cfg.StatsPollInterval.String(),
	)

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

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

	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	sessionStore := session.NewStore(valkeyClient, cfg.SessionSecure)
	visitors := cache.NewVisitorCounter(valkeyClient, cfg.StatsOnlineWindow)

	renderer, err := render.New(cfg.IsDev())
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}

	userStore := store.NewUserStore(db)
	blockStore := store.NewBlockStore(db)
	postStore := store.NewPostStore(db)
	postCategoryStore := store.NewPostCategoryStore(db)
	documentStore := store.NewDocumentStore(db)
	galleryStore := store.NewGalleryStore(db)
	videoStore := store.NewVideoStore(db)
	staffStore := store.NewStaffStore(db)
	introStore := store.NewIntroStore(db)
	menuStore := store.NewMenuStore(db)
	settingStore := store.NewSiteSettingStore(db)

	// Object storage is optional; without it media references must be URLs.
	var storageClient *storage.Client
	if cfg.S3Endpoint != "" && cfg.S3AccessKey != "" {
		storageClient, err = storage.New(
			cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
			cfg.S3BucketPublic, cfg.S3BucketPrivate, cfg.S3PublicURL,
		)
		if err != nil {
			slog.Error("failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		slog.Info("s3 storage connected",
			"endpoint", cfg.S3Endpoint,
			"public_bucket", cfg.S3BucketPublic,
			"private_bucket", cfg.S3BucketPrivate,
		)
	} else {
		slog.Warn("s3 storage not configured, media references are used as-is")
	}
	media := storage.NewResolver(storageClient, 0)

	blockRenderer, err := blocks.NewRenderer(media, cfg.StatsPollInterval)
	if err != nil {
		slog.Error("failed to initialize block renderer", "error", err)
		os.Exit(1)
	}
	composer := blocks.NewComposer(blocks.Sources{
		Blocks:    blockStore,
		Posts:     postStore,
		Documents: documentStore,
		Videos:    videoStore,
		Stats:     visitors,
	}, blockRenderer)
	blockService := blocks.NewService(blockStore, postCategoryStore)

	eng, err := engine.New(cfg.IsDev(), media, settingStore, menuStore, composer)
	if err != nil {
		slog.Error("failed to initialize public templates", "error", err)
		os.Exit(1)
	}

	h := router.Handlers{
		Admin: handlers.NewAdmin(renderer, sessionStore, blockService, composer, postCategoryStore,
			settingStore, postStore, documentStore, visitors),
		Auth: handlers.NewAuth(renderer, sessionStore, userStore),
		Public: handlers.NewPublic(eng, handlers.PublicStores{
			Posts:      postStore,
			Categories: postCategoryStore,
			Documents:  documentStore,
			Gallery:    galleryStore,
			Staff:      staffStore,
			Intro:      introStore,
		}),
		Stats: handlers.NewStats(blockService, blockRenderer, visitors, cfg.StatsPollInterval),
	}

	loginLimiter := middleware.NewRateLimiter(10, 15*time.Minute)
	defer loginLimiter.Stop()

	static, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		slog.Error("failed to open static assets", "error", err)
		os.Exit(1)
	}

	r := router.New(router.Options{
		Sessions:     sessionStore,
		Visitors:     visitors,
		LoginLimiter: loginLimiter,
		Static:       static,
		Secure:       cfg.SessionSecure,
	}, h)

	// The stats stream clears its own write deadline, so WriteTimeout only
	// bounds ordinary page renders.
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return baseCtx },
	}
	// Open stats streams only end when their request context is cancelled,
	// which Shutdown does not do by itself.
	srv.RegisterOnShutdown(cancelBase)

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	slog.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		if err := srv.Close(); err != nil {
			slog.Error("server close failed", "error", err)
		}
	}

	slog.Info("server stopped gracefully")
}
