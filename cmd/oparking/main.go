// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/olegiv/oparking/internal/billing"
	"github.com/olegiv/oparking/internal/cache"
	"github.com/olegiv/oparking/internal/config"
	"github.com/olegiv/oparking/internal/events"
	"github.com/olegiv/oparking/internal/handler"
	"github.com/olegiv/oparking/internal/logging"
	"github.com/olegiv/oparking/internal/middleware"
	"github.com/olegiv/oparking/internal/render"
	"github.com/olegiv/oparking/internal/scheduler"
	"github.com/olegiv/oparking/internal/service"
	"github.com/olegiv/oparking/internal/session"
	"github.com/olegiv/oparking/internal/store"
	"github.com/olegiv/oparking/internal/version"
	"github.com/olegiv/oparking/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

const (
	cmdServe   = "serve"
	cmdMigrate = "migrate"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "oParking - parking lot reservations\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options] [serve | migrate [-sample-lots]]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Commands:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  serve      Run the web server (default)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  migrate    Apply migrations and seed the admin account\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OPARKING_SESSION_SECRET   Session encryption key (required by serve, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OPARKING_DB_PATH          SQLite database path (default: ./data/oparking.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OPARKING_SERVER_PORT      Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OPARKING_ENV              Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OPARKING_HOURLY_RATE      Parking fee per hour (default: 10)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OPARKING_REDIS_URL        Redis URL for the availability cache (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OPARKING_AMQP_URL         AMQP broker for reservation events (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OPARKING_ADMIN_PASSWORD   Admin password used by migrate on first run\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("oparking %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(flag.Args()); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	_ = godotenv.Load()

	command := cmdServe
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	switch command {
	case cmdServe, cmdMigrate:
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}

	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("opening database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	if command == cmdMigrate {
		return migrate(cfg, db, args)
	}
	return serve(cfg, db, logLevel)
}

func migrate(cfg *config.Config, db *sql.DB, args []string) error {
	fset := flag.NewFlagSet(cmdMigrate, flag.ContinueOnError)
	sampleLots := fset.Bool("sample-lots", false, "Seed two sample lots when none exist")
	if err := fset.Parse(args); err != nil {
		return err
	}

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	err := store.Seed(context.Background(), db, store.SeedOptions{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
		AdminName:     cfg.AdminName,
		SampleLots:    *sampleLots,
	})
	if err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}

	slog.Info("database ready")
	return nil
}

func serve(cfg *config.Config, db *sql.DB, logLevel slog.Level) error {
	if err := cfg.ValidateSessionSecret(); err != nil {
		return err
	}
	if err := store.CheckSchema(db); err != nil {
		return err
	}

	// WARN and ERROR records also go to the event log table
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	ctx := context.Background()
	isDev := cfg.IsDevelopment()

	appCache, cacheBackend := cache.New(ctx, cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: cfg.CacheDuration(),
	}, logger)
	defer func() {
		if err := appCache.Close(); err != nil {
			slog.Error("error closing cache", "error", err)
		}
	}()
	availability := cache.NewAvailabilityCache(appCache, cfg.CacheDuration(), logger)

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.UseAMQP() {
		amqpPublisher := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPQueue, logger)
		if err := amqpPublisher.Connect(); err != nil {
			// Publish reconnects lazily
			slog.Warn("event broker unavailable at startup", "error", err)
		}
		publisher = amqpPublisher
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			slog.Error("error closing event publisher", "error", err)
		}
	}()

	calc := billing.NewCalculator(cfg.HourlyRate, cfg.Currency)

	eventService := service.NewEventService(db)
	identityService := service.NewIdentityService(db, logger)
	inventoryService := service.NewInventoryService(db, availability, logger)
	parkingService := service.NewParkingService(db, calc, logger, service.ParkingOptions{
		Availability: availability,
		Publisher:    publisher,
		EventLog:     eventService,
	})

	sessionManager := session.New(db, isDev)

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}
	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		return fmt.Errorf("loading static files: %w", err)
	}

	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sessionManager,
		Billing:        calc,
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	defer loginProtection.Stop()

	jobs := scheduler.New(scheduler.Config{
		Reservations: parkingService,
		Events:       eventService,
		StaleAfter:   cfg.StaleAfter(),
		Retention:    cfg.EventRetention(),
	}, logger)
	if err := jobs.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer jobs.Stop()

	versionInfo := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	router := handler.NewRouter(handler.RouterConfig{
		Auth:   handler.NewAuthHandler(identityService, eventService, renderer, sessionManager, loginProtection),
		Home:   handler.NewHomeHandler(renderer),
		Admin:  handler.NewAdminHandler(identityService, inventoryService, parkingService, eventService, renderer, sessionManager),
		Events: handler.NewEventsHandler(eventService, renderer),
		User:   handler.NewUserHandler(inventoryService, parkingService, renderer, sessionManager),
		Health: handler.NewHealthHandler(db, versionInfo, cacheBackend).WithCacheStats(availability),

		Renderer:        renderer,
		SessionManager:  sessionManager,
		Users:           identityService,
		LoginProtection: loginProtection,
		CSRF:            middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), isDev)),
		Security:        middleware.DefaultSecurityHeadersConfig(isDev),
		Static:          staticFS,
		RequestTimeout:  30 * time.Second,
		RequestLogging:  isDev,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", versionInfo.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
