// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/folio-labs/folio-go/internal/analytics"
	"github.com/folio-labs/folio-go/internal/auth"
	"github.com/folio-labs/folio-go/internal/cache"
	"github.com/folio-labs/folio-go/internal/captcha"
	"github.com/folio-labs/folio-go/internal/config"
	"github.com/folio-labs/folio-go/internal/content"
	"github.com/folio-labs/folio-go/internal/httpapi"
	"github.com/folio-labs/folio-go/internal/kv"
	"github.com/folio-labs/folio-go/internal/logging"
	"github.com/folio-labs/folio-go/internal/scheduler"
	"github.com/folio-labs/folio-go/internal/store"
	"github.com/folio-labs/folio-go/internal/transfer"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	importLegacy := flag.Bool("import-legacy", false,
		"Import content from the legacy MySQL site (FOLIO_LEGACY_DB_*) and exit")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "folio - portfolio site backend\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FOLIO_DB_PATH        SQLite database path (default: ./data/folio.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FOLIO_SERVER_PORT    Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FOLIO_ENV            Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FOLIO_REDIS_URL      Redis URL for distributed caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FOLIO_OAUTH_*        Identity provider settings (optional)\n")
	}

	flag.Parse()

	if *showVersion {
		_, _ = fmt.Printf("folio %s (commit: %s)\n", appVersion, appGitCommit)
		os.Exit(0)
	}

	if err := run(*importLegacy); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(importLegacy bool) error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// Logger writes WARN and ERROR records to the events table as well
	logger := logging.Setup(cfg.LogFormat, cfg.LogLevel, db)
	slog.SetDefault(logger)

	if importLegacy {
		return runLegacyImport(cfg, db, logger)
	}

	cacheBackend := cache.New(cache.FactoryOptions{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: time.Duration(cfg.CacheTTL) * time.Second,
		Logger:     logger,
	})

	var geo *analytics.GeoIP
	if cfg.GeoIPEnabled() {
		geo, err = analytics.OpenGeoIP(cfg.GeoIPDBPath)
		if err != nil {
			slog.Warn("geoip database unavailable, country lookup disabled", "error", err)
			geo = nil
		} else {
			defer func() { _ = geo.Close() }()
			slog.Info("geoip country lookup enabled", "path", cfg.GeoIPDBPath)
		}
	}

	recorder := analytics.NewRecorder(db, geo, logger)
	svc := content.NewService(db, recorder, logger)
	kvStore := kv.New(db)

	var authSvc *auth.Service
	if cfg.OAuthEnabled() {
		provider := auth.NewOAuthProvider("oauth",
			cfg.OAuthClientID, cfg.OAuthClientSecret,
			cfg.OAuthAuthURL, cfg.OAuthTokenURL, cfg.OAuthRedirectURL,
			strings.Fields(cfg.OAuthScopes))

		authSvc = auth.NewService(db, kvStore,
			map[string]auth.Provider{provider.Name(): provider},
			auth.WithLogger(logger),
			auth.WithCache(cacheBackend),
			auth.WithRefreshMargin(cfg.SessionRefreshMargin()),
			auth.WithExtendedSessionTTL(cfg.ExtendedSessionTTL()),
			auth.WithAdminCacheTTL(cfg.AdminCacheTTL()),
			auth.WithProfileCacheTTL(cfg.ProfileCacheTTL()),
		)
		authSvc.StartSessionMonitor(cfg.SessionMonitorInterval())
		defer authSvc.StopSessionMonitor()
		slog.Info("oauth sign-in enabled", "redirect_url", cfg.OAuthRedirectURL)
	} else {
		slog.Info("oauth sign-in disabled: identity provider not configured")
	}

	verifier := captcha.NewVerifier(cfg.HCaptchaSecretKey, logger)
	if verifier.Enabled() {
		slog.Info("hcaptcha verification enabled")
	}

	sched := scheduler.New(recorder, kvStore, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	var api *httpapi.Server
	if authSvc != nil {
		api = httpapi.NewServer(cfg, svc, authSvc, verifier, recorder, logger)
	} else {
		api = httpapi.NewServer(cfg, svc, nil, verifier, recorder, logger)
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func runLegacyImport(cfg *config.Config, db *sql.DB, logger *slog.Logger) error {
	if cfg.LegacyDBHost == "" || cfg.LegacyDBName == "" {
		return fmt.Errorf("legacy import requires FOLIO_LEGACY_DB_HOST and FOLIO_LEGACY_DB_NAME")
	}

	src := transfer.Config{
		Host:        cfg.LegacyDBHost,
		Port:        cfg.LegacyDBPort,
		User:        cfg.LegacyDBUser,
		Password:    cfg.LegacyDBPassword,
		Database:    cfg.LegacyDBName,
		TablePrefix: cfg.LegacyTablePrefix,
	}

	ctx := context.Background()
	if err := transfer.TestConnection(ctx, src); err != nil {
		return err
	}

	result, err := transfer.NewImporter(db, logger).Run(ctx, src)
	if err != nil {
		return fmt.Errorf("legacy import: %w", err)
	}

	slog.Info("import finished",
		"articles", result.Articles,
		"projects", result.Projects,
		"testimonials", result.Testimonials,
		"skipped", result.Skipped)
	return nil
}
