package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/catalog-import/internal/backend"
	"github.com/JonMunkholm/catalog-import/internal/config"
	"github.com/JonMunkholm/catalog-import/internal/importer"
	"github.com/JonMunkholm/catalog-import/internal/logging"
	"github.com/JonMunkholm/catalog-import/internal/web"
)

func main() {
	// Load .env file if it exists; real environment variables win
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	closeLog := logging.Setup(logging.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.FileMaxSizeMB,
		MaxBackups: cfg.Logging.FileMaxBackups,
		MaxAgeDays: cfg.Logging.FileMaxAgeDays,
	})
	defer closeLog()

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"backend", cfg.Backend.BaseURL,
		"import_max_concurrent", cfg.Import.MaxConcurrent,
		"header_conflict", cfg.Import.HeaderConflict,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	policy, err := importer.ParseHeaderConflictPolicy(cfg.Import.HeaderConflict)
	if err != nil {
		slog.Error("invalid header conflict policy", "error", err)
		os.Exit(1)
	}

	client := backend.New(cfg.Backend.BaseURL, cfg.Backend.Timeout, backend.WithToken(cfg.Backend.Token))
	imp := importer.New(client, importer.Config{
		HeaderConflict: policy,
		MaxConcurrent:  cfg.Import.MaxConcurrent,
		MaxWait:        cfg.Import.MaxWaitTime,
		Timeout:        cfg.Import.Timeout,
	})

	server := web.NewServer(imp, cfg)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Stop accepting new imports first, then let running ones finish
		go func() {
			if err := server.Shutdown(shutdownCtx); err != nil {
				slog.Error("shutdown error", "error", err)
			}
		}()

		if status := imp.Limiter().Status(); status.Active > 0 {
			slog.Info("waiting for imports to complete", "active", status.Active)
			if err := imp.Limiter().WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
				return
			}
			slog.Info("all imports completed")
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}
