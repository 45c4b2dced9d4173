package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/timesheet/internal/application"
	"github.com/JonMunkholm/timesheet/internal/config"
	"github.com/JonMunkholm/timesheet/internal/core"
	"github.com/JonMunkholm/timesheet/internal/logging"
	"github.com/JonMunkholm/timesheet/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	envErr := godotenv.Overload()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stdout)
	if envErr != nil {
		logger.Info("no .env file found, using environment variables")
	}

	logger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_max_conns", cfg.Database.MaxConns,
		"import_max_concurrent", cfg.Import.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"watch_dir", cfg.Import.WatchDir,
	)
	logger.Debug("effective configuration", "config", cfg.String())

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := application.Open(ctx, cfg, logger, application.Options{})
	if err != nil {
		return err
	}
	defer app.Close()

	server := web.NewServer(app.Service, cfg, app.Pool, logger)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(server.Start)

	if cfg.Import.WatchDir != "" {
		dropDir := core.NewDropDir(app.Service, application.DropDirConfig(cfg), logger)
		g.Go(func() error { return dropDir.Run(gCtx) })
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
		if err := app.Service.Shutdown(shutdownCtx); err != nil {
			logger.Warn("imports did not complete in time", "error", err)
		} else {
			logger.Info("all imports completed")
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
