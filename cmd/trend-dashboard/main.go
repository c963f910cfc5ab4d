package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/trend-dashboard/internal/app"
	"github.com/lueurxax/trend-dashboard/internal/platform/config"
)

func main() {
	mode := flag.String("mode", string(config.ModeServe), "Service mode (serve, export, migrate)")
	scope := flag.String("scope", "all", "Export scope (all, month, week)")
	value := flag.String("value", "", "Export scope value (YYYY-MM for month, ISO week number for week)")
	format := flag.String("format", "xlsx", "Export format (xlsx, csv)")
	out := flag.String("out", "", "Export target file or directory, - for stdout")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := config.Mode(strings.ToLower(strings.TrimSpace(*mode)))
	if m != config.ModeServe && m != config.ModeExport && m != config.ModeMigrate {
		log.Fatalf("Usage: %s --mode=[serve|export|migrate]", os.Args[0])
	}

	application, err := app.New(ctx, cfg, m, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize application")
	}
	defer application.Close()

	err = runMode(ctx, application, m, app.ExportRequest{Scope: *scope, Value: *value, Format: *format, Out: *out})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("application stopped")
			return
		}

		logger.Error().Err(err).Msg("application error")
		application.Close()
		os.Exit(1)
	}
}

func newLogger(appEnv, level string) zerolog.Logger {
	var logger zerolog.Logger
	if appEnv == "local" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	if lvl, err := zerolog.ParseLevel(strings.ToLower(level)); err == nil && level != "" {
		logger = logger.Level(lvl)
	}

	return logger
}

func runMode(ctx context.Context, application *app.App, mode config.Mode, req app.ExportRequest) error {
	switch mode {
	case config.ModeServe:
		return application.RunServe(ctx)
	case config.ModeExport:
		path, err := application.RunExport(ctx, req)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}

		if path != app.StdoutTarget {
			_, _ = fmt.Fprintln(os.Stderr, path)
		}

		return nil
	case config.ModeMigrate:
		return application.RunMigrate(ctx)
	default:
		return nil
	}
}
