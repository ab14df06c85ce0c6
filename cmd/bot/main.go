package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kapu/lolbot-go/internal/app"
	"github.com/kapu/lolbot-go/internal/config"
	"github.com/kapu/lolbot-go/internal/util"
	"go.uber.org/zap"
)

const (
	buildTimeout    = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	code := 0
	if err := run(cfg, logger); err != nil {
		logger.Error("lolbot exited with error", zap.Error(err))
		code = 1
	}
	_ = logger.Sync()
	if err := closeLog(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close log file: %v\n", err)
	}
	os.Exit(code)
}

// run owns everything acquired after logging is up, so deferred releases
// happen before the process exits.
func run(cfg *config.Config, logger *zap.Logger) error {
	buildCtx, buildCancel := context.WithTimeout(context.Background(), buildTimeout)
	container, err := app.Build(buildCtx, cfg, logger)
	buildCancel()
	if err != nil {
		return fmt.Errorf("assemble services: %w", err)
	}
	defer container.Close()

	var modules, commands []string
	for _, m := range container.Registry.Modules() {
		modules = append(modules, m.Name())
	}
	for _, cmd := range container.Registry.Commands() {
		commands = append(commands, cmd.Name())
	}
	logger.Info("lolbot starting",
		zap.String("prefix", cfg.Bot.Prefix),
		zap.Strings("modules", modules),
		zap.Strings("commands", commands),
		zap.Bool("osu_configured", cfg.Osu.APIKey != ""),
		zap.Int("max_concurrent", cfg.Bot.MaxConcurrent),
	)

	discordBot, err := container.NewBot()
	if err != nil {
		return fmt.Errorf("initialize bot: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- discordBot.Start(ctx)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case runErr = <-errCh:
		if runErr != nil {
			logger.Error("Gateway stopped", zap.Error(runErr))
		}
	}
	stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := discordBot.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Shutdown complete")
	return runErr
}
