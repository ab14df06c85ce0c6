package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kapu/lolbot-go/internal/adapter"
	"github.com/kapu/lolbot-go/internal/command"
	"github.com/kapu/lolbot-go/internal/command/fun"
	"github.com/kapu/lolbot-go/internal/command/osu"
	"github.com/kapu/lolbot-go/internal/config"
	"github.com/kapu/lolbot-go/internal/discord"
	"github.com/kapu/lolbot-go/internal/service/poster"
	"github.com/kapu/lolbot-go/internal/service/upstream"
	"github.com/kapu/lolbot-go/internal/telemetry"
	"go.uber.org/zap"
)

const serviceName = "lolbot"

// Container bundles assembled services for constructing the bot.
type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	Registry *command.Registry

	botDeps *discord.Dependencies
	closers []func()
}

// NewBot instantiates a bot using the pre-built dependency graph.
func (c *Container) NewBot() (*discord.Bot, error) {
	if c == nil || c.botDeps == nil {
		return nil, fmt.Errorf("bot dependencies not initialized")
	}
	return discord.NewBot(c.botDeps)
}

// Close releases shared resources in reverse order of acquisition.
func (c *Container) Close() {
	if c == nil {
		return
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Build assembles the command modules and their shared infrastructure. The
// HTTP client created here is the one session every upstream call reuses.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	httpClient := &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}
	closers = append(closers, httpClient.CloseIdleConnections)

	tel := telemetry.New(serviceName)
	closers = append(closers, func() {
		if shutdownErr := tel.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
			logger.Warn("Failed to shut down telemetry", zap.Error(shutdownErr))
		}
	})

	metricsMW, err := command.Metrics(tel.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
	}

	registry := command.NewRegistry()
	registry.Use(command.Logging(logger), metricsMW)

	client := upstream.NewClient(httpClient)
	modules := []command.Module{
		fun.Setup(fun.Dependencies{Client: client}),
		osu.Setup(osu.Dependencies{
			Client: client,
			APIKey: cfg.Osu.APIKey,
			Prefix: cfg.Bot.Prefix,
		}),
	}
	for _, m := range modules {
		if err := registry.AddModule(m); err != nil {
			return nil, fmt.Errorf("failed to load module %s: %w", m.Name(), err)
		}
		logger.Info("Module loaded", zap.String("module", m.Name()), zap.Int("commands", len(m.Commands())))
	}
	if err := registry.Register(command.NewHelpCommand(registry)); err != nil {
		return nil, fmt.Errorf("failed to register help: %w", err)
	}

	if cfg.Osu.APIKey == "" {
		logger.Warn("OSU_API_KEY not set, osu! commands will report a missing key")
	}

	statsPoster := poster.New(httpClient, poster.Config{
		DBLToken:      cfg.Stats.DBLToken,
		DBotsToken:    cfg.Stats.DBotsToken,
		DatadogAPIKey: cfg.Stats.DatadogAPIKey,
		DatadogSite:   cfg.Stats.DatadogSite,
	}, tel, logger)
	if targets := statsPoster.Targets(); len(targets) > 0 {
		names := make([]string, 0, len(targets))
		for _, t := range targets {
			names = append(names, string(t))
		}
		logger.Info("Stats posting enabled", zap.Strings("targets", names))
	}

	deps := &discord.Dependencies{
		Token:         cfg.Discord.Token,
		MaxConcurrent: cfg.Bot.MaxConcurrent,
		Logger:        logger,
		Registry:      registry,
		Parser:        adapter.NewMessageAdapter(cfg.Bot.Prefix),
		Formatter:     adapter.NewResponseFormatter(),
		Poster:        statsPoster,
	}

	return &Container{
		Config:   cfg,
		Logger:   logger,
		Registry: registry,
		botDeps:  deps,
		closers:  closers,
	}, nil
}
