// cmd/discord/main.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/keshon/bridge-bot/internal/bot"
	"github.com/keshon/bridge-bot/internal/config"
	"github.com/keshon/bridge-bot/internal/discord"
	"github.com/keshon/bridge-bot/internal/logging"
	"github.com/keshon/bridge-bot/internal/status"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	log.Info().Bool("dotenv", cfg.DotEnvLoaded).Msg("starting bridge bot")

	if err := requireSettings(cfg); err != nil {
		log.Fatal().Err(err).Msg("missing configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := bot.NewBridge(cfg, log)
	client.LogHealth(ctx, logging.Component(log, "bridge"))

	table, err := bot.LoadDynamic(cfg.DynamicCommandsPath, logging.Component(log, "dynamic"))
	if err != nil {
		log.Error().Err(err).Msg("dynamic commands not loaded")
	}

	recorder := bot.OpenAudit(ctx, cfg, log)
	defer func() {
		if err := recorder.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close audit store")
		}
	}()

	rt := bot.NewRuntime(cfg, client, recorder, log)
	reg, err := bot.BuildRegistry(bot.RegistryOptions{
		Runner:  rt,
		Dynamic: table,
		Audit:   recorder,
		Logger:  log,
		BotName: cfg.EmbedFooter,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register commands")
	}
	log.Info().Int("commands", reg.Len()).Msg("commands registered")

	g, gctx := errgroup.WithContext(ctx)

	jobs, err := bot.StartBackground(gctx, client, cfg.BridgeHealthInterval, logging.Component(log, "jobs"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start background jobs")
	}
	defer jobs.Wait()

	b := discord.New(discord.Options{
		Token:         cfg.DiscordToken,
		Registry:      reg,
		Embeds:        discord.Embeds{Footer: cfg.EmbedFooter},
		Logger:        logging.Component(log, "discord"),
		DeployOnReady: cfg.DeployOnStart,
		GuildID:       cfg.DiscordGuildID,
		Cache:         discord.HashCache{Dir: cfg.CommandCacheDir},
	})
	g.Go(func() error { return b.Run(gctx) })

	if cfg.StatusAddr != "" {
		gin.SetMode(gin.ReleaseMode)
		srv := status.New(status.Options{
			Addr:     cfg.StatusAddr,
			Bridge:   client,
			Commands: func() []status.CommandInfo { return bot.CommandInfos(reg, table) },
			Jobs:     jobs,
			Logger:   logging.Component(log, "status"),
		})
		g.Go(func() error { return srv.Run(gctx) })
	}

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("bridge bot stopped with error")
		return
	}
	log.Info().Msg("bridge bot exited cleanly")
}

// requireSettings checks everything the bot process needs before it connects.
func requireSettings(cfg *config.Config) error {
	return errors.Join(cfg.RequireDiscord(), cfg.RequireBridge())
}
