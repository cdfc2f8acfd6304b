package main

import (
	"flag"
	"os"

	"github.com/keshon/bridge-bot/internal/bot"
	"github.com/keshon/bridge-bot/internal/config"
	"github.com/keshon/bridge-bot/internal/docs"
	"github.com/keshon/bridge-bot/internal/logging"
)

func main() {
	dynamicPath := flag.String("dynamic", "config/dynamic-commands.yml", "dynamic command document")
	tmplPath := flag.String("template", "README.md.tmpl", "readme template")
	outPath := flag.String("out", "README.md", "generated readme")
	flag.Parse()

	log := logging.New(logging.Options{Level: "info"})

	table, err := bot.LoadDynamic(*dynamicPath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load dynamic commands")
	}
	reg, err := bot.BuildRegistry(bot.RegistryOptions{Dynamic: table, Logger: log, BotName: "Runbad Bot"})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build registry")
	}

	if err := docs.UpdateReadme(reg, config.CategoryWeights, *tmplPath, *outPath); err != nil {
		log.Error().Err(err).Msg("failed to update readme")
		os.Exit(1)
	}
	log.Info().Str("path", *outPath).Int("commands", reg.Len()).Msg("readme updated with current commands")
}
