package main

import (
	"fmt"

	"github.com/keshon/bridge-bot/internal/bot"
	"github.com/keshon/bridge-bot/internal/discord"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"
)

func newDeployCmd(st *cliState) *cobra.Command {
	var global, force bool
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Publish slash commands to the guild or globally",
		Long: `deploy overwrites the application commands in one call. Commands go
to DISCORD_GUILD_ID unless --global is given or no guild is configured.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := st.cfg.RequireDiscord(); err != nil {
				return err
			}
			table, err := bot.LoadDynamic(st.cfg.DynamicCommandsPath, st.log)
			if err != nil {
				return err
			}
			reg, err := bot.BuildRegistry(bot.RegistryOptions{Dynamic: table, Logger: st.log, BotName: st.cfg.EmbedFooter})
			if err != nil {
				return err
			}

			session, err := discordgo.New("Bot " + st.cfg.DiscordToken)
			if err != nil {
				return fmt.Errorf("create session: %w", err)
			}
			guildID := st.cfg.DiscordGuildID
			if global {
				guildID = ""
			}

			res, err := discord.Deploy(session, reg, discord.DeployOptions{
				AppID:   st.cfg.DiscordClientID,
				GuildID: guildID,
				Cache:   discord.HashCache{Dir: st.cfg.CommandCacheDir},
				Force:   force,
				Logger:  st.log,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if res.Skipped {
				fmt.Fprintf(out, "Commands for %s are up to date (%d). Use --force to deploy anyway.\n", res.Scope, len(res.Commands))
				return nil
			}
			fmt.Fprintf(out, "Deployed %d command(s) to %s:\n", len(res.Commands), res.Scope)
			for _, name := range res.Commands {
				fmt.Fprintf(out, "  /%s\n", name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&global, "global", false, "deploy globally instead of to DISCORD_GUILD_ID")
	cmd.Flags().BoolVar(&force, "force", false, "deploy even when the command hashes are unchanged")
	return cmd
}
