package main

import (
	"fmt"

	"github.com/keshon/bridge-bot/internal/bot"
	"github.com/keshon/bridge-bot/internal/identity"
	"github.com/keshon/bridge-bot/internal/runtime"

	"github.com/spf13/cobra"
)

func newHealthCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Query the bridge health endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if st.cfg.BridgeURL == "" {
				return fmt.Errorf("BRIDGE_URL is not set")
			}
			h, err := bot.NewBridge(st.cfg, st.log).CheckHealth(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), h)
		},
	}
}

func newLinkCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "link <discord_id>",
		Short: "Resolve the Minecraft account linked to a Discord user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := st.cfg.RequireBridge(); err != nil {
				return err
			}
			rec, err := identity.NewResolver(bot.NewBridge(st.cfg, st.log)).Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}
}

func newVotesCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "votes <uuid>",
		Short: "Show the vote cooldowns of a player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := st.cfg.RequireBridge(); err != nil {
				return err
			}
			report, err := bot.NewBridge(st.cfg, st.log).VoteNext(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(report.Sites) == 0 {
				fmt.Fprintln(out, "No vote sites are configured on the server.")
				return nil
			}
			fmt.Fprintln(out, runtime.VoteSummary(report))
			for _, site := range report.Sites {
				state := runtime.FormatDuration(site.RemainingSeconds)
				if site.ReadyNow {
					state = "Ready now"
				}
				fmt.Fprintf(out, "  %-24s %s\n", site.SiteName, state)
			}
			return nil
		},
	}
}

func newEvalCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:     "eval <uuid> <placeholder>...",
		Short:   "Evaluate PlaceholderAPI placeholders for a player",
		Example: `  bridgebot eval 069a79f4-44e9-4726-a5be-fca90e38aaf5 %vault_eco_balance% %player_level%`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := st.cfg.RequireBridge(); err != nil {
				return err
			}
			res, err := bot.NewBridge(st.cfg, st.log).EvalPlaceholders(cmd.Context(), args[0], args[1:])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}
