package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/keshon/bridge-bot/internal/config"
	"github.com/keshon/bridge-bot/internal/logging"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type cliState struct {
	verbose bool
	cfg     *config.Config
	log     zerolog.Logger
}

func newRootCmd() *cobra.Command {
	st := &cliState{}
	root := &cobra.Command{
		Use:   "bridgebot",
		Short: "Operator tools for the bridge bot",
		Long: `bridgebot deploys slash commands, validates the dynamic command
document and queries the game-server bridge directly.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			level := "warn"
			if st.verbose {
				level = "debug"
			}
			st.cfg = cfg
			st.log = logging.New(logging.Options{Level: level, Format: cfg.LogFormat})
			return nil
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().BoolVarP(&st.verbose, "verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newDeployCmd(st),
		newValidateCmd(st),
		newHealthCmd(st),
		newLinkCmd(st),
		newVotesCmd(st),
		newEvalCmd(st),
	)
	return root
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
