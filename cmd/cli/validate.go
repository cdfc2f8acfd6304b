package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/keshon/bridge-bot/internal/bot"
	"github.com/keshon/bridge-bot/internal/dynamic"

	"github.com/spf13/cobra"
)

func newValidateCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [path]",
		Short: "Check the dynamic command document",
		Long: `validate parses the dynamic command document (DYNAMIC_COMMANDS_PATH by
default) and lists the commands it yields with their placeholders, followed by
every skipped entry. Disabled entries are listed; any other skipped entry
fails the check.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := st.cfg.DynamicCommandsPath
			if len(args) == 1 {
				path = args[0]
			}
			table, problems, err := dynamic.Load(path, bot.Builtins...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d command(s)\n", path, table.Len())
			for _, c := range table.All() {
				override := ""
				if c.Spec.PrivilegedLookup {
					override = " [staff override]"
				}
				fmt.Fprintf(out, "  /%s%s: %s\n", c.Spec.Name, override, strings.Join(c.Placeholders.Slice(), " "))
			}

			invalid := 0
			for _, p := range problems {
				if errors.Is(p, dynamic.ErrDisabled) {
					fmt.Fprintf(out, "  entry %d (%s) disabled\n", p.Entry, p.Name)
					continue
				}
				invalid++
				fmt.Fprintf(out, "  invalid: %v\n", p)
			}
			if invalid > 0 {
				return fmt.Errorf("%d invalid entry(ies)", invalid)
			}
			return nil
		},
	}
}
