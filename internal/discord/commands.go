package discord

import (
	"fmt"
	"sort"

	"github.com/keshon/bridge-bot/internal/command"
	"github.com/keshon/bridge-bot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

// CommandDeployer is the part of *discordgo.Session used to publish commands.
type CommandDeployer interface {
	ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// DeployOptions selects where commands are published. An empty GuildID
// deploys globally.
type DeployOptions struct {
	AppID   string
	GuildID string
	Cache   HashCache
	// Force deploys even when the cached hashes match.
	Force  bool
	Logger zerolog.Logger
}

// DeployResult reports what Deploy did.
type DeployResult struct {
	Scope    string
	Commands []string
	Skipped  bool
}

// Deploy replaces the application commands of the scope with the registry's
// definitions in a single bulk overwrite.
func Deploy(d CommandDeployer, reg *cmd.Registry, opts DeployOptions) (DeployResult, error) {
	if opts.AppID == "" {
		return DeployResult{}, fmt.Errorf("application ID is required")
	}
	scope := opts.GuildID
	if scope == "" {
		scope = globalScope
	}

	defs := CommandDefinitions(reg)
	res := DeployResult{Scope: scope}
	for _, d := range defs {
		res.Commands = append(res.Commands, d.Name)
	}

	hashes := hashSet(defs)
	if !opts.Force && opts.Cache.Dir != "" && opts.Cache.Unchanged(scope, hashes) {
		opts.Logger.Info().Str("scope", scope).Int("commands", len(defs)).Msg("commands unchanged, deploy skipped")
		res.Skipped = true
		return res, nil
	}

	opts.Logger.Info().Str("scope", scope).Strs("commands", res.Commands).Msg("deploying commands")
	if _, err := d.ApplicationCommandBulkOverwrite(opts.AppID, opts.GuildID, defs); err != nil {
		return res, fmt.Errorf("deploy commands to %s: %w", scope, err)
	}

	if opts.Cache.Dir != "" {
		if err := opts.Cache.Save(scope, hashes); err != nil {
			opts.Logger.Warn().Err(err).Msg("failed to save command cache")
		}
	}
	return res, nil
}

// CommandDefinitions returns the slash definitions of every registered
// command, sorted by name.
func CommandDefinitions(reg *cmd.Registry) []*discordgo.ApplicationCommand {
	var defs []*discordgo.ApplicationCommand
	for _, c := range reg.GetAll() {
		if def := commandDefinition(c); def != nil {
			defs = append(defs, def)
		}
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// commandDefinition walks through middleware wrappers to the slash definition.
func commandDefinition(c cmd.Command) *discordgo.ApplicationCommand {
	slash, ok := cmd.As[command.SlashProvider](c)
	if !ok {
		return nil
	}
	def := slash.SlashDefinition()
	if def == nil {
		return nil
	}
	if def.Type == 0 {
		def.Type = discordgo.ChatApplicationCommand
	}
	return def
}
