// Package bot assembles the bridge bot from configuration: bridge client,
// command runtime, audit recorder and the command registry. Both binaries
// build their components here.
package bot

import (
	"context"
	"errors"
	"io/fs"

	"github.com/keshon/bridge-bot/internal/audit"
	"github.com/keshon/bridge-bot/internal/bridge"
	"github.com/keshon/bridge-bot/internal/command"
	"github.com/keshon/bridge-bot/internal/config"
	"github.com/keshon/bridge-bot/internal/dynamic"
	"github.com/keshon/bridge-bot/internal/identity"
	"github.com/keshon/bridge-bot/internal/logging"
	"github.com/keshon/bridge-bot/internal/metrics"
	"github.com/keshon/bridge-bot/internal/middleware"
	"github.com/keshon/bridge-bot/internal/runtime"
	"github.com/keshon/bridge-bot/internal/staff"
	"github.com/keshon/bridge-bot/internal/status"
	"github.com/keshon/bridge-bot/internal/template"
	"github.com/keshon/bridge-bot/pkg/cmd"

	"github.com/rs/zerolog"
)

// Builtins are the names dynamic commands may not take.
var Builtins = []string{runtime.CommandVoteNext, runtime.CommandLinkStatus, "help"}

// NewBridge builds the bridge client from cfg.
func NewBridge(cfg *config.Config, log zerolog.Logger) *bridge.Client {
	retries := cfg.BridgeMaxRetries
	if retries == 0 {
		retries = bridge.NoRetries
	}
	l := logging.Component(log, "bridge")
	return bridge.New(bridge.Options{
		BaseURL:    cfg.BridgeURL,
		Token:      cfg.BridgeToken,
		Timeout:    cfg.BridgeTimeout,
		MaxRetries: retries,
		RetryDelay: cfg.BridgeRetryDelay,
		RateLimit:  cfg.BridgeRateLimit,
		Logger:     &l,
	})
}

// LoadDynamic loads the dynamic command document. Every skipped entry is
// logged as a warning; a missing document means no dynamic commands.
func LoadDynamic(path string, log zerolog.Logger) (*dynamic.Table, error) {
	table, problems, err := dynamic.Load(path, Builtins...)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("path", path).Msg("dynamic commands file not found, no dynamic commands loaded")
		metrics.SetDynamicCommands(0)
		return dynamic.NewTable(), nil
	}
	if err != nil {
		return nil, err
	}
	for _, p := range problems {
		log.Warn().Int("entry", p.Entry).Str("name", p.Name).Err(p.Err).Msg("dynamic command skipped")
	}
	for _, c := range table.All() {
		log.Info().Str("command", c.Spec.Name).Strs("placeholders", c.Placeholders.Slice()).Msg("loaded dynamic command")
	}
	metrics.SetDynamicCommands(table.Len())
	return table, nil
}

// OpenAudit opens the configured audit sink, falling back to no auditing
// when it cannot be opened.
func OpenAudit(ctx context.Context, cfg *config.Config, log zerolog.Logger) *audit.Recorder {
	l := logging.Component(log, "audit")
	sink, err := audit.Open(ctx, audit.Options{
		Driver: cfg.AuditDriver,
		MySQL: audit.MySQLConfig{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			Database: cfg.DBName,
		},
		SQLitePath: cfg.AuditSQLitePath,
		FilePath:   cfg.AuditFilePath,
	}, l)
	if err != nil {
		l.Error().Err(err).Str("driver", cfg.AuditDriver).Msg("audit store unavailable, continuing without audit")
		sink = audit.Nop{}
	}
	return audit.NewRecorder(sink, l)
}

// NewRuntime wires the command runtime.
func NewRuntime(cfg *config.Config, b *bridge.Client, rec *audit.Recorder, log zerolog.Logger) *runtime.Runtime {
	return runtime.New(runtime.Options{
		Bridge:   b,
		Identity: identity.NewResolver(b),
		Gate:     staff.NewGate(staff.EnvRoleSource(staff.EnvKey)),
		Audit:    rec,
		Engine:   template.Engine{DefaultColor: int(cfg.EmbedColor)},
		Logger:   logging.Component(log, "runtime"),
	})
}

// RegistryOptions are the inputs of BuildRegistry.
type RegistryOptions struct {
	Runner  command.Runner
	Dynamic *dynamic.Table
	Audit   middleware.Auditor
	Logger  zerolog.Logger
	BotName string
}

// BuildRegistry registers the built-in commands followed by the dynamic
// ones, every command wrapped with audit, logging and panic recovery.
func BuildRegistry(opts RegistryOptions) (*cmd.Registry, error) {
	reg := cmd.NewRegistry()

	var mws []cmd.Middleware
	if opts.Audit != nil {
		mws = append(mws, middleware.WithAudit(opts.Audit))
	}
	mws = append(mws, middleware.WithCommandLogger(logging.Component(opts.Logger, "command")), cmd.Recover())

	builtins := []command.DiscordCommand{
		&command.VoteNextCommand{Runtime: opts.Runner},
		&command.LinkStatusCommand{Runtime: opts.Runner},
		&command.HelpCommand{Registry: reg, BotName: opts.BotName},
	}
	for _, c := range builtins {
		if err := command.RegisterCommand(reg, c, mws...); err != nil {
			return nil, err
		}
	}

	if opts.Dynamic != nil {
		for _, d := range opts.Dynamic.All() {
			if err := command.RegisterCommand(reg, &command.DynamicCommand{Spec: d, Runtime: opts.Runner}, mws...); err != nil {
				opts.Logger.Warn().Err(err).Str("command", d.Spec.Name).Msg("dynamic command skipped")
			}
		}
	}
	return reg, nil
}

// CommandInfos lists the registry for the status server.
func CommandInfos(reg *cmd.Registry, table *dynamic.Table) []status.CommandInfo {
	var out []status.CommandInfo
	for _, c := range reg.GetAll() {
		info := status.CommandInfo{Name: c.Name(), Description: c.Description()}
		if table != nil {
			if d, ok := table.Get(c.Name()); ok {
				info.Dynamic = true
				info.Placeholders = d.Placeholders.Slice()
			}
		}
		out = append(out, info)
	}
	return out
}
