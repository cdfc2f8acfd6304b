package middleware

import (
	"context"
	"time"

	"github.com/keshon/bridge-bot/internal/command"
	"github.com/keshon/bridge-bot/pkg/cmd"

	"github.com/rs/zerolog"
)

// WithCommandLogger logs every execution with its caller and duration.
func WithCommandLogger(log zerolog.Logger) cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			start := time.Now()
			err := c.Run(ctx, inv)

			ev := log.Info()
			if err != nil {
				ev = log.Error().Err(err)
			}
			if v, ok := inv.Data.(*command.SlashInteractionContext); ok {
				ev = ev.Str("user", v.Caller.ID).Str("guild", v.Event.GuildID)
			}
			ev.Str("command", c.Name()).Dur("took", time.Since(start)).Msg("command executed")
			return err
		})
	}
}
