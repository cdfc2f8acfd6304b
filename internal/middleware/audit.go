package middleware

import (
	"context"

	"github.com/keshon/bridge-bot/internal/audit"
	"github.com/keshon/bridge-bot/internal/command"
	"github.com/keshon/bridge-bot/internal/metrics"
	"github.com/keshon/bridge-bot/pkg/cmd"
)

// Auditor records audit entries without blocking.
type Auditor interface {
	Record(e audit.Entry)
}

// WithAudit records one entry per execution. Commands that audit themselves
// are only recorded here when they fail before reaching their own audit.
func WithAudit(rec Auditor) cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		self := false
		if sa, ok := cmd.As[command.SelfAuditing](c); ok {
			self = sa.AuditsItself()
		}
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			err := c.Run(ctx, inv)
			if self && err == nil {
				return err
			}
			if !self {
				state := "emitted"
				if err != nil {
					state = "error"
				}
				metrics.CommandInvoked(c.Name(), state)
			}

			e := audit.Entry{CommandName: c.Name(), Success: err == nil}
			if v, ok := inv.Data.(*command.SlashInteractionContext); ok {
				e.DiscordUserID = v.Caller.ID
			}
			if err != nil {
				e.Error = err.Error()
			}
			rec.Record(e)
			return err
		})
	}
}
