package command

import (
	"context"

	"github.com/keshon/bridge-bot/internal/config"
	"github.com/keshon/bridge-bot/internal/dynamic"
	"github.com/keshon/bridge-bot/internal/runtime"

	"github.com/bwmarrin/discordgo"
)

// DynamicCommand serves one command loaded from the configuration document.
type DynamicCommand struct {
	Spec    *dynamic.Command
	Runtime Runner
}

func (c *DynamicCommand) Name() string        { return c.Spec.Spec.Name }
func (c *DynamicCommand) Description() string { return c.Spec.Spec.Description }
func (c *DynamicCommand) Category() string    { return config.CategoryServer }
func (c *DynamicCommand) AuditsItself() bool  { return true }

func (c *DynamicCommand) SlashDefinition() *discordgo.ApplicationCommand {
	def := &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
	}
	if c.Spec.Spec.PrivilegedLookup {
		def.Options = []*discordgo.ApplicationCommandOption{playerOption()}
	}
	return def
}

func (c *DynamicCommand) Run(ctx context.Context, sc *SlashInteractionContext) error {
	if err := sc.Responder.DeferEphemeral(sc.Session, sc.Event); err != nil {
		return err
	}
	c.Runtime.RunDynamic(ctx, c.Spec, runtime.Invocation{
		Command:  c.Name(),
		Caller:   sc.Caller,
		Override: sc.Option(PlayerOption),
	}, sc.Emitter())
	return nil
}
