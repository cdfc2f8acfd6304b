package command

import (
	"context"

	"github.com/keshon/bridge-bot/internal/config"
	"github.com/keshon/bridge-bot/internal/runtime"

	"github.com/bwmarrin/discordgo"
)

type LinkStatusCommand struct {
	Runtime Runner
}

func (c *LinkStatusCommand) Name() string { return runtime.CommandLinkStatus }
func (c *LinkStatusCommand) Description() string {
	return "Check if your Discord account is linked to Minecraft"
}
func (c *LinkStatusCommand) Category() string   { return config.CategoryPlayer }
func (c *LinkStatusCommand) AuditsItself() bool { return true }

func (c *LinkStatusCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
	}
}

func (c *LinkStatusCommand) Run(ctx context.Context, sc *SlashInteractionContext) error {
	if err := sc.Responder.DeferEphemeral(sc.Session, sc.Event); err != nil {
		return err
	}
	c.Runtime.RunLinkStatus(ctx, runtime.Invocation{Command: c.Name(), Caller: sc.Caller}, sc.Emitter())
	return nil
}
