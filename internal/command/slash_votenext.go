package command

import (
	"context"

	"github.com/keshon/bridge-bot/internal/config"
	"github.com/keshon/bridge-bot/internal/dynamic"
	"github.com/keshon/bridge-bot/internal/runtime"

	"github.com/bwmarrin/discordgo"
)

// Runner runs invocations through the command runtime.
type Runner interface {
	RunDynamic(ctx context.Context, cmd *dynamic.Command, inv runtime.Invocation, emit runtime.Emitter) runtime.Outcome
	RunVoteNext(ctx context.Context, inv runtime.Invocation, emit runtime.Emitter) runtime.Outcome
	RunLinkStatus(ctx context.Context, inv runtime.Invocation, emit runtime.Emitter) runtime.Outcome
}

// PlayerOption is the staff-only option naming another player.
const PlayerOption = "player"

func playerOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        PlayerOption,
		Description: "[Staff only] Look up a specific player UUID",
		Required:    false,
	}
}

type VoteNextCommand struct {
	Runtime Runner
}

func (c *VoteNextCommand) Name() string        { return runtime.CommandVoteNext }
func (c *VoteNextCommand) Description() string { return "Check when you can vote again on each site" }
func (c *VoteNextCommand) Category() string    { return config.CategoryPlayer }
func (c *VoteNextCommand) AuditsItself() bool  { return true }

func (c *VoteNextCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
		Options:     []*discordgo.ApplicationCommandOption{playerOption()},
	}
}

func (c *VoteNextCommand) Run(ctx context.Context, sc *SlashInteractionContext) error {
	if err := sc.Responder.DeferEphemeral(sc.Session, sc.Event); err != nil {
		return err
	}
	c.Runtime.RunVoteNext(ctx, runtime.Invocation{
		Command:  c.Name(),
		Caller:   sc.Caller,
		Override: sc.Option(PlayerOption),
	}, sc.Emitter())
	return nil
}
