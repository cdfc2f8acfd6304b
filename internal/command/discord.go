package command

import (
	"context"
	"fmt"

	"github.com/keshon/bridge-bot/internal/runtime"
	"github.com/keshon/bridge-bot/internal/staff"
	"github.com/keshon/bridge-bot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
)

// Session is the part of *discordgo.Session commands reply through.
type Session interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Responder turns replies into Discord responses. It is implemented by the
// discord package and injected into every context, so commands never import
// it directly.
type Responder interface {
	DeferEphemeral(s Session, i *discordgo.InteractionCreate) error
	RespondEphemeral(s Session, i *discordgo.InteractionCreate, reply runtime.Reply) error
	EditReply(s Session, i *discordgo.InteractionCreate, reply runtime.Reply) error
}

// SlashInteractionContext is what the dispatcher passes to a slash command.
type SlashInteractionContext struct {
	Session   Session
	Event     *discordgo.InteractionCreate
	Caller    staff.Caller
	Options   map[string]string
	Responder Responder
}

// Option returns a string option of the interaction or "".
func (c *SlashInteractionContext) Option(name string) string {
	return c.Options[name]
}

// Emitter edits the deferred reply of the interaction.
func (c *SlashInteractionContext) Emitter() runtime.Emitter {
	return func(_ context.Context, reply runtime.Reply) error {
		return c.Responder.EditReply(c.Session, c.Event, reply)
	}
}

// SlashProvider is implemented by commands registered as slash commands.
type SlashProvider interface {
	SlashDefinition() *discordgo.ApplicationCommand
}

// DiscordMeta exposes the help category without depending on the concrete
// command type.
type DiscordMeta interface {
	Category() string
}

// SelfAuditing is implemented by commands that write their own audit records,
// so the dispatcher does not record them twice.
type SelfAuditing interface {
	AuditsItself() bool
}

// DiscordCommand is what individual Discord commands implement.
type DiscordCommand interface {
	Name() string
	Description() string
	Category() string
	Run(ctx context.Context, sc *SlashInteractionContext) error
}

// DiscordAdapter adapts a DiscordCommand to cmd.Command so it can live in the
// registry. It delegates the provider interfaces to the inner command.
type DiscordAdapter struct {
	Cmd DiscordCommand
}

func (a *DiscordAdapter) Name() string        { return a.Cmd.Name() }
func (a *DiscordAdapter) Description() string { return a.Cmd.Description() }
func (a *DiscordAdapter) Category() string    { return a.Cmd.Category() }

func (a *DiscordAdapter) Run(ctx context.Context, inv *cmd.Invocation) error {
	sc, ok := inv.Data.(*SlashInteractionContext)
	if !ok {
		return fmt.Errorf("command %s: unsupported invocation data %T", a.Cmd.Name(), inv.Data)
	}
	if sc.Options == nil {
		sc.Options = inv.Options
	}
	return a.Cmd.Run(ctx, sc)
}

func (a *DiscordAdapter) SlashDefinition() *discordgo.ApplicationCommand {
	if sp, ok := a.Cmd.(SlashProvider); ok {
		return sp.SlashDefinition()
	}
	return &discordgo.ApplicationCommand{
		Name:        a.Cmd.Name(),
		Description: a.Cmd.Description(),
		Type:        discordgo.ChatApplicationCommand,
	}
}

func (a *DiscordAdapter) AuditsItself() bool {
	if sa, ok := a.Cmd.(SelfAuditing); ok {
		return sa.AuditsItself()
	}
	return false
}

// RegisterCommand wraps discordCmd with mws and adds it to reg.
func RegisterCommand(reg *cmd.Registry, discordCmd DiscordCommand, mws ...cmd.Middleware) error {
	return reg.Register(cmd.Apply(&DiscordAdapter{Cmd: discordCmd}, mws...))
}
