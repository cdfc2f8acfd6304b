package discord

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/keshon/bridge-bot/internal/command"
	"github.com/keshon/bridge-bot/internal/staff"
	"github.com/keshon/bridge-bot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

// drainTimeout bounds how long shutdown waits for in-flight interactions.
const drainTimeout = 30 * time.Second

type Options struct {
	Token    string
	Registry *cmd.Registry
	Embeds   Embeds
	Logger   zerolog.Logger

	// DeployOnReady publishes the commands when the gateway is ready,
	// skipping the call when the cached hashes match.
	DeployOnReady bool
	GuildID       string
	Cache         HashCache
}

// Bot is the Discord gateway side of the bridge bot.
type Bot struct {
	opts Options
	log  zerolog.Logger

	mu      sync.Mutex
	ctx     context.Context
	closing bool
	wg      sync.WaitGroup
}

func New(opts Options) *Bot {
	return &Bot{opts: opts, log: opts.Logger, ctx: context.Background()}
}

// Run opens the gateway, serves interactions until ctx is done, then waits
// for in-flight interactions before closing the session.
func (b *Bot) Run(ctx context.Context) error {
	dg, err := discordgo.New("Bot " + b.opts.Token)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds

	b.mu.Lock()
	b.ctx = ctx
	b.mu.Unlock()

	dg.AddHandler(b.onReady)
	dg.AddHandler(b.onInteractionCreate)

	if err := dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer dg.Close()

	<-ctx.Done()
	b.log.Info().Msg("shutdown signal received, draining interactions")
	b.mu.Lock()
	b.closing = true
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(drainTimeout):
		b.log.Warn().Msg("in-flight interactions did not finish in time")
	}
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.log.Info().
		Str("user", r.User.Username).
		Int("guilds", len(r.Guilds)).
		Int("commands", b.opts.Registry.Len()).
		Msg("discord bot is running")

	if !b.opts.DeployOnReady {
		return
	}
	_, err := Deploy(s, b.opts.Registry, DeployOptions{
		AppID:   r.User.ID,
		GuildID: b.opts.GuildID,
		Cache:   b.opts.Cache,
		Logger:  b.log,
	})
	if err != nil {
		b.log.Error().Err(err).Msg("failed to deploy commands")
	}
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	b.mu.Lock()
	if b.closing {
		b.mu.Unlock()
		return
	}
	ctx := b.ctx
	b.wg.Add(1)
	b.mu.Unlock()
	defer b.wg.Done()
	b.Dispatch(context.WithoutCancel(ctx), s, i)
}

// Dispatch runs the command named by a slash interaction. A handler error is
// logged and answered with the generic failure reply.
func (b *Bot) Dispatch(ctx context.Context, s command.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	c := b.opts.Registry.Get(data.Name)
	if c == nil {
		b.log.Warn().Str("command", data.Name).Msg("unknown command")
		return
	}

	options := stringOptions(data.Options)
	resp := &responder{embeds: b.opts.Embeds}
	sc := &command.SlashInteractionContext{
		Session:   s,
		Event:     i,
		Caller:    callerOf(i),
		Options:   options,
		Responder: resp,
	}

	err := c.Run(ctx, &cmd.Invocation{Options: options, Data: sc})
	if err == nil {
		return
	}
	b.log.Error().Err(err).Str("command", data.Name).Str("user", sc.Caller.ID).Msg("command failed")
	if err := resp.fail(s, i); err != nil {
		b.log.Error().Err(err).Str("command", data.Name).Msg("failed to send error response")
	}
}

// callerOf reads the invoking user and, inside a guild, its roles. Roles stay
// nil in direct messages, where they are unknown.
func callerOf(i *discordgo.InteractionCreate) staff.Caller {
	var caller staff.Caller
	if i.Member != nil {
		if i.Member.User != nil {
			caller.ID = i.Member.User.ID
		}
		caller.Roles = append([]string{}, i.Member.Roles...)
	}
	if caller.ID == "" && i.User != nil {
		caller.ID = i.User.ID
	}
	return caller
}

func stringOptions(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]string {
	out := make(map[string]string, len(opts))
	for _, o := range opts {
		if o.Type == discordgo.ApplicationCommandOptionString {
			out[o.Name] = o.StringValue()
		}
	}
	return out
}
