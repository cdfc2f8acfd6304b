package discord

import (
	"time"
	"unicode/utf8"

	"github.com/keshon/bridge-bot/internal/command"
	"github.com/keshon/bridge-bot/internal/runtime"

	"github.com/bwmarrin/discordgo"
)

// Discord embed limits.
const (
	maxTitle       = 256
	maxDescription = 4096
	maxFieldName   = 256
	maxFieldValue  = 1024
	maxFields      = 25
)

// Embeds maps replies to Discord embeds with the bot's branding.
type Embeds struct {
	Footer string
	Now    func() time.Time
}

// Build returns the embed for reply.
func (e Embeds) Build(reply runtime.Reply) *discordgo.MessageEmbed {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	m := reply.Message
	embed := &discordgo.MessageEmbed{
		Title:       clip(m.Title, maxTitle),
		Description: clip(m.Description, maxDescription),
		Color:       m.Color,
		Timestamp:   now().UTC().Format(time.RFC3339),
	}
	if e.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
	}
	if m.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: m.Thumbnail}
	}
	for i, f := range m.Fields {
		if i == maxFields {
			break
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   clip(f.Name, maxFieldName),
			Value:  clip(f.Value, maxFieldValue),
			Inline: f.Inline,
		})
	}
	return embed
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

// responder implements command.Responder for one interaction and remembers
// whether it was acknowledged, so a failure reply knows how to reach the
// caller.
type responder struct {
	embeds Embeds
	acked  bool
}

var _ command.Responder = (*responder)(nil)

// DeferEphemeral acknowledges an interaction ephemerally without an immediate reply.
func (r *responder) DeferEphemeral(s command.Session, i *discordgo.InteractionCreate) error {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err == nil {
		r.acked = true
	}
	return err
}

// RespondEphemeral answers an interaction with an ephemeral embed.
func (r *responder) RespondEphemeral(s command.Session, i *discordgo.InteractionCreate, reply runtime.Reply) error {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags:  discordgo.MessageFlagsEphemeral,
			Embeds: []*discordgo.MessageEmbed{r.embeds.Build(reply)},
		},
	})
	if err == nil {
		r.acked = true
	}
	return err
}

// EditReply replaces the deferred response with an embed.
func (r *responder) EditReply(s command.Session, i *discordgo.InteractionCreate, reply runtime.Reply) error {
	embeds := []*discordgo.MessageEmbed{r.embeds.Build(reply)}
	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Embeds: &embeds})
	return err
}

// fail sends the generic failure reply through whichever path is still open.
func (r *responder) fail(s command.Session, i *discordgo.InteractionCreate) error {
	reply := runtime.ErrorReply(runtime.MsgGeneric)
	if r.acked {
		return r.EditReply(s, i, reply)
	}
	return r.RespondEphemeral(s, i, reply)
}
