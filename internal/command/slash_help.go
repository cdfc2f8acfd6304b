package command

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/keshon/bridge-bot/internal/config"
	"github.com/keshon/bridge-bot/internal/runtime"
	"github.com/keshon/bridge-bot/internal/template"
	"github.com/keshon/bridge-bot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
)

// maxFieldValue is Discord's limit for an embed field value.
const maxFieldValue = 1024

type HelpCommand struct {
	Registry *cmd.Registry
	BotName  string
}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "List available commands and useful links" }
func (c *HelpCommand) Category() string    { return config.CategoryInformation }

func (c *HelpCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
	}
}

func (c *HelpCommand) Run(_ context.Context, sc *SlashInteractionContext) error {
	return sc.Responder.RespondEphemeral(sc.Session, sc.Event, c.Reply())
}

// Reply builds the help message from the registry.
func (c *HelpCommand) Reply() runtime.Reply {
	name := c.BotName
	if name == "" {
		name = "Runbad Bot"
	}
	return runtime.Reply{Kind: runtime.KindResult, Message: template.RenderedMessage{
		Title:       name + " — Help",
		Description: "Self-service utilities for the Runbad Minecraft server.",
		Color:       runtime.ColorPrimary,
		Fields: []template.Field{
			{Name: "📋 Commands", Value: truncate(buildHelpByCategory(c.Registry.GetAll()), maxFieldValue)},
			{Name: "🔗 Quick Links", Value: "**Vote for us:** Check `/votenext` for vote site links\n" +
				"**Link account:** Use `/discordsrv link` in-game"},
			{Name: "ℹ️ Note", Value: "All responses are private, only you can see them. " +
				"You must link your Discord and Minecraft accounts to use most commands."},
		},
	}}
}

func buildHelpByCategory(all []cmd.Command) string {
	categoryMap := make(map[string][]cmd.Command)
	for _, c := range all {
		cat := config.CategoryServer
		if meta, ok := cmd.As[DiscordMeta](c); ok {
			cat = meta.Category()
		}
		categoryMap[cat] = append(categoryMap[cat], c)
	}

	cats := make([]string, 0, len(categoryMap))
	for cat := range categoryMap {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool {
		wi, wj := config.CategoryWeights[cats[i]], config.CategoryWeights[cats[j]]
		if wi != wj {
			return wi < wj
		}
		return cats[i] < cats[j]
	})

	var sb strings.Builder
	for i, cat := range cats {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "**%s**\n", cat)
		// GetAll is sorted by name already
		for _, c := range categoryMap[cat] {
			fmt.Fprintf(&sb, "`/%s` - %s\n", c.Name(), c.Description())
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
