package runtime

import (
	"fmt"
	"strings"

	"github.com/keshon/bridge-bot/internal/bridge"
	"github.com/keshon/bridge-bot/internal/identity"
	"github.com/keshon/bridge-bot/internal/template"
)

const (
	ColorPrimary = 0x5865F2
	ColorSuccess = 0x57F287
	ColorWarning = 0xFEE75C
	ColorError   = 0xED4245
)

// Kind classifies a reply.
type Kind int

const (
	KindResult Kind = iota
	KindNotLinked
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindNotLinked:
		return "not_linked"
	case KindError:
		return "error"
	default:
		return "result"
	}
}

// Reply is what an invocation shows the caller.
type Reply struct {
	Kind    Kind
	Message template.RenderedMessage
}

const (
	MsgPermissionDenied = "You do not have permission to look up other players."
	MsgNoPlaceholders   = "This command has no placeholders configured."
	MsgGeneric          = "Something went wrong. Please try again later."
)

// ErrorReply is the red "Error" message.
func ErrorReply(text string) Reply {
	return Reply{Kind: KindError, Message: template.RenderedMessage{
		Title:       "Error",
		Description: text,
		Color:       ColorError,
	}}
}

func notLinkedReply(description string) Reply {
	return Reply{Kind: KindNotLinked, Message: template.RenderedMessage{
		Title:       "Account Not Linked",
		Description: description,
		Color:       ColorWarning,
	}}
}

var (
	notLinkedShort = notLinkedReply(
		"Your Discord account is not linked to a Minecraft account.\n\n" +
			"Use `/discordsrv link` in-game to link your account.")

	notLinkedVotes = notLinkedReply(
		"Your Discord account is not linked to a Minecraft account.\n\n" +
			"**How to link:**\n" +
			"1. Join the Minecraft server\n" +
			"2. Run `/discordsrv link` in-game\n" +
			"3. Follow the instructions to complete linking\n\n" +
			"Once linked, you can use this command to check your vote timers.")

	notLinkedStatus = notLinkedReply(
		"Your Discord account is **not** linked to a Minecraft account.\n\n" +
			"**How to link:**\n" +
			"1. Join the Minecraft server\n" +
			"2. Run `/discordsrv link` in-game\n" +
			"3. You'll receive a code, send it to the DiscordSRV bot in DMs\n" +
			"4. Once linked, you can use all bot commands!")
)

// LinkStatusReply renders the link of the caller.
func LinkStatusReply(rec identity.LinkRecord) Reply {
	if !rec.Linked {
		return notLinkedStatus
	}
	return Reply{Kind: KindResult, Message: template.RenderedMessage{
		Title:       "Account Linked",
		Description: "Your Discord account is linked to a Minecraft account.",
		Color:       ColorSuccess,
		Fields: []template.Field{
			{Name: "Minecraft Name", Value: "`" + rec.AccountName + "`", Inline: true},
			{Name: "UUID", Value: "`" + rec.AccountID + "`", Inline: true},
		},
	}}
}

// VoteReply renders a vote report, one field per site in bridge order.
func VoteReply(report *bridge.VoteReport, playerName string) Reply {
	if report == nil || len(report.Sites) == 0 {
		return Reply{Kind: KindResult, Message: template.RenderedMessage{
			Title:       "No Vote Sites",
			Description: "No vote sites are currently configured on the server.",
			Color:       ColorWarning,
		}}
	}

	msg := template.RenderedMessage{
		Title:       "Vote Status for " + playerName,
		Description: VoteSummary(report),
		Color:       ColorPrimary,
	}
	for _, site := range report.Sites {
		msg.Fields = append(msg.Fields, template.Field{
			Name:   site.SiteName,
			Value:  siteStatus(site),
			Inline: true,
		})
	}
	return Reply{Kind: KindResult, Message: msg}
}

// VoteSummary is the "N/M sites ready" line.
func VoteSummary(report *bridge.VoteReport) string {
	return fmt.Sprintf("%d/%d sites ready", report.Ready(), len(report.Sites))
}

func siteStatus(site bridge.VoteSite) string {
	var sb strings.Builder
	if site.ReadyNow {
		sb.WriteString("✅ **Ready to vote!**")
		if url := deref(site.VoteURL); url != "" {
			fmt.Fprintf(&sb, "\n[Vote now](%s)", url)
		}
		return sb.String()
	}
	fmt.Fprintf(&sb, "⏳ Ready <t:%d:R>\n(%s remaining)", site.NextVoteEpoch, FormatDuration(site.RemainingSeconds))
	if url := deref(site.VoteURL); url != "" {
		fmt.Fprintf(&sb, "\n[Vote link](%s)", url)
	}
	return sb.String()
}

// FormatDuration renders seconds as "Xh Ym", "<1m" or "Ready now".
func FormatDuration(seconds int64) string {
	if seconds <= 0 {
		return "Ready now"
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60

	var parts []string
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if len(parts) == 0 {
		return "<1m"
	}
	return strings.Join(parts, " ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
