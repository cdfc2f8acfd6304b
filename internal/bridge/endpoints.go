package bridge

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"
)

const (
	PathHealth       = "/health"
	PathLinkResolve  = "/v1/link/resolve"
	PathVoteNext     = "/v1/vote/next"
	PathPlaceholders = "/v1/placeholders/eval"
)

// Health is the liveness report of the bridge plugin.
type Health struct {
	OK           bool               `json:"ok"`
	Timestamp    string             `json:"timestamp"`
	Versions     HealthVersions     `json:"versions"`
	Integrations HealthIntegrations `json:"integrations"`
}

type HealthVersions struct {
	Bridge string `json:"bridge"`
	Server string `json:"server"`
}

// HealthIntegrations reports which server plugins the bridge found.
type HealthIntegrations struct {
	DiscordSRV     bool `json:"discordsrv"`
	VotingPlugin   bool `json:"votingplugin"`
	PlaceholderAPI bool `json:"placeholderapi"`
}

// LinkResponse is the raw /v1/link/resolve payload. Fields are pointers so
// that callers can tell absent from empty.
type LinkResponse struct {
	Linked *bool   `json:"linked"`
	UUID   *string `json:"uuid"`
	Name   *string `json:"name"`
	Error  string  `json:"error,omitempty"`
}

// VoteSite is the cooldown state of one voting site.
type VoteSite struct {
	SiteName         string  `json:"siteName"`
	ReadyNow         bool    `json:"readyNow"`
	NextVoteEpoch    int64   `json:"nextVoteEpoch"`
	NextVoteISO      string  `json:"nextVoteISO"`
	RemainingSeconds int64   `json:"remainingSeconds"`
	VoteURL          *string `json:"voteUrl"`
}

// VoteReport lists vote sites in the order the bridge returned them.
type VoteReport struct {
	UUID      string     `json:"uuid"`
	Sites     []VoteSite `json:"sites"`
	QueriedAt int64      `json:"queriedAt"`
}

// Ready counts the sites that can be voted on now.
func (r *VoteReport) Ready() int {
	n := 0
	for _, s := range r.Sites {
		if s.ReadyNow {
			n++
		}
	}
	return n
}

// PlaceholderValues maps each requested placeholder to its evaluated value.
type PlaceholderValues struct {
	UUID   string            `json:"uuid"`
	Values map[string]string `json:"values"`
}

type placeholderRequest struct {
	UUID         string   `json:"uuid"`
	Placeholders []string `json:"placeholders"`
}

// CheckHealth calls the unauthenticated liveness endpoint.
func (c *Client) CheckHealth(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.Request(ctx, http.MethodGet, PathHealth, RequestOptions{NoAuth: true}, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// ResolveLink looks up the game account linked to a Discord user.
func (c *Client) ResolveLink(ctx context.Context, discordID string) (*LinkResponse, error) {
	var out LinkResponse
	q := url.Values{"discord_id": {discordID}}
	if err := c.Request(ctx, http.MethodGet, PathLinkResolve, RequestOptions{Query: q}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VoteNext fetches the vote cooldowns of a player.
func (c *Client) VoteNext(ctx context.Context, uuid string) (*VoteReport, error) {
	var out VoteReport
	q := url.Values{"uuid": {uuid}}
	if err := c.Request(ctx, http.MethodGet, PathVoteNext, RequestOptions{Query: q}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EvalPlaceholders evaluates a batch of placeholders for a player in one call.
func (c *Client) EvalPlaceholders(ctx context.Context, uuid string, placeholders []string) (*PlaceholderValues, error) {
	var out PlaceholderValues
	body := placeholderRequest{UUID: uuid, Placeholders: placeholders}
	if err := c.Request(ctx, http.MethodPost, PathPlaceholders, RequestOptions{Body: body}, &out); err != nil {
		return nil, err
	}
	if out.Values == nil {
		out.Values = map[string]string{}
	}
	return &out, nil
}

// LogHealth checks the bridge and logs the result. A failure is only a
// warning: the bot keeps running and retries on every command.
func (c *Client) LogHealth(ctx context.Context, log zerolog.Logger) bool {
	h, err := c.CheckHealth(ctx)
	if err != nil {
		log.Warn().Err(err).Str("bridge", c.baseURL).Msg("bridge health check failed, commands will fail until it is reachable")
		return false
	}
	log.Info().
		Bool("ok", h.OK).
		Str("bridge_version", h.Versions.Bridge).
		Str("server_version", h.Versions.Server).
		Bool("discordsrv", h.Integrations.DiscordSRV).
		Bool("votingplugin", h.Integrations.VotingPlugin).
		Bool("placeholderapi", h.Integrations.PlaceholderAPI).
		Msg("bridge reachable")
	return h.OK
}
