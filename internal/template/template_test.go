package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statsTemplate() *Template {
	return &Template{
		Title:       "Stats for {{player_name}}",
		Description: "Votes: %vote_count% (again %vote_count%)",
		Fields: []Field{
			{Name: "Balance %currency_name%", Value: "%vault_eco_balance%", Inline: true},
			{Name: "Kills", Value: "%statistic_player_kills%"},
		},
		Thumbnail: "https://crafatar.com/avatars/{{uuid}}?overlay",
	}
}

func TestExtractDeduplicates(t *testing.T) {
	set := ExtractPlaceholders(&Template{Title: "%vote_count%", Description: "%vote_count%"})
	assert.Equal(t, 1, set.Len())
	assert.True(t, set.Has("%vote_count%"))
}

func TestExtractScansEveryTextField(t *testing.T) {
	set := ExtractPlaceholders(statsTemplate())
	assert.Equal(t, []string{
		"%currency_name%",
		"%statistic_player_kills%",
		"%vault_eco_balance%",
		"%vote_count%",
	}, set.Slice())
}

func TestExtractIgnoresMalformedTokens(t *testing.T) {
	set := ExtractPlaceholders(&Template{Description: "100% sure, %has space%, %%, %ok_1%"})
	assert.Equal(t, []string{"%ok_1%"}, set.Slice())
}

func TestRequirePlaceholdersRejectsEmptySet(t *testing.T) {
	_, err := RequirePlaceholders("motd", &Template{Title: "Hello {{player_name}}"})
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "motd", cfgErr.Command)

	set, err := RequirePlaceholders("stats", statsTemplate())
	require.NoError(t, err)
	assert.Equal(t, 4, set.Len())
}

func TestRenderSubstitutesValues(t *testing.T) {
	msg := Render(statsTemplate(), map[string]string{
		"%vote_count%":             "7",
		"%vault_eco_balance%":      "12.50",
		"%currency_name%":          "Coins",
		"%statistic_player_kills%": "3",
	}, "Steve")

	assert.Equal(t, "Stats for Steve", msg.Title)
	assert.Equal(t, "Votes: 7 (again 7)", msg.Description)
	assert.Equal(t, []Field{
		{Name: "Balance Coins", Value: "12.50", Inline: true},
		{Name: "Kills", Value: "3"},
	}, msg.Fields)
	assert.Equal(t, DefaultColor, msg.Color)
}

func TestRenderWithNoValuesOnlyReplacesPlayerName(t *testing.T) {
	tpl := statsTemplate()
	msg := Render(tpl, nil, "Steve")

	assert.Equal(t, "Stats for Steve", msg.Title)
	assert.Equal(t, tpl.Description, msg.Description)
	assert.Equal(t, tpl.Fields[0].Name, msg.Fields[0].Name)
	assert.Equal(t, tpl.Fields[0].Value, msg.Fields[0].Value)

	again := Render(tpl, map[string]string{}, "Steve")
	assert.Equal(t, msg, again)
}

func TestRenderLeavesUnresolvedTokens(t *testing.T) {
	msg := Render(&Template{Description: "%a% and %b%"}, map[string]string{"%a%": "1"}, "")
	assert.Equal(t, "1 and %b%", msg.Description)
}

func TestRenderIsNotRecursive(t *testing.T) {
	msg := Render(&Template{Description: "%a% %b%"}, map[string]string{
		"%a%": "%b%",
		"%b%": "done",
	}, "")
	assert.Equal(t, "%b% done", msg.Description)
}

func TestRenderIgnoresValuesThatAreNotTokens(t *testing.T) {
	msg := Render(&Template{Description: "Money: %bal%", Title: "{{player_name}} 50%"}, map[string]string{
		"%bal%":           "10",
		"Money":           "X",
		"{{player_name}}": "Alex",
		"50%":             "half",
		"%not a token%":   "no",
	}, "Steve")
	assert.Equal(t, "Money: 10", msg.Description)
	assert.Equal(t, "Steve 50%", msg.Title)
}

func TestRenderPrefersLongestToken(t *testing.T) {
	msg := Render(&Template{Description: "%kills% %kills_total%"}, map[string]string{
		"%kills%":       "1",
		"%kills_total%": "9",
	}, "")
	assert.Equal(t, "1 9", msg.Description)
}

func TestRenderThumbnailStripsFirstUUIDMarker(t *testing.T) {
	msg := Render(&Template{Thumbnail: "https://x/{{uuid}}/{{uuid}}/%skin%"}, map[string]string{"%skin%": "s"}, "Steve")
	assert.Equal(t, "https://x//{{uuid}}/s", msg.Thumbnail)

	msg = Render(statsTemplate(), nil, "Steve")
	assert.Equal(t, "https://crafatar.com/avatars/?overlay", msg.Thumbnail)
}

func TestRenderColor(t *testing.T) {
	msg := Engine{DefaultColor: 0x123456}.Render(&Template{Title: "x"}, nil, "")
	assert.Equal(t, 0x123456, msg.Color)

	msg = Engine{DefaultColor: 0x123456}.Render(&Template{Title: "x", Color: 0xED4245}, nil, "")
	assert.Equal(t, 0xED4245, msg.Color)
}

func TestParseColor(t *testing.T) {
	cases := []struct {
		in   any
		want int
	}{
		{nil, 0},
		{"", 0},
		{0, 0},
		{"#5865F2", 0x5865F2},
		{"5865f2", 0x5865F2},
		{"0x57F287", 0x57F287},
		{5793266, 5793266},
		{int64(255), 255},
		{uint64(255), 255},
		{float64(16711680), 0xFF0000},
	}
	for _, c := range cases {
		got, err := ParseColor(c.in)
		require.NoError(t, err, "%v", c.in)
		assert.Equal(t, c.want, got, "%v", c.in)
	}

	for _, bad := range []any{"#zzzzzz", "#1000000", -1, 1.5, true, []int{1}} {
		_, err := ParseColor(bad)
		assert.Error(t, err, "%v", bad)
	}
}
