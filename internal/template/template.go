// Package template holds the message templates of dynamic commands: a title,
// description, fields, color and thumbnail that may reference placeholders.
//
// Placeholders are %identifier% tokens evaluated by the bridge. Two literal
// markers are also understood: {{player_name}} anywhere, and {{uuid}} in the
// thumbnail.
package template

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

const (
	PlayerNameMarker = "{{player_name}}"
	UUIDMarker       = "{{uuid}}"

	// DefaultColor is used when a template sets no color.
	DefaultColor = 0x5865F2
)

var (
	placeholderPattern = regexp.MustCompile(`%[a-zA-Z0-9_]+%`)
	tokenPattern       = regexp.MustCompile(`^%[a-zA-Z0-9_]+%$`)
)

type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Template is the declarative message of a command. Color 0 means unset.
type Template struct {
	Title       string
	Description string
	Fields      []Field
	Color       int
	Thumbnail   string
}

// RenderedMessage is a Template with its tokens replaced.
type RenderedMessage struct {
	Title       string
	Description string
	Fields      []Field
	Color       int
	Thumbnail   string
}

// ConfigError describes a command definition that cannot be used.
type ConfigError struct {
	Command string
	Reason  string
}

func (e *ConfigError) Error() string {
	if e.Command == "" {
		return "invalid command definition: " + e.Reason
	}
	return fmt.Sprintf("invalid command %q: %s", e.Command, e.Reason)
}

// PlaceholderSet is a deduplicated set of placeholder tokens.
type PlaceholderSet map[string]struct{}

func (s PlaceholderSet) Len() int { return len(s) }

func (s PlaceholderSet) Has(token string) bool {
	_, ok := s[token]
	return ok
}

// Slice returns the tokens sorted, for stable request bodies.
func (s PlaceholderSet) Slice() []string {
	out := make([]string, 0, len(s))
	for tok := range s {
		out = append(out, tok)
	}
	slices.Sort(out)
	return out
}

// ExtractPlaceholders scans the title, the description and every field name
// and value. The thumbnail is not scanned.
func ExtractPlaceholders(t *Template) PlaceholderSet {
	set := PlaceholderSet{}
	scan := func(text string) {
		for _, m := range placeholderPattern.FindAllString(text, -1) {
			set[m] = struct{}{}
		}
	}
	scan(t.Title)
	scan(t.Description)
	for _, f := range t.Fields {
		scan(f.Name)
		scan(f.Value)
	}
	return set
}

// RequirePlaceholders is ExtractPlaceholders that rejects templates without
// any token.
func RequirePlaceholders(command string, t *Template) (PlaceholderSet, error) {
	set := ExtractPlaceholders(t)
	if set.Len() == 0 {
		return nil, &ConfigError{Command: command, Reason: "template has no placeholders"}
	}
	return set, nil
}

// Engine renders templates.
type Engine struct {
	DefaultColor int
}

// Render uses an Engine with DefaultColor.
func Render(t *Template, values map[string]string, playerName string) RenderedMessage {
	return Engine{DefaultColor: DefaultColor}.Render(t, values, playerName)
}

// Render replaces {{player_name}} first, then every placeholder token present
// in values in a single pass, so substituted text is never scanned again.
// Tokens missing from values stay as written.
func (e Engine) Render(t *Template, values map[string]string, playerName string) RenderedMessage {
	replace := newReplacer(values)
	resolve := func(text string) string {
		if text == "" {
			return text
		}
		text = strings.ReplaceAll(text, PlayerNameMarker, playerName)
		return replace(text)
	}

	msg := RenderedMessage{
		Title:       resolve(t.Title),
		Description: resolve(t.Description),
		Color:       t.Color,
	}
	if msg.Color == 0 {
		msg.Color = e.DefaultColor
	}
	if len(t.Fields) > 0 {
		msg.Fields = make([]Field, len(t.Fields))
		for i, f := range t.Fields {
			msg.Fields[i] = Field{Name: resolve(f.Name), Value: resolve(f.Value), Inline: f.Inline}
		}
	}
	if t.Thumbnail != "" {
		msg.Thumbnail = strings.Replace(resolve(t.Thumbnail), UUIDMarker, "", 1)
	}
	return msg
}

// newReplacer builds an exact-match, non-recursive replacer over the keys
// of values that are placeholder tokens; other keys never touch the text.
// Longer tokens come first so that a token never loses to one of its prefixes.
func newReplacer(values map[string]string) func(string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if tokenPattern.MatchString(k) {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return func(s string) string { return s }
	}
	slices.SortFunc(keys, func(a, b string) int {
		if len(a) != len(b) {
			return len(b) - len(a)
		}
		return strings.Compare(a, b)
	})
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, k, values[k])
	}
	return strings.NewReplacer(pairs...).Replace
}

// ParseColor accepts a number or a hex string ("#5865F2", "5865F2",
// "0x5865F2"). nil, 0 and "" mean unset and return 0.
func ParseColor(v any) (int, error) {
	var n int64
	switch c := v.(type) {
	case nil:
		return 0, nil
	case int:
		n = int64(c)
	case int64:
		n = c
	case uint64:
		if c > math.MaxInt32 {
			return 0, fmt.Errorf("color %d out of range", c)
		}
		n = int64(c)
	case float64:
		if c != math.Trunc(c) {
			return 0, fmt.Errorf("color %v is not an integer", c)
		}
		n = int64(c)
	case string:
		s := strings.TrimSpace(c)
		if s == "" {
			return 0, nil
		}
		s = strings.Replace(s, "#", "", 1)
		s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
		parsed, err := strconv.ParseInt(s, 16, 64)
		if err != nil {
			return 0, fmt.Errorf("color %q is not hexadecimal", c)
		}
		n = parsed
	default:
		return 0, fmt.Errorf("unsupported color type %T", v)
	}
	if n < 0 || n > 0xFFFFFF {
		return 0, fmt.Errorf("color %#x out of range", n)
	}
	return int(n), nil
}
