// Package dynamic loads slash commands declared in a YAML document. Each
// command fetches a batch of placeholders from the bridge and renders them
// into a message template.
package dynamic

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/keshon/bridge-bot/internal/template"

	"gopkg.in/yaml.v3"
)

var (
	ErrDisabled     = errors.New("command disabled")
	ErrIncomplete   = errors.New("missing name or description")
	ErrDuplicate    = errors.New("duplicate command name")
	ErrReservedName = errors.New("name is used by a built-in command")
)

var namePattern = regexp.MustCompile(`^[-_\p{L}\p{N}]{1,32}$`)

const (
	maxDescription = 100
	// maxPlaceholders matches the bridge's per-request limit; larger
	// batches are rejected with 400.
	maxPlaceholders = 20
)

// CommandSpec is one command definition. It is immutable once loaded.
type CommandSpec struct {
	Name             string
	Description      string
	PrivilegedLookup bool // adds the staff-only "player" option
	Template         template.Template
}

// Command pairs a definition with the placeholder set computed at load time.
type Command struct {
	Spec         CommandSpec
	Placeholders template.PlaceholderSet
}

// Table holds the loaded commands in document order, keyed by name.
type Table struct {
	order  []*Command
	byName map[string]*Command
}

func NewTable() *Table {
	return &Table{byName: map[string]*Command{}}
}

func (t *Table) Get(name string) (*Command, bool) {
	c, ok := t.byName[strings.ToLower(name)]
	return c, ok
}

// All returns the commands in document order.
func (t *Table) All() []*Command {
	out := make([]*Command, len(t.order))
	copy(out, t.order)
	return out
}

func (t *Table) Len() int { return len(t.order) }

func (t *Table) add(c *Command) bool {
	if _, dup := t.byName[c.Spec.Name]; dup {
		return false
	}
	t.byName[c.Spec.Name] = c
	t.order = append(t.order, c)
	return true
}

// Problem is a document entry that was skipped.
type Problem struct {
	Entry int // 1-based position in the commands list
	Name  string
	Err   error
}

func (p Problem) Error() string {
	if p.Name == "" {
		return fmt.Sprintf("entry %d: %v", p.Entry, p.Err)
	}
	return fmt.Sprintf("entry %d (%s): %v", p.Entry, p.Name, p.Err)
}

func (p Problem) Unwrap() error { return p.Err }

type document struct {
	Commands []yaml.Node `yaml:"commands"`
}

type rawCommand struct {
	Name          string   `yaml:"name"`
	Description   string   `yaml:"description"`
	Enabled       *bool    `yaml:"enabled"`
	StaffOverride bool     `yaml:"staff_override"`
	Embed         rawEmbed `yaml:"embed"`
}

type rawEmbed struct {
	Title       string     `yaml:"title"`
	Description string     `yaml:"description"`
	Fields      []rawField `yaml:"fields"`
	Color       any        `yaml:"color"`
	Thumbnail   string     `yaml:"thumbnail"`
}

type rawField struct {
	Name   string `yaml:"name"`
	Value  string `yaml:"value"`
	Inline *bool  `yaml:"inline"`
}

// Load reads the document at path. A missing file yields an error wrapping
// fs.ErrNotExist; callers may treat that as "no dynamic commands".
// reserved lists names that dynamic commands may not take.
func Load(path string, reserved ...string) (*Table, []Problem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return NewTable(), nil, fmt.Errorf("read dynamic commands: %w", err)
	}
	return Parse(data, reserved...)
}

// Parse builds a Table from document bytes. Bad entries are skipped and
// reported as problems; only an unparseable document is an error.
func Parse(data []byte, reserved ...string) (*Table, []Problem, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return NewTable(), nil, fmt.Errorf("parse dynamic commands YAML: %w", err)
	}

	taken := make(map[string]struct{}, len(reserved))
	for _, r := range reserved {
		taken[strings.ToLower(r)] = struct{}{}
	}

	table := NewTable()
	var problems []Problem
	for i := range doc.Commands {
		entry := i + 1
		var raw rawCommand
		if err := doc.Commands[i].Decode(&raw); err != nil {
			problems = append(problems, Problem{Entry: entry, Err: &template.ConfigError{Reason: err.Error()}})
			continue
		}

		cmd, err := compile(raw)
		if err != nil {
			problems = append(problems, Problem{Entry: entry, Name: strings.TrimSpace(raw.Name), Err: err})
			continue
		}
		if _, ok := taken[cmd.Spec.Name]; ok {
			problems = append(problems, Problem{Entry: entry, Name: cmd.Spec.Name, Err: ErrReservedName})
			continue
		}
		if !table.add(cmd) {
			problems = append(problems, Problem{Entry: entry, Name: cmd.Spec.Name, Err: ErrDuplicate})
		}
	}
	return table, problems, nil
}

func compile(raw rawCommand) (*Command, error) {
	if raw.Enabled != nil && !*raw.Enabled {
		return nil, ErrDisabled
	}
	name := strings.ToLower(strings.TrimSpace(raw.Name))
	desc := strings.TrimSpace(raw.Description)
	if name == "" || desc == "" {
		return nil, ErrIncomplete
	}
	if !namePattern.MatchString(name) {
		return nil, &template.ConfigError{Command: name, Reason: "name must be 1-32 letters, digits, '-' or '_'"}
	}
	if utf8.RuneCountInString(desc) > maxDescription {
		return nil, &template.ConfigError{Command: name, Reason: fmt.Sprintf("description longer than %d characters", maxDescription)}
	}

	color, err := template.ParseColor(raw.Embed.Color)
	if err != nil {
		return nil, &template.ConfigError{Command: name, Reason: err.Error()}
	}

	tpl := template.Template{
		Title:       raw.Embed.Title,
		Description: raw.Embed.Description,
		Color:       color,
		Thumbnail:   raw.Embed.Thumbnail,
	}
	for _, f := range raw.Embed.Fields {
		inline := true
		if f.Inline != nil {
			inline = *f.Inline
		}
		tpl.Fields = append(tpl.Fields, template.Field{Name: f.Name, Value: f.Value, Inline: inline})
	}

	set, err := template.RequirePlaceholders(name, &tpl)
	if err != nil {
		return nil, err
	}
	if set.Len() > maxPlaceholders {
		return nil, &template.ConfigError{Command: name, Reason: fmt.Sprintf("more than %d placeholders", maxPlaceholders)}
	}

	return &Command{
		Spec: CommandSpec{
			Name:             name,
			Description:      desc,
			PrivilegedLookup: raw.StaffOverride,
			Template:         tpl,
		},
		Placeholders: set,
	}, nil
}
