// Package docs renders the command reference of README.md from the registry.
package docs

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"text/template"

	"github.com/keshon/bridge-bot/internal/command"
	"github.com/keshon/bridge-bot/internal/config"
	"github.com/keshon/bridge-bot/pkg/cmd"
)

// CommandSections renders one markdown section per category, ordered by
// weight and then name, each listing its commands by name.
func CommandSections(registry *cmd.Registry, categoryWeights map[string]int) string {
	commands := registry.GetAll()
	category := func(c cmd.Command) string {
		if meta, ok := cmd.As[command.DiscordMeta](c); ok {
			return meta.Category()
		}
		return config.CategoryServer
	}
	sort.SliceStable(commands, func(i, j int) bool {
		ci, cj := category(commands[i]), category(commands[j])
		wi, wj := categoryWeights[ci], categoryWeights[cj]
		if wi != wj {
			return wi < wj
		}
		if ci != cj {
			return ci < cj
		}
		return commands[i].Name() < commands[j].Name()
	})

	var buf bytes.Buffer
	current := ""
	for i, c := range commands {
		cat := category(c)
		if i == 0 || cat != current {
			if i > 0 {
				buf.WriteString("\n")
			}
			current = cat
			fmt.Fprintf(&buf, "### %s\n\n", current)
		}
		fmt.Fprintf(&buf, "- **/%s** — %s\n", c.Name(), c.Description())
	}
	return buf.String()
}

// UpdateReadme executes the template at tmplPath with the command sections
// and writes the result to outPath.
func UpdateReadme(registry *cmd.Registry, categoryWeights map[string]int, tmplPath, outPath string) error {
	tmpl, err := template.ParseFiles(tmplPath)
	if err != nil {
		return fmt.Errorf("parse readme template: %w", err)
	}

	data := struct {
		CommandSections string
	}{
		CommandSections: CommandSections(registry, categoryWeights),
	}

	var out bytes.Buffer
	if err := tmpl.Execute(&out, data); err != nil {
		return fmt.Errorf("render readme: %w", err)
	}
	return os.WriteFile(outPath, out.Bytes(), 0o644)
}
