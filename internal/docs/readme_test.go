package docs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/keshon/bridge-bot/internal/command"
	"github.com/keshon/bridge-bot/internal/config"
	"github.com/keshon/bridge-bot/pkg/cmd"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *cmd.Registry {
	t.Helper()
	reg := cmd.NewRegistry()
	for _, c := range []command.DiscordCommand{
		&command.VoteNextCommand{},
		&command.LinkStatusCommand{},
		&command.HelpCommand{Registry: reg},
	} {
		require.NoError(t, command.RegisterCommand(reg, c))
	}
	return reg
}

func TestCommandSectionsOrderedByCategoryWeight(t *testing.T) {
	got := CommandSections(testRegistry(t), config.CategoryWeights)

	want := "### " + config.CategoryInformation + "\n\n" +
		"- **/help** — List available commands and useful links\n" +
		"\n### " + config.CategoryPlayer + "\n\n" +
		"- **/linkstatus** — Check if your Discord account is linked to Minecraft\n" +
		"- **/votenext** — Check when you can vote again on each site\n"
	assert.Equal(t, want, got)
}

func TestUpdateReadme(t *testing.T) {
	dir := t.TempDir()
	tmpl := filepath.Join(dir, "README.md.tmpl")
	out := filepath.Join(dir, "README.md")
	require.NoError(t, os.WriteFile(tmpl, []byte("# Bot\n\n{{.CommandSections}}"), 0o644))

	require.NoError(t, UpdateReadme(testRegistry(t), config.CategoryWeights, tmpl, out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Bot\n\n### ")
	assert.Contains(t, string(data), "- **/votenext**")
}

func TestUpdateReadmeMissingTemplate(t *testing.T) {
	dir := t.TempDir()
	err := UpdateReadme(testRegistry(t), config.CategoryWeights, filepath.Join(dir, "nope.tmpl"), filepath.Join(dir, "README.md"))
	assert.Error(t, err)
}
