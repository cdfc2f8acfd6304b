package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/keshon/bridge-bot/internal/bridge"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeDoc(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dynamic-commands.yml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestValidateListsCommandsAndDisabledEntries(t *testing.T) {
	path := writeDoc(t, `
commands:
  - name: stats
    description: Show stats
    staff_override: true
    embed:
      description: "%player_level% %statistic_deaths%"
  - name: rank
    description: Show rank
    enabled: false
    embed:
      description: "%luckperms_primary_group_name%"
`)

	out, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1 command(s)")
	assert.Contains(t, out, "/stats [staff override]: %player_level% %statistic_deaths%")
	assert.Contains(t, out, "entry 2 (rank) disabled")
}

func TestValidateFailsOnInvalidEntries(t *testing.T) {
	path := writeDoc(t, `
commands:
  - name: votenext
    description: Shadows a builtin
    embed:
      description: "%player_level%"
  - name: empty
    description: No placeholders
    embed:
      description: "nothing here"
`)

	out, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 invalid entry(ies)")
	assert.Contains(t, out, "invalid: entry 1 (votenext)")
}

func bridgeServer(t *testing.T) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case bridge.PathVoteNext:
			_ = json.NewEncoder(w).Encode(bridge.VoteReport{
				UUID: r.URL.Query().Get("uuid"),
				Sites: []bridge.VoteSite{
					{SiteName: "PlanetMinecraft", ReadyNow: true},
					{SiteName: "MinecraftServers", RemainingSeconds: 3900},
				},
			})
		case bridge.PathPlaceholders:
			_ = json.NewEncoder(w).Encode(bridge.PlaceholderValues{
				UUID:   "uuid-1",
				Values: map[string]string{"%player_level%": "42"},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	t.Setenv("BRIDGE_URL", srv.URL)
	t.Setenv("BRIDGE_TOKEN", "secret")
	t.Setenv("BRIDGE_MAX_RETRIES", "0")
}

func TestVotesPrintsSummary(t *testing.T) {
	bridgeServer(t)

	out, err := execute(t, "votes", "uuid-1")
	require.NoError(t, err)
	assert.Contains(t, out, "1/2 sites ready")
	assert.Contains(t, out, "PlanetMinecraft")
	assert.Contains(t, out, "1h 5m")
}

func TestEvalPrintsValues(t *testing.T) {
	bridgeServer(t)

	out, err := execute(t, "eval", "uuid-1", "%player_level%")
	require.NoError(t, err)

	var got bridge.PlaceholderValues
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "42", got.Values["%player_level%"])
}

func TestBridgeCommandsRequireToken(t *testing.T) {
	t.Setenv("BRIDGE_TOKEN", "")

	_, err := execute(t, "votes", "uuid-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BRIDGE_TOKEN")
}

func TestEvalNeedsPlaceholder(t *testing.T) {
	_, err := execute(t, "eval", "uuid-1")
	assert.Error(t, err)
}
