package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColorUnmarshalText(t *testing.T) {
	cases := map[string]Color{
		"0x5865F2": 0x5865F2,
		"#57f287":  0x57F287,
		" FEE75C ": 0xFEE75C,
		"0X000000": 0,
	}
	for in, want := range cases {
		var c Color
		require.NoError(t, c.UnmarshalText([]byte(in)), in)
		assert.Equal(t, want, c, in)
	}

	for _, bad := range []string{"", "blue", "0x1000000", "#-1"} {
		var c Color
		assert.Error(t, c.UnmarshalText([]byte(bad)), bad)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BRIDGE_URL", " http://bridge.local:9585/ ")
	t.Setenv("AUDIT_DRIVER", " SQLite ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://bridge.local:9585", cfg.BridgeURL)
	assert.Equal(t, "sqlite", cfg.AuditDriver)
	assert.Equal(t, 5*time.Second, cfg.BridgeTimeout)
	assert.Equal(t, 2, cfg.BridgeMaxRetries)
	assert.Equal(t, Color(0x5865F2), cfg.EmbedColor)
	assert.Equal(t, "config/dynamic-commands.yml", cfg.DynamicCommandsPath)
	assert.False(t, cfg.DeployOnStart)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Run("negative retries", func(t *testing.T) {
		t.Setenv("BRIDGE_MAX_RETRIES", "-1")
		_, err := Load()
		assert.ErrorContains(t, err, "BRIDGE_MAX_RETRIES")
	})
	t.Run("zero timeout", func(t *testing.T) {
		t.Setenv("BRIDGE_TIMEOUT", "0s")
		_, err := Load()
		assert.ErrorContains(t, err, "BRIDGE_TIMEOUT")
	})
	t.Run("bad color", func(t *testing.T) {
		t.Setenv("EMBED_COLOR", "purple")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestRequire(t *testing.T) {
	cfg := &Config{BridgeURL: "http://x", DiscordToken: "t"}

	err := cfg.RequireBridge()
	assert.EqualError(t, err, "missing required environment variable(s): BRIDGE_TOKEN")

	err = cfg.RequireDiscord()
	assert.EqualError(t, err, "missing required environment variable(s): DISCORD_CLIENT_ID")

	cfg = &Config{}
	assert.EqualError(t, cfg.RequireDiscord(), "missing required environment variable(s): DISCORD_CLIENT_ID, DISCORD_TOKEN")

	cfg = &Config{BridgeURL: "http://x", BridgeToken: "s", DiscordToken: "t", DiscordClientID: "1"}
	assert.NoError(t, cfg.RequireBridge())
	assert.NoError(t, cfg.RequireDiscord())
}
