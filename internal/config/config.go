// /internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Color is an RGB value read from hex text such as "0x5865F2" or "#5865F2".
type Color int

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Color) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimPrefix(s, "#"), "0x"), "0X")
	v, err := strconv.ParseInt(s, 16, 32)
	if err != nil || v < 0 || v > 0xFFFFFF {
		return fmt.Errorf("invalid color %q", string(text))
	}
	*c = Color(v)
	return nil
}

type Config struct {
	DiscordToken    string `env:"DISCORD_TOKEN"`
	DiscordClientID string `env:"DISCORD_CLIENT_ID"`
	DiscordGuildID  string `env:"DISCORD_GUILD_ID"`

	BridgeURL        string        `env:"BRIDGE_URL" envDefault:"http://127.0.0.1:9585"`
	BridgeToken      string        `env:"BRIDGE_TOKEN"`
	BridgeTimeout    time.Duration `env:"BRIDGE_TIMEOUT" envDefault:"5s"`
	BridgeMaxRetries int           `env:"BRIDGE_MAX_RETRIES" envDefault:"2"`
	BridgeRetryDelay time.Duration `env:"BRIDGE_RETRY_DELAY" envDefault:"500ms"`
	BridgeRateLimit  float64       `env:"BRIDGE_RATE_LIMIT" envDefault:"0"`

	// BridgeHealthInterval is the period of the background health check; 0 disables it.
	BridgeHealthInterval time.Duration `env:"BRIDGE_HEALTH_INTERVAL" envDefault:"1m"`

	DynamicCommandsPath string `env:"DYNAMIC_COMMANDS_PATH" envDefault:"config/dynamic-commands.yml"`
	CommandCacheDir     string `env:"COMMAND_CACHE_DIR" envDefault:"data/commands"`
	DeployOnStart       bool   `env:"DEPLOY_ON_START" envDefault:"false"`

	EmbedColor  Color  `env:"EMBED_COLOR" envDefault:"0x5865F2"`
	EmbedFooter string `env:"EMBED_FOOTER" envDefault:"Runbad Bot"`

	AuditDriver     string `env:"AUDIT_DRIVER" envDefault:"none"`
	DBHost          string `env:"DB_HOST" envDefault:"127.0.0.1"`
	DBPort          int    `env:"DB_PORT" envDefault:"3306"`
	DBUser          string `env:"DB_USER"`
	DBPassword      string `env:"DB_PASSWORD"`
	DBName          string `env:"DB_NAME" envDefault:"runbadbot"`
	AuditSQLitePath string `env:"AUDIT_SQLITE_PATH" envDefault:"data/audit.db"`
	AuditFilePath   string `env:"AUDIT_FILE_PATH" envDefault:"data/audit.json"`

	StatusAddr string `env:"STATUS_ADDR"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
	LogFile   string `env:"LOG_FILE"`

	// DotEnvLoaded reports whether a .env file was found.
	DotEnvLoaded bool `env:"-"`
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	loaded := godotenv.Load() == nil

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	cfg.DotEnvLoaded = loaded
	cfg.BridgeURL = strings.TrimRight(strings.TrimSpace(cfg.BridgeURL), "/")
	cfg.AuditDriver = strings.ToLower(strings.TrimSpace(cfg.AuditDriver))

	if cfg.BridgeMaxRetries < 0 {
		return nil, errors.New("BRIDGE_MAX_RETRIES must not be negative")
	}
	if cfg.BridgeTimeout <= 0 {
		return nil, errors.New("BRIDGE_TIMEOUT must be positive")
	}
	return &cfg, nil
}

// RequireBridge validates the settings needed to talk to the bridge.
func (c *Config) RequireBridge() error {
	return missing(map[string]string{
		"BRIDGE_URL":   c.BridgeURL,
		"BRIDGE_TOKEN": c.BridgeToken,
	})
}

// RequireDiscord validates the settings needed to talk to Discord.
func (c *Config) RequireDiscord() error {
	return missing(map[string]string{
		"DISCORD_TOKEN":     c.DiscordToken,
		"DISCORD_CLIENT_ID": c.DiscordClientID,
	})
}

func missing(values map[string]string) error {
	var names []string
	for name, v := range values {
		if strings.TrimSpace(v) == "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	slices.Sort(names)
	return fmt.Errorf("missing required environment variable(s): %s", strings.Join(names, ", "))
}
