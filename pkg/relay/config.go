// Copyright 2024-2026 Aiku AI

package relay

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	up "go.mau.fi/util/configupgrade"
	"go.mau.fi/zeroconfig"
	"gopkg.in/yaml.v3"
)

//go:embed example-config.yaml
var ExampleConfig string

// DefaultEditWindow is how long after sending a group message its edits are
// still propagated to the user.
const DefaultEditWindow = 48 * time.Hour

// Config is the full bot configuration.
type Config struct {
	Telegram TelegramConfig    `yaml:"telegram"`
	Relay    RelayConfig       `yaml:"relay"`
	Metrics  MetricsConfig     `yaml:"metrics"`
	Logging  zeroconfig.Config `yaml:"logging"`
}

// TelegramConfig holds Bot API connection settings.
type TelegramConfig struct {
	Token string `yaml:"token"`
	// APIEndpoint overrides the Bot API URL format, e.g. for a local Bot API
	// server. Must contain two %s verbs for the token and method.
	APIEndpoint string `yaml:"api_endpoint"`
	// PollTimeout is the long-polling timeout in seconds.
	PollTimeout int `yaml:"poll_timeout"`
}

// RelayConfig holds the relay engine settings.
type RelayConfig struct {
	GroupID     int64         `yaml:"group_id"`
	EditWindow  time.Duration `yaml:"edit_window"`
	BanListPath string        `yaml:"ban_list_path"`
	// FlushInterval is the cadence of the redundant ban list write.
	FlushInterval time.Duration `yaml:"flush_interval"`
	// CorrelationRetention enables pruning of message correlations older
	// than this. Zero keeps them for the process lifetime.
	CorrelationRetention time.Duration `yaml:"correlation_retention"`
	WelcomeText          string        `yaml:"welcome_text"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// DefaultMetricsListen is the metrics listen address used when none is set.
const DefaultMetricsListen = "127.0.0.1:9290"

func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	type rawConfig Config
	return node.Decode((*rawConfig)(c))
}

// ApplyEnv overrides file values with RELAY_* environment variables. The
// bare TOKEN and GROUP_ID names are accepted as well.
func (c *Config) ApplyEnv() error {
	if token := firstEnv("RELAY_TOKEN", "TOKEN"); token != "" {
		c.Telegram.Token = token
	}
	if groupID := firstEnv("RELAY_GROUP_ID", "GROUP_ID"); groupID != "" {
		id, err := strconv.ParseInt(groupID, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid group id %q in environment: %w", groupID, err)
		}
		c.Relay.GroupID = id
	}
	if path := os.Getenv("RELAY_BAN_LIST_PATH"); path != "" {
		c.Relay.BanListPath = path
	}
	return nil
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	return ""
}

// PostProcess validates the config and fills in defaults.
func (c *Config) PostProcess() error {
	if c.Telegram.Token == "" {
		return errors.New("telegram.token is required")
	}
	if c.Relay.GroupID == 0 {
		return errors.New("relay.group_id is required")
	}
	if c.Telegram.PollTimeout <= 0 {
		c.Telegram.PollTimeout = 60
	}
	if c.Relay.EditWindow <= 0 {
		c.Relay.EditWindow = DefaultEditWindow
	}
	if c.Relay.FlushInterval <= 0 {
		c.Relay.FlushInterval = DefaultFlushInterval
	}
	if c.Relay.CorrelationRetention < 0 {
		return errors.New("relay.correlation_retention must not be negative")
	}
	if c.Relay.BanListPath == "" {
		c.Relay.BanListPath = "banned_users.json"
	}
	if c.Relay.WelcomeText == "" {
		c.Relay.WelcomeText = DefaultWelcomeText
	}
	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		c.Metrics.Listen = DefaultMetricsListen
	}
	return nil
}

func upgradeConfig(helper up.Helper) {
	helper.Copy(up.Str, "telegram", "token")
	helper.Copy(up.Str|up.Null, "telegram", "api_endpoint")
	helper.Copy(up.Int, "telegram", "poll_timeout")
	helper.Copy(up.Int, "relay", "group_id")
	helper.Copy(up.Str, "relay", "edit_window")
	helper.Copy(up.Str, "relay", "ban_list_path")
	helper.Copy(up.Str, "relay", "flush_interval")
	helper.Copy(up.Str, "relay", "correlation_retention")
	helper.Copy(up.Str|up.Null, "relay", "welcome_text")
	helper.Copy(up.Bool, "metrics", "enabled")
	helper.Copy(up.Str, "metrics", "listen")
	helper.Copy(up.Map, "logging")
}

// Upgrader merges an existing config file onto the embedded example config.
func Upgrader() up.BaseUpgrader {
	return &up.StructUpgrader{
		SimpleUpgrader: up.SimpleUpgrader(upgradeConfig),
		Blocks:         nil,
		Base:           ExampleConfig,
	}
}

// LoadConfig reads and upgrades the config at path, writing the example
// config there first if the file does not exist. When save is true the
// upgraded config is written back. Environment overrides are applied before
// validation.
func LoadConfig(path string, save bool) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err = writeExampleConfig(path); err != nil {
			return nil, fmt.Errorf("failed to write example config: %w", err)
		}
	}
	data, _, err := up.Do(path, save, Upgrader())
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade config: %w", err)
	}
	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err = cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err = cfg.PostProcess(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func writeExampleConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(ExampleConfig), 0o600)
}
