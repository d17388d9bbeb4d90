// Package config handles Lifeboard configuration loading.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage driver names accepted in storage.driver. They match the names
// the two SQLite drivers register with database/sql.
const (
	DriverCGO  = "sqlite3" // github.com/mattn/go-sqlite3
	DriverPure = "sqlite"  // modernc.org/sqlite
)

// DefaultStorageKey is the slot the document is persisted under.
const DefaultStorageKey = "lifeboard_data_v2"

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/lifeboard/config.yaml, /etc/lifeboard/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "lifeboard", "config.yaml"))
	}

	paths = append(paths, "/etc/lifeboard/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all Lifeboard configuration.
type Config struct {
	DataDir   string          `yaml:"data_dir"`
	LogLevel  string          `yaml:"log_level"`
	LogFormat string          `yaml:"log_format"` // text (default) or json
	Storage   StorageConfig   `yaml:"storage"`
	Listen    ListenConfig    `yaml:"listen"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	Digest    DigestConfig    `yaml:"digest"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
}

// StorageConfig selects where the document is persisted.
type StorageConfig struct {
	// Driver is the database/sql driver name: "sqlite3" (cgo) or
	// "sqlite" (pure Go).
	Driver string `yaml:"driver"`
	// Path is the database file. Relative paths resolve against DataDir.
	Path string `yaml:"path"`
	// Key is the slot name the JSON document is stored under.
	Key string `yaml:"key"`
	// SaveDebounce coalesces rapid mutations into one write.
	SaveDebounce time.Duration `yaml:"save_debounce"`
}

// ListenConfig defines the local API server settings.
type ListenConfig struct {
	Address string `yaml:"address"` // Bind address (default: "" = all interfaces)
	Port    int    `yaml:"port"`
}

// GatewayConfig points at the optional external status endpoint.
type GatewayConfig struct {
	Enabled      bool          `yaml:"enabled"`
	URL          string        `yaml:"url"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Timeout      time.Duration `yaml:"timeout"`
}

// KnowledgeConfig locates the precomputed knowledge index.
type KnowledgeConfig struct {
	// Source is a file path or an http(s) URL.
	Source string `yaml:"source"`
	// Watch reloads a file-based index whenever it changes on disk.
	Watch bool `yaml:"watch"`
	// Timeout bounds a fetch of a remote index.
	Timeout time.Duration `yaml:"timeout"`
}

// DigestConfig controls the scheduled daily digest.
type DigestConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"` // 5-field cron expression
	// RetainDays prunes archived digests older than this many days.
	// Zero keeps every archive.
	RetainDays int `yaml:"retain_days"`
}

// MQTTConfig defines the optional Home Assistant MQTT integration.
type MQTTConfig struct {
	Broker          string        `yaml:"broker"` // mqtt://host:1883 or mqtts://host:8883
	Username        string        `yaml:"username"`
	Password        string        `yaml:"password"`
	DeviceName      string        `yaml:"device_name"`
	DiscoveryPrefix string        `yaml:"discovery_prefix"`
	PublishInterval time.Duration `yaml:"publish_interval"`
}

// Configured reports whether an MQTT broker has been set.
func (c MQTTConfig) Configured() bool {
	return c.Broker != ""
}

// Load reads configuration from a YAML file. Environment variables in
// the form ${VAR} are expanded before parsing, and defaults are applied
// to anything left unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration suitable for running without a file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverCGO
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "lifeboard.db"
	}
	if c.Storage.Key == "" {
		c.Storage.Key = DefaultStorageKey
	}
	if c.Storage.SaveDebounce <= 0 {
		c.Storage.SaveDebounce = 300 * time.Millisecond
	}
	if c.Listen.Port == 0 {
		c.Listen.Port = 8787
	}
	if c.Gateway.URL == "" {
		c.Gateway.URL = os.Getenv("LIFEBOARD_GATEWAY_URL")
	}
	if c.Gateway.URL == "" {
		c.Gateway.URL = "http://localhost:8080"
	}
	if c.Gateway.PollInterval <= 0 {
		c.Gateway.PollInterval = 10 * time.Second
	}
	if c.Gateway.Timeout <= 0 {
		c.Gateway.Timeout = 5 * time.Second
	}
	if c.Knowledge.Source == "" {
		c.Knowledge.Source = "knowledge-index.json"
	}
	if c.Knowledge.Timeout <= 0 {
		c.Knowledge.Timeout = 10 * time.Second
	}
	if c.Digest.Schedule == "" {
		c.Digest.Schedule = "55 23 * * *"
	}
	if c.MQTT.DeviceName == "" {
		c.MQTT.DeviceName = "lifeboard"
	}
	if c.MQTT.DiscoveryPrefix == "" {
		c.MQTT.DiscoveryPrefix = "homeassistant"
	}
	if c.MQTT.PublishInterval <= 0 {
		c.MQTT.PublishInterval = 60 * time.Second
	}
}

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log_format %q (valid: text, json)", c.LogFormat)
	}
	switch c.Storage.Driver {
	case DriverCGO, DriverPure:
	default:
		return fmt.Errorf("unknown storage.driver %q (valid: %s, %s)", c.Storage.Driver, DriverCGO, DriverPure)
	}
	if c.Listen.Port < 0 || c.Listen.Port > 65535 {
		return fmt.Errorf("listen.port %d out of range", c.Listen.Port)
	}
	if c.Digest.RetainDays < 0 {
		return fmt.Errorf("digest.retain_days %d must not be negative", c.Digest.RetainDays)
	}
	if c.Gateway.Enabled {
		u, err := url.Parse(c.Gateway.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("gateway.url %q is not an absolute URL", c.Gateway.URL)
		}
	}
	if c.MQTT.Configured() {
		if _, err := url.Parse(c.MQTT.Broker); err != nil {
			return fmt.Errorf("mqtt.broker: %w", err)
		}
	}
	return nil
}

// StoragePath returns the database path with relative paths resolved
// against DataDir.
func (c *Config) StoragePath() string {
	if filepath.IsAbs(c.Storage.Path) {
		return c.Storage.Path
	}
	return filepath.Join(c.DataDir, c.Storage.Path)
}
