// Package config handles configuration loading and defaults for the ramadan tracker.
// Configuration is loaded from XDG-compliant paths (typically ~/.config/ramadan/config.yaml),
// optionally followed by a .env file in the same directory and RAMADAN_* environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ramadan/internal/fsutil"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the file configuration.
const (
	EnvDataDir  = "RAMADAN_DATA_DIR"
	EnvStorage  = "RAMADAN_STORAGE"
	EnvLogLevel = "RAMADAN_LOG_LEVEL"
)

// Config represents the application configuration.
type Config struct {
	// DataDir overrides the default data directory (~/.ramadan)
	DataDir string `yaml:"data_dir,omitempty"`

	Storage       StorageConfig      `yaml:"storage,omitempty"`
	Theme         ThemeConfig        `yaml:"theme,omitempty"`
	Keys          KeysConfig         `yaml:"keys,omitempty"`
	UX            UXConfig           `yaml:"ux,omitempty"`
	Sync          SyncConfig         `yaml:"sync,omitempty"`
	Notifications NotificationConfig `yaml:"notifications,omitempty"`
	Logging       LoggingConfig      `yaml:"logging,omitempty"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	// Backend is "json" (default) or "sqlite"
	Backend string `yaml:"backend,omitempty"`
}

// LoggingConfig controls the structured log file.
type LoggingConfig struct {
	// Level is debug, info, warn, error or off
	Level string `yaml:"level,omitempty"`

	// File overrides <data_dir>/ramadan.log
	File string `yaml:"file,omitempty"`
}

// NotificationConfig defines desktop notification settings.
type NotificationConfig struct {
	Enabled bool `yaml:"enabled,omitempty"`

	// ReadingReminder fires once a day when today's Quran goal is not met (HH:MM)
	ReadingReminder string `yaml:"reading_reminder,omitempty"`

	Sound bool `yaml:"sound,omitempty"`
}

// SyncConfig defines git synchronization settings.
type SyncConfig struct {
	Enabled       bool   `yaml:"enabled,omitempty"`
	AutoCommit    bool   `yaml:"auto_commit,omitempty"`
	AutoPush      bool   `yaml:"auto_push,omitempty"`
	PullOnStartup bool   `yaml:"pull_on_startup,omitempty"`
	CommitMessage string `yaml:"commit_message,omitempty"` // "auto" for generated messages

	// Debounce batches rapid changes (e.g. dhikr taps) into one commit
	Debounce time.Duration `yaml:"debounce,omitempty"`
}

// ThemeConfig defines color settings (hex values).
type ThemeConfig struct {
	Primary    string `yaml:"primary,omitempty"`
	Accent     string `yaml:"accent,omitempty"`
	Muted      string `yaml:"muted,omitempty"`
	Background string `yaml:"background,omitempty"`
	Text       string `yaml:"text,omitempty"`
}

// KeysConfig defines customizable keyboard shortcuts.
// Each field accepts a comma-separated list of key bindings, e.g. "q,ctrl+c".
type KeysConfig struct {
	Quit     string `yaml:"quit,omitempty"`      // default: "q,ctrl+c"
	Help     string `yaml:"help,omitempty"`      // default: "?"
	NextPane string `yaml:"next_pane,omitempty"` // default: "tab"
	Pane1    string `yaml:"pane_1,omitempty"`    // default: "1"
	Pane2    string `yaml:"pane_2,omitempty"`    // default: "2"
	Pane3    string `yaml:"pane_3,omitempty"`    // default: "3"

	Up     string `yaml:"up,omitempty"`     // default: "k,up"
	Down   string `yaml:"down,omitempty"`   // default: "j,down"
	Top    string `yaml:"top,omitempty"`    // default: "g"
	Bottom string `yaml:"bottom,omitempty"` // default: "G"

	Toggle    string `yaml:"toggle,omitempty"`    // default: "d,enter,space"
	Add       string `yaml:"add,omitempty"`       // default: "a"
	Delete    string `yaml:"delete,omitempty"`    // default: "x"
	Increment string `yaml:"increment,omitempty"` // default: "+,=,enter,space"
	Reset     string `yaml:"reset,omitempty"`     // default: "r"
	ResetAll  string `yaml:"reset_all,omitempty"` // default: "R"

	Confirm string `yaml:"confirm,omitempty"` // default: "enter"
	Cancel  string `yaml:"cancel,omitempty"`  // default: "esc"

	Undo string `yaml:"undo,omitempty"` // default: "ctrl+z,u"
	Redo string `yaml:"redo,omitempty"` // default: "ctrl+y"
}

// UXConfig defines user experience settings.
type UXConfig struct {
	ConfirmDeletions      bool `yaml:"confirm_deletions,omitempty"`       // default: true
	ShowOnboarding        bool `yaml:"show_onboarding,omitempty"`         // default: true
	NarrowLayoutThreshold int  `yaml:"narrow_layout_threshold,omitempty"` // default: 80
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		DataDir: defaultDataDir(),
		Storage: StorageConfig{Backend: "json"},
		Theme: ThemeConfig{
			Primary: "#0F766E", // Teal
			Accent:  "#D97706", // Amber
			Muted:   "#6B7280", // Gray
		},
		UX: UXConfig{
			ConfirmDeletions:      true,
			ShowOnboarding:        true,
			NarrowLayoutThreshold: 80,
		},
		Sync: SyncConfig{
			AutoCommit:    true,
			CommitMessage: "auto",
			Debounce:      5 * time.Second,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ramadan"
	}
	return filepath.Join(home, ".ramadan")
}

// Dir returns the configuration directory path (XDG compliant).
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ramadan")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "ramadan")
}

// Path returns the path to the config file.
func Path() string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads configuration from disk, merging with defaults, then applies
// the .env file and environment overrides. The result is validated.
func Load() (*Config, error) {
	cfg := Default()

	if path := Path(); path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			var userCfg Config
			if err := yaml.Unmarshal(data, &userCfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
			var doc yaml.Node
			_ = yaml.Unmarshal(data, &doc) // best-effort; nil doc falls back to a conservative merge
			cfg.mergeFromYAML(&userCfg, &doc)
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv loads <config dir>/.env without overriding variables that are
// already set.
func loadDotEnv() error {
	dir := Dir()
	if dir == "" {
		return nil
	}
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvDataDir)); v != "" {
		c.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStorage)); v != "" {
		c.Storage.Backend = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}

// Validate rejects values the rest of the application cannot work with.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "", "json", "sqlite":
	default:
		return fmt.Errorf("storage.backend: unknown backend %q (want json or sqlite)", c.Storage.Backend)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error", "off":
	default:
		return fmt.Errorf("logging.level: unknown level %q", c.Logging.Level)
	}
	if r := c.Notifications.ReadingReminder; r != "" {
		if _, err := time.Parse("15:04", r); err != nil || len(r) != 5 {
			return fmt.Errorf("notifications.reading_reminder: %q is not HH:MM", r)
		}
	}
	if c.Sync.Debounce < 0 {
		return fmt.Errorf("sync.debounce: must not be negative")
	}
	return nil
}

func setIfNonEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// mergeNonEmpty applies non-empty values from other to c.
// Booleans are left alone; they need presence-aware merging.
func (c *Config) mergeNonEmpty(other *Config) {
	setIfNonEmpty(&c.DataDir, other.DataDir)
	setIfNonEmpty(&c.Storage.Backend, other.Storage.Backend)

	for dst, v := range map[*string]string{
		&c.Theme.Primary:    other.Theme.Primary,
		&c.Theme.Accent:     other.Theme.Accent,
		&c.Theme.Muted:      other.Theme.Muted,
		&c.Theme.Background: other.Theme.Background,
		&c.Theme.Text:       other.Theme.Text,

		&c.Keys.Quit:      other.Keys.Quit,
		&c.Keys.Help:      other.Keys.Help,
		&c.Keys.NextPane:  other.Keys.NextPane,
		&c.Keys.Pane1:     other.Keys.Pane1,
		&c.Keys.Pane2:     other.Keys.Pane2,
		&c.Keys.Pane3:     other.Keys.Pane3,
		&c.Keys.Up:        other.Keys.Up,
		&c.Keys.Down:      other.Keys.Down,
		&c.Keys.Top:       other.Keys.Top,
		&c.Keys.Bottom:    other.Keys.Bottom,
		&c.Keys.Toggle:    other.Keys.Toggle,
		&c.Keys.Add:       other.Keys.Add,
		&c.Keys.Delete:    other.Keys.Delete,
		&c.Keys.Increment: other.Keys.Increment,
		&c.Keys.Reset:     other.Keys.Reset,
		&c.Keys.ResetAll:  other.Keys.ResetAll,
		&c.Keys.Confirm:   other.Keys.Confirm,
		&c.Keys.Cancel:    other.Keys.Cancel,
		&c.Keys.Undo:      other.Keys.Undo,
		&c.Keys.Redo:      other.Keys.Redo,

		&c.Sync.CommitMessage:            other.Sync.CommitMessage,
		&c.Notifications.ReadingReminder: other.Notifications.ReadingReminder,
		&c.Logging.Level:                 other.Logging.Level,
		&c.Logging.File:                  other.Logging.File,
	} {
		setIfNonEmpty(dst, v)
	}

	if other.UX.NarrowLayoutThreshold > 0 {
		c.UX.NarrowLayoutThreshold = other.UX.NarrowLayoutThreshold
	}
	if other.Sync.Debounce > 0 {
		c.Sync.Debounce = other.Sync.Debounce
	}
}

func (c *Config) mergeFromYAML(other *Config, doc *yaml.Node) {
	c.mergeNonEmpty(other)
	if doc == nil || len(doc.Content) == 0 {
		return
	}

	bools := []struct {
		path []string
		dst  *bool
		v    bool
	}{
		{[]string{"ux", "confirm_deletions"}, &c.UX.ConfirmDeletions, other.UX.ConfirmDeletions},
		{[]string{"ux", "show_onboarding"}, &c.UX.ShowOnboarding, other.UX.ShowOnboarding},
		{[]string{"sync", "enabled"}, &c.Sync.Enabled, other.Sync.Enabled},
		{[]string{"sync", "auto_commit"}, &c.Sync.AutoCommit, other.Sync.AutoCommit},
		{[]string{"sync", "auto_push"}, &c.Sync.AutoPush, other.Sync.AutoPush},
		{[]string{"sync", "pull_on_startup"}, &c.Sync.PullOnStartup, other.Sync.PullOnStartup},
		{[]string{"notifications", "enabled"}, &c.Notifications.Enabled, other.Notifications.Enabled},
		{[]string{"notifications", "sound"}, &c.Notifications.Sound, other.Notifications.Sound},
	}
	for _, b := range bools {
		if yamlHasPath(doc, b.path...) {
			*b.dst = b.v
		}
	}

	// An explicit empty reminder disables it.
	if yamlHasPath(doc, "notifications", "reading_reminder") {
		c.Notifications.ReadingReminder = other.Notifications.ReadingReminder
	}
	if yamlHasPath(doc, "sync", "debounce") {
		c.Sync.Debounce = other.Sync.Debounce
	}
}

func yamlHasPath(doc *yaml.Node, path ...string) bool {
	if doc == nil || len(path) == 0 {
		return false
	}

	n := doc
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	for _, key := range path {
		if n == nil || n.Kind != yaml.MappingNode {
			return false
		}
		var next *yaml.Node
		for i := 0; i+1 < len(n.Content); i += 2 {
			if k := n.Content[i]; k.Kind == yaml.ScalarNode && k.Value == key {
				next = n.Content[i+1]
				break
			}
		}
		if next == nil {
			return false
		}
		n = next
	}
	return true
}

// Save writes the configuration to disk.
func (c *Config) Save() error {
	path := Path()
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, data, 0600)
}

// GetDataDir returns the resolved data directory path with ~ expanded.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return defaultDataDir()
	}
	return expandHome(c.DataDir)
}

// LogFile returns the resolved log file path.
func (c *Config) LogFile() string {
	if c.Logging.File != "" {
		return expandHome(c.Logging.File)
	}
	return filepath.Join(c.GetDataDir(), "ramadan.log")
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") && !strings.HasPrefix(p, `~\`) {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	return filepath.Join(home, p[2:])
}
