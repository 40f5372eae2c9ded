// Package config loads Panoptes' application configuration from
// config.toml in the config directory (spec.md §6). Grounded in the
// teacher's configuration loader shape (Load/LoadFrom/ConfigDir with a
// home-directory fallback), translated from h2's yaml.v3 to
// BurntSushi/toml since spec.md names config.toml explicitly.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/google/shlex"
)

// Shortcut mirrors one config.toml [[custom_shortcuts]] entry. Users may
// write command as a single shell-style string ("git commit -m wip")
// instead of populating args separately; Normalize splits it the same
// way the teacher's internal/bridge/exec.go splits a command string
// before exec.Command.
type Shortcut struct {
	Name    string   `toml:"name"`
	Key     string   `toml:"key"`
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
}

// Normalize splits Command into a binary plus argv when Args wasn't
// given explicitly, so "command = \"git commit -m wip\"" and
// "command = \"git\", args = [\"commit\", \"-m\", \"wip\"]" behave
// identically.
func (s Shortcut) Normalize() (Shortcut, error) {
	if len(s.Args) > 0 || s.Command == "" {
		return s, nil
	}
	argv, err := shlex.Split(s.Command)
	if err != nil {
		return s, fmt.Errorf("config: shortcut %q: invalid command: %w", s.Name, err)
	}
	if len(argv) == 0 {
		return s, nil
	}
	s.Command = argv[0]
	s.Args = argv[1:]
	return s, nil
}

// Config is the full application configuration, with defaults matching
// spec.md §6 and §9.
type Config struct {
	HookPort                int        `toml:"hook_port"`
	WorktreesDir             string     `toml:"worktrees_dir"`
	HooksDir                 string     `toml:"hooks_dir"`
	MaxOutputLines           int        `toml:"max_output_lines"`
	ScrollbackLines          int        `toml:"scrollback_lines"`
	IdleThresholdSecs        int64      `toml:"idle_threshold_secs"`
	StateTimeoutSecs         int64      `toml:"state_timeout_secs"`
	ExitedRetentionSecs      int64      `toml:"exited_retention_secs"`
	NotificationMethod       string     `toml:"notification_method"`
	EscHoldThresholdMs       int64      `toml:"esc_hold_threshold_ms"`
	FocusTimerMinutes        int        `toml:"focus_timer_minutes"`
	FocusStatsRetentionDays  int        `toml:"focus_stats_retention_days"`
	CustomShortcuts          []Shortcut `toml:"custom_shortcuts"`
	ThemePreset              string     `toml:"theme_preset"`
}

// Default returns the configuration used when no config.toml exists yet.
func Default() Config {
	return Config{
		HookPort:                0, // 0 = bind an ephemeral port
		WorktreesDir:            "worktrees",
		HooksDir:                "hooks",
		MaxOutputLines:          10000,
		ScrollbackLines:         10000,
		IdleThresholdSecs:       300,
		StateTimeoutSecs:        600,
		ExitedRetentionSecs:     3600,
		NotificationMethod:      "bell",
		EscHoldThresholdMs:      50,
		FocusTimerMinutes:       25,
		FocusStatsRetentionDays: 90,
		ThemePreset:             "default",
	}
}

// ConfigDir resolves ~/.panoptes, falling back to ./.panoptes when the
// home directory cannot be determined (spec.md §6).
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "./.panoptes"
	}
	return filepath.Join(home, ".panoptes")
}

// Load reads config.toml from ConfigDir(), returning Default() if it
// does not exist.
func Load() (Config, error) {
	return LoadFrom(filepath.Join(ConfigDir(), "config.toml"))
}

// LoadFrom reads config.toml from an explicit path, merging onto
// Default() so a partial file still yields sane values for everything
// it doesn't mention.
func LoadFrom(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	for i, s := range cfg.CustomShortcuts {
		normalized, err := s.Normalize()
		if err != nil {
			return Config{}, err
		}
		cfg.CustomShortcuts[i] = normalized
	}
	return cfg, nil
}

// Save writes cfg to path as TOML, creating parent directories as
// needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create dir for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: create %s: %w", path, err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("config: encode %s: %w", path, err)
	}
	return nil
}
