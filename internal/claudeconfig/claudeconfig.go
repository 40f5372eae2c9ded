// Package claudeconfig manages named Claude account configurations
// (spec.md §3's ClaudeConfig), persisted to claude_configs.json. This is
// the Go analogue of h2's multi-account support, which the teacher notes
// belongs in a `claude_config` package distinct from the per-directory
// `.claude.json` permissions store (see package permissions).
package claudeconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ivanbrko/panoptes/internal/id"
)

// Config names one Claude Code config directory. ConfigDir == "" means
// the agent's own default (~/.claude).
type Config struct {
	ID        id.ClaudeConfigID `json:"id"`
	Name      string            `json:"name"`
	ConfigDir string            `json:"config_dir,omitempty"`
	IsDefault bool              `json:"is_default"`
}

type document struct {
	Configs []Config `json:"configs"`
}

// Store is the in-memory, file-backed collection of Configs. Exactly
// one Config is marked default; deleting the current default
// auto-reassigns it to another entry if any remain (spec.md §3).
type Store struct {
	path    string
	configs []Config
}

// Open loads path, returning an empty store if it doesn't exist yet.
func Open(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Store{path: path}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claudeconfig: read %s: %w", path, err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("claudeconfig: parse %s: %w", path, err)
	}
	return &Store{path: path, configs: doc.Configs}, nil
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(document{Configs: s.configs}, "", "  ")
	if err != nil {
		return fmt.Errorf("claudeconfig: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("claudeconfig: create dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("claudeconfig: write %s: %w", s.path, err)
	}
	return nil
}

// Configs returns every config.
func (s *Store) Configs() []Config { return append([]Config{}, s.configs...) }

// Default returns the current default config, if any is marked.
func (s *Store) Default() (Config, bool) {
	for _, c := range s.configs {
		if c.IsDefault {
			return c, true
		}
	}
	return Config{}, false
}

// Add appends cfg. If it's the first config, or explicitly marked
// default, it becomes (the only) default.
func (s *Store) Add(cfg Config) error {
	// At most one config may have ConfigDir == "" (the agent's own default).
	if cfg.ConfigDir == "" {
		for _, c := range s.configs {
			if c.ConfigDir == "" {
				return fmt.Errorf("claudeconfig: a config with the agent default dir already exists (%s)", c.Name)
			}
		}
	}
	if cfg.IsDefault || len(s.configs) == 0 {
		for i := range s.configs {
			s.configs[i].IsDefault = false
		}
		cfg.IsDefault = true
	}
	s.configs = append(s.configs, cfg)
	return s.save()
}

// Remove deletes the config by id. If it was the default and other
// configs remain, the first remaining one becomes the new default
// (spec.md §3: "auto-reassigned on deletion of the current default").
func (s *Store) Remove(configID id.ClaudeConfigID) error {
	idx := -1
	for i, c := range s.configs {
		if c.ID == configID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("claudeconfig: unknown config %s", configID)
	}

	wasDefault := s.configs[idx].IsDefault
	s.configs = append(s.configs[:idx], s.configs[idx+1:]...)

	if wasDefault && len(s.configs) > 0 {
		s.configs[0].IsDefault = true
	}
	return s.save()
}
