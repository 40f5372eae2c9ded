// Package permissions manages the two Claude Code permission surfaces
// Panoptes touches when it creates or tears down a worktree session:
// the global `.claude.json` (per-project tool/MCP/trust settings) and
// the per-project `.claude/settings.local.json`. Grounded directly on
// original_source/src/claude_json.rs, translated from Rust's
// serde(flatten)-preserving structs to Go's json.RawMessage bags.
package permissions

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ProjectSettings mirrors claude_json.rs's ClaudeProjectSettings: known
// fields plus an Other bag for forward compatibility with fields this
// version of Panoptes doesn't know about.
type ProjectSettings struct {
	AllowedTools           []string                   `json:"allowedTools,omitempty"`
	HasTrustDialogAccepted bool                        `json:"hasTrustDialogAccepted,omitempty"`
	McpServers             map[string]json.RawMessage  `json:"mcpServers,omitempty"`
	Other                  map[string]json.RawMessage  `json:"-"`
}

// HasSettings reports whether these settings carry anything worth
// copying: any tool, any MCP server, trust acceptance, or any unknown
// field (claude_json.rs's has_settings).
func (s ProjectSettings) HasSettings() bool {
	return len(s.AllowedTools) > 0 || len(s.McpServers) > 0 || s.HasTrustDialogAccepted || len(s.Other) > 0
}

// MarshalJSON flattens Other alongside the known fields, matching
// serde(flatten).
func (s ProjectSettings) MarshalJSON() ([]byte, error) {
	out := map[string]json.RawMessage{}
	for k, v := range s.Other {
		out[k] = v
	}
	if len(s.AllowedTools) > 0 {
		b, _ := json.Marshal(s.AllowedTools)
		out["allowedTools"] = b
	}
	if s.HasTrustDialogAccepted {
		out["hasTrustDialogAccepted"] = json.RawMessage("true")
	}
	if len(s.McpServers) > 0 {
		b, _ := json.Marshal(s.McpServers)
		out["mcpServers"] = b
	}
	return json.Marshal(out)
}

// UnmarshalJSON splits known fields out of the flattened object, the
// rest lands in Other.
func (s *ProjectSettings) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if v, ok := raw["allowedTools"]; ok {
		if err := json.Unmarshal(v, &s.AllowedTools); err != nil {
			return err
		}
		delete(raw, "allowedTools")
	}
	if v, ok := raw["hasTrustDialogAccepted"]; ok {
		if err := json.Unmarshal(v, &s.HasTrustDialogAccepted); err != nil {
			return err
		}
		delete(raw, "hasTrustDialogAccepted")
	}
	if v, ok := raw["mcpServers"]; ok {
		if err := json.Unmarshal(v, &s.McpServers); err != nil {
			return err
		}
		delete(raw, "mcpServers")
	}
	s.Other = raw
	return nil
}

// JSONConfig is the full `.claude.json` document: per-project settings
// keyed by absolute path, plus unknown top-level fields.
type JSONConfig struct {
	Projects map[string]ProjectSettings `json:"-"`
	Other    map[string]json.RawMessage `json:"-"`
}

func (c JSONConfig) MarshalJSON() ([]byte, error) {
	out := map[string]json.RawMessage{}
	for k, v := range c.Other {
		out[k] = v
	}
	projects, _ := json.Marshal(c.Projects)
	out["projects"] = projects
	return json.Marshal(out)
}

func (c *JSONConfig) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Projects = map[string]ProjectSettings{}
	if v, ok := raw["projects"]; ok {
		if err := json.Unmarshal(v, &c.Projects); err != nil {
			return err
		}
		delete(raw, "projects")
	}
	c.Other = raw
	return nil
}

// JSONStore reads and writes one `.claude.json` file.
type JSONStore struct {
	path string
}

// NewJSONStore builds a store for configDir/.claude.json. An empty
// configDir resolves to ~/.claude.
func NewJSONStore(configDir string) (*JSONStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("permissions: resolve home dir: %w", err)
		}
		configDir = filepath.Join(home, ".claude")
	}
	return &JSONStore{path: filepath.Join(configDir, ".claude.json")}, nil
}

// Load returns an empty config if the file does not exist yet.
func (s *JSONStore) Load() (JSONConfig, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return JSONConfig{Projects: map[string]ProjectSettings{}}, nil
	}
	if err != nil {
		return JSONConfig{}, fmt.Errorf("permissions: read %s: %w", s.path, err)
	}
	var cfg JSONConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return JSONConfig{}, fmt.Errorf("permissions: parse %s: %w", s.path, err)
	}
	return cfg, nil
}

// Save backs up the existing file to path+".bak" (if any) before
// overwriting, matching claude_json.rs's save().
func (s *JSONStore) Save(cfg JSONConfig) error {
	if _, err := os.Stat(s.path); err == nil {
		if err := copyFile(s.path, s.path+".bak"); err != nil {
			return fmt.Errorf("permissions: backup %s: %w", s.path, err)
		}
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("permissions: encode %s: %w", s.path, err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("permissions: create dir for %s: %w", s.path, err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("permissions: write %s: %w", s.path, err)
	}
	return nil
}

// CopySettings copies the entry at from to to, overwriting to entirely.
// No-op if from has no entry.
func (s *JSONStore) CopySettings(from, to string) error {
	cfg, err := s.Load()
	if err != nil {
		return err
	}
	settings, ok := cfg.Projects[from]
	if !ok {
		return nil
	}
	cfg.Projects[to] = settings
	return s.Save(cfg)
}

// RemoveSettings deletes the entry at path, reporting whether one
// existed, so stale worktree entries don't accumulate.
func (s *JSONStore) RemoveSettings(path string) (bool, error) {
	cfg, err := s.Load()
	if err != nil {
		return false, err
	}
	if _, ok := cfg.Projects[path]; !ok {
		return false, nil
	}
	delete(cfg.Projects, path)
	if err := s.Save(cfg); err != nil {
		return false, err
	}
	return true, nil
}

// MergeSettings adds every allowed tool unique to worktreePath into
// mainPath's allowed tools, returning the tools that were added.
func (s *JSONStore) MergeSettings(worktreePath, mainPath string) ([]string, error) {
	cfg, err := s.Load()
	if err != nil {
		return nil, err
	}
	mainTools := map[string]bool{}
	for _, t := range cfg.Projects[mainPath].AllowedTools {
		mainTools[t] = true
	}

	// Walk the worktree's list in its own order (skipping duplicates
	// within it) so new entries land in main in the order the worktree
	// acquired them, per spec.md §4.10.
	seen := map[string]bool{}
	var unique []string
	for _, t := range cfg.Projects[worktreePath].AllowedTools {
		if mainTools[t] || seen[t] {
			continue
		}
		seen[t] = true
		unique = append(unique, t)
	}
	if len(unique) == 0 {
		return nil, nil
	}

	main := cfg.Projects[mainPath]
	main.AllowedTools = append(main.AllowedTools, unique...)
	cfg.Projects[mainPath] = main
	if err := s.Save(cfg); err != nil {
		return nil, err
	}
	return unique, nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
