package agent

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ivanbrko/panoptes/internal/hooks"
	"github.com/ivanbrko/panoptes/internal/permissions"
)

// claudeAgent spawns Claude Code and wires its hook callbacks at
// ctx.WorkingDir/.claude/settings.local.json, per spec.md §6's
// child-process contract: PreToolUse/PostToolUse/Stop/Notification each
// map to a single ".*" matcher running the shared dispatcher script.
type claudeAgent struct {
	command  string
	extraArg []string
}

// NewClaudeAgent returns the Agent variant for Claude Code. command lets
// a config override the binary name (spec.md's config.toml does not
// expose this today, but tests construct custom commands directly).
func NewClaudeAgent(command string) Agent {
	if command == "" {
		command = "claude"
	}
	return &claudeAgent{command: command}
}

func (a *claudeAgent) Name() string    { return "claude_code" }
func (a *claudeAgent) Command() string { return a.command }

func (a *claudeAgent) DefaultArgs() []string {
	return append([]string{}, a.extraArg...)
}

func (a *claudeAgent) SupportsHooks() bool { return true }

func (a *claudeAgent) GenerateEnv(ctx SessionContext) map[string]string {
	env := map[string]string{
		"PANOPTES_SESSION_ID": string(ctx.ID),
		"PANOPTES_HOOK_PORT":  fmt.Sprintf("%d", ctx.HookPort),
	}
	if ctx.ClaudeConfigDir != "" {
		env["CLAUDE_CONFIG_DIR"] = ctx.ClaudeConfigDir
	}
	return env
}

// SetupHooks installs the per-session hooks block into
// .claude/settings.local.json, merging with whatever the project's own
// file already contains (permissions.InstallHookSettings preserves any
// non-hooks keys already there).
func (a *claudeAgent) SetupHooks(ctx SessionContext) ([]string, error) {
	dir := filepath.Join(ctx.WorkingDir, ".claude")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("agent: create .claude dir: %w", err)
	}
	path := filepath.Join(dir, "settings.local.json")

	doc := hookSettingsDoc(ctx.DispatcherPath)
	created, err := permissions.InstallHookSettings(path, doc)
	if err != nil {
		return nil, fmt.Errorf("agent: install hook settings: %w", err)
	}
	if !created {
		return nil, nil
	}
	return []string{path}, nil
}

// hookSettingsDoc builds the {"hooks": {...}} document spec.md §6
// describes: each of hooks.DispatcherEvents maps to one ".*" matcher
// running the shared dispatcher script.
func hookSettingsDoc(dispatcherPath string) json.RawMessage {
	matcher := map[string]any{
		"matcher": ".*",
		"hooks":   []map[string]any{{"type": "command", "command": dispatcherPath}},
	}
	eventBlock := map[string]any{}
	for _, event := range hooks.DispatcherEvents {
		eventBlock[event] = []map[string]any{matcher}
	}
	doc := map[string]any{"hooks": eventBlock}
	raw, _ := json.Marshal(doc)
	return raw
}
