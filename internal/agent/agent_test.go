package agent

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ivanbrko/panoptes/internal/id"
)

func TestClaudeAgentSupportsHooksAndEnv(t *testing.T) {
	a := NewClaudeAgent("")
	if !a.SupportsHooks() {
		t.Fatal("claude agent should support hooks")
	}
	if a.Command() != "claude" {
		t.Fatalf("command = %q, want claude", a.Command())
	}

	env := a.GenerateEnv(SessionContext{ID: id.SessionID("abc"), ClaudeConfigDir: "/tmp/cfg"})
	if env["PANOPTES_SESSION_ID"] != "abc" {
		t.Fatalf("env missing session id: %+v", env)
	}
	if env["CLAUDE_CONFIG_DIR"] != "/tmp/cfg" {
		t.Fatalf("env missing config dir: %+v", env)
	}
}

func TestClaudeAgentSetupHooksWritesSettingsFile(t *testing.T) {
	dir := t.TempDir()
	a := NewClaudeAgent("")

	paths, err := a.SetupHooks(SessionContext{ID: id.SessionID("s1"), WorkingDir: dir, HookPort: 9123})
	if err != nil {
		t.Fatalf("setup hooks: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("expected one cleanup path, got %v", paths)
	}

	want := filepath.Join(dir, ".claude", "settings.local.json")
	if paths[0] != want {
		t.Fatalf("cleanup path = %q, want %q", paths[0], want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("settings file not written: %v", err)
	}
}

func TestClaudeAgentSetupHooksPreservesExistingNonHookKeys(t *testing.T) {
	dir := t.TempDir()
	claudeDir := filepath.Join(dir, ".claude")
	if err := os.MkdirAll(claudeDir, 0o755); err != nil {
		t.Fatal(err)
	}
	existing := filepath.Join(claudeDir, "settings.local.json")
	if err := os.WriteFile(existing, []byte(`{"allowedTools":["Bash(git:*)"]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	a := NewClaudeAgent("")
	paths, err := a.SetupHooks(SessionContext{ID: id.SessionID("s2"), WorkingDir: dir, HookPort: 9123})
	if err != nil {
		t.Fatalf("setup hooks: %v", err)
	}
	// The file already existed, so it is not ours to delete.
	if len(paths) != 0 {
		t.Fatalf("expected no cleanup paths for a pre-existing file, got %v", paths)
	}

	data, err := os.ReadFile(existing)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "allowedTools") || !strings.Contains(string(data), "hooks") {
		t.Fatalf("expected both allowedTools and hooks to survive merge, got %s", data)
	}
}

func TestShellAgentHasNoHooks(t *testing.T) {
	a := NewShellAgent("/bin/bash")
	if a.SupportsHooks() {
		t.Fatal("shell agent should not support hooks")
	}
	paths, err := a.SetupHooks(SessionContext{})
	if err != nil || paths != nil {
		t.Fatalf("shell SetupHooks should be a no-op, got %v, %v", paths, err)
	}
}

func TestCustomAgentUsesConfiguredCommand(t *testing.T) {
	a := NewCustomAgent("lint", "make", []string{"lint"})
	if a.Name() != "lint" || a.Command() != "make" {
		t.Fatalf("unexpected agent: name=%q command=%q", a.Name(), a.Command())
	}
	if got := a.DefaultArgs(); len(got) != 1 || got[0] != "lint" {
		t.Fatalf("args = %v, want [lint]", got)
	}
}

func TestResolveUnknownKind(t *testing.T) {
	if _, err := Resolve(Kind("bogus"), ""); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
