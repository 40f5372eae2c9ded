// Package agent implements spec.md §9's "dynamic dispatch over agent
// kinds": Claude Code, plain shell, and custom shortcuts, each a variant
// behind one interface rather than a class hierarchy. Grounded in the
// teacher's internal/session/agent/harness.Harness interface (h2), but
// narrowed to six operations: name, command, default_args,
// supports_hooks, generate_env, setup_hooks. Spawning is not an Agent
// method; package session spawns the child from the command, args and
// environment these supply.
package agent

import "github.com/ivanbrko/panoptes/internal/id"

// SessionContext is the subset of session metadata an Agent needs to
// generate environment variables and install hooks, without giving it
// the full *session.Session (which would create an import cycle, since
// Session constructs Agents).
type SessionContext struct {
	ID              id.SessionID
	WorkingDir      string
	HookPort        int
	DispatcherPath  string // absolute path to the installed hook dispatcher script
	ClaudeConfigDir string // empty selects the agent's own default
}

// Agent is the dispatch interface for an agent kind. Implementations are
// tagged variants selected by Resolve, not an inheritance hierarchy.
type Agent interface {
	// Name identifies the agent kind ("claude_code", "shell", "custom").
	Name() string

	// Command is the executable to spawn.
	Command() string

	// DefaultArgs are args always passed ahead of any user-supplied args.
	DefaultArgs() []string

	// SupportsHooks reports whether SetupHooks should be called before
	// spawning: true for agent sessions, false for a shell session or a
	// custom shortcut (spec.md §4.5).
	SupportsHooks() bool

	// GenerateEnv returns environment variable overrides for the child
	// process (e.g. PANOPTES_SESSION_ID, CLAUDE_CONFIG_DIR).
	GenerateEnv(ctx SessionContext) map[string]string

	// SetupHooks installs whatever the agent needs to report hook events
	// (e.g. a per-session settings.local.json) and returns the paths
	// that should be cleaned up when the session ends (spec.md's Open
	// Question on settings.local.json cleanup — Panoptes' resolution,
	// see DESIGN.md, is: the paths SetupHooks returns are removed when
	// the session ends, and nowhere else).
	SetupHooks(ctx SessionContext) (cleanupPaths []string, err error)
}
