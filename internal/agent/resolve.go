package agent

import "fmt"

// Kind names the built-in agent kinds a session can be created with.
// Custom shortcuts are resolved by name against config, not by Kind.
type Kind string

const (
	KindClaudeCode Kind = "claude_code"
	KindShell      Kind = "shell"
)

// Shortcut describes one config.toml custom_shortcuts entry (spec.md
// §9): a name, the command to run, and its fixed argument list.
type Shortcut struct {
	Name    string
	Command string
	Args    []string
}

// Resolve builds the Agent for a built-in kind. command overrides the
// default binary ("claude" / $SHELL) when non-empty.
func Resolve(kind Kind, command string) (Agent, error) {
	switch kind {
	case KindClaudeCode:
		return NewClaudeAgent(command), nil
	case KindShell:
		return NewShellAgent(command), nil
	default:
		return nil, fmt.Errorf("agent: unknown kind %q", kind)
	}
}

// ResolveShortcut builds the Agent for a named custom shortcut.
func ResolveShortcut(s Shortcut) Agent {
	return NewCustomAgent(s.Name, s.Command, s.Args)
}
