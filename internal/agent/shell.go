package agent

import "os"

// shellAgent spawns a plain login shell with no hook wiring: a session
// the user opens to poke around, not one panoptes tracks state for. No
// hook events arrive for it, so it stays in Starting until it exits.
type shellAgent struct {
	command string
}

// NewShellAgent returns the Agent variant for a bare shell session.
// command defaults to $SHELL, falling back to /bin/sh.
func NewShellAgent(command string) Agent {
	if command == "" {
		command = os.Getenv("SHELL")
	}
	if command == "" {
		command = "/bin/sh"
	}
	return &shellAgent{command: command}
}

func (a *shellAgent) Name() string             { return "shell" }
func (a *shellAgent) Command() string          { return a.command }
func (a *shellAgent) DefaultArgs() []string     { return nil }
func (a *shellAgent) SupportsHooks() bool      { return false }

func (a *shellAgent) GenerateEnv(ctx SessionContext) map[string]string {
	return map[string]string{"PANOPTES_SESSION_ID": string(ctx.ID)}
}

func (a *shellAgent) SetupHooks(ctx SessionContext) ([]string, error) {
	return nil, nil
}
