package agent

// customAgent spawns a user-defined shortcut command (spec.md §9's third
// variant): no hook wiring, args taken verbatim from config.toml.
type customAgent struct {
	name    string
	command string
	args    []string
}

// NewCustomAgent returns the Agent variant for a custom shortcut entry.
func NewCustomAgent(name, command string, args []string) Agent {
	return &customAgent{name: name, command: command, args: args}
}

func (a *customAgent) Name() string         { return a.name }
func (a *customAgent) Command() string      { return a.command }
func (a *customAgent) DefaultArgs() []string { return append([]string{}, a.args...) }
func (a *customAgent) SupportsHooks() bool  { return false }

func (a *customAgent) GenerateEnv(ctx SessionContext) map[string]string {
	return map[string]string{"PANOPTES_SESSION_ID": string(ctx.ID)}
}

func (a *customAgent) SetupHooks(ctx SessionContext) ([]string, error) {
	return nil, nil
}
