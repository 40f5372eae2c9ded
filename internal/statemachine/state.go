package statemachine

// StateTag identifies which variant of State is active.
type StateTag int

const (
	Starting StateTag = iota
	Thinking
	Executing
	Waiting
	Idle
	Exited
)

func (t StateTag) String() string {
	switch t {
	case Starting:
		return "starting"
	case Thinking:
		return "thinking"
	case Executing:
		return "executing"
	case Waiting:
		return "waiting"
	case Idle:
		return "idle"
	case Exited:
		return "exited"
	default:
		return "unknown"
	}
}

// State is the tagged-union SessionState from spec.md §3: Starting is
// the entry state, Exited is terminal, all other transitions are driven
// by hook events or timeouts (see package statemachine).
type State struct {
	Tag      StateTag
	ToolName string // meaningful only when Tag == Executing
}

// IsActive reports whether the session is doing agent work, per
// spec.md's testable property 1: is_active(s) ⇔ s ∈ {Starting,
// Thinking, Executing}.
func (s State) IsActive() bool {
	switch s.Tag {
	case Starting, Thinking, Executing:
		return true
	default:
		return false
	}
}

// DisplayColor is a pure function of the state tag, used by the render
// layer to pick a neutral color; the concrete palette/widget rendering
// is out of scope (spec.md §1), so this returns a color name, not a
// terminal escape sequence.
func (s State) DisplayColor() string {
	switch s.Tag {
	case Starting:
		return "blue"
	case Thinking:
		return "cyan"
	case Executing:
		return "yellow"
	case Waiting:
		return "magenta"
	case Idle:
		return "gray"
	case Exited:
		return "red"
	default:
		return "white"
	}
}
