// Package statemachine implements spec.md §3's SessionState tagged union
// and §4.7's pure event→transition table. It is grounded in the
// teacher's internal/session/agent/monitor package, which separates
// "what does this event do to the state" from "who owns the mutable
// state" the same way — Panoptes keeps that split, but uses spec.md's
// own State shape (Starting/Thinking/Executing/Waiting/Idle/Exited)
// rather than the teacher's separate State/SubState pair, since the
// spec's tagged union already carries the tool name inline. State lives
// here rather than in package session so that session can depend on
// statemachine without a cycle back.
package statemachine

import "github.com/ivanbrko/panoptes/internal/hooks"

// Transition computes the next state for a hook event. Notification and
// Unknown events never change the tagged state (they only touch
// last_activity, which the caller — Session — is responsible for).
func Transition(current State, ev hooks.Event) State {
	switch ev.Kind {
	case hooks.EventSessionStart:
		return State{Tag: Starting}
	case hooks.EventPreToolUse:
		return State{Tag: Executing, ToolName: ev.Tool}
	case hooks.EventPostToolUse:
		return State{Tag: Thinking}
	case hooks.EventStop:
		return State{Tag: Waiting}
	default: // Notification, Unknown
		return current
	}
}

// TransitionsState reports whether applying ev actually changes the
// tagged state (used to decide whether to also bump last_state_change).
func TransitionsState(ev hooks.Event) bool {
	switch ev.Kind {
	case hooks.EventSessionStart, hooks.EventPreToolUse, hooks.EventPostToolUse, hooks.EventStop:
		return true
	default:
		return false
	}
}

// ShouldNotify reports whether the user should be notified, which per
// spec.md §4.7 happens exactly when the event drives the session into
// Waiting (the signal that the agent needs human input).
func ShouldNotify(next State) bool {
	return next.Tag == Waiting
}

// IsIdle derives idleness on demand rather than storing it: Waiting with
// last_activity older than idleThreshold counts as needing attention,
// same as an explicit Idle tag (spec.md §4.7, "Idle derivation").
func IsIdle(st State, idleElapsedSeconds, idleThresholdSeconds int64) bool {
	if st.Tag == Idle {
		return true
	}
	return st.Tag == Waiting && idleElapsedSeconds >= idleThresholdSeconds
}
