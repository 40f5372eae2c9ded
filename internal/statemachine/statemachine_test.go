package statemachine

import (
	"testing"

	"github.com/ivanbrko/panoptes/internal/hooks"
)

func TestIsActiveMatchesSpecTags(t *testing.T) {
	active := map[StateTag]bool{
		Starting:  true,
		Thinking:  true,
		Executing: true,
		Waiting:   false,
		Idle:      false,
		Exited:    false,
	}
	for tag, want := range active {
		if got := (State{Tag: tag}).IsActive(); got != want {
			t.Errorf("IsActive(%s) = %v, want %v", tag, got, want)
		}
	}
}

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		event hooks.Event
		want  StateTag
		tool  string
	}{
		{hooks.Event{Kind: hooks.EventSessionStart}, Starting, ""},
		{hooks.Event{Kind: hooks.EventPreToolUse, Tool: "Bash"}, Executing, "Bash"},
		{hooks.Event{Kind: hooks.EventPostToolUse}, Thinking, ""},
		{hooks.Event{Kind: hooks.EventStop}, Waiting, ""},
	}
	for _, c := range cases {
		got := Transition(State{Tag: Idle}, c.event)
		if got.Tag != c.want || got.ToolName != c.tool {
			t.Errorf("Transition(%v) = %+v, want tag=%s tool=%q", c.event, got, c.want, c.tool)
		}
	}
}

func TestNotificationAndUnknownDoNotChangeState(t *testing.T) {
	current := State{Tag: Executing, ToolName: "Bash"}
	for _, kind := range []hooks.EventKind{hooks.EventNotification, hooks.EventUnknown} {
		got := Transition(current, hooks.Event{Kind: kind})
		if got != current {
			t.Errorf("Transition with %s changed state: %+v", kind, got)
		}
	}
}

func TestShouldNotifyOnlyOnWaiting(t *testing.T) {
	if !ShouldNotify(State{Tag: Waiting}) {
		t.Error("expected notify on Waiting")
	}
	for _, tag := range []StateTag{Starting, Thinking, Executing, Idle, Exited} {
		if ShouldNotify(State{Tag: tag}) {
			t.Errorf("unexpected notify on %s", tag)
		}
	}
}

func TestIsIdleDerivation(t *testing.T) {
	if !IsIdle(State{Tag: Idle}, 0, 100) {
		t.Error("explicit Idle tag should always be idle")
	}
	if IsIdle(State{Tag: Waiting}, 5, 100) {
		t.Error("Waiting below threshold should not be idle")
	}
	if !IsIdle(State{Tag: Waiting}, 150, 100) {
		t.Error("Waiting past threshold should be idle")
	}
	if IsIdle(State{Tag: Executing}, 1000, 100) {
		t.Error("Executing should never be idle regardless of elapsed time")
	}
}
