package header

import (
	"strings"
	"testing"
	"time"

	"github.com/ivanbrko/panoptes/internal/statemachine"
	"github.com/ivanbrko/panoptes/internal/ui"
)

func TestLineErrorWinsOverNotifications(t *testing.T) {
	st := ui.NewState()
	st.SetError("boom")
	st.Notify("hello", time.Minute, time.Now())

	line := Line(st)
	if !strings.Contains(line, "boom") {
		t.Errorf("expected error message in line, got %q", line)
	}
	if strings.Contains(line, "hello") {
		t.Errorf("expected notification suppressed while error is set, got %q", line)
	}
}

func TestLineEmptyWhenNothingPending(t *testing.T) {
	st := ui.NewState()
	if Line(st) != "" {
		t.Errorf("expected empty line, got %q", Line(st))
	}
}

func TestStateLabelIncludesToolName(t *testing.T) {
	label := StateLabel(statemachine.State{Tag: statemachine.Executing, ToolName: "Bash"})
	if !strings.Contains(label, "Bash") {
		t.Errorf("expected tool name in label, got %q", label)
	}
}
