package session

import (
	"strings"
	"testing"
	"time"

	"github.com/ivanbrko/panoptes/internal/agent"
	"github.com/ivanbrko/panoptes/internal/id"
	"github.com/ivanbrko/panoptes/internal/input"
)

func newCatSession(t *testing.T) *Session {
	t.Helper()
	sess, err := New(Params{
		ID:         id.NewSessionID(),
		Name:       "test",
		WorkingDir: ".",
		Agent:      agent.NewShellAgent("/bin/cat"),
		Command:    "/bin/cat",
		Rows:       24,
		Cols:       80,
		Scrollback: 1000,
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	t.Cleanup(func() {
		sess.Kill()
		sess.Close()
	})
	return sess
}

func pollUntil(t *testing.T, sess *Session, want string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if _, err := sess.PollOutput(); err != nil {
			t.Fatalf("poll output: %v", err)
		}
		lines := sess.VTerm().VisibleStyledLines(24)
		var text strings.Builder
		for _, line := range lines {
			for _, span := range line {
				text.WriteString(span.Text)
			}
		}
		if strings.Contains(text.String(), want) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %q in vterm output", want)
}

func TestSendKeyForwardsPrintableChar(t *testing.T) {
	sess := newCatSession(t)
	res, err := sess.SendKey(input.KeyEvent{Code: input.KeyChar, Char: 'x'})
	if err != nil {
		t.Fatalf("send key: %v", err)
	}
	if res != SendKeyForwarded {
		t.Fatalf("result = %v, want SendKeyForwarded", res)
	}
	pollUntil(t, sess, "x", 2*time.Second)
}

func TestSendKeyPlainEscIsExitAndWritesNothing(t *testing.T) {
	sess := newCatSession(t)
	res, err := sess.SendKey(input.KeyEvent{Code: input.KeyEsc})
	if err != nil {
		t.Fatalf("send key: %v", err)
	}
	if res != SendKeyExit {
		t.Fatalf("result = %v, want SendKeyExit", res)
	}
}

func TestWriteResetsScrollbackToLive(t *testing.T) {
	sess := newCatSession(t)
	sess.VTerm().Process([]byte(strings.Repeat("line\r\n", 50)))
	sess.ScrollUp(10)
	if sess.ScrollbackOffset() == 0 {
		t.Fatal("expected scrollback offset to move")
	}

	if _, err := sess.Write([]byte("a")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if sess.ScrollbackOffset() != 0 {
		t.Fatalf("expected scrollback reset to live after write, got %d", sess.ScrollbackOffset())
	}
}

func TestResizeKeepsPTYAndVTermInLockstep(t *testing.T) {
	sess := newCatSession(t)
	if err := sess.Resize(40, 120); err != nil {
		t.Fatalf("resize: %v", err)
	}
	rows, cols := sess.VTerm().Size()
	if rows != 40 || cols != 120 {
		t.Fatalf("vterm size = (%d,%d), want (40,120)", rows, cols)
	}
}

func TestSetStateBumpsLastStateChangeOnlyOnTagChange(t *testing.T) {
	sess := newCatSession(t)
	firstChange := sess.LastStateChange
	time.Sleep(5 * time.Millisecond)

	sess.SetState(State{Tag: Starting})
	if !sess.LastStateChange.Equal(firstChange) {
		t.Fatal("expected no last_state_change bump for an identical state")
	}

	sess.SetState(State{Tag: Thinking})
	if sess.LastStateChange.Equal(firstChange) {
		t.Fatal("expected last_state_change to bump on a real transition")
	}
}

func TestMarkExitedSetsReason(t *testing.T) {
	sess := newCatSession(t)
	sess.MarkExited("killed")
	if sess.State.Tag != Exited || sess.ExitReason != "killed" {
		t.Fatalf("unexpected exit state: %+v reason=%q", sess.State, sess.ExitReason)
	}
}
