package loop

import (
	"errors"
	"testing"
	"time"

	"github.com/ivanbrko/panoptes/internal/hooks"
	"github.com/ivanbrko/panoptes/internal/id"
	"github.com/ivanbrko/panoptes/internal/input"
)

type fakeSource struct {
	events []UserEvent
	i      int
}

func (f *fakeSource) Poll(timeout time.Duration) (UserEvent, error) {
	if f.i >= len(f.events) {
		return UserEvent{Kind: EventNone}, nil
	}
	ev := f.events[f.i]
	f.i++
	return ev, nil
}

type fakeRenderer struct{ count int }

func (r *fakeRenderer) Render() error { r.count++; return nil }

type fakeSessions struct {
	resized  bool
	rows     int
	cols     int
	polled   int
	cleaned  int
}

func (s *fakeSessions) PollOutputs() []id.SessionID         { s.polled++; return nil }
func (s *fakeSessions) CheckAlive() bool                    { return false }
func (s *fakeSessions) CheckStateTimeouts(int64)            {}
func (s *fakeSessions) CleanupExitedSessions(int64) int     { s.cleaned++; return 0 }
func (s *fakeSessions) ResizeAll(rows, cols int) error {
	s.resized = true
	s.rows, s.cols = rows, cols
	return nil
}

type fakeHooks struct {
	ch      chan hooks.Event
	dropped int64
}

func (h *fakeHooks) Events() <-chan hooks.Event   { return h.ch }
func (h *fakeHooks) TakeDroppedEvents() int64     { return h.dropped }

func TestRunQuitsImmediately(t *testing.T) {
	l := &Loop{
		Source:   &fakeSource{},
		Render:   &fakeRenderer{},
		Sessions: &fakeSessions{},
		Hooks:    &fakeHooks{ch: make(chan hooks.Event)},
		Quit:     func() bool { return true },
	}
	if err := l.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRunRendersOnlyWhenDirty(t *testing.T) {
	renderer := &fakeRenderer{}
	quitAfter := 2
	ticks := 0
	l := &Loop{
		Source:   &fakeSource{},
		Render:   renderer,
		Sessions: &fakeSessions{},
		Hooks:    &fakeHooks{ch: make(chan hooks.Event)},
		Quit: func() bool {
			ticks++
			return ticks > quitAfter
		},
	}
	if err := l.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if renderer.count != 0 {
		t.Errorf("expected no renders without a dirty key event, got %d", renderer.count)
	}
}

func TestKeyEventMarksDirtyAndCallsOnKey(t *testing.T) {
	var gotKey input.KeyEvent
	called := false
	l := &Loop{
		Source: &fakeSource{events: []UserEvent{
			{Kind: EventKey, Key: input.KeyEvent{Code: input.KeyChar, Char: 'x'}},
		}},
		Render:   &fakeRenderer{},
		Sessions: &fakeSessions{},
		Hooks:    &fakeHooks{ch: make(chan hooks.Event)},
		OnKey: func(ev input.KeyEvent, now time.Time) {
			called = true
			gotKey = ev
		},
		Quit: quitAfterN(2),
	}
	if err := l.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !called || gotKey.Char != 'x' {
		t.Errorf("OnKey not invoked with expected event: called=%v key=%+v", called, gotKey)
	}
}

func TestResizeDebounced(t *testing.T) {
	sess := &fakeSessions{}
	l := &Loop{
		Source: &fakeSource{events: []UserEvent{
			{Kind: EventResize, Rows: 40, Cols: 100},
		}},
		Render:      &fakeRenderer{},
		Sessions:    sess,
		Hooks:       &fakeHooks{ch: make(chan hooks.Event)},
		ContentSize: func() (int, int) { return 40, 100 },
		Quit:        quitAfterN(1),
	}
	if err := l.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sess.resized {
		t.Error("expected resize to be debounced, not applied on the same tick")
	}
}

func TestHookEventDrainedAndNotifies(t *testing.T) {
	ch := make(chan hooks.Event, 1)
	ch <- hooks.Event{SessionID: "abc", Kind: hooks.EventStop}
	var notified id.SessionID
	l := &Loop{
		Source:   &fakeSource{},
		Render:   &fakeRenderer{},
		Sessions: &fakeSessions{},
		Hooks:    &fakeHooks{ch: ch},
		OnHookEvent: func(ev hooks.Event) (id.SessionID, bool) {
			return id.SessionID(ev.SessionID), true
		},
		OnNotify: func(sessionID id.SessionID, now time.Time) {
			notified = sessionID
		},
		Quit: quitAfterN(1),
	}
	if err := l.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if notified != "abc" {
		t.Errorf("expected notify for session abc, got %q", notified)
	}
}

func TestDroppedHookEventsWarn(t *testing.T) {
	var warning string
	l := &Loop{
		Source:   &fakeSource{},
		Render:   &fakeRenderer{},
		Sessions: &fakeSessions{},
		Hooks:    &fakeHooks{ch: make(chan hooks.Event), dropped: 3},
		OnWarning: func(msg string) {
			warning = msg
		},
		Quit: quitAfterN(1),
	}
	if err := l.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if warning == "" {
		t.Error("expected a warning for dropped hook events")
	}
}

type erroringSource struct{}

func (erroringSource) Poll(time.Duration) (UserEvent, error) {
	return UserEvent{}, errors.New("boom")
}

func TestRunPropagatesSourceError(t *testing.T) {
	l := &Loop{
		Source:   erroringSource{},
		Render:   &fakeRenderer{},
		Sessions: &fakeSessions{},
		Hooks:    &fakeHooks{ch: make(chan hooks.Event)},
		Quit:     func() bool { return false },
	}
	if err := l.Run(); err == nil {
		t.Fatal("expected Run to propagate the source error")
	}
}

func quitAfterN(n int) func() bool {
	ticks := 0
	return func() bool {
		ticks++
		return ticks > n
	}
}
