// Package loop implements spec.md §4.11's single cooperative event
// loop: the one place that polls every input source, runs the state
// machine, sweeps session liveness/timeouts, and renders on a dirty
// flag. Grounded in the teacher's daemon.acceptLoop /
// message.RunDelivery shape (internal/daemon/daemon.go,
// internal/message/delivery.go): a goroutine-free, channel-and-select
// driven main loop reading from one input source and one or more
// auxiliary channels each tick, rather than a framework event loop,
// since h2 has no bubbletea/tcell dependency to borrow one from.
package loop

import (
	"time"

	"github.com/ivanbrko/panoptes/internal/hooks"
	"github.com/ivanbrko/panoptes/internal/id"
	"github.com/ivanbrko/panoptes/internal/input"
)

// DefaultTickRate is the default poll timeout for the user-event
// source, per spec.md §4.11 step 2.
const DefaultTickRate = 16 * time.Millisecond

// ResizeDebounce is how long the loop waits after the last Resize
// event before actually resizing every session, per spec.md §5.
const ResizeDebounce = 50 * time.Millisecond

// UserEventKind tags the variant carried by a UserEvent.
type UserEventKind int

const (
	EventKey UserEventKind = iota
	EventPaste
	EventResize
	EventMouse
	EventFocusGained
	EventFocusLost
	EventNone // returned by EventSource.Poll on a plain tick-rate timeout
)

// UserEvent is the union of everything the terminal backend can
// deliver in one poll, normalized away from whatever concrete backend
// library produced it.
type UserEvent struct {
	Kind  UserEventKind
	Key   input.KeyEvent
	Paste string
	Rows  int
	Cols  int
	Mouse input.MouseEvent
}

// EventSource abstracts the terminal backend's input polling so this
// package has no direct dependency on a specific terminal library
// (spec.md §1 scopes concrete rendering/input widgets out of the
// core).
type EventSource interface {
	// Poll blocks for up to timeout and returns the next event, or
	// {Kind: EventNone} if nothing arrived in that window.
	Poll(timeout time.Duration) (UserEvent, error)
}

// Renderer abstracts drawing the current dashboard state to the
// terminal. Concrete layout/color/border logic is out of scope (spec.md
// §1); the loop only needs to know when to call it.
type Renderer interface {
	Render() error
}

// FocusTimer abstracts the one focus-timer tick the loop drives;
// kept as an interface here so this package doesn't need to import
// internal/focustimer's concrete Timer/Store pairing decisions.
type FocusTimer interface {
	// Tick advances the timer, returning the completed period's context
	// key and true when a period just completed.
	Tick(now time.Time) (contextKey string, completed bool)
}

// Sessions is the subset of *session.Manager the loop drives every
// tick, expressed as an interface so this package stays decoupled from
// the session package's concrete type (and is easy to fake in tests).
type Sessions interface {
	PollOutputs() []id.SessionID
	CheckAlive() bool
	CheckStateTimeouts(thresholdSeconds int64)
	CleanupExitedSessions(retentionSeconds int64) int
	ResizeAll(rows, cols int) error
}

// Hooks is the subset of *hooks.Server the loop drains every tick.
type Hooks interface {
	Events() <-chan hooks.Event
	TakeDroppedEvents() int64
}

// Config bundles the thresholds spec.md §6 names, so Loop doesn't
// import internal/config directly (keeps this package testable with
// plain literals).
type Config struct {
	TickRate            time.Duration
	IdleThresholdSecs   int64
	StateTimeoutSecs    int64
	ExitedRetentionSecs int64
}

// Loop owns one full tick of spec.md §4.11. Callers wire Source,
// Renderer, Sessions, Hooks and the per-event handlers; Run drives the
// tick until Quit() returns true.
type Loop struct {
	Source   EventSource
	Render   Renderer
	Sessions Sessions
	Hooks    Hooks
	Timer    FocusTimer
	Cfg      Config

	// OnKey/OnPaste/OnMouse/OnFocus are the input-dispatcher hooks
	// (internal/ui.Dispatch and friends); OnHookEvent runs one hook
	// event through the state machine and reports whether to notify.
	OnKey       func(ev input.KeyEvent, now time.Time)
	OnPaste     func(text string, now time.Time)
	OnMouse     func(ev input.MouseEvent, now time.Time) bool
	OnFocus     func(gained bool, now time.Time)
	OnHookEvent func(ev hooks.Event) (sessionID id.SessionID, notify bool)
	OnNotify    func(sessionID id.SessionID, now time.Time)
	OnWarning   func(message string)
	OnFocusDone func(contextKey string, now time.Time)

	// Quit reports whether the UI has requested shutdown (checked at
	// the end of every tick, step 14).
	Quit func() bool
	// ContentSize returns the current content-area rows/cols used to
	// resize every session's PTY+VTerm in lockstep (step 8).
	ContentSize func() (rows, cols int)

	dirty         bool
	pendingResize bool
	lastResizeAt  time.Time
}

// SetDirty marks the next tick as needing a render (step 1).
func (l *Loop) SetDirty() { l.dirty = true }

// Run drives ticks until Quit() reports true or Poll returns a fatal
// error. It returns nil on a clean quit; a non-nil error is returned
// only for EventSource/Renderer failures that should abort the process.
func (l *Loop) Run() error {
	tickRate := l.Cfg.TickRate
	if tickRate <= 0 {
		tickRate = DefaultTickRate
	}

	for {
		now := time.Now()

		// 1. Render if dirty.
		if l.dirty {
			if err := l.Render.Render(); err != nil {
				return err
			}
			l.dirty = false
		}

		// 2. Poll the user-event source for up to tick_rate.
		ev, err := l.Source.Poll(tickRate)
		if err != nil {
			return err
		}
		l.handleUserEvent(ev, now)

		// 8. Debounced resize.
		if l.pendingResize && time.Since(l.lastResizeAt) >= ResizeDebounce {
			l.pendingResize = false
			if l.ContentSize != nil && l.Sessions != nil {
				rows, cols := l.ContentSize()
				if err := l.Sessions.ResizeAll(rows, cols); err != nil {
					if l.OnWarning != nil {
						l.OnWarning("resize: " + err.Error())
					}
				}
				l.dirty = true
			}
		}

		// 9. Drain the hook-event channel; run state machine; notify.
		l.drainHooks(now)

		// 10. Poll session outputs.
		if l.Sessions != nil {
			if dirty := l.Sessions.PollOutputs(); len(dirty) > 0 {
				l.dirty = true
			}
		}

		// 11. Liveness sweep; state-timeout sweep; cleanup.
		if l.Sessions != nil {
			if l.Sessions.CheckAlive() {
				l.dirty = true
			}
			l.Sessions.CheckStateTimeouts(l.Cfg.StateTimeoutSecs)
			if n := l.Sessions.CleanupExitedSessions(l.Cfg.ExitedRetentionSecs); n > 0 {
				l.dirty = true
			}
		}

		// 12. Consume the hook server's dropped-event counter.
		if l.Hooks != nil {
			if dropped := l.Hooks.TakeDroppedEvents(); dropped > 0 && l.OnWarning != nil {
				l.OnWarning(droppedEventsMessage(dropped))
			}
		}

		// 13. Focus-timer tick.
		if l.Timer != nil {
			if ctxKey, completed := l.Timer.Tick(now); completed {
				if l.OnFocusDone != nil {
					l.OnFocusDone(ctxKey, now)
				}
				l.dirty = true
			}
		}

		// 14. Quit check.
		if l.Quit != nil && l.Quit() {
			return nil
		}
	}
}

func (l *Loop) handleUserEvent(ev UserEvent, now time.Time) {
	switch ev.Kind {
	case EventKey:
		if l.OnKey != nil {
			l.OnKey(ev.Key, now)
		}
		l.dirty = true
	case EventPaste:
		if l.OnPaste != nil {
			l.OnPaste(ev.Paste, now)
		}
		l.dirty = true
	case EventResize:
		l.pendingResize = true
		l.lastResizeAt = now
		l.dirty = true
	case EventMouse:
		if l.OnMouse != nil {
			if l.OnMouse(ev.Mouse, now) {
				l.dirty = true
			}
		}
	case EventFocusGained:
		if l.OnFocus != nil {
			l.OnFocus(true, now)
		}
		l.dirty = true
	case EventFocusLost:
		if l.OnFocus != nil {
			l.OnFocus(false, now)
		}
		l.dirty = true
	case EventNone:
		// tick-rate timeout, nothing to do
	}
}

func (l *Loop) drainHooks(now time.Time) {
	if l.Hooks == nil || l.OnHookEvent == nil {
		return
	}
	for {
		select {
		case ev, ok := <-l.Hooks.Events():
			if !ok {
				return
			}
			sessionID, notify := l.OnHookEvent(ev)
			l.dirty = true
			if notify && l.OnNotify != nil {
				l.OnNotify(sessionID, now)
			}
		default:
			return
		}
	}
}

func droppedEventsMessage(n int64) string {
	if n == 1 {
		return "dropped 1 hook event"
	}
	return "dropped hook events"
}
