// Package ui holds the dashboard's own UI state (current view, mode,
// list selections, transient messages) and the input dispatcher that
// routes key/mouse/paste events into it, per spec.md §4.12. Grounded in
// the teacher's internal/overlay package (h2), which plays the same
// role of a small mode-keyed state machine sitting between raw input
// and a PTY-backed session — except overlay has exactly two modes
// (passthrough/command) for one child, where Panoptes threads a
// (View, Mode) pair through a whole dashboard of sessions.
package ui

import (
	"time"

	"github.com/ivanbrko/panoptes/internal/id"
)

// View identifies which screen the dashboard is currently showing.
// Not named in spec.md directly (spec.md §4.12 only says "see §6 for
// the full list" without enumerating it), so this is this
// implementation's own resolution of that open structure: a project
// list, a branch/session list scoped to one project, a fullscreen
// attached session, and a help screen; the first three are the minimal set spec.md's component
// descriptions imply (§4.1-§4.5 describe per-session fullscreen
// interaction; §4.8 describes project/branch browsing).
type View int

const (
	// ViewProjects lists all known projects.
	ViewProjects View = iota
	// ViewBranches lists branches/sessions within the selected project.
	ViewBranches
	// ViewSession shows one attached session's live terminal fullscreen.
	ViewSession
	// ViewHelp shows the reserved-key/shortcut reference.
	ViewHelp
)

// Mode identifies how keys are currently interpreted within a View.
type Mode int

const (
	// ModeNormal routes keys to navigation (list movement, opening a
	// session, quitting).
	ModeNormal Mode = iota
	// ModeSession forwards keys directly to the attached session's PTY,
	// per spec.md §4.11 step 3 and §4.12's Ctrl+C invariant. Only
	// reachable from ViewSession.
	ModeSession
)

// Notification is one entry in the header notification queue (spec.md
// §7): a transient, self-expiring message distinct from the single
// "last error" string.
type Notification struct {
	Message string
	Expires time.Time
}

// State is the dashboard's own mutable UI state, owned exclusively by
// the event loop (spec.md §5: "all mutation... happens on this
// thread"). It holds no session/project data itself, only references
// (ids, indices) into the session manager and project store.
type State struct {
	View View
	Mode Mode

	SelectedProject id.ProjectID
	SelectedBranch  id.BranchID
	AttachedSession id.SessionID

	ProjectIndex int
	BranchIndex  int

	// ErrorMessage is the single "operation failed" string spec.md §7
	// describes: set on a failed operation, cleared by the next
	// keypress.
	ErrorMessage string

	Notifications []Notification

	ShouldQuit bool
}

// NewState returns a State starting at the project list in Normal mode.
func NewState() *State {
	return &State{View: ViewProjects, Mode: ModeNormal}
}

// ClearError drops any pending error message. Called once per keypress
// before routing, per spec.md §7 ("next keypress clears it").
func (s *State) ClearError() {
	s.ErrorMessage = ""
}

// SetError records an operation-failed-but-continue message (spec.md
// §7); it does not stop the loop.
func (s *State) SetError(msg string) {
	s.ErrorMessage = msg
}

// Notify enqueues a transient header notification that expires after
// ttl.
func (s *State) Notify(msg string, ttl time.Duration, now time.Time) {
	s.Notifications = append(s.Notifications, Notification{Message: msg, Expires: now.Add(ttl)})
}

// ExpireNotifications drops notifications whose Expires has passed,
// reporting whether anything changed (so the caller can set the dirty
// flag only when needed).
func (s *State) ExpireNotifications(now time.Time) bool {
	if len(s.Notifications) == 0 {
		return false
	}
	kept := s.Notifications[:0]
	changed := false
	for _, n := range s.Notifications {
		if now.Before(n.Expires) {
			kept = append(kept, n)
		} else {
			changed = true
		}
	}
	s.Notifications = kept
	return changed
}

// EnterSession switches to ViewSession/ModeSession attached to sessID.
func (s *State) EnterSession(sessID id.SessionID) {
	s.AttachedSession = sessID
	s.View = ViewSession
	s.Mode = ModeSession
}

// LeaveSession returns to ViewBranches/ModeNormal, detaching from
// whichever session was attached (spec.md's Esc-in-session behavior,
// §5 "Esc-in-session: plain Esc deactivates session mode").
func (s *State) LeaveSession() {
	s.AttachedSession = ""
	s.View = ViewBranches
	s.Mode = ModeNormal
}
