// Package session ties a PTY, a VTerm, and an Agent into the single
// logical unit spec.md §4.4 describes, and provides the authoritative
// collection (§4.5) the event loop drives every tick. Grounded in the
// teacher's internal/session package, which plays the same "own the
// child process plus its terminal state" role for h2's harnesses.
package session

import (
	"fmt"
	"time"

	"github.com/ivanbrko/panoptes/internal/agent"
	"github.com/ivanbrko/panoptes/internal/id"
	"github.com/ivanbrko/panoptes/internal/input"
	"github.com/ivanbrko/panoptes/internal/ptydriver"
	"github.com/ivanbrko/panoptes/internal/statemachine"
	"github.com/ivanbrko/panoptes/internal/vterm"
)

// State is Session's alias for the tagged-union SessionState; it lives
// in package statemachine so that package can compute transitions
// without importing session back (see statemachine's package doc).
type State = statemachine.State

// Re-exported state tags, so callers of package session never need to
// import statemachine just to name a tag.
const (
	Starting  = statemachine.Starting
	Thinking  = statemachine.Thinking
	Executing = statemachine.Executing
	Waiting   = statemachine.Waiting
	Idle      = statemachine.Idle
	Exited    = statemachine.Exited
)

// WriteTimeout bounds how long a Session waits for a PTY write before
// giving up (ptydriver.ErrWriteTimeout surfaces past this point).
const WriteTimeout = 2 * time.Second

// bracketedPasteStart/End wrap pasted text per spec.md §4.4 when the
// child program has enabled bracketed paste mode.
var (
	bracketedPasteStart = []byte("\x1b[200~")
	bracketedPasteEnd   = []byte("\x1b[201~")
)

// SendKeyResult reports what SendKey did with a translated key.
type SendKeyResult int

const (
	// SendKeyForwarded means bytes were written to the child.
	SendKeyForwarded SendKeyResult = iota
	// SendKeyExit means the key was a plain Esc: the caller should leave
	// Session mode, nothing was written to the child.
	SendKeyExit
	// SendKeyIgnored means the key translated to no bytes and is not Exit.
	SendKeyIgnored
)

// Session is the owning unit of one PTY-backed process plus its
// terminal state. The pty and vterm fields are exclusively owned: no
// other component reads or writes them.
type Session struct {
	ID        id.SessionID
	Name      string
	ProjectID id.ProjectID
	BranchID  id.BranchID

	WorkingDir      string
	CreatedAt       time.Time
	LastActivity    time.Time
	LastStateChange time.Time

	State      State
	ExitReason string

	Agent agent.Agent
	pty   *ptydriver.Handle
	vt    *vterm.VT

	scrollbackOffset int
	cleanupPaths     []string
}

// Params bundles Session construction inputs (the manager builds these
// after resolving the agent and installing hooks).
type Params struct {
	ID         id.SessionID
	Name       string
	ProjectID  id.ProjectID
	BranchID   id.BranchID
	WorkingDir string
	Agent      agent.Agent
	Env        map[string]string
	Command    string
	Args       []string
	Rows, Cols int
	Scrollback int
	CleanupPaths []string
}

// New spawns the child process and wires its PTY to a fresh VTerm.
func New(p Params) (*Session, error) {
	h, err := ptydriver.Spawn(p.Command, p.Args, p.WorkingDir, p.Env, p.Rows, p.Cols)
	if err != nil {
		return nil, fmt.Errorf("session: spawn: %w", err)
	}
	now := time.Now()
	return &Session{
		ID:              p.ID,
		Name:            p.Name,
		ProjectID:       p.ProjectID,
		BranchID:        p.BranchID,
		WorkingDir:      p.WorkingDir,
		CreatedAt:       now,
		LastActivity:    now,
		LastStateChange: now,
		State:           State{Tag: Starting},
		Agent:           p.Agent,
		pty:             h,
		vt:              vterm.New(p.Rows, p.Cols, p.Scrollback),
		cleanupPaths:    p.CleanupPaths,
	}, nil
}

// VTerm exposes the render-only view of terminal state. Callers must
// not mutate it; the session is the sole writer.
func (s *Session) VTerm() *vterm.VT { return s.vt }

// CleanupPaths returns the files SetupHooks created that must be
// removed on session teardown (see agent.Agent.SetupHooks).
func (s *Session) CleanupPaths() []string { return s.cleanupPaths }

// SendKey translates and writes a key event, resetting scrollback to
// the live view whenever it actually produces output.
func (s *Session) SendKey(ev input.KeyEvent) (SendKeyResult, error) {
	action := input.Translate(ev)
	switch action.Kind {
	case input.ActionExit:
		return SendKeyExit, nil
	case input.ActionIgnore:
		return SendKeyIgnored, nil
	}
	if _, err := s.writeBytes(action.Bytes); err != nil {
		return SendKeyForwarded, err
	}
	return SendKeyForwarded, nil
}

// SendMouse forwards translated SGR mouse bytes, same reset-to-live
// behavior as SendKey.
func (s *Session) SendMouse(bytes []byte) error {
	_, err := s.writeBytes(bytes)
	return err
}

// Write raw-writes p to the child, resetting scrollback to live.
func (s *Session) Write(p []byte) (int, error) {
	return s.writeBytes(p)
}

// WritePaste writes text, wrapping it in bracketed-paste markers when
// the child has enabled that mode.
func (s *Session) WritePaste(text string) (int, error) {
	p := []byte(text)
	if s.vt.BracketedPasteEnabled() {
		wrapped := make([]byte, 0, len(bracketedPasteStart)+len(p)+len(bracketedPasteEnd))
		wrapped = append(wrapped, bracketedPasteStart...)
		wrapped = append(wrapped, p...)
		wrapped = append(wrapped, bracketedPasteEnd...)
		p = wrapped
	}
	return s.writeBytes(p)
}

func (s *Session) writeBytes(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n, err := s.pty.Write(p, WriteTimeout)
	if err != nil {
		return n, fmt.Errorf("session: write: %w", err)
	}
	s.scrollbackOffset = 0
	s.vt.SetScrollback(0)
	return n, nil
}

// PollOutput drains pending PTY bytes into the VTerm, returning true
// iff any bytes arrived (the event loop's dirty signal).
func (s *Session) PollOutput() (bool, error) {
	dirty := false
	for {
		chunk, err := s.pty.TryRead()
		if err != nil {
			return dirty, fmt.Errorf("session: read: %w", err)
		}
		if len(chunk) == 0 {
			return dirty, nil
		}
		s.vt.Process(chunk)
		dirty = true
	}
}

// Resize keeps the PTY and VTerm in lockstep, per the Session invariant
// that their (rows,cols) always match the last resize applied.
func (s *Session) Resize(rows, cols int) error {
	if err := s.pty.Resize(rows, cols); err != nil {
		return fmt.Errorf("session: resize pty: %w", err)
	}
	s.vt.Resize(rows, cols)
	return nil
}

// IsAlive reports whether the child process is still running.
func (s *Session) IsAlive() bool {
	return s.pty.IsAlive()
}

// Kill terminates the child unconditionally.
func (s *Session) Kill() {
	s.pty.Kill()
}

// SetState installs a new state, bumping last_activity always and
// last_state_change only when the tag or the tool name differs — the manager
// calls this after running events through package statemachine.
func (s *Session) SetState(next State) {
	now := time.Now()
	s.LastActivity = now
	if next.Tag != s.State.Tag || next.ToolName != s.State.ToolName {
		s.LastStateChange = now
	}
	s.State = next
}

// MarkExited transitions to the terminal state with a human-readable
// reason (e.g. "exit code 1", "killed").
func (s *Session) MarkExited(reason string) {
	s.SetState(State{Tag: Exited})
	s.ExitReason = reason
}

// AcknowledgeAttention touches last_activity without changing state,
// used when the user jumps to a session that was flagged as needing
// attention, so it doesn't immediately re-flag as idle.
func (s *Session) AcknowledgeAttention() {
	s.LastActivity = time.Now()
}

// ScrollbackOffset returns the session's current scroll position.
func (s *Session) ScrollbackOffset() int { return s.scrollbackOffset }

// ScrollUp/ScrollDown/ScrollToBottom adjust scrollback and keep the
// Session's cached offset in sync with the VTerm's.
func (s *Session) ScrollUp(n int) {
	s.vt.ScrollUp(n)
	s.scrollbackOffset = s.vt.ScrollbackOffset()
}

func (s *Session) ScrollDown(n int) {
	s.vt.ScrollDown(n)
	s.scrollbackOffset = s.vt.ScrollbackOffset()
}

func (s *Session) ScrollToBottom() {
	s.vt.ScrollToBottom()
	s.scrollbackOffset = 0
}

// Close releases the PTY master. Kill must be called first if the
// child should not continue running.
func (s *Session) Close() error {
	return s.pty.Close()
}
