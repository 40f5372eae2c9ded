package session

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/ivanbrko/panoptes/internal/agent"
	"github.com/ivanbrko/panoptes/internal/hooks"
	"github.com/ivanbrko/panoptes/internal/id"
	"github.com/ivanbrko/panoptes/internal/statemachine"
)

// Manager is the authoritative collection of live sessions (spec.md
// §4.5). It is driven exclusively by the event loop on a single
// goroutine, so — like the rest of the domain model (spec.md §5) — it
// needs no internal locking.
type Manager struct {
	order    []id.SessionID
	sessions map[id.SessionID]*Session

	hookPort       int
	dispatcherPath string
}

// NewManager builds an empty Manager. hookPort and dispatcherPath are
// baked into every agent session's environment and hook wiring.
func NewManager(hookPort int, dispatcherPath string) *Manager {
	return &Manager{
		sessions:       make(map[id.SessionID]*Session),
		hookPort:       hookPort,
		dispatcherPath: dispatcherPath,
	}
}

// CreateParams bundles the inputs to CreateSession.
type CreateParams struct {
	Name            string
	WorkingDir      string
	ProjectID       id.ProjectID
	BranchID        id.BranchID
	Agent           agent.Agent
	Command         string
	Args            []string
	Rows, Cols      int
	ScrollbackRows  int
	ClaudeConfigDir string
}

// CreateSession spawns a new session. For an agent whose SupportsHooks
// is true, this installs the hook adapter (settings.local.json pointing
// at the dispatcher script) before spawning, per spec.md §4.5/§6.
func (m *Manager) CreateSession(p CreateParams) (id.SessionID, error) {
	sessID := id.NewSessionID()

	ctx := agent.SessionContext{
		ID:              sessID,
		WorkingDir:      p.WorkingDir,
		HookPort:        m.hookPort,
		DispatcherPath:  m.dispatcherPath,
		ClaudeConfigDir: p.ClaudeConfigDir,
	}

	var cleanupPaths []string
	if p.Agent.SupportsHooks() {
		paths, err := p.Agent.SetupHooks(ctx)
		if err != nil {
			return "", fmt.Errorf("session manager: setup hooks: %w", err)
		}
		cleanupPaths = paths
	}

	env := p.Agent.GenerateEnv(ctx)
	command := p.Command
	if command == "" {
		command = p.Agent.Command()
	}
	args := p.Args
	if args == nil {
		args = p.Agent.DefaultArgs()
	}

	sess, err := New(Params{
		ID:           sessID,
		Name:         p.Name,
		ProjectID:    p.ProjectID,
		BranchID:     p.BranchID,
		WorkingDir:   p.WorkingDir,
		Agent:        p.Agent,
		Env:          env,
		Command:      command,
		Args:         args,
		Rows:         p.Rows,
		Cols:         p.Cols,
		Scrollback:   p.ScrollbackRows,
		CleanupPaths: cleanupPaths,
	})
	if err != nil {
		for _, path := range cleanupPaths {
			os.Remove(path)
		}
		return "", err
	}

	m.order = append(m.order, sessID)
	m.sessions[sessID] = sess
	return sessID, nil
}

// DestroySession kills the child, removes any hook-adapter files this
// session's agent installed, and drops the session from the collection.
// Any UI reference to id must be cleared by the caller.
func (m *Manager) DestroySession(sessID id.SessionID) error {
	sess, ok := m.sessions[sessID]
	if !ok {
		return fmt.Errorf("session manager: unknown session %s", sessID)
	}
	sess.Kill()
	sess.Close()
	for _, path := range sess.CleanupPaths() {
		os.Remove(path)
	}
	delete(m.sessions, sessID)
	for i, existing := range m.order {
		if existing == sessID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// Get returns the session by id.
func (m *Manager) Get(sessID id.SessionID) (*Session, bool) {
	s, ok := m.sessions[sessID]
	return s, ok
}

// GetByIndex returns the session at insertion-order position i, used by
// the "jump to session N" shortcuts.
func (m *Manager) GetByIndex(i int) (*Session, bool) {
	if i < 0 || i >= len(m.order) {
		return nil, false
	}
	return m.sessions[m.order[i]], true
}

// Len returns the number of live sessions.
func (m *Manager) Len() int { return len(m.order) }

// All returns every session in insertion order.
func (m *Manager) All() []*Session {
	out := make([]*Session, 0, len(m.order))
	for _, sid := range m.order {
		out = append(out, m.sessions[sid])
	}
	return out
}

// SessionsForProject returns every session belonging to projectID, in
// insertion order.
func (m *Manager) SessionsForProject(projectID id.ProjectID) []*Session {
	var out []*Session
	for _, sid := range m.order {
		if s := m.sessions[sid]; s.ProjectID == projectID {
			out = append(out, s)
		}
	}
	return out
}

// SessionsForBranch returns every session belonging to branchID, in
// insertion order.
func (m *Manager) SessionsForBranch(branchID id.BranchID) []*Session {
	var out []*Session
	for _, sid := range m.order {
		if s := m.sessions[sid]; s.BranchID == branchID {
			out = append(out, s)
		}
	}
	return out
}

// PollOutputs polls every session's pending PTY bytes into its VTerm
// and returns the ids whose output changed.
func (m *Manager) PollOutputs() []id.SessionID {
	var dirty []id.SessionID
	for _, sid := range m.order {
		sess := m.sessions[sid]
		changed, err := sess.PollOutput()
		if err != nil {
			continue // surfaced instead via the next check_alive sweep
		}
		if changed {
			dirty = append(dirty, sid)
		}
	}
	return dirty
}

// ResizeAll resizes every live session's PTY+VTerm to rows×cols in
// lockstep, per spec.md §4.11 step 8's debounced-resize sweep. Errors
// on individual sessions are collected but do not stop the sweep; the
// first one is returned so the caller can surface a warning.
func (m *Manager) ResizeAll(rows, cols int) error {
	var firstErr error
	for _, sid := range m.order {
		sess := m.sessions[sid]
		if sess.State.Tag == Exited {
			continue
		}
		if err := sess.Resize(rows, cols); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// CheckAlive transitions any non-Exited session whose child has died to
// Exited, and reports whether anything changed.
func (m *Manager) CheckAlive() bool {
	changed := false
	for _, sid := range m.order {
		sess := m.sessions[sid]
		if sess.State.Tag == Exited {
			continue
		}
		if !sess.IsAlive() {
			sess.MarkExited("child process exited")
			changed = true
		}
	}
	return changed
}

// CheckStateTimeouts demotes any Executing session whose last state
// change is older than thresholdSeconds to Idle.
func (m *Manager) CheckStateTimeouts(thresholdSeconds int64) {
	now := time.Now()
	for _, sid := range m.order {
		sess := m.sessions[sid]
		if sess.State.Tag != Executing {
			continue
		}
		if now.Sub(sess.LastStateChange) >= time.Duration(thresholdSeconds)*time.Second {
			sess.SetState(State{Tag: Idle})
		}
	}
}

// CleanupExitedSessions removes Exited sessions older than
// retentionSeconds (measured from their last state change, i.e. the
// moment they became Exited), returning the count removed.
func (m *Manager) CleanupExitedSessions(retentionSeconds int64) int {
	now := time.Now()
	var toRemove []id.SessionID
	for _, sid := range m.order {
		sess := m.sessions[sid]
		if sess.State.Tag != Exited {
			continue
		}
		if now.Sub(sess.LastStateChange) >= time.Duration(retentionSeconds)*time.Second {
			toRemove = append(toRemove, sid)
		}
	}
	for _, sid := range toRemove {
		m.DestroySession(sid)
	}
	return len(toRemove)
}

// SessionsNeedingAttention returns Waiting sessions and idle-derived
// sessions (see package statemachine), oldest last_activity first.
func (m *Manager) SessionsNeedingAttention(idleThresholdSeconds int64) []*Session {
	now := time.Now()
	var out []*Session
	for _, sid := range m.order {
		sess := m.sessions[sid]
		elapsed := int64(now.Sub(sess.LastActivity).Seconds())
		if statemachine.IsIdle(sess.State, elapsed, idleThresholdSeconds) || sess.State.Tag == Waiting {
			out = append(out, sess)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastActivity.Before(out[j].LastActivity)
	})
	return out
}

// HandleHookEvent dispatches a hook event to the state machine and
// returns the affected session id when the user should be notified
// (transition into Waiting), per spec.md §4.7.
func (m *Manager) HandleHookEvent(ev hooks.Event) (id.SessionID, bool) {
	sessID, err := id.ParseSessionID(ev.SessionID)
	if err != nil {
		return "", false
	}
	sess, ok := m.sessions[sessID]
	if !ok {
		return "", false
	}
	next := statemachine.Transition(sess.State, ev)
	sess.SetState(next)
	if statemachine.ShouldNotify(next) {
		return sessID, true
	}
	return "", false
}
