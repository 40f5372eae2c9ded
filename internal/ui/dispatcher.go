package ui

import (
	"fmt"
	"time"

	"github.com/ivanbrko/panoptes/internal/id"
	"github.com/ivanbrko/panoptes/internal/input"
	"github.com/ivanbrko/panoptes/internal/project"
	"github.com/ivanbrko/panoptes/internal/session"
)

// Deps bundles everything the dispatcher needs to act on a key, beyond
// the UI state itself. The ui package never decides *how* a session or
// worktree gets created (agent resolution, default rows/cols, base
// branch policy) — that's supplied by the caller as plain functions, so
// this package stays a pure router over (view, mode) the way the
// teacher's overlay package routes over its two modes without knowing
// anything about how h2 resolves agent commands.
type Deps struct {
	Store    *project.Store
	Sessions *session.Manager

	IdleThresholdSecs int64

	// CreateSession spawns a new session for branch and returns its id.
	CreateSession func(proj project.Project, branch project.Branch) (id.SessionID, error)
	// CreateWorktreeBranch creates a new worktree branch under proj.
	CreateWorktreeBranch func(proj project.Project, name string) (project.Branch, error)
	// DeleteWorktreeBranch tears down branch's worktree and session(s).
	DeleteWorktreeBranch func(proj project.Project, branch project.Branch) error
}

func isCtrlC(ev input.KeyEvent) bool {
	return ev.Code == input.KeyChar && (ev.Char == 'c' || ev.Char == 'C') && ev.Modifiers&input.ModCtrl != 0
}

// Dispatch routes one key event per spec.md §4.12: global invariants
// first, then the handler for the current (View, Mode) pair. Handlers
// are total over the printable keyspace — an unrecognized key is
// simply a no-op.
func Dispatch(st *State, deps *Deps, ev input.KeyEvent, now time.Time) {
	st.ClearError()

	if isCtrlC(ev) {
		if st.Mode == ModeSession {
			forwardKey(st, deps, ev)
		} else {
			st.Notify("Ctrl+C disabled; press q to quit", 2*time.Second, now)
		}
		return
	}

	if st.Mode == ModeNormal && ev.Code == input.KeyChar && ev.Char == ' ' {
		jumpToNextAttention(st, deps, now)
		return
	}

	switch {
	case st.View == ViewProjects && st.Mode == ModeNormal:
		handleProjectsNormal(st, deps, ev, now)
	case st.View == ViewBranches && st.Mode == ModeNormal:
		handleBranchesNormal(st, deps, ev, now)
	case st.View == ViewSession && st.Mode == ModeNormal:
		handleSessionNormal(st, deps, ev, now)
	case st.View == ViewSession && st.Mode == ModeSession:
		handleSessionAttached(st, deps, ev, now)
	case st.View == ViewHelp:
		handleHelp(st, ev)
	}
}

// HandlePaste routes pasted text per spec.md §4.11 step 4: forwarded to
// the child only when attached in Session mode, ignored everywhere
// else.
func HandlePaste(st *State, deps *Deps, text string) {
	if st.Mode != ModeSession {
		return
	}
	if sess, ok := deps.Sessions.Get(st.AttachedSession); ok {
		if _, err := sess.WritePaste(text); err != nil {
			st.SetError(fmt.Sprintf("write failed: %v", err))
		}
	}
}

// HandleMouse implements spec.md §4.11 step 6: forward SGR bytes when
// the attached session's child enabled mouse reporting; otherwise, a
// scroll event adjusts scrollback. Returns whether UI state changed.
func HandleMouse(st *State, deps *Deps, ev input.MouseEvent, area input.ContentArea) bool {
	if st.View != ViewSession || st.AttachedSession == "" {
		return false
	}
	sess, ok := deps.Sessions.Get(st.AttachedSession)
	if !ok {
		return false
	}
	if sess.VTerm().MouseProtocolMode() != 0 {
		if bytes, inside := input.TranslateMouse(ev, area); inside {
			if err := sess.SendMouse(bytes); err != nil {
				st.SetError(fmt.Sprintf("write failed: %v", err))
			}
		}
		return false
	}
	switch ev.Kind {
	case input.MouseScrollUp:
		sess.ScrollUp(3)
		return true
	case input.MouseScrollDown:
		sess.ScrollDown(3)
		return true
	default:
		return false
	}
}

func forwardKey(st *State, deps *Deps, ev input.KeyEvent) {
	sess, ok := deps.Sessions.Get(st.AttachedSession)
	if !ok {
		return
	}
	result, err := sess.SendKey(ev)
	if err != nil {
		st.SetError(fmt.Sprintf("write failed: %v", err))
		return
	}
	if result == session.SendKeyExit {
		st.LeaveSession()
	}
}

func jumpToNextAttention(st *State, deps *Deps, now time.Time) {
	candidates := deps.Sessions.SessionsNeedingAttention(st.IdleThresholdSecs)
	if len(candidates) == 0 {
		st.Notify("No session needs attention", 2*time.Second, now)
		return
	}
	target := candidates[0]
	target.AcknowledgeAttention()
	st.SelectedProject = target.ProjectID
	st.SelectedBranch = target.BranchID
	st.EnterSession(target.ID)
}

func handleProjectsNormal(st *State, deps *Deps, ev input.KeyEvent, now time.Time) {
	projects := deps.Store.Projects()
	switch {
	case ev.Code == input.KeyDown || (ev.Code == input.KeyChar && ev.Char == 'j'):
		st.ProjectIndex = wrapIndex(st.ProjectIndex+1, len(projects))
	case ev.Code == input.KeyUp || (ev.Code == input.KeyChar && ev.Char == 'k'):
		st.ProjectIndex = wrapIndex(st.ProjectIndex-1, len(projects))
	case ev.Code == input.KeyChar && ev.Char == 'g':
		st.ProjectIndex = 0
	case ev.Code == input.KeyChar && ev.Char == 'G':
		if len(projects) > 0 {
			st.ProjectIndex = len(projects) - 1
		}
	case ev.Code == input.KeyEnter || (ev.Code == input.KeyChar && ev.Char == 'i'):
		if len(projects) == 0 {
			return
		}
		p := projects[st.ProjectIndex]
		st.SelectedProject = p.ID
		st.BranchIndex = 0
		st.View = ViewBranches
	case ev.Code == input.KeyChar && ev.Char == 'q':
		st.ShouldQuit = true
	case ev.Code == input.KeyChar && ev.Char == '?':
		st.View = ViewHelp
	}
}

func handleBranchesNormal(st *State, deps *Deps, ev input.KeyEvent, now time.Time) {
	proj, ok := deps.Store.FindProject(st.SelectedProject)
	if !ok {
		st.View = ViewProjects
		return
	}
	branches := deps.Store.BranchesForProject(proj.ID)

	switch {
	case ev.Code == input.KeyDown || (ev.Code == input.KeyChar && ev.Char == 'j'):
		st.BranchIndex = wrapIndex(st.BranchIndex+1, len(branches))
	case ev.Code == input.KeyUp:
		st.BranchIndex = wrapIndex(st.BranchIndex-1, len(branches))
	case ev.Code == input.KeyChar && ev.Char == 'g':
		st.BranchIndex = 0
	case ev.Code == input.KeyChar && ev.Char == 'G':
		if len(branches) > 0 {
			st.BranchIndex = len(branches) - 1
		}
	case ev.Code == input.KeyEsc:
		st.View = ViewProjects
	case ev.Code == input.KeyChar && ev.Char == 'q':
		st.ShouldQuit = true
	case ev.Code == input.KeyChar && ev.Char == 'i':
		attachOrFocus(st, deps, proj, branches, now)
	case ev.Code == input.KeyChar && ev.Char == 't':
		spawnSession(st, deps, proj, branches, now)
	case ev.Code == input.KeyChar && ev.Char == 'T':
		createWorktreeBranch(st, deps, proj, now)
	case ev.Code == input.KeyChar && ev.Char == 'k':
		killSelectedBranch(st, deps, proj, branches, now)
	}
}

func attachOrFocus(st *State, deps *Deps, proj project.Project, branches []project.Branch, now time.Time) {
	if st.BranchIndex >= len(branches) {
		return
	}
	branch := branches[st.BranchIndex]
	sessions := deps.Sessions.SessionsForBranch(branch.ID)
	if len(sessions) == 0 {
		st.Notify("no active session for this branch; press t to start one", 2*time.Second, now)
		return
	}
	sessions[0].AcknowledgeAttention()
	st.EnterSession(sessions[0].ID)
}

func spawnSession(st *State, deps *Deps, proj project.Project, branches []project.Branch, now time.Time) {
	if st.BranchIndex >= len(branches) || deps.CreateSession == nil {
		return
	}
	branch := branches[st.BranchIndex]
	sessID, err := deps.CreateSession(proj, branch)
	if err != nil {
		st.SetError(fmt.Sprintf("create session: %v", err))
		return
	}
	st.EnterSession(sessID)
}

func createWorktreeBranch(st *State, deps *Deps, proj project.Project, now time.Time) {
	if deps.CreateWorktreeBranch == nil {
		return
	}
	// The branch name itself is out of this handler's scope (spec.md §1
	// excludes CLI/flag/prompt plumbing); callers that want an
	// interactive name prompt wire it in above this dispatcher. Here we
	// name it deterministically from the current time the way a
	// scripted "new branch" shortcut would.
	name := fmt.Sprintf("panoptes-%d", now.Unix())
	branch, err := deps.CreateWorktreeBranch(proj, name)
	if err != nil {
		st.SetError(fmt.Sprintf("create worktree: %v", err))
		return
	}
	st.SelectedBranch = branch.ID
	st.Notify(fmt.Sprintf("created worktree %s", branch.Name), 3*time.Second, now)
}

func killSelectedBranch(st *State, deps *Deps, proj project.Project, branches []project.Branch, now time.Time) {
	if st.BranchIndex >= len(branches) || deps.DeleteWorktreeBranch == nil {
		return
	}
	branch := branches[st.BranchIndex]
	if branch.IsDefault {
		st.Notify("cannot remove the default branch", 2*time.Second, now)
		return
	}
	for _, sess := range deps.Sessions.SessionsForBranch(branch.ID) {
		deps.Sessions.DestroySession(sess.ID)
	}
	if err := deps.DeleteWorktreeBranch(proj, branch); err != nil {
		st.SetError(fmt.Sprintf("remove worktree: %v", err))
		return
	}
	st.BranchIndex = wrapIndex(st.BranchIndex, len(branches)-1)
}

func handleSessionNormal(st *State, deps *Deps, ev input.KeyEvent, now time.Time) {
	sess, ok := deps.Sessions.Get(st.AttachedSession)
	switch {
	case ev.Code == input.KeyEsc || (ev.Code == input.KeyChar && ev.Char == 'q'):
		st.LeaveSession()
	case ev.Code == input.KeyChar && ev.Char == 'i':
		st.Mode = ModeSession
	case ev.Code == input.KeyPageUp && ok:
		sess.ScrollUp(10)
	case ev.Code == input.KeyPageDown && ok:
		sess.ScrollDown(10)
	}
}

func handleSessionAttached(st *State, deps *Deps, ev input.KeyEvent, now time.Time) {
	if ev.Code == input.KeyEsc && ev.Modifiers == 0 {
		st.LeaveSession()
		return
	}
	forwardKey(st, deps, ev)
}

func handleHelp(st *State, ev input.KeyEvent) {
	st.View = ViewProjects
}

// wrapIndex implements spec.md §8's boundary behavior: "selecting
// next/prev in a list of size N wraps modulo N; size 0 is a no-op."
func wrapIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
