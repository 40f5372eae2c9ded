package cmd

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/ivanbrko/panoptes/internal/activitylog"
	"github.com/ivanbrko/panoptes/internal/agent"
	"github.com/ivanbrko/panoptes/internal/branchops"
	"github.com/ivanbrko/panoptes/internal/claudeconfig"
	"github.com/ivanbrko/panoptes/internal/config"
	"github.com/ivanbrko/panoptes/internal/focustimer"
	"github.com/ivanbrko/panoptes/internal/hooks"
	"github.com/ivanbrko/panoptes/internal/id"
	"github.com/ivanbrko/panoptes/internal/input"
	"github.com/ivanbrko/panoptes/internal/loop"
	"github.com/ivanbrko/panoptes/internal/notify"
	"github.com/ivanbrko/panoptes/internal/permissions"
	"github.com/ivanbrko/panoptes/internal/project"
	"github.com/ivanbrko/panoptes/internal/session"
	"github.com/ivanbrko/panoptes/internal/shortcuts"
	"github.com/ivanbrko/panoptes/internal/ui"
)

// App wires every package this repo's core is made of into one runnable
// dashboard, the way the teacher's internal/cmd/run.go wires a Role,
// a harness, and a daemon fork together for one h2 session — except
// here there is exactly one long-lived process, not a fork-per-session
// daemon model, since spec.md's event loop owns every session directly.
type App struct {
	cfg     config.Config
	dir     string
	logger  *activitylog.Logger
	notices *notify.Notifier

	projects *project.Store
	claude   *claudeconfig.Store
	focus    *focustimer.Store
	perms    *permissions.JSONStore

	hookSrv  *hooks.Server
	sessions *session.Manager

	ui   *ui.State
	deps *ui.Deps
	term *terminalIO

	focusTimer *focustimer.Timer
}

// NewApp loads configuration and every persisted store, installs the
// hook dispatcher, binds the hook server, and acquires the terminal.
// Any failure here is fatal-at-startup (spec.md §7).
func NewApp() (*App, error) {
	dir := config.ConfigDir()
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	worktreesDir := resolveDir(dir, cfg.WorktreesDir, "worktrees")
	hooksDir := resolveDir(dir, cfg.HooksDir, "hooks")
	logsDir := filepath.Join(dir, "logs")
	for _, d := range []string{worktreesDir, hooksDir, logsDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", d, err)
		}
	}
	if err := activitylog.RotateOldLogs(logsDir, 7*24*time.Hour); err != nil {
		// Rotation failure is a warning, not fatal-at-startup (spec.md §7's
		// "operation-failed-but-continue" bucket).
		fmt.Fprintln(os.Stderr, "panoptes: log rotation:", err)
	}
	logger := activitylog.New(true, activitylog.PathFor(logsDir, time.Now()), "panoptes", "")

	projects, warning, err := project.Open(filepath.Join(dir, "projects.json"))
	if err != nil {
		return nil, fmt.Errorf("open project store: %w", err)
	}

	claudeConfigs, err := claudeconfig.Open(filepath.Join(dir, "claude_configs.json"))
	if err != nil {
		return nil, fmt.Errorf("open claude config store: %w", err)
	}

	focusStore, err := focustimer.Open(filepath.Join(dir, "focus_sessions.json"))
	if err != nil {
		return nil, fmt.Errorf("open focus timer store: %w", err)
	}

	perms, err := permissions.NewJSONStore("")
	if err != nil {
		return nil, fmt.Errorf("open permissions store: %w", err)
	}

	dispatcherPath, err := hooks.InstallDispatcher(hooksDir)
	if err != nil {
		return nil, fmt.Errorf("install hook dispatcher: %w", err)
	}

	hookSrv, err := hooks.Listen(cfg.HookPort)
	if err != nil {
		return nil, fmt.Errorf("bind hook server: %w", err)
	}
	port := hookSrv.Addr().(*net.TCPAddr).Port

	if errs := shortcuts.Validate(cfg.CustomShortcuts); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, "panoptes:", e)
		}
	}

	sessions := session.NewManager(port, dispatcherPath)
	term, err := openTerminal()
	if err != nil {
		hookSrv.Shutdown()
		return nil, err
	}

	a := &App{
		cfg:      cfg,
		dir:      dir,
		logger:   logger,
		notices:  notify.New(os.Stdout, cfg.NotificationMethod),
		projects: projects,
		claude:   claudeConfigs,
		focus:    focusStore,
		perms:    perms,
		hookSrv:  hookSrv,
		sessions: sessions,
		ui:       ui.NewState(),
		term:     term,
	}
	term.render = a.renderFrame

	if warning != nil {
		a.ui.Notify(warning.Error(), 5*time.Second, time.Now())
	}

	if cfg.FocusTimerMinutes > 0 {
		timer := focustimer.NewTimer(time.Duration(cfg.FocusTimerMinutes)*time.Minute, id.Unassociated, id.Unassociated)
		timer.Start(time.Now())
		a.focusTimer = timer
	}

	a.deps = &ui.Deps{
		Store:                projects,
		Sessions:             sessions,
		IdleThresholdSecs:    cfg.IdleThresholdSecs,
		CreateSession:        a.createSession,
		CreateWorktreeBranch: a.createWorktreeBranch,
		DeleteWorktreeBranch: a.deleteWorktreeBranch,
	}

	return a, nil
}

// resolveDir joins configured relative to base unless it is already
// absolute, falling back to fallback when configured is empty.
func resolveDir(base, configured, fallback string) string {
	if configured == "" {
		configured = fallback
	}
	if filepath.IsAbs(configured) {
		return configured
	}
	return filepath.Join(base, configured)
}

// createSession spawns a Claude Code session for branch, resolving the
// project's default Claude config directory if one is set (spec.md §3).
func (a *App) createSession(proj project.Project, branch project.Branch) (id.SessionID, error) {
	configDir := ""
	if proj.DefaultClaudeConfig != "" {
		for _, c := range a.claude.Configs() {
			if c.ID == proj.DefaultClaudeConfig {
				configDir = c.ConfigDir
				break
			}
		}
	}

	ag, err := agent.Resolve(agent.KindClaudeCode, "")
	if err != nil {
		return "", err
	}

	return a.sessions.CreateSession(session.CreateParams{
		Name:            branch.Name,
		WorkingDir:      branch.WorkingDir,
		ProjectID:       proj.ID,
		BranchID:        branch.ID,
		Agent:           ag,
		Rows:            24,
		Cols:            80,
		ScrollbackRows:  a.cfg.ScrollbackLines,
		ClaudeConfigDir: configDir,
	})
}

func (a *App) createWorktreeBranch(proj project.Project, name string) (project.Branch, error) {
	worktreesDir := resolveDir(a.dir, a.cfg.WorktreesDir, "worktrees")
	return branchops.CreateWorktreeBranch(branchops.CreateWorktreeParams{
		Store:        a.projects,
		JSONStore:    a.perms,
		Project:      proj,
		BranchName:   name,
		WorktreesDir: worktreesDir,
		CreateBranch: true,
		BaseRef:      proj.DefaultBaseBranch,
	})
}

func (a *App) deleteWorktreeBranch(proj project.Project, branch project.Branch) error {
	return branchops.DeleteWorktreeBranch(branchops.DeleteWorktreeParams{
		Store:     a.projects,
		JSONStore: a.perms,
		Project:   proj,
		Branch:    branch,
		Force:     true,
	})
}

// Run hands control to the event loop (spec.md §4.11). It recovers a
// panic in the loop body so Close still restores the terminal even on
// an unexpected crash (spec.md §9).
func (a *App) Run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	l := &loop.Loop{
		Source:   a.term,
		Render:   a.term,
		Sessions: a.sessions,
		Hooks:    a.hookSrv,
		Timer:    a,
		Cfg: loop.Config{
			TickRate:            loop.DefaultTickRate,
			IdleThresholdSecs:   a.cfg.IdleThresholdSecs,
			StateTimeoutSecs:    a.cfg.StateTimeoutSecs,
			ExitedRetentionSecs: a.cfg.ExitedRetentionSecs,
		},
		OnKey: func(ev input.KeyEvent, now time.Time) {
			ui.Dispatch(a.ui, a.deps, ev, now)
		},
		OnPaste: func(text string, now time.Time) {
			ui.HandlePaste(a.ui, a.deps, text)
		},
		OnMouse: func(ev input.MouseEvent, now time.Time) bool {
			rows, cols := a.term.ContentSize()
			area := input.ContentArea{X: 0, Y: 1, W: cols, H: rows}
			return ui.HandleMouse(a.ui, a.deps, ev, area)
		},
		OnFocus: func(gained bool, now time.Time) {
			if a.focusTimer == nil {
				return
			}
			if gained {
				a.focusTimer.Resume(now)
			} else {
				a.focusTimer.Pause(now)
			}
		},
		OnHookEvent: func(ev hooks.Event) (id.SessionID, bool) {
			a.logger.HookEvent(ev.Kind.String(), ev.Tool)
			return a.sessions.HandleHookEvent(ev)
		},
		OnNotify: func(sessionID id.SessionID, now time.Time) {
			name := string(sessionID)
			if sess, ok := a.sessions.Get(sessionID); ok {
				name = sess.Name
			}
			a.notices.Notify(name)
			a.ui.Notify(fmt.Sprintf("%s needs input", name), 5*time.Second, now)
		},
		OnWarning: func(message string) {
			a.logger.Warning(message)
			a.ui.Notify(message, 4*time.Second, time.Now())
		},
		OnFocusDone: a.onFocusDone,
		Quit:        func() bool { return a.ui.ShouldQuit },
		ContentSize: a.term.ContentSize,
	}

	return l.Run()
}

// Tick implements loop.FocusTimer against the single active timer, if
// any (spec.md §9's focus timer supplement; no timer is running most of
// the time, which Tick reports as never-complete). The context key
// credited on completion is whatever session is attached at the moment
// the timer actually completes, falling back to "unattached".
func (a *App) Tick(now time.Time) (contextKey string, completed bool) {
	if a.focusTimer == nil {
		return "", false
	}
	if !a.focusTimer.Tick(now) {
		return "", false
	}
	return a.currentFocusContext(), true
}

func (a *App) currentFocusContext() string {
	if sess, ok := a.sessions.Get(a.ui.AttachedSession); ok {
		return sess.Name
	}
	return "unattached"
}

func (a *App) onFocusDone(contextKey string, now time.Time) {
	if a.focusTimer == nil {
		return
	}
	fs := a.focusTimer.Complete(now, contextKey)
	if err := a.focus.Record(fs); err != nil {
		a.ui.Notify(fmt.Sprintf("focus session not saved: %v", err), 4*time.Second, now)
	}
	next := a.focusTimer.NextOccurrence(now)
	if next.IsZero() {
		a.focusTimer = nil
		return
	}
	a.focusTimer.Start(next)
}

// Close tears down every live session, shuts down the hook server, and
// restores the terminal — in that order, so the terminal is always left
// usable even if an earlier step fails (spec.md §5 "shutdown_all kills
// every live PTY before the TUI exits").
func (a *App) Close() error {
	for _, sess := range a.sessions.All() {
		a.sessions.DestroySession(sess.ID)
	}
	if a.hookSrv != nil {
		a.hookSrv.Shutdown()
	}
	if a.logger != nil {
		a.logger.Close()
	}
	if a.term != nil {
		return a.term.Close()
	}
	return nil
}
