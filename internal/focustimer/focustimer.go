// Package focustimer tracks Pomodoro-style focus sessions and persists
// completed ones to focus_sessions.json (spec.md §3's FocusSession).
// Recurring schedules (e.g. "start a focus block every weekday at 9am")
// are the supplemented feature SPEC_FULL.md adds beyond the original
// Rust implementation, backed by github.com/teambition/rrule-go.
package focustimer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/ivanbrko/panoptes/internal/id"
)

// FocusSession is one completed or in-progress focus block.
type FocusSession struct {
	ID               string                   `json:"id"`
	ProjectID        id.ProjectID             `json:"project_id,omitempty"`
	BranchID         id.BranchID              `json:"branch_id,omitempty"`
	Target           time.Duration            `json:"target"`
	Focused          time.Duration            `json:"focused"`
	Elapsed          time.Duration            `json:"elapsed"`
	CompletedAt      time.Time                `json:"completed_at"`
	ContextBreakdown map[string]time.Duration `json:"context_breakdown,omitempty"`
}

// Timer drives one running countdown, optionally re-armed by an RRULE
// schedule once it completes. It distinguishes focused time (accrued
// only while the terminal has focus) from elapsed wall-clock time
// (spec.md §3's FocusSession.Focused vs .Elapsed), pausing accrual on a
// terminal focus-lost event per spec.md §4.11 step 7.
type Timer struct {
	Target    time.Duration
	ProjectID id.ProjectID
	BranchID  id.BranchID

	startedAt      time.Time
	lastResumeAt   time.Time
	focusedAccrued time.Duration
	running        bool
	rule           *rrule.RRule
}

// NewTimer builds a one-shot timer for target duration.
func NewTimer(target time.Duration, projectID id.ProjectID, branchID id.BranchID) *Timer {
	return &Timer{Target: target, ProjectID: projectID, BranchID: branchID}
}

// WithSchedule attaches a recurring schedule (e.g. FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR
// built via rrule.ROption) so Start can be called again automatically
// each time the rule's next occurrence arrives.
func (t *Timer) WithSchedule(opt rrule.ROption) (*Timer, error) {
	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("focustimer: build schedule: %w", err)
	}
	t.rule = r
	return t, nil
}

// NextOccurrence returns the schedule's next start time at or after
// from, or the zero time if there is no schedule.
func (t *Timer) NextOccurrence(from time.Time) time.Time {
	if t.rule == nil {
		return time.Time{}
	}
	occurrences := t.rule.Between(from, from.AddDate(1, 0, 0), true)
	if len(occurrences) == 0 {
		return time.Time{}
	}
	return occurrences[0]
}

// Start begins (or restarts) the countdown from now, with focus assumed
// gained (a fresh timer starts counting immediately).
func (t *Timer) Start(now time.Time) {
	t.startedAt = now
	t.lastResumeAt = now
	t.focusedAccrued = 0
	t.running = true
}

// Pause stops crediting focused time as of now, without resetting the
// countdown's total elapsed clock. Called on a terminal focus-lost
// event (spec.md §4.11 step 7); a no-op if not currently running.
func (t *Timer) Pause(now time.Time) {
	if !t.running {
		return
	}
	t.focusedAccrued += now.Sub(t.lastResumeAt)
	t.running = false
}

// Resume resumes crediting focused time as of now, on a terminal
// focus-gained event. A no-op if the timer was never started or is
// already running.
func (t *Timer) Resume(now time.Time) {
	if t.startedAt.IsZero() || t.running {
		return
	}
	t.lastResumeAt = now
	t.running = true
}

// focused returns the accrued focused duration as of now.
func (t *Timer) focused(now time.Time) time.Duration {
	if !t.running {
		return t.focusedAccrued
	}
	return t.focusedAccrued + now.Sub(t.lastResumeAt)
}

// Tick reports whether the countdown has reached its target as of now.
// Time spent paused (terminal unfocused) does not count toward Target.
// The caller is responsible for recording a FocusSession and calling
// Start again (or scheduling the next occurrence) when this returns true.
func (t *Timer) Tick(now time.Time) bool {
	if t.startedAt.IsZero() {
		return false
	}
	return t.focused(now) >= t.Target
}

// Complete stops the timer and builds the FocusSession record for the
// run, crediting focused time to contextKey and reporting both the
// focused duration and the total wall-clock elapsed duration.
func (t *Timer) Complete(now time.Time, contextKey string) FocusSession {
	focused := t.focused(now)
	elapsed := now.Sub(t.startedAt)
	t.running = false
	return FocusSession{
		ID:          string(id.NewSessionID()),
		ProjectID:   t.ProjectID,
		BranchID:    t.BranchID,
		Target:      t.Target,
		Focused:     focused,
		Elapsed:     elapsed,
		CompletedAt: now,
		ContextBreakdown: map[string]time.Duration{
			contextKey: focused,
		},
	}
}

type document struct {
	Sessions []FocusSession `json:"sessions"`
}

// Store is the file-backed history of completed focus sessions.
type Store struct {
	path     string
	sessions []FocusSession
}

// Open loads path, returning an empty store if it doesn't exist.
func Open(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Store{path: path}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("focustimer: read %s: %w", path, err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("focustimer: parse %s: %w", path, err)
	}
	return &Store{path: path, sessions: doc.Sessions}, nil
}

// Record appends a completed session and persists the store.
func (s *Store) Record(fs FocusSession) error {
	s.sessions = append(s.sessions, fs)
	data, err := json.MarshalIndent(document{Sessions: s.sessions}, "", "  ")
	if err != nil {
		return fmt.Errorf("focustimer: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("focustimer: create dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("focustimer: write %s: %w", s.path, err)
	}
	return nil
}

// Sessions returns every recorded session.
func (s *Store) Sessions() []FocusSession { return append([]FocusSession{}, s.sessions...) }

// SessionsSince filters recorded sessions to those completed at or
// after cutoff, used to enforce focus_stats_retention_days.
func (s *Store) SessionsSince(cutoff time.Time) []FocusSession {
	var out []FocusSession
	for _, fs := range s.sessions {
		if !fs.CompletedAt.Before(cutoff) {
			out = append(out, fs)
		}
	}
	return out
}
