package focustimer

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/ivanbrko/panoptes/internal/id"
)

func TestTickFiresAtTarget(t *testing.T) {
	timer := NewTimer(25*time.Minute, id.NewProjectID(), id.NewBranchID())
	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	timer.Start(start)

	if timer.Tick(start.Add(10 * time.Minute)) {
		t.Fatal("expected Tick to be false before target elapses")
	}
	if !timer.Tick(start.Add(25 * time.Minute)) {
		t.Fatal("expected Tick to be true once target elapses")
	}
}

func TestCompleteRecordsElapsedAndContext(t *testing.T) {
	timer := NewTimer(25*time.Minute, id.NewProjectID(), id.NewBranchID())
	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	timer.Start(start)

	fs := timer.Complete(start.Add(30*time.Minute), "demo/main")
	if fs.Elapsed != 30*time.Minute {
		t.Fatalf("elapsed = %v, want 30m", fs.Elapsed)
	}
	if fs.ContextBreakdown["demo/main"] != 30*time.Minute {
		t.Fatalf("context breakdown = %v", fs.ContextBreakdown)
	}
	if timer.Tick(start.Add(31 * time.Minute)) {
		t.Fatal("expected timer to no longer be running after Complete")
	}
}

func TestPauseStopsAccruingFocusedTimeButNotElapsed(t *testing.T) {
	timer := NewTimer(20*time.Minute, id.NewProjectID(), id.NewBranchID())
	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	timer.Start(start)

	timer.Pause(start.Add(10 * time.Minute))
	// 15 minutes of wall-clock time pass while unfocused; only the 10
	// minutes before Pause should count toward the target.
	if timer.Tick(start.Add(25 * time.Minute)) {
		t.Fatal("expected Tick false: only 10m of focused time has accrued")
	}

	timer.Resume(start.Add(25 * time.Minute))
	if timer.Tick(start.Add(30 * time.Minute)) {
		t.Fatal("expected Tick false: 15m focused so far (10m + 5m)")
	}
	if !timer.Tick(start.Add(35 * time.Minute)) {
		t.Fatal("expected Tick true: 20m focused (10m + 10m)")
	}

	fs := timer.Complete(start.Add(35*time.Minute), "demo/main")
	if fs.Focused != 20*time.Minute {
		t.Fatalf("focused = %v, want 20m", fs.Focused)
	}
	if fs.Elapsed != 35*time.Minute {
		t.Fatalf("elapsed = %v, want 35m", fs.Elapsed)
	}
}

func TestPauseAndResumeAreNoOpsWithoutStart(t *testing.T) {
	timer := NewTimer(20*time.Minute, id.Unassociated, id.Unassociated)
	now := time.Now()
	timer.Pause(now)
	timer.Resume(now)
	if timer.Tick(now) {
		t.Fatal("expected Tick false for a never-started timer")
	}
}

func TestWithScheduleNextOccurrenceWeekdaysAt9am(t *testing.T) {
	timer := NewTimer(25*time.Minute, id.Unassociated, id.Unassociated)
	start := time.Date(2026, 7, 24, 9, 0, 0, 0, time.UTC) // a Friday

	timer, err := timer.WithSchedule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR},
		Dtstart:   start,
	})
	if err != nil {
		t.Fatalf("WithSchedule: %v", err)
	}

	next := timer.NextOccurrence(start.Add(time.Hour))
	if next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		t.Fatalf("expected next occurrence on a weekday, got %v", next.Weekday())
	}
	if next.Before(start) {
		t.Fatalf("expected next occurrence after start, got %v", next)
	}
}

func TestNextOccurrenceWithoutScheduleIsZero(t *testing.T) {
	timer := NewTimer(25*time.Minute, id.Unassociated, id.Unassociated)
	if got := timer.NextOccurrence(time.Now()); !got.IsZero() {
		t.Fatalf("expected zero time without a schedule, got %v", got)
	}
}

func TestStoreRecordAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "focus_sessions.json")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	timer := NewTimer(25*time.Minute, id.NewProjectID(), id.NewBranchID())
	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	timer.Start(start)
	fs := timer.Complete(start.Add(25*time.Minute), "demo/main")

	if err := store.Record(fs); err != nil {
		t.Fatalf("record: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	got := reopened.Sessions()
	if len(got) != 1 || got[0].ID != fs.ID {
		t.Fatalf("expected session to persist, got %+v", got)
	}
}

func TestSessionsSinceFiltersOlderEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "focus_sessions.json")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	old := FocusSession{ID: "old", CompletedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	recent := FocusSession{ID: "recent", CompletedAt: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)}
	if err := store.Record(old); err != nil {
		t.Fatal(err)
	}
	if err := store.Record(recent); err != nil {
		t.Fatal(err)
	}

	cutoff := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	got := store.SessionsSince(cutoff)
	if len(got) != 1 || got[0].ID != "recent" {
		t.Fatalf("expected only the recent session, got %+v", got)
	}
}
