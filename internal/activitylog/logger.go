// Package activitylog is Panoptes' hand-rolled JSONL event logger,
// grounded in the teacher's internal/activitylog package (h2): no
// logging framework, one JSON object appended per line, a bool gate so
// disabled loggers cost nothing, and a package-level Nop() for callers
// that have no logger configured at all. Panoptes' event vocabulary
// differs from h2's (hook/state-change/warning rather than
// otel-metrics/permission-decision, since Panoptes has no LLM billing
// telemetry of its own), and adds the rotation helper
// spec.md §6's explicit "logs/ — rotated log files (7-day retention)"
// requirement calls for, which the teacher never needed.
package activitylog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// entry is the common envelope every logged line shares.
type entry struct {
	Timestamp string `json:"ts"`
	Actor     string `json:"actor"`
	SessionID string `json:"session_id,omitempty"`
	Event     string `json:"event"`

	HookEvent string `json:"hook_event,omitempty"`
	ToolName  string `json:"tool_name,omitempty"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Logger appends JSONL records to a single activity log file. A
// disabled Logger (enabled == false) or one built with Nop() performs
// no I/O at all.
type Logger struct {
	enabled   bool
	actor     string
	sessionID string

	mu   sync.Mutex
	file *os.File
}

// New opens (creating if needed) path for append and returns a Logger
// tagged with actor (e.g. the agent kind) and sessionID. When enabled is
// false, every method is a no-op and no file is ever created, matching
// the teacher's "disabled logger creates nothing" contract.
func New(enabled bool, path, actor, sessionID string) *Logger {
	l := &Logger{enabled: enabled, actor: actor, sessionID: sessionID}
	if !enabled {
		return l
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		l.enabled = false
		return l
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		l.enabled = false
		return l
	}
	l.file = f
	return l
}

// Nop returns a Logger that discards everything, for callers that have
// no path configured.
func Nop() *Logger { return &Logger{enabled: false} }

// HookEvent records a hook notification this session received.
func (l *Logger) HookEvent(hookEvent, toolName string) {
	l.write(entry{Event: "hook", HookEvent: hookEvent, ToolName: toolName})
}

// StateChange records a session state transition.
func (l *Logger) StateChange(from, to string) {
	l.write(entry{Event: "state_change", From: from, To: to})
}

// Warning records an operation-failed-but-continue condition (spec.md
// §7): a failed git operation, a project-store write failure, dropped
// hook events.
func (l *Logger) Warning(message string) {
	l.write(entry{Event: "warning", Message: message})
}

// Error records a more serious, still-non-fatal condition.
func (l *Logger) Error(message string) {
	l.write(entry{Event: "error", Message: message})
}

func (l *Logger) write(e entry) {
	if !l.enabled {
		return
	}
	e.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	e.Actor = l.actor
	e.SessionID = l.sessionID

	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		l.file.Write(data)
	}
}

// Close releases the underlying file handle, if any.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// RotateOldLogs deletes files directly under dir whose name matches
// "activity-*.jsonl" and whose modification time is older than
// retention, implementing spec.md §6's 7-day log retention. Errors
// removing an individual file are collected but don't stop the sweep.
func RotateOldLogs(dir string, retention time.Duration) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	cutoff := time.Now().Add(-retention)
	var firstErr error
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		name := de.Name()
		if filepath.Ext(name) != ".jsonl" || !strings.HasPrefix(name, "activity-") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(dir, name)); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// PathFor returns the path activity logging should write to for today,
// e.g. ~/.panoptes/logs/activity-2026-07-29.jsonl.
func PathFor(logsDir string, at time.Time) string {
	return filepath.Join(logsDir, "activity-"+at.Format("2006-01-02")+".jsonl")
}
