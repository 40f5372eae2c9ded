// Package hooks defines the wire contract for agent hook events and the
// local HTTP server that receives them (spec.md §4.6, §6). Grounded in
// original_source/src/hooks/{mod,server}.rs (the HookEvent shape and the
// fire-and-forget "always 200 unless the channel is closed" contract)
// and in the teacher's otelserver package
// (internal/session/agent/shared/otelserver/server.go), which is the
// closest thing h2 has to a loopback HTTP callback server: bind
// 127.0.0.1:0, serve on a background goroutine, dispatch POST bodies to
// callbacks, and expose a Stop() that shuts the listener down.
package hooks

import (
	"encoding/json"
	"fmt"
)

// EventKind identifies the kind of hook event an agent reported.
type EventKind int

const (
	EventSessionStart EventKind = iota
	EventPreToolUse
	EventPostToolUse
	EventStop
	EventNotification
	EventUnknown
)

func (k EventKind) String() string {
	switch k {
	case EventSessionStart:
		return "SessionStart"
	case EventPreToolUse:
		return "PreToolUse"
	case EventPostToolUse:
		return "PostToolUse"
	case EventStop:
		return "Stop"
	case EventNotification:
		return "Notification"
	default:
		return "Unknown"
	}
}

func parseEventKind(s string) EventKind {
	switch s {
	case "SessionStart":
		return EventSessionStart
	case "PreToolUse":
		return EventPreToolUse
	case "PostToolUse":
		return EventPostToolUse
	case "Stop":
		return EventStop
	case "Notification":
		return EventNotification
	default:
		return EventUnknown
	}
}

// Event is the normalized form of a hook POST body, keyed by session id.
type Event struct {
	SessionID string
	Kind      EventKind
	Tool      string
	Timestamp int64
}

// wireEvent mirrors the JSON body described in spec.md §6:
// {"session_id": str, "event": str, "tool": str|null, "timestamp": int}.
type wireEvent struct {
	SessionID string  `json:"session_id"`
	Event     string  `json:"event"`
	Tool      *string `json:"tool"`
	Timestamp int64   `json:"timestamp"`
}

// ParseEvent decodes a hook POST body into an Event.
func ParseEvent(body []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(body, &w); err != nil {
		return Event{}, fmt.Errorf("hooks: decode event: %w", err)
	}
	ev := Event{
		SessionID: w.SessionID,
		Kind:      parseEventKind(w.Event),
		Timestamp: w.Timestamp,
	}
	if w.Tool != nil {
		ev.Tool = *w.Tool
	}
	return ev, nil
}
