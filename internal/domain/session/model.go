package session

import (
	"strings"
	"time"
)

// EventType names a lifecycle event appended to a session.
type EventType string

const (
	EventTurnStarted  EventType = "turn_started"
	EventTurnFinished EventType = "turn_finished"
	EventBlocked      EventType = "blocked"
)

// Status is derived from the last lifecycle event, never stored on the session row.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusBlocked    Status = "blocked"
)

// State key prefixes select where a value is persisted.
const (
	PrefixApp  = "app:"
	PrefixUser = "user:"
	PrefixTemp = "temp:"
)

// Event is an immutable record appended to a session's log.
type Event struct {
	ID           string         `json:"id"`
	SessionID    string         `json:"session_id"`
	AppName      string         `json:"app_name"`
	UserID       string         `json:"user_id"`
	Author       string         `json:"author"`
	Type         EventType      `json:"type"`
	Status       Status         `json:"status,omitempty"`
	ErrorType    string         `json:"error_type,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Payload      map[string]any `json:"payload,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Session is a conversation context scoped to (app name, user id).
type Session struct {
	ID        string         `json:"id"`
	AppName   string         `json:"app_name"`
	UserID    string         `json:"user_id"`
	State     map[string]any `json:"state"`
	Events    []Event        `json:"events"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Status derives the session status from its last lifecycle event.
func (s *Session) Status() Status {
	if s == nil || len(s.Events) == 0 {
		return StatusPending
	}
	return DeriveStatus(s.Events[len(s.Events)-1])
}

// DeriveStatus maps one lifecycle event to the status it implies.
func DeriveStatus(e Event) Status {
	switch e.Type {
	case EventTurnStarted:
		return StatusProcessing
	case EventBlocked:
		return StatusBlocked
	case EventTurnFinished:
		if e.Status != "" {
			return e.Status
		}
		return StatusCompleted
	default:
		return StatusPending
	}
}

// TurnCount reads the integer turn_count state value, tolerating JSON numbers.
func (s *Session) TurnCount() int {
	if s == nil {
		return 0
	}
	return intValue(s.State["turn_count"])
}

// Increment is a state delta value that adds to the key's current integer value.
// Stores resolve it under the same lock or transaction as the write, so
// concurrent increments are never lost.
type Increment int

// ApplyDelta merges delta into dst, resolving Increment values against dst.
func ApplyDelta(dst, delta map[string]any) {
	for k, v := range delta {
		if inc, ok := v.(Increment); ok {
			dst[k] = intValue(dst[k]) + int(inc)
			continue
		}
		dst[k] = v
	}
}

func intValue(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// SplitState separates a state delta into app, user and session scopes.
// Prefixes are stripped from app and user keys; temp keys are dropped.
func SplitState(delta map[string]any) (app, user, sess map[string]any) {
	app, user, sess = map[string]any{}, map[string]any{}, map[string]any{}
	for k, v := range delta {
		switch {
		case strings.HasPrefix(k, PrefixApp):
			app[strings.TrimPrefix(k, PrefixApp)] = v
		case strings.HasPrefix(k, PrefixUser):
			user[strings.TrimPrefix(k, PrefixUser)] = v
		case strings.HasPrefix(k, PrefixTemp):
		default:
			sess[k] = v
		}
	}
	return app, user, sess
}

// MergeState is the inverse of SplitState.
func MergeState(app, user, sess map[string]any) map[string]any {
	merged := make(map[string]any, len(app)+len(user)+len(sess))
	for k, v := range sess {
		merged[k] = v
	}
	for k, v := range app {
		merged[PrefixApp+k] = v
	}
	for k, v := range user {
		merged[PrefixUser+k] = v
	}
	return merged
}
