// Package telemetry carries client lifecycle events to an exporter. Emission is best effort:
// a failed emit is logged and never reaches the caller.
package telemetry

import (
	"context"
	"time"
)

// Event types emitted by the session store and gateway.
const (
	EventLogin          = "login"
	EventLoginFailed    = "login_failed"
	EventRegister       = "register"
	EventLogout         = "logout"
	EventRestoreCleared = "restore_cleared"
	EventTokenRefreshed = "token_refreshed"
	EventSessionExpired = "session_expired"
)

// SourceClient is the Source recorded on events emitted by this module.
const SourceClient = "eventctl"

// Event is one session lifecycle event. Empty fields are omitted by exporters.
type Event struct {
	Type   string
	UserID string
	Source string
	// Attributes are extra string attributes, e.g. the refresh token fingerprint.
	Attributes map[string]string
	CreatedAt  time.Time
}

// EventEmitter emits telemetry events (e.g. to OTel Logs). Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *Event) error
}

// NewEvent returns an Event of the given type stamped with the current UTC time.
func NewEvent(eventType, userID string) *Event {
	return &Event{
		Type:      eventType,
		UserID:    userID,
		Source:    SourceClient,
		CreatedAt: time.Now().UTC(),
	}
}
