// Package progress is the publish/subscribe channel that streams live
// dispatch status to observers, keyed by a client-supplied session ID.
package progress

import (
	"time"

	"github.com/google/uuid"
)

// EventType classifies a progress event.
type EventType string

const (
	TypeConnected EventType = "connected"
	TypeStart     EventType = "start"
	TypeProgress  EventType = "progress"
	TypeComplete  EventType = "complete"
	TypeError     EventType = "error"
)

// RecipientStatus describes the recipient a progress event refers to.
type RecipientStatus struct {
	LeadID  uuid.UUID `json:"leadId"`
	Address string    `json:"address"`
	Status  string    `json:"status"` // sent, failed
	Error   string    `json:"error,omitempty"`
}

// Event is one frame of a session's progress stream. Events are transient
// and never persisted; per-session ordering is the only delivery guarantee.
type Event struct {
	SessionID string           `json:"sessionId"`
	Type      EventType        `json:"type"`
	Sent      int              `json:"sent"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
	Current   *RecipientStatus `json:"current,omitempty"`
	Message   string           `json:"message,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Terminal reports whether the event ends its session's stream.
func (e Event) Terminal() bool {
	return e.Type == TypeComplete || e.Type == TypeError
}
