package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered   EventType = "user_registered"
	EventSessionStarted   EventType = "session_started"
	EventSessionRefreshed EventType = "session_refreshed"
	EventSessionEnded     EventType = "session_ended"
	EventSessionsRevoked  EventType = "sessions_revoked"
	EventRefreshRejected  EventType = "refresh_rejected"
	EventLoginFailed      EventType = "login_failed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	PrincipalID string      `json:"principal_id,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload,omitempty"`
}

// New stamps an event with an id and timestamp.
func New(eventType EventType, principalID string, payload interface{}) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		PrincipalID: principalID,
		Timestamp:   time.Now().UTC(),
		Payload:     payload,
	}
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// RefreshRejectedPayload payload. Reason is one of the error codes.
type RefreshRejectedPayload struct {
	Reason string `json:"reason"`
}

// SessionsRevokedPayload payload.
type SessionsRevokedPayload struct {
	RevokedBy string `json:"revoked_by"`
}
