package audit

import "time"

// Event is an immutable, append-only audit log record for authentication
// and account administration.
//
// Invariants:
// - Events are never updated or deleted.
// - Events never carry passwords or tokens.
// - Recording is best-effort; do not block login on audit failures.
type Event struct {
	ID   string    `json:"id"`
	Type EventType `json:"type"`

	// ActorUserID is the authenticated user causing the event, if any.
	ActorUserID string `json:"actor_user_id,omitempty"`
	// SubjectUserID is the account the event is about.
	SubjectUserID string `json:"subject_user_id,omitempty"`
	// Email is the login name presented, lowercased.
	Email string `json:"email,omitempty"`

	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type EventType string

const (
	EventTypeLoginSucceeded EventType = "login_succeeded"
	EventTypeLoginFailed    EventType = "login_failed"
	EventTypeUserCreated    EventType = "user_created"
)
