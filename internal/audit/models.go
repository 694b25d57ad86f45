package audit

import "time"

// Event is an immutable, append-only record of something a user did.
//
// Invariants:
// - Events are never updated or deleted.
// - user_id is required; events are only ever listed back to their owner.
// - ip capture is best-effort; do not block critical flows on audit failures.
type Event struct {
	ID     string    `json:"id"`
	UserID string    `json:"user_id"`
	Type   EventType `json:"type"`

	// IPAddress is the client IP as resolved by the router.
	IPAddress string `json:"ip_address,omitempty"`

	// CallID is set for events about one call.
	CallID string `json:"call_id,omitempty"`

	// Message is a short human-readable description.
	Message string `json:"message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type EventType string

const (
	EventSignIn              EventType = "sign_in"
	EventSignOut             EventType = "sign_out"
	EventCompanyUpdated      EventType = "company_updated"
	EventRecordingDownloaded EventType = "recording_downloaded"
	EventExported            EventType = "calls_exported"
)
