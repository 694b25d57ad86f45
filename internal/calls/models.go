package calls

import "time"

// Record is a single call as shown on the dashboard.
//
// Records are read-only snapshots: a fetch produces a new slice and nothing
// in this service mutates a record after it was mapped.
//
// Nullable columns stay nullable here. A nil Duration means the backend had
// no value, which is different from a zero-second call.
type Record struct {
	ID          string `json:"id"`
	PhoneNumber string `json:"phone_number"`

	// Duration is the call length in seconds.
	Duration *int `json:"duration"`

	CallType          CallType `json:"call_type"`
	AppointmentBooked bool     `json:"appointment_booked"`

	// Rating is 1-5, or 0 when the call was not rated.
	Rating int `json:"rating"`

	CallTime time.Time `json:"call_time"`

	Transcript   *string `json:"transcript"`
	RecordingURL *string `json:"recording_url"`
}

type CallType string

const (
	CallTypeIncoming CallType = "Incoming"
	CallTypeOutgoing CallType = "Outgoing"
	CallTypeMissed   CallType = "Missed"
)

const (
	MinRating = 0
	MaxRating = 5
)

// Seconds returns the duration, or 0 when unknown.
func (r Record) Seconds() int {
	if r.Duration == nil || *r.Duration < 0 {
		return 0
	}
	return *r.Duration
}

func (r Record) HasTranscript() bool {
	return r.Transcript != nil && *r.Transcript != ""
}

func (r Record) HasRecording() bool {
	return r.RecordingURL != nil && *r.RecordingURL != ""
}

// AppointmentLabel is the Yes/No value used by the appointment column filter.
func (r Record) AppointmentLabel() string {
	if r.AppointmentBooked {
		return AppointmentYes
	}
	return AppointmentNo
}

const (
	AppointmentYes = "Yes"
	AppointmentNo  = "No"
)
