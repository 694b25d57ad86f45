package calls

import "time"

// UnknownNumber is shown when the counterparty number is missing.
const UnknownNumber = "Unknown"

// Row mirrors the backend "calls" table.
// Columns not surfaced on the dashboard are still selected so the mapping
// stays in one place.
type Row struct {
	ID                string     `json:"id" db:"id"`
	Summary           *string    `json:"summary" db:"summary"`
	Transcript        *string    `json:"transcript" db:"transcript"`
	RecordingURL      *string    `json:"recording_url" db:"recording_url"`
	StartTime         time.Time  `json:"start_time" db:"start_time"`
	EndTime           *time.Time `json:"end_time" db:"end_time"`
	Duration          *int       `json:"duration" db:"duration"`
	FromNumber        *string    `json:"from_number" db:"from_number"`
	ToNumber          *string    `json:"to_number" db:"to_number"`
	AgentID           *string    `json:"agent_id" db:"agent_id"`
	AppointmentBooked bool       `json:"appointment_booked" db:"appointment_booked"`
	Rating            *int       `json:"rating" db:"rating"`
	CallType          CallType   `json:"call_type" db:"call_type"`
	CallReason        *string    `json:"call_reason" db:"call_reason"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UserSentiment     *string    `json:"user_sentiment" db:"user_sentiment"`
}

// Columns is the select list shared by every backend.
const Columns = "id, summary, transcript, recording_url, start_time, end_time, duration, from_number, to_number, agent_id, appointment_booked, rating, call_type, call_reason, created_at, user_sentiment"

// FromRow maps a backend row onto a Record.
// Outgoing calls show the dialed number; incoming and missed calls show the caller.
func FromRow(row Row) Record {
	phone := row.FromNumber
	if row.CallType == CallTypeOutgoing {
		phone = row.ToNumber
	}
	number := UnknownNumber
	if phone != nil && *phone != "" {
		number = *phone
	}

	rating := 0
	if row.Rating != nil {
		rating = clampRating(*row.Rating)
	}

	var duration *int
	if row.Duration != nil {
		d := *row.Duration
		if d < 0 {
			d = 0
		}
		duration = &d
	}

	return Record{
		ID:                row.ID,
		PhoneNumber:       number,
		Duration:          duration,
		CallType:          row.CallType,
		AppointmentBooked: row.AppointmentBooked,
		Rating:            rating,
		CallTime:          row.StartTime,
		Transcript:        row.Transcript,
		RecordingURL:      row.RecordingURL,
	}
}

func clampRating(v int) int {
	if v < MinRating {
		return MinRating
	}
	if v > MaxRating {
		return MaxRating
	}
	return v
}
