package table

import (
	"strconv"
	"time"

	"chanlytics/internal/calls"
)

// EmptyMessage is shown in place of rows when nothing matches.
const EmptyMessage = "No results."

// RowView is one call log row formatted for display.
type RowView struct {
	ID                string         `json:"id"`
	PhoneNumber       string         `json:"phone_number"`
	Duration          string         `json:"duration"`
	DurationSeconds   *int           `json:"duration_seconds"`
	CallType          calls.CallType `json:"call_type"`
	AppointmentBooked string         `json:"appointment_booked"`
	Rating            string         `json:"rating"`
	CallTime          string         `json:"call_time"`
	CallTimeISO       time.Time      `json:"call_time_iso"`
	HasTranscript     bool           `json:"has_transcript"`
	HasRecording      bool           `json:"has_recording"`
}

// View is the rendered table: derived rows plus what the renderer needs.
type View struct {
	Columns []Column  `json:"columns"`
	Rows    []RowView `json:"rows"`
	Total   int       `json:"total"`
	Empty   bool      `json:"empty"`
	Message string    `json:"message,omitempty"`
	State   State     `json:"state"`
}

// Render derives rows from records and formats them for display.
func Render(records []calls.Record, st State, loc *time.Location) View {
	if loc == nil {
		loc = time.UTC
	}
	derived := Derive(records, st, loc)

	v := View{
		Columns: VisibleColumns(st.Visibility),
		Rows:    make([]RowView, 0, len(derived)),
		Total:   len(derived),
		State:   st.Clone(),
	}
	for _, r := range derived {
		v.Rows = append(v.Rows, NewRowView(r, loc))
	}
	if v.Total == 0 {
		v.Empty = true
		v.Message = EmptyMessage
	}
	return v
}

// NewRowView formats one record with the table layout.
func NewRowView(r calls.Record, loc *time.Location) RowView {
	row := RowView{
		ID:                r.ID,
		PhoneNumber:       r.PhoneNumber,
		Duration:          calls.FormatDuration(r.Seconds()),
		DurationSeconds:   r.Duration,
		CallType:          r.CallType,
		AppointmentBooked: r.AppointmentLabel(),
		Rating:            "N/A",
		CallTimeISO:       r.CallTime,
		HasTranscript:     r.HasTranscript(),
		HasRecording:      r.HasRecording(),
	}
	if r.Rating > 0 {
		row.Rating = strconv.Itoa(r.Rating)
	}
	if !r.CallTime.IsZero() {
		row.CallTime = r.CallTime.In(loc).Format(calls.LayoutTable)
	}
	return row
}
