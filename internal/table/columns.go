package table

// ColumnKey names a record field or a pseudo-column of the call log.
type ColumnKey string

const (
	ColumnID                ColumnKey = "id"
	ColumnPhoneNumber       ColumnKey = "phoneNumber"
	ColumnDuration          ColumnKey = "duration"
	ColumnCallType          ColumnKey = "callType"
	ColumnAppointmentBooked ColumnKey = "appointmentBooked"
	ColumnRating            ColumnKey = "rating"
	ColumnCallTime          ColumnKey = "callTime"
	ColumnTranscript        ColumnKey = "transcript"
	ColumnRecordingURL      ColumnKey = "recordingUrl"

	// ColumnActions holds the "View" button. It has no value and never sorts.
	ColumnActions ColumnKey = "actions"
)

// Column describes one rendered column of the call log.
type Column struct {
	Key      ColumnKey `json:"key"`
	Label    string    `json:"label"`
	Sortable bool      `json:"sortable"`

	// HighPriority columns stay visible on narrow viewports and cannot be
	// hidden once the visible count reaches MinVisibleColumns.
	HighPriority bool `json:"high_priority"`
}

// Columns is the call log layout in display order.
var Columns = []Column{
	{Key: ColumnPhoneNumber, Label: "Phone Number", Sortable: true, HighPriority: true},
	{Key: ColumnDuration, Label: "Duration", Sortable: true},
	{Key: ColumnCallType, Label: "Call Type", Sortable: true},
	{Key: ColumnAppointmentBooked, Label: "Appointment", Sortable: true},
	{Key: ColumnRating, Label: "Rating", Sortable: true},
	{Key: ColumnCallTime, Label: "Call Time", Sortable: true, HighPriority: true},
	{Key: ColumnActions, Label: "Actions", HighPriority: true},
}

// LookupColumn finds a rendered column by key.
func LookupColumn(key ColumnKey) (Column, bool) {
	for _, c := range Columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column{}, false
}

// sortableFields are record fields that can be ordered, including ones
// that are not rendered as columns.
var sortableFields = map[ColumnKey]struct{}{
	ColumnID:                {},
	ColumnPhoneNumber:       {},
	ColumnDuration:          {},
	ColumnCallType:          {},
	ColumnAppointmentBooked: {},
	ColumnRating:            {},
	ColumnCallTime:          {},
	ColumnTranscript:        {},
	ColumnRecordingURL:      {},
}

// IsSortable reports whether key can be used as a sort key.
func IsSortable(key ColumnKey) bool {
	_, ok := sortableFields[key]
	return ok
}
