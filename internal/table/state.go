package table

import "chanlytics/internal/calls"

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// State is the view state of one call log table.
// Every mutation goes through an event method; rows are re-derived with
// Derive after each event.
type State struct {
	Search string `json:"search"`

	// SortKey is empty when no sort is applied.
	SortKey ColumnKey     `json:"sort_key,omitempty"`
	SortDir SortDirection `json:"sort_dir"`

	// AppointmentFilter holds the selected Yes/No values; empty means no filtering.
	AppointmentFilter []string `json:"appointment_filter"`

	Visibility    Visibility `json:"visibility"`
	ViewportWidth int        `json:"viewport_width"`

	// Selected is the record ID opened in the detail view.
	Selected string `json:"selected,omitempty"`
}

// NewState returns the initial state for a viewport width.
func NewState(viewportWidth int) State {
	if viewportWidth <= 0 {
		viewportWidth = DefaultViewportWidth
	}
	return State{
		SortDir:           SortAsc,
		AppointmentFilter: []string{},
		Visibility:        SeedVisibility(viewportWidth),
		ViewportWidth:     viewportWidth,
	}
}

// Clone returns a deep copy so callers can hand state out without sharing maps.
func (s State) Clone() State {
	out := s
	out.AppointmentFilter = append([]string{}, s.AppointmentFilter...)
	out.Visibility = make(Visibility, len(s.Visibility))
	for k, v := range s.Visibility {
		out.Visibility[k] = v
	}
	return out
}

// Reset clears search, sort, filters and selection. Visibility is kept
// because it follows the viewport, not the data.
func (s *State) Reset() {
	s.Search = ""
	s.SortKey = ""
	s.SortDir = SortAsc
	s.AppointmentFilter = []string{}
	s.Selected = ""
}

func (s *State) SetSearch(term string) { s.Search = term }

// ToggleSort sorts by key ascending, or flips the direction when key is
// already the sort key. Non-sortable keys are ignored.
func (s *State) ToggleSort(key ColumnKey) bool {
	if key == ColumnActions || !IsSortable(key) {
		return false
	}
	if s.SortKey == key {
		if s.SortDir == SortAsc {
			s.SortDir = SortDesc
		} else {
			s.SortDir = SortAsc
		}
		return true
	}
	s.SortKey = key
	s.SortDir = SortAsc
	return true
}

// ToggleAppointmentFilter adds or removes a Yes/No value.
func (s *State) ToggleAppointmentFilter(value string) bool {
	if value != calls.AppointmentYes && value != calls.AppointmentNo {
		return false
	}
	for i, v := range s.AppointmentFilter {
		if v == value {
			s.AppointmentFilter = append(s.AppointmentFilter[:i:i], s.AppointmentFilter[i+1:]...)
			return true
		}
	}
	s.AppointmentFilter = append(s.AppointmentFilter, value)
	return true
}

func (s *State) Select(id string) { s.Selected = id }

func (s *State) ClearSelection() { s.Selected = "" }

// Event is a batch of view changes, applied in field order.
type Event struct {
	Search            *string   `json:"search,omitempty"`
	Sort              ColumnKey `json:"sort,omitempty"`
	ToggleAppointment string    `json:"toggle_appointment,omitempty"`
	ViewportWidth     int       `json:"viewport_width,omitempty"`
	ToggleColumn      ColumnKey `json:"toggle_column,omitempty"`

	// Select opens a record; an empty string closes the detail view.
	Select *string `json:"select,omitempty"`
}

// Outcome reports which parts of an Event were refused or ignored.
type Outcome struct {
	SortIgnored        bool `json:"sort_ignored,omitempty"`
	FilterIgnored      bool `json:"filter_ignored,omitempty"`
	ColumnRefused      bool `json:"column_refused,omitempty"`
	VisibilityReseeded bool `json:"visibility_reseeded,omitempty"`
}

// Apply runs every change carried by e.
func (s *State) Apply(e Event) Outcome {
	var out Outcome
	if e.Search != nil {
		s.SetSearch(*e.Search)
	}
	if e.Sort != "" {
		out.SortIgnored = !s.ToggleSort(e.Sort)
	}
	if e.ToggleAppointment != "" {
		out.FilterIgnored = !s.ToggleAppointmentFilter(e.ToggleAppointment)
	}
	if e.ViewportWidth > 0 {
		out.VisibilityReseeded = s.Resize(e.ViewportWidth)
	}
	if e.ToggleColumn != "" {
		out.ColumnRefused = !s.ToggleColumn(e.ToggleColumn)
	}
	if e.Select != nil {
		if *e.Select == "" {
			s.ClearSelection()
		} else {
			s.Select(*e.Select)
		}
	}
	return out
}
