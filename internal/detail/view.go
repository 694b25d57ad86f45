package detail

import (
	"time"

	"chanlytics/internal/calls"
)

const (
	NoTranscriptMessage = "No transcript available for this call."
	NoRecordingMessage  = "No recording available for this call."
)

// View is the detail panel for one call.
type View struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Transcript  Transcript `json:"transcript"`
	Recording   Audio      `json:"recording"`
}

type Transcript struct {
	Available bool   `json:"available"`
	Text      string `json:"text,omitempty"`
	Message   string `json:"message,omitempty"`
}

type Audio struct {
	Available bool   `json:"available"`
	URL       string `json:"url,omitempty"`
	Filename  string `json:"filename,omitempty"`
	Message   string `json:"message,omitempty"`
}

// NewView builds the detail panel. The transcript is passed through verbatim.
func NewView(r calls.Record, loc *time.Location) View {
	if loc == nil {
		loc = time.UTC
	}
	v := View{
		ID:    r.ID,
		Title: "Call Details: " + r.PhoneNumber,
	}
	if r.CallTime.IsZero() {
		v.Description = "Transcript and recording for this call."
	} else {
		v.Description = "Transcript and recording for the call on " + r.CallTime.In(loc).Format(calls.LayoutLong) + "."
	}

	if r.HasTranscript() {
		v.Transcript = Transcript{Available: true, Text: *r.Transcript}
	} else {
		v.Transcript = Transcript{Message: NoTranscriptMessage}
	}

	if r.HasRecording() {
		v.Recording = Audio{
			Available: true,
			URL:       *r.RecordingURL,
			Filename:  Filename(r, ExtFromURL(*r.RecordingURL), loc),
		}
	} else {
		v.Recording = Audio{Message: NoRecordingMessage}
	}
	return v
}
