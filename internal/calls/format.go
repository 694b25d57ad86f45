package calls

import "fmt"

// Display layouts.
const (
	// LayoutLong is the full rendering used for search matching and the detail header.
	LayoutLong = "Jan 2, 2006, 3:04:05 PM"
	// LayoutTable is the call-time cell format.
	LayoutTable = "Jan 2, 2006 15:04"
	// LayoutDay labels a bucket of the volume chart.
	LayoutDay = "Jan 2"
	// LayoutDate is used in file names.
	LayoutDate = "2006-01-02"
)

// FormatDuration renders seconds as MM:SS. Minutes are not wrapped at 60.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		return "00:00"
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
