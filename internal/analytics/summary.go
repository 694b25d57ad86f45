package analytics

import (
	"time"

	"chanlytics/internal/calls"
)

// KPIWindowDays is the trailing window the dashboard cards report on.
const KPIWindowDays = 7

// KPIs are the four dashboard cards plus the volume chart series.
type KPIs struct {
	WindowDays int `json:"window_days"`

	TotalCalls         int `json:"total_calls"`
	AppointmentsBooked int `json:"appointments_booked"`

	AverageDurationSeconds int    `json:"average_duration_seconds"`
	AverageDuration        string `json:"average_duration"`

	AverageRating float64 `json:"average_rating"`

	CallVolume []DayCount `json:"call_volume"`
}

// Summarize windows records to the last seven days and computes every KPI.
func Summarize(records []calls.Record, now time.Time, loc *time.Location) KPIs {
	week := RecordsInLastNDays(records, KPIWindowDays, now, loc)

	avg := AverageDuration(week)
	return KPIs{
		WindowDays:             KPIWindowDays,
		TotalCalls:             TotalCalls(week),
		AppointmentsBooked:     AppointmentsBooked(week),
		AverageDurationSeconds: avg,
		AverageDuration:        calls.FormatDuration(avg),
		AverageRating:          AverageRating(week),
		CallVolume:             DailyVolume(week, now, loc),
	}
}
