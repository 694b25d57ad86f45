package analytics

import (
	"math"
	"time"

	"chanlytics/internal/calls"
)

// Aggregations are pure reductions over an already-windowed slice.
// Empty input yields zero values, never an error.

// DayCount is one bar of the call volume chart.
type DayCount struct {
	Date  string `json:"date"`
	Calls int    `json:"calls"`
}

// VolumeDays is the length of the volume series.
const VolumeDays = 7

func TotalCalls(records []calls.Record) int { return len(records) }

func AppointmentsBooked(records []calls.Record) int {
	n := 0
	for _, r := range records {
		if r.AppointmentBooked {
			n++
		}
	}
	return n
}

// AverageDuration is the mean length of connected calls, rounded to the
// nearest second. Missed calls and calls without a positive duration are
// not connected.
func AverageDuration(records []calls.Record) int {
	total, n := 0, 0
	for _, r := range records {
		if r.CallType == calls.CallTypeMissed || r.Seconds() <= 0 {
			continue
		}
		total += r.Seconds()
		n++
	}
	if n == 0 {
		return 0
	}
	return int(math.Floor(float64(total)/float64(n) + 0.5))
}

// AverageRating is the mean of rated calls rounded to one decimal place.
func AverageRating(records []calls.Record) float64 {
	total, n := 0, 0
	for _, r := range records {
		if r.Rating <= 0 {
			continue
		}
		total += r.Rating
		n++
	}
	if n == 0 {
		return 0
	}
	return math.Round(float64(total)/float64(n)*10) / 10
}

// DailyVolume counts calls per calendar day in loc for today and the six
// preceding days, oldest first. All seven buckets are present even when
// empty.
func DailyVolume(records []calls.Record, now time.Time, loc *time.Location) []DayCount {
	if loc == nil {
		loc = time.UTC
	}
	today := startOfDay(now, loc)

	out := make([]DayCount, VolumeDays)
	index := make(map[string]int, VolumeDays)
	for i := 0; i < VolumeDays; i++ {
		day := today.AddDate(0, 0, i-(VolumeDays-1))
		out[i] = DayCount{Date: day.Format(calls.LayoutDay)}
		index[day.Format(calls.LayoutDate)] = i
	}

	for _, r := range records {
		if r.CallTime.IsZero() {
			continue
		}
		if i, ok := index[r.CallTime.In(loc).Format(calls.LayoutDate)]; ok {
			out[i].Calls++
		}
	}
	return out
}

// RecordsInLastNDays keeps records on or after the start of the day n-1
// days before now, i.e. an inclusive window of n calendar days ending today.
func RecordsInLastNDays(records []calls.Record, n int, now time.Time, loc *time.Location) []calls.Record {
	if loc == nil {
		loc = time.UTC
	}
	if n < 1 {
		n = 1
	}
	from := startOfDay(now, loc).AddDate(0, 0, -(n - 1))

	out := make([]calls.Record, 0, len(records))
	for _, r := range records {
		if r.CallTime.Before(from) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
