package billing

import (
	"context"
	"fmt"
	"time"

	"chanlytics/internal/calls"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// PeriodDays is the billing window.
	PeriodDays = 30

	DefaultRatePerMinuteMinor int64 = 50
	DefaultCurrency                 = "USD"
)

// Rate is a flat per-minute price in minor units.
type Rate struct {
	PerMinuteMinor int64
	Currency       string
}

// Estimate is the usage-based cost over the billing window. It is computed
// on demand and never stored.
type Estimate struct {
	PeriodDays   int       `json:"period_days"`
	PeriodStart  time.Time `json:"period_start"`
	PeriodEnd    time.Time `json:"period_end"`
	Calls        int       `json:"calls"`
	TotalSeconds int       `json:"total_seconds"`
	TotalMinutes int       `json:"total_minutes"`

	RatePerMinuteMinor int64  `json:"rate_per_minute_minor"`
	CostMinor          int64  `json:"cost_minor"`
	Currency           string `json:"currency"`
	Formatted          string `json:"formatted"`
}

// Calculate sums every record's duration (missed calls included), rounds
// the minutes to nearest and prices them at the flat rate.
func Calculate(records []calls.Record, rate Rate) Estimate {
	if rate.Currency == "" {
		rate.Currency = DefaultCurrency
	}
	total := 0
	for _, r := range records {
		total += r.Seconds()
	}
	minutes := roundedMinutes(total)
	cost := rate.PerMinuteMinor * int64(minutes)

	return Estimate{
		PeriodDays:         PeriodDays,
		Calls:              len(records),
		TotalSeconds:       total,
		TotalMinutes:       minutes,
		RatePerMinuteMinor: rate.PerMinuteMinor,
		CostMinor:          cost,
		Currency:           rate.Currency,
		Formatted:          FormatMinor(cost, rate.Currency),
	}
}

func roundedMinutes(sec int) int {
	if sec <= 0 {
		return 0
	}
	return (sec + 30) / 60
}

var printer = message.NewPrinter(language.AmericanEnglish)

// FormatMinor renders minor units as en-US money, e.g. "$1,234.50".
func FormatMinor(minor int64, currency string) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	amount := printer.Sprintf("%d", minor/100) + fmt.Sprintf(".%02d", minor%100)
	if currency == "" || currency == DefaultCurrency {
		return sign + "$" + amount
	}
	return sign + currency + " " + amount
}

// Fetcher loads the records of the last days.
type Fetcher interface {
	Fetch(ctx context.Context, days int) []calls.Record
}

// Service produces estimates for the signed-in user's calls.
type Service struct {
	source Fetcher
	rate   Rate
	clock  func() time.Time
}

func NewService(source Fetcher, rate Rate) *Service {
	if rate.Currency == "" {
		rate.Currency = DefaultCurrency
	}
	return &Service{source: source, rate: rate, clock: time.Now}
}

func (s *Service) Estimate(ctx context.Context) Estimate {
	now := s.clock().UTC()
	est := Calculate(s.source.Fetch(ctx, PeriodDays), s.rate)
	est.PeriodEnd = now
	est.PeriodStart = now.AddDate(0, 0, -PeriodDays)
	return est
}
