package source

import (
	"context"
	"log/slog"
	"time"

	"chanlytics/internal/calls"
	"chanlytics/internal/metrics"
	"chanlytics/pkg/logger"
)

// DefaultWindowDays is the fetch window used when the caller passes <= 0.
const DefaultWindowDays = 30

// Source is the single entry point for loading call records.
//
// Fetch never fails: a transport or decoding error is logged, counted, and
// turned into an empty list. Callers cannot tell a failed fetch from a
// window with no calls.
type Source struct {
	repo    calls.Repository
	metrics *metrics.Metrics
	clock   func() time.Time

	defaultDays int
}

type Option func(*Source)

// WithClock overrides time.Now, for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Source) { s.clock = clock }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Source) { s.metrics = m }
}

// WithDefaultWindow sets the window used when Fetch gets days <= 0.
func WithDefaultWindow(days int) Option {
	return func(s *Source) {
		if days > 0 {
			s.defaultDays = days
		}
	}
}

func New(repo calls.Repository, opts ...Option) *Source {
	s := &Source{repo: repo, clock: time.Now, defaultDays: DefaultWindowDays}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Fetch returns records started within the last days, newest first.
func (s *Source) Fetch(ctx context.Context, days int) []calls.Record {
	if days <= 0 {
		days = s.defaultDays
	}
	since := s.clock().AddDate(0, 0, -days)
	log := logger.From(ctx)

	records, err := s.repo.ListSince(ctx, since)
	s.metrics.ObserveFetch(err, len(records))
	if err != nil {
		log.Error("fetch calls failed", slog.Int("window_days", days), slog.Any("err", err))
		return []calls.Record{}
	}
	if records == nil {
		records = []calls.Record{}
	}
	log.Debug("fetched calls", slog.Int("window_days", days), slog.Int("count", len(records)))
	return records
}
