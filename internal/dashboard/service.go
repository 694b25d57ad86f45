package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"chanlytics/internal/analytics"
	"chanlytics/internal/calls"
	"chanlytics/internal/detail"
	"chanlytics/internal/metrics"
	"chanlytics/internal/source"
	"chanlytics/internal/table"
	"chanlytics/pkg/logger"
)

var (
	ErrCallNotFound = errors.New("dashboard: call not found")
	ErrNoSessionID  = errors.New("dashboard: session id required")
)

// Fetcher loads the records of the last days. It never fails; an empty
// slice stands for both "no calls" and "fetch failed".
type Fetcher interface {
	Fetch(ctx context.Context, days int) []calls.Record
}

// Snapshot is one applied fetch result.
type Snapshot struct {
	Generation uint64
	FetchedAt  time.Time
	Records    []calls.Record
}

type workspace struct {
	mu sync.Mutex

	// issued is the newest generation handed out; only its result is applied.
	issued   uint64
	snapshot *Snapshot
	state    table.State
	lastUsed time.Time
}

// Service keeps one view workspace per session: the latest snapshot and
// the table state derived from it.
type Service struct {
	source     Fetcher
	metrics    *metrics.Metrics
	loc        *time.Location
	clock      func() time.Time
	windowDays int

	mu         sync.Mutex
	workspaces map[string]*workspace
}

type Option func(*Service)

func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithWindowDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.windowDays = days
		}
	}
}

func NewService(src Fetcher, opts ...Option) *Service {
	s := &Service{
		source:     src,
		loc:        time.UTC,
		clock:      time.Now,
		windowDays: source.DefaultWindowDays,
		workspaces: map[string]*workspace{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) Location() *time.Location { return s.loc }

func (s *Service) workspace(sessionID string) *workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.workspaces[sessionID]
	if !ok {
		ws = &workspace{state: table.NewState(0)}
		s.workspaces[sessionID] = ws
	}
	ws.lastUsed = s.clock()
	return ws
}

func (s *Service) current(sessionID string, ws *workspace) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workspaces[sessionID] == ws
}

// Refresh fetches a new snapshot for the session. The request is stamped
// with a generation; when it completes after a newer one was issued, the
// result is dropped and the method reports applied=false.
func (s *Service) Refresh(ctx context.Context, sessionID, token string) (Snapshot, bool, error) {
	if sessionID == "" {
		return Snapshot{}, false, ErrNoSessionID
	}
	ws := s.workspace(sessionID)

	ws.mu.Lock()
	ws.issued++
	gen := ws.issued
	ws.mu.Unlock()

	records := s.source.Fetch(source.WithAccessToken(ctx, token), s.windowDays)

	ws.mu.Lock()
	defer ws.mu.Unlock()
	if gen != ws.issued || !s.current(sessionID, ws) {
		s.metrics.ObserveStale()
		logger.From(ctx).Debug("dropped stale snapshot",
			slog.String("session_id", sessionID),
			slog.Uint64("generation", gen),
			slog.Uint64("latest", ws.issued))
		if ws.snapshot != nil {
			return *ws.snapshot, false, nil
		}
		return Snapshot{}, false, nil
	}

	snap := &Snapshot{Generation: gen, FetchedAt: s.clock(), Records: records}
	ws.snapshot = snap
	// record identity changed: selection, sort and filters no longer apply
	ws.state.Reset()
	return *snap, true, nil
}

// ensure returns the workspace with a snapshot, fetching one if needed.
func (s *Service) ensure(ctx context.Context, sessionID, token string) (*workspace, error) {
	if sessionID == "" {
		return nil, ErrNoSessionID
	}
	ws := s.workspace(sessionID)
	ws.mu.Lock()
	has := ws.snapshot != nil
	ws.mu.Unlock()
	if !has {
		if _, _, err := s.Refresh(ctx, sessionID, token); err != nil {
			return nil, err
		}
		ws = s.workspace(sessionID)
	}
	return ws, nil
}

// Overview is the dashboard landing payload.
type Overview struct {
	Generation uint64         `json:"generation"`
	FetchedAt  time.Time      `json:"fetched_at"`
	Stale      bool           `json:"stale"`
	KPIs       analytics.KPIs `json:"kpis"`
	Table      table.View     `json:"table"`
}

// Overview refreshes the snapshot and returns the weekly KPIs, the volume
// series and the derived table.
func (s *Service) Overview(ctx context.Context, sessionID, token string) (Overview, error) {
	_, applied, err := s.Refresh(ctx, sessionID, token)
	if err != nil {
		return Overview{}, err
	}
	ws := s.workspace(sessionID)
	ws.mu.Lock()
	defer ws.mu.Unlock()

	var snap Snapshot
	if ws.snapshot != nil {
		snap = *ws.snapshot
	}
	return Overview{
		Generation: snap.Generation,
		FetchedAt:  snap.FetchedAt,
		Stale:      !applied,
		KPIs:       analytics.Summarize(snap.Records, s.clock(), s.loc),
		Table:      table.Render(snap.Records, ws.state, s.loc),
	}, nil
}

// Table renders the current snapshot, fetching one if none exists yet.
func (s *Service) Table(ctx context.Context, sessionID, token string) (table.View, error) {
	ws, err := s.ensure(ctx, sessionID, token)
	if err != nil {
		return table.View{}, err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return table.Render(ws.records(), ws.state, s.loc), nil
}

// Apply runs view events against the session's table state.
func (s *Service) Apply(ctx context.Context, sessionID, token string, e table.Event) (table.View, table.Outcome, error) {
	ws, err := s.ensure(ctx, sessionID, token)
	if err != nil {
		return table.View{}, table.Outcome{}, err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	out := ws.state.Apply(e)
	return table.Render(ws.records(), ws.state, s.loc), out, nil
}

// Detail selects a call and returns its detail view.
func (s *Service) Detail(ctx context.Context, sessionID, token, callID string) (detail.View, error) {
	ws, err := s.ensure(ctx, sessionID, token)
	if err != nil {
		return detail.View{}, err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	r, ok := ws.find(callID)
	if !ok {
		return detail.View{}, ErrCallNotFound
	}
	ws.state.Select(callID)
	return detail.NewView(r, s.loc), nil
}

// Record looks a call up in the current snapshot.
func (s *Service) Record(ctx context.Context, sessionID, token, callID string) (calls.Record, error) {
	ws, err := s.ensure(ctx, sessionID, token)
	if err != nil {
		return calls.Record{}, err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	r, ok := ws.find(callID)
	if !ok {
		return calls.Record{}, ErrCallNotFound
	}
	return r, nil
}

// Rows returns the derived rows and visible columns, as shown in the table.
func (s *Service) Rows(ctx context.Context, sessionID, token string) ([]calls.Record, []table.Column, error) {
	ws, err := s.ensure(ctx, sessionID, token)
	if err != nil {
		return nil, nil, err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return table.Derive(ws.records(), ws.state, s.loc), table.VisibleColumns(ws.state.Visibility), nil
}

// Forget drops the session's workspace. An in-flight refresh for it will
// be discarded when it completes.
func (s *Service) Forget(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.workspaces, sessionID)
}

// Sweep forgets workspaces idle for longer than maxIdle and reports how
// many were removed.
func (s *Service) Sweep(maxIdle time.Duration) int {
	cutoff := s.clock().Add(-maxIdle)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, ws := range s.workspaces {
		if ws.lastUsed.Before(cutoff) {
			delete(s.workspaces, id)
			n++
		}
	}
	return n
}

// RunJanitor sweeps idle workspaces every interval until ctx is done.
func (s *Service) RunJanitor(ctx context.Context, interval, maxIdle time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.Sweep(maxIdle); n > 0 {
				logger.From(ctx).Debug("swept idle workspaces", slog.Int("count", n))
			}
		}
	}
}

func (ws *workspace) records() []calls.Record {
	if ws.snapshot == nil {
		return nil
	}
	return ws.snapshot.Records
}

func (ws *workspace) find(id string) (calls.Record, bool) {
	for _, r := range ws.records() {
		if r.ID == id {
			return r, true
		}
	}
	return calls.Record{}, false
}
