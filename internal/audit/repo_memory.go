package audit

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory append-only repository. It keeps at most
// perUser events per user and drops the oldest beyond that.
type MemoryRepo struct {
	mu      sync.Mutex
	perUser int
	events  map[string][]Event
}

func NewMemoryRepo(perUser int) *MemoryRepo {
	if perUser <= 0 {
		perUser = DefaultListLimit
	}
	return &MemoryRepo{perUser: perUser, events: map[string][]Event{}}
}

func (r *MemoryRepo) Append(ctx context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	evs := append(r.events[e.UserID], e)
	if len(evs) > r.perUser {
		evs = append([]Event(nil), evs[len(evs)-r.perUser:]...)
	}
	r.events[e.UserID] = evs
	return nil
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit int) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	evs := r.events[userID]
	out := make([]Event, 0, min(limit, len(evs)))
	for i := len(evs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, evs[i])
	}
	return out, nil
}
