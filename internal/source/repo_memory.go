package source

import (
	"context"
	"sort"
	"sync"
	"time"

	"chanlytics/internal/calls"
)

// MemoryRepo is an in-memory call repository for tests and local development.
type MemoryRepo struct {
	mu sync.Mutex

	Records []calls.Record

	// Err, when set, is returned by every ListSince call.
	Err error
}

func NewMemoryRepo(records ...calls.Record) *MemoryRepo {
	return &MemoryRepo{Records: records}
}

func (r *MemoryRepo) ListSince(ctx context.Context, since time.Time) ([]calls.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	out := make([]calls.Record, 0, len(r.Records))
	for _, c := range r.Records {
		if c.CallTime.Before(since) {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CallTime.After(out[j].CallTime) })
	return out, nil
}

func (r *MemoryRepo) Set(records []calls.Record, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Records = records
	r.Err = err
}
