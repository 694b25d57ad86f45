package auth

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory. Sessions are lost on restart.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]memoryItem
	clock func() time.Time

	// PingErr, when set, is returned by Ping.
	PingErr error
}

type memoryItem struct {
	session Session
	expires time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: map[string]memoryItem{}, clock: time.Now}
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.PingErr
}

func (s *MemoryStore) Save(ctx context.Context, sess Session, ttl time.Duration) error {
	if sess.ID == "" {
		return errors.New("session id required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[sess.ID] = memoryItem{session: sess, expires: s.clock().Add(ttl)}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return Session{}, false, nil
	}
	if !s.clock().Before(it.expires) {
		delete(s.items, id)
		return Session{}, false, nil
	}
	return it.session, true, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}
