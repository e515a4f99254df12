package store

import (
	"context"
	"sync"
	"time"

	"github.com/nsit-tools/attendance-dashboard/internal/view"
)

type entry struct {
	state     view.State
	expiresAt time.Time
}

// MemoryStore is an in-process Store. Expired entries are invisible to Get
// and removed by a periodic sweep.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates a MemoryStore and starts its sweeper, which stops
// when ctx is cancelled.
func NewMemoryStore(ctx context.Context, ttl time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]*entry),
		ttl:     ttl,
		now:     time.Now,
	}

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()

	return s
}

func (s *MemoryStore) Get(_ context.Context, visitorID string) (view.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[visitorID]
	if !ok || !s.now().Before(e.expiresAt) {
		return view.State{}, ErrNotFound
	}
	return e.state, nil
}

func (s *MemoryStore) Put(_ context.Context, visitorID string, st view.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[visitorID] = &entry{state: st, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, visitorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, visitorID)
	return nil
}

// Len returns the number of live entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	now := s.now()
	for _, e := range s.entries {
		if now.Before(e.expiresAt) {
			n++
		}
	}
	return n
}

func (s *MemoryStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, id)
		}
	}
}
