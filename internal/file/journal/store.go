package journal

import (
	"context"
	"errors"
	"slices"
	"sync"

	id "filetrack/pkg/domain"
)

// Sink receives journal events.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Reader returns a file's journal in append order.
type Reader interface {
	ListByFile(ctx context.Context, fileID id.FileID) ([]Event, error)
}

// MemoryStore keeps journals in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[id.FileID][]Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[id.FileID][]Event)}
}

func (s *MemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.FileID] = append(s.events[event.FileID], event)
	return nil
}

func (s *MemoryStore) ListByFile(_ context.Context, fileID id.FileID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.events[fileID]), nil
}

// Tee fans an event out to every sink and joins their errors.
type Tee []Sink

func (t Tee) Append(ctx context.Context, event Event) error {
	var errs []error
	for _, s := range t {
		if err := s.Append(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
