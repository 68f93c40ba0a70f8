package store

import (
	"context"
	"sync"

	"github.com/i474232898/coffee-machine/internal/coffee"
)

// MemoryStore keeps brew records in process memory, one per machine.
// The mutex protects the map only; callers still race on read-modify-write.
type MemoryStore struct {
	mu sync.RWMutex

	// key: machine id
	data map[string]coffee.BrewRecord

	machineID string
}

// NewMemoryStore creates an empty MemoryStore for machineID.
func NewMemoryStore(machineID string) *MemoryStore {
	return &MemoryStore{
		data:      make(map[string]coffee.BrewRecord),
		machineID: machineID,
	}
}

// Get returns a copy of the stored record, or nil if none was saved yet.
func (s *MemoryStore) Get(ctx context.Context) (*coffee.BrewRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.data[s.machineID]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

// Update replaces the stored record.
func (s *MemoryStore) Update(ctx context.Context, record coffee.BrewRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[s.machineID] = record
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
