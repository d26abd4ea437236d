package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/rohmanhakim/canonurl/internal/offender"
)

// MemoryStore is an in-memory implementation of offender.Store.
// It uses a map for storage and provides thread-safe operations via RWMutex.
//
// Nothing is persisted: the store lives only as long as the process.
// It backs tests and the "memory" driver.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]offender.Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]offender.Record),
	}
}

// All returns every record sorted by hostname.
func (s *MemoryStore) All(ctx context.Context) ([]offender.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewError(DriverMemory, ErrCauseReadFailure, "context done", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]offender.Record, 0, len(s.data))
	for _, rec := range s.data {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Hostname < records[j].Hostname
	})
	return records, nil
}

// Upsert unions rec's keys into the stored record under the write lock.
func (s *MemoryStore) Upsert(ctx context.Context, rec offender.Record) error {
	if err := ctx.Err(); err != nil {
		return NewError(DriverMemory, ErrCauseWriteFailure, "context done", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.data[rec.Hostname]; ok {
		rec = existing.Merge(rec.SignificantKeys)
	} else {
		rec = offender.NewRecord(rec.Hostname, rec.SignificantKeys...)
	}
	s.data[rec.Hostname] = rec
	return nil
}

// Clear removes all entries from the store.
// This method is primarily useful for testing.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string]offender.Record)
}

// Size returns the number of stored records.
func (s *MemoryStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.data)
}

func (s *MemoryStore) Close() error {
	return nil
}
