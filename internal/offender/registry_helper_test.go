package offender_test

import (
	"context"
	"sync"
	"time"

	"github.com/rohmanhakim/canonurl/internal/metadata"
	"github.com/rohmanhakim/canonurl/internal/offender"
	"github.com/stretchr/testify/mock"
)

// storeMock is a testify mock for offender.Store
type storeMock struct {
	mock.Mock
}

func (m *storeMock) All(ctx context.Context) ([]offender.Record, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]offender.Record)
	return records, args.Error(1)
}

func (m *storeMock) Upsert(ctx context.Context, rec offender.Record) error {
	return m.Called(ctx, rec).Error(0)
}

// unionStore is a minimal in-memory offender.Store honoring the union contract
type unionStore struct {
	mu      sync.Mutex
	records map[string]offender.Record
	upserts int
}

func newUnionStore() *unionStore {
	return &unionStore{records: map[string]offender.Record{}}
}

func (s *unionStore) All(context.Context) ([]offender.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]offender.Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	return out, nil
}

func (s *unionStore) Upsert(_ context.Context, rec offender.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	if existing, ok := s.records[rec.Hostname]; ok {
		rec = existing.Merge(rec.SignificantKeys)
	}
	s.records[rec.Hostname] = rec
	return nil
}

// blockingStore holds All until release is closed, counting calls
type blockingStore struct {
	entered chan struct{}
	release chan struct{}
	mu      sync.Mutex
	calls   int
}

func (s *blockingStore) All(context.Context) ([]offender.Record, error) {
	s.mu.Lock()
	s.calls++
	first := s.calls == 1
	s.mu.Unlock()
	if first {
		close(s.entered)
	}
	<-s.release
	return []offender.Record{offender.NewRecord("youtube.com")}, nil
}

func (s *blockingStore) Upsert(context.Context, offender.Record) error {
	return nil
}

// metadataSinkMock is a hand-written test double for metadata.MetadataSink
type metadataSinkMock struct {
	mu            sync.Mutex
	errors        []recordedError
	registrations []recordedRegistration
	rebuilds      []int
}

type recordedError struct {
	packageName string
	action      string
	cause       metadata.ErrorCause
	details     string
	attrs       []metadata.Attribute
}

type recordedRegistration struct {
	hostname  string
	keys      []string
	persisted bool
}

func (m *metadataSinkMock) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause metadata.ErrorCause,
	details string,
	attrs []metadata.Attribute,
) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, recordedError{
		packageName: packageName,
		action:      action,
		cause:       cause,
		details:     details,
		attrs:       attrs,
	})
}

func (m *metadataSinkMock) RecordRegistration(hostname string, keys []string, persisted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registrations = append(m.registrations, recordedRegistration{
		hostname:  hostname,
		keys:      keys,
		persisted: persisted,
	})
}

func (m *metadataSinkMock) RecordRebuild(entries int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rebuilds = append(m.rebuilds, entries)
}

func (m *metadataSinkMock) RecordCollision(canonical string, firstURL string, secondURL string, keys []string) {
}
