package identity_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rohmanhakim/canonurl/internal/identity"
	"github.com/rohmanhakim/canonurl/internal/metadata"
	"github.com/rohmanhakim/canonurl/internal/normalize"
	"github.com/rohmanhakim/canonurl/internal/offender"
	"github.com/rohmanhakim/canonurl/pkg/hashutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type registrarMock struct {
	mock.Mock
}

func (m *registrarMock) Register(ctx context.Context, hostname string, keys ...string) error {
	args := m.Called(ctx, hostname, keys)
	return args.Error(0)
}

type recordedCollision struct {
	canonical string
	first     string
	second    string
	keys      []string
}

type metadataSinkMock struct {
	mu         sync.Mutex
	errors     []metadata.ErrorCause
	collisions []recordedCollision
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
	m.errors = append(m.errors, cause)
}

func (m *metadataSinkMock) RecordRegistration(hostname string, keys []string, persisted bool) {}

func (m *metadataSinkMock) RecordRebuild(entries int, duration time.Duration) {}

func (m *metadataSinkMock) RecordCollision(canonical string, firstURL string, secondURL string, keys []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collisions = append(m.collisions, recordedCollision{
		canonical: canonical,
		first:     firstURL,
		second:    secondURL,
		keys:      keys,
	})
}

// newLearningResolver wires a resolver to a real registry and normalizer.
func newLearningResolver(t *testing.T, sink metadata.MetadataSink) (*identity.Resolver, *offender.Registry) {
	t.Helper()
	registry := offender.NewRegistry(nil, nil)
	normalizer := normalize.NewNormalizer(registry, nil, nil)
	resolver, err := identity.NewResolver(normalizer, registry, hashutil.HashAlgoSHA256, 16, time.Minute, sink)
	require.NoError(t, err)
	return resolver, registry
}
