package offender_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rohmanhakim/canonurl/internal/metadata"
	"github.com/rohmanhakim/canonurl/internal/offender"
	"github.com/rohmanhakim/canonurl/pkg/failure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRegister_VisibleImmediately(t *testing.T) {
	registry := offender.NewRegistry(nil, &metadataSinkMock{})

	assert.False(t, registry.IsOffender("youtube.com"))

	require.NoError(t, registry.Register(context.Background(), "youtube.com"))

	assert.True(t, registry.IsOffender("youtube.com"))
	keys, ok := registry.SignificantKeysFor("youtube.com")
	assert.True(t, ok)
	assert.Empty(t, keys)
}

func TestRegister_NormalizesHostname(t *testing.T) {
	registry := offender.NewRegistry(nil, nil)

	require.NoError(t, registry.Register(context.Background(), "WWW.YouTube.com", "v"))

	assert.True(t, registry.IsOffender("youtube.com"))
	assert.True(t, registry.IsOffender("www.youtube.com"))
	assert.Equal(t, 1, registry.Len())
}

func TestRegister_UnionSemantics(t *testing.T) {
	registry := offender.NewRegistry(nil, nil)
	ctx := context.Background()

	require.NoError(t, registry.Register(ctx, "youtube.com", "v"))
	require.NoError(t, registry.Register(ctx, "youtube.com", "list"))
	require.NoError(t, registry.Register(ctx, "youtube.com"))

	keys, ok := registry.SignificantKeysFor("youtube.com")
	require.True(t, ok)
	assert.Equal(t, []string{"list", "v"}, keys)
}

func TestRegister_EmptyHostname(t *testing.T) {
	sink := &metadataSinkMock{}
	registry := offender.NewRegistry(nil, sink)

	err := registry.Register(context.Background(), "   ", "v")

	var regErr *offender.RegistryError
	require.True(t, errors.As(err, &regErr))
	assert.Equal(t, offender.ErrCauseInvalidHostname, regErr.Cause)
	assert.Equal(t, failure.SeverityFatal, regErr.Severity())
	assert.Equal(t, 0, registry.Len())
	require.Len(t, sink.errors, 1)
	assert.Equal(t, metadata.CauseContentInvalid, sink.errors[0].cause)
}

func TestRegister_WritesDeltaToStore(t *testing.T) {
	store := &storeMock{}
	store.On("Upsert", mock.Anything, offender.NewRecord("youtube.com", "v")).Return(nil).Once()
	store.On("Upsert", mock.Anything, offender.NewRecord("youtube.com", "list")).Return(nil).Once()
	sink := &metadataSinkMock{}
	registry := offender.NewRegistry(store, sink)

	require.NoError(t, registry.Register(context.Background(), "youtube.com", "v"))
	require.NoError(t, registry.Register(context.Background(), "youtube.com", "list"))

	store.AssertExpectations(t)
	require.Len(t, sink.registrations, 2)
	assert.True(t, sink.registrations[1].persisted)
}

func TestRegister_StoreFailureKeepsCache(t *testing.T) {
	storeErr := errors.New("connection refused")
	store := &storeMock{}
	store.On("Upsert", mock.Anything, mock.Anything).Return(storeErr)
	sink := &metadataSinkMock{}
	registry := offender.NewRegistry(store, sink)

	err := registry.Register(context.Background(), "youtube.com", "v")

	var regErr *offender.RegistryError
	require.True(t, errors.As(err, &regErr))
	assert.Equal(t, offender.ErrCauseStoreWrite, regErr.Cause)
	assert.Equal(t, failure.SeverityRecoverable, regErr.Severity())
	assert.ErrorIs(t, err, storeErr)

	assert.True(t, registry.IsOffender("youtube.com"), "cache update must not be rolled back")

	require.Len(t, sink.errors, 1)
	assert.Equal(t, "offender", sink.errors[0].packageName)
	assert.Equal(t, metadata.CauseStorageFailure, sink.errors[0].cause)
	require.Len(t, sink.registrations, 1)
	assert.False(t, sink.registrations[0].persisted)
}

func TestRegisterAsync(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		store := newUnionStore()
		registry := offender.NewRegistry(store, nil)

		done := registry.RegisterAsync(context.Background(), "youtube.com", "v")
		assert.True(t, registry.IsOffender("youtube.com"), "cache updated before the write completes")

		require.NoError(t, <-done)
		_, open := <-done
		assert.False(t, open, "channel closed after its single value")

		stored, err := store.All(context.Background())
		require.NoError(t, err)
		assert.Len(t, stored, 1)
	})

	t.Run("store failure", func(t *testing.T) {
		store := &storeMock{}
		store.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("down"))
		registry := offender.NewRegistry(store, nil)

		err := <-registry.RegisterAsync(context.Background(), "youtube.com")

		var regErr *offender.RegistryError
		require.True(t, errors.As(err, &regErr))
		assert.Equal(t, offender.ErrCauseStoreWrite, regErr.Cause)
		assert.True(t, registry.IsOffender("youtube.com"))
	})

	t.Run("invalid hostname", func(t *testing.T) {
		registry := offender.NewRegistry(nil, nil)

		err := <-registry.RegisterAsync(context.Background(), "")

		var regErr *offender.RegistryError
		require.True(t, errors.As(err, &regErr))
		assert.Equal(t, offender.ErrCauseInvalidHostname, regErr.Cause)
	})
}

func TestRegister_ConcurrentWritersNeverLoseKeys(t *testing.T) {
	store := newUnionStore()
	registry := offender.NewRegistry(store, nil)
	ctx := context.Background()

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			host := "youtube.com"
			if i%2 == 0 {
				host = fmt.Sprintf("host%d.com", i)
			}
			assert.NoError(t, registry.Register(ctx, host, fmt.Sprintf("k%02d", i)))
		}(i)
	}
	wg.Wait()

	keys, ok := registry.SignificantKeysFor("youtube.com")
	require.True(t, ok)
	assert.Len(t, keys, writers/2)
	assert.Equal(t, writers/2+1, registry.Len())

	require.NoError(t, registry.RebuildCacheFromStore(ctx))
	keys, _ = registry.SignificantKeysFor("youtube.com")
	assert.Len(t, keys, writers/2, "store must hold the union too")
}

func TestRebuildCacheFromStore(t *testing.T) {
	store := &storeMock{}
	store.On("All", mock.Anything).Return([]offender.Record{
		{Hostname: "WWW.YouTube.com", SignificantKeys: []string{"v"}},
		{Hostname: "youtube.com", SignificantKeys: []string{"list"}},
		{Hostname: "news.ycombinator.com", SignificantKeys: []string{"id"}},
		{Hostname: ""},
	}, nil)
	sink := &metadataSinkMock{}
	registry := offender.NewRegistry(store, sink)
	registry.ResetCache()

	require.NoError(t, registry.RebuildCacheFromStore(context.Background()))

	assert.Equal(t, 2, registry.Len())
	keys, _ := registry.SignificantKeysFor("youtube.com")
	assert.Equal(t, []string{"list", "v"}, keys)
	assert.Equal(t, []int{2}, sink.rebuilds)

	records := registry.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "news.ycombinator.com", records[0].Hostname)
}

func TestRebuildCacheFromStore_ReplacesCache(t *testing.T) {
	store := &storeMock{}
	store.On("All", mock.Anything).Return([]offender.Record{offender.NewRecord("youtube.com")}, nil)
	store.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	registry := offender.NewRegistry(store, nil)
	require.NoError(t, registry.Register(context.Background(), "cache-only.com"))

	require.NoError(t, registry.RebuildCacheFromStore(context.Background()))

	assert.True(t, registry.IsOffender("youtube.com"))
	assert.False(t, registry.IsOffender("cache-only.com"))
}

func TestRebuildCacheFromStore_FailureKeepsCache(t *testing.T) {
	store := &storeMock{}
	store.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	store.On("All", mock.Anything).Return(nil, errors.New("timeout"))
	sink := &metadataSinkMock{}
	registry := offender.NewRegistry(store, sink)
	require.NoError(t, registry.Register(context.Background(), "youtube.com"))

	err := registry.RebuildCacheFromStore(context.Background())

	var regErr *offender.RegistryError
	require.True(t, errors.As(err, &regErr))
	assert.Equal(t, offender.ErrCauseStoreRead, regErr.Cause)
	assert.True(t, registry.IsOffender("youtube.com"))
	require.Len(t, sink.errors, 1)
	assert.Equal(t, metadata.CauseStorageFailure, sink.errors[0].cause)
}

func TestRebuildCacheFromStore_CoalescesConcurrentCalls(t *testing.T) {
	store := &blockingStore{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	registry := offender.NewRegistry(store, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, registry.RebuildCacheFromStore(context.Background()))
	}()
	<-store.entered

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, registry.RebuildCacheFromStore(context.Background()))
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(store.release)
	wg.Wait()

	assert.Equal(t, 1, store.calls)
	assert.True(t, registry.IsOffender("youtube.com"))
}

func TestRebuildCacheFromStore_NoStore(t *testing.T) {
	registry := offender.NewRegistry(nil, nil)
	assert.NoError(t, registry.RebuildCacheFromStore(context.Background()))
}

func TestResetCache(t *testing.T) {
	store := newUnionStore()
	registry := offender.NewRegistry(store, nil)
	require.NoError(t, registry.Register(context.Background(), "youtube.com"))

	registry.ResetCache()

	assert.False(t, registry.IsOffender("youtube.com"))
	stored, _ := store.All(context.Background())
	assert.Len(t, stored, 1, "reset leaves the store untouched")
}

func TestLookup_ReturnsCopy(t *testing.T) {
	registry := offender.NewRegistry(nil, nil)
	require.NoError(t, registry.Register(context.Background(), "youtube.com", "v"))

	rec, ok := registry.Lookup("youtube.com")
	require.True(t, ok)
	rec.SignificantKeys[0] = "mutated"

	keys, _ := registry.SignificantKeysFor("youtube.com")
	assert.Equal(t, []string{"v"}, keys)
}
