// Package storagetest holds the behaviour every offender store backend must share.
package storagetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/rohmanhakim/canonurl/internal/offender"
	"github.com/rohmanhakim/canonurl/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty backend. Cleanup is the factory's responsibility.
type Factory func(t *testing.T) storage.Backend

// Run exercises the offender.Store contract against backends produced by newBackend.
func Run(t *testing.T, newBackend Factory) {
	t.Run("empty store", func(t *testing.T) {
		backend := newBackend(t)

		records, err := backend.All(context.Background())
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("upsert then all", func(t *testing.T) {
		backend := newBackend(t)
		ctx := context.Background()

		require.NoError(t, backend.Upsert(ctx, offender.NewRecord("youtube.com")))
		require.NoError(t, backend.Upsert(ctx, offender.NewRecord("news.ycombinator.com", "id")))

		records := sortedRecords(t, backend)
		require.Len(t, records, 2)
		assert.Equal(t, "news.ycombinator.com", records[0].Hostname)
		assert.Equal(t, []string{"id"}, records[0].SignificantKeys)
		assert.Equal(t, "youtube.com", records[1].Hostname)
		assert.Empty(t, records[1].SignificantKeys)
	})

	t.Run("upsert unions keys", func(t *testing.T) {
		backend := newBackend(t)
		ctx := context.Background()

		require.NoError(t, backend.Upsert(ctx, offender.NewRecord("youtube.com", "v")))
		require.NoError(t, backend.Upsert(ctx, offender.NewRecord("youtube.com", "list", "v")))
		require.NoError(t, backend.Upsert(ctx, offender.NewRecord("youtube.com")))

		records := sortedRecords(t, backend)
		require.Len(t, records, 1)
		assert.Equal(t, []string{"list", "v"}, records[0].SignificantKeys)
	})

	t.Run("concurrent upserts never lose keys", func(t *testing.T) {
		backend := newBackend(t)
		ctx := context.Background()

		const writers = 16
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, backend.Upsert(ctx, offender.NewRecord("youtube.com", fmt.Sprintf("k%02d", i))))
			}(i)
		}
		wg.Wait()

		records := sortedRecords(t, backend)
		require.Len(t, records, 1)
		assert.Len(t, records[0].SignificantKeys, writers)
	})

	t.Run("registry rebuilds from store", func(t *testing.T) {
		backend := newBackend(t)
		ctx := context.Background()

		writer := offender.NewRegistry(backend, nil)
		require.NoError(t, writer.Register(ctx, "www.YouTube.com", "v"))
		require.NoError(t, offender.Seed(ctx, backend, offender.DefaultBootstrap(), 2))

		reader := offender.NewRegistry(backend, nil)
		require.NoError(t, reader.RebuildCacheFromStore(ctx))

		assert.Equal(t, len(offender.DefaultBootstrap()), reader.Len())
		keys, ok := reader.SignificantKeysFor("youtube.com")
		require.True(t, ok)
		assert.Equal(t, []string{"v"}, keys)
	})
}

func sortedRecords(t *testing.T, backend storage.Backend) []offender.Record {
	t.Helper()
	records, err := backend.All(context.Background())
	require.NoError(t, err)
	for i := range records {
		records[i] = offender.NewRecord(records[i].Hostname, records[i].SignificantKeys...)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Hostname < records[j].Hostname
	})
	return records
}
