package badgerstore

import (
	"context"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/rohmanhakim/canonurl/internal/offender"
	"github.com/rohmanhakim/canonurl/internal/storage"
	"github.com/rohmanhakim/canonurl/internal/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_Contract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Backend {
		return newTestStore(t)
	})
}

func TestStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := Open(dir, nil)
	require.NoError(t, err)
	require.NoError(t, first.Upsert(ctx, offender.NewRecord("news.ycombinator.com", "id")))
	require.NoError(t, first.Close())

	second, err := Open(dir, nil)
	require.NoError(t, err)
	defer second.Close()

	records, err := second.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []offender.Record{offender.NewRecord("news.ycombinator.com", "id")}, records)
}

func TestStore_CorruptValue(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(offenderPrefix+"broken.com"), []byte("{not json"))
	}))

	_, err := s.All(context.Background())

	var storageErr *storage.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, storage.ErrCauseDecodeFailure, storageErr.Cause)
	assert.False(t, storageErr.IsRetryable())
}

func TestStore_IgnoresForeignKeys(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("other:thing"), []byte("x"))
	}))
	require.NoError(t, s.Upsert(context.Background(), offender.NewRecord("youtube.com", "v")))

	records, err := s.All(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "youtube.com", records[0].Hostname)
}
