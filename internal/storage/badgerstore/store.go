package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/rohmanhakim/canonurl/internal/offender"
	"github.com/rohmanhakim/canonurl/internal/storage"
)

const offenderPrefix = "offender:"

// maxConflictRetries bounds how often a read-modify-write upsert is replayed
// after badger reports a transaction conflict.
const maxConflictRetries = 16

// Store keeps one JSON-encoded offender.Record per hostname under the
// "offender:" key prefix.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

var _ storage.Backend = (*Store)(nil)

// Open opens (or creates) a badger database in dir.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	opts.SyncWrites = true
	opts.CompactL0OnClose = true
	return open(opts, dir, logger)
}

// OpenInMemory opens a badger database that never touches disk.
func OpenInMemory(logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts, ":memory:", logger)
}

func open(opts badger.Options, location string, logger *slog.Logger) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, storage.NewError(storage.DriverBadger, storage.ErrCauseConnectionFailure, "open "+location, err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Debug("badger store opened", "path", location)
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) All(ctx context.Context) ([]offender.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, storage.NewError(storage.DriverBadger, storage.ErrCauseReadFailure, "context done", err)
	}

	var records []offender.Record
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(offenderPrefix)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec offender.Record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return storage.NewError(storage.DriverBadger, storage.ErrCauseDecodeFailure, "decode "+string(it.Item().Key()), err)
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		var storageErr *storage.StorageError
		if errors.As(err, &storageErr) {
			return nil, storageErr
		}
		return nil, storage.NewError(storage.DriverBadger, storage.ErrCauseReadFailure, "iterate offenders", err)
	}
	return records, nil
}

// Upsert merges rec into the stored record inside one badger transaction.
// Conflicting concurrent writers are replayed so no key is lost.
func (s *Store) Upsert(ctx context.Context, rec offender.Record) error {
	key := []byte(offenderPrefix + rec.Hostname)

	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return storage.NewError(storage.DriverBadger, storage.ErrCauseWriteFailure, "context done", ctxErr)
		}
		err = s.db.Update(func(txn *badger.Txn) error {
			merged := offender.NewRecord(rec.Hostname, rec.SignificantKeys...)

			item, err := txn.Get(key)
			switch {
			case err == nil:
				var existing offender.Record
				if err := item.Value(func(val []byte) error {
					return json.Unmarshal(val, &existing)
				}); err != nil {
					return storage.NewError(storage.DriverBadger, storage.ErrCauseDecodeFailure, "decode "+rec.Hostname, err)
				}
				merged = existing.Merge(rec.SignificantKeys)
			case !errors.Is(err, badger.ErrKeyNotFound):
				return err
			}

			data, err := json.Marshal(merged)
			if err != nil {
				return storage.NewError(storage.DriverBadger, storage.ErrCauseDecodeFailure, "encode "+rec.Hostname, err)
			}
			return txn.Set(key, data)
		})
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
		s.logger.Debug("badger upsert conflict, replaying", "hostname", rec.Hostname, "attempt", attempt+1)
	}

	if err == nil {
		return nil
	}
	var storageErr *storage.StorageError
	if errors.As(err, &storageErr) {
		return storageErr
	}
	return storage.NewError(storage.DriverBadger, storage.ErrCauseWriteFailure, "upsert "+rec.Hostname, err)
}
