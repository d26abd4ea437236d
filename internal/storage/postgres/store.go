package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rohmanhakim/canonurl/internal/offender"
	"github.com/rohmanhakim/canonurl/internal/storage"
)

// Store keeps one row per offender with its keys in a TEXT[] column.
// The upsert merges arrays server-side under the row lock taken by ON CONFLICT.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ storage.Backend = (*Store)(nil)

const upsertSQL = `
INSERT INTO offenders (hostname, significant_keys)
VALUES ($1, $2)
ON CONFLICT (hostname) DO UPDATE SET
    significant_keys = ARRAY(
        SELECT DISTINCT k
        FROM unnest(offenders.significant_keys || EXCLUDED.significant_keys) AS k
        ORDER BY k
    ),
    updated_at = now()`

const selectAllSQL = `SELECT hostname, significant_keys FROM offenders ORDER BY hostname`

// Open migrates the schema, then connects a pool to dsn.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if err := Migrate(dsn, logger); err != nil {
		return nil, err
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, storage.NewError(storage.DriverPostgres, storage.ErrCauseConnectionFailure, "parse dsn", err)
	}
	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, storage.NewError(storage.DriverPostgres, storage.ErrCauseConnectionFailure, "create pool", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, storage.NewError(storage.DriverPostgres, storage.ErrCauseConnectionFailure, "ping", err)
	}

	logger.Debug("postgres store opened")
	return &Store{pool: pool, logger: logger}, nil
}

// New wraps an existing pool. The schema must already be migrated.
func New(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{pool: pool, logger: logger}
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) All(ctx context.Context) ([]offender.Record, error) {
	rows, err := s.pool.Query(ctx, selectAllSQL)
	if err != nil {
		return nil, storage.NewError(storage.DriverPostgres, storage.ErrCauseReadFailure, "query offenders", err)
	}
	defer rows.Close()

	var records []offender.Record
	for rows.Next() {
		var (
			hostname string
			keys     []string
		)
		if err := rows.Scan(&hostname, &keys); err != nil {
			return nil, storage.NewError(storage.DriverPostgres, storage.ErrCauseDecodeFailure, "scan offender row", err)
		}
		records = append(records, offender.NewRecord(hostname, keys...))
	}
	if err := rows.Err(); err != nil {
		return nil, storage.NewError(storage.DriverPostgres, storage.ErrCauseReadFailure, "iterate offenders", err)
	}
	return records, nil
}

func (s *Store) Upsert(ctx context.Context, rec offender.Record) error {
	keys := rec.SignificantKeys
	if keys == nil {
		keys = []string{}
	}
	if _, err := s.pool.Exec(ctx, upsertSQL, rec.Hostname, keys); err != nil {
		return storage.NewError(storage.DriverPostgres, storage.ErrCauseWriteFailure, "upsert "+rec.Hostname, err)
	}
	return nil
}
