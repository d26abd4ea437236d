package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/rohmanhakim/canonurl/internal/offender"
	"github.com/rohmanhakim/canonurl/internal/storage"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Store persists offender records in SQLite. Keys live in their own table so a
// union upsert is two INSERT ... ON CONFLICT DO NOTHING statements in one transaction.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ storage.Backend = (*Store)(nil)

// Open creates a new SQLite store at the given path.
// It configures WAL mode, sets pragmas, and applies the schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, storage.NewError(storage.DriverSQLite, storage.ErrCauseConnectionFailure, "open "+path, err)
	}

	// One connection serializes writers, which SQLite does anyway.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, storage.NewError(storage.DriverSQLite, storage.ErrCauseConnectionFailure, fmt.Sprintf("exec pragma %q", pragma), err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, storage.NewError(storage.DriverSQLite, storage.ErrCauseMigrationFailure, "exec schema", err)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Debug("sqlite store opened", "path", path)

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) All(ctx context.Context) ([]offender.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT o.hostname, k.query_key
		FROM offenders o
		LEFT JOIN offender_keys k ON k.hostname = o.hostname
		ORDER BY o.hostname, k.query_key`)
	if err != nil {
		return nil, storage.NewError(storage.DriverSQLite, storage.ErrCauseReadFailure, "query offenders", err)
	}
	defer rows.Close()

	var (
		records []offender.Record
		current *offender.Record
	)
	for rows.Next() {
		var (
			hostname string
			key      sql.NullString
		)
		if err := rows.Scan(&hostname, &key); err != nil {
			return nil, storage.NewError(storage.DriverSQLite, storage.ErrCauseDecodeFailure, "scan offender row", err)
		}
		if current == nil || current.Hostname != hostname {
			records = append(records, offender.Record{Hostname: hostname})
			current = &records[len(records)-1]
		}
		if key.Valid {
			current.SignificantKeys = append(current.SignificantKeys, key.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, storage.NewError(storage.DriverSQLite, storage.ErrCauseReadFailure, "iterate offenders", err)
	}
	return records, nil
}

func (s *Store) Upsert(ctx context.Context, rec offender.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.NewError(storage.DriverSQLite, storage.ErrCauseWriteFailure, "begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO offenders (hostname) VALUES (?) ON CONFLICT(hostname) DO NOTHING`,
		rec.Hostname,
	); err != nil {
		return storage.NewError(storage.DriverSQLite, storage.ErrCauseWriteFailure, "insert offender "+rec.Hostname, err)
	}

	for _, key := range rec.SignificantKeys {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO offender_keys (hostname, query_key) VALUES (?, ?) ON CONFLICT(hostname, query_key) DO NOTHING`,
			rec.Hostname, key,
		); err != nil {
			return storage.NewError(storage.DriverSQLite, storage.ErrCauseWriteFailure, "insert key for "+rec.Hostname, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storage.NewError(storage.DriverSQLite, storage.ErrCauseWriteFailure, "commit "+rec.Hostname, err)
	}
	return nil
}
