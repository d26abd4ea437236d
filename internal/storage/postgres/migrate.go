package postgres

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rohmanhakim/canonurl/internal/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies every pending embedded migration to the database at dsn.
// A database that is already current is not an error.
func Migrate(dsn string, logger *slog.Logger) error {
	databaseURL, err := migrationURL(dsn)
	if err != nil {
		return storage.NewError(storage.DriverPostgres, storage.ErrCauseMigrationFailure, "build migration url", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return storage.NewError(storage.DriverPostgres, storage.ErrCauseMigrationFailure, "open embedded migrations", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return storage.NewError(storage.DriverPostgres, storage.ErrCauseConnectionFailure, "create migrator", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Debug("postgres schema up to date")
			return nil
		}
		return storage.NewError(storage.DriverPostgres, storage.ErrCauseMigrationFailure, "apply migrations", err)
	}

	version, _, _ := m.Version()
	logger.Info("postgres schema migrated", "version", version)
	return nil
}

// migrationURL rewrites a postgres URL DSN to the scheme the pgx/v5 migrate driver registers.
func migrationURL(dsn string) (string, error) {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(dsn, scheme) {
			return "pgx5://" + strings.TrimPrefix(dsn, scheme), nil
		}
	}
	if strings.HasPrefix(dsn, "pgx5://") {
		return dsn, nil
	}
	return "", fmt.Errorf("dsn must be a postgres:// URL")
}
