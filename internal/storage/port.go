package storage

import "github.com/rohmanhakim/canonurl/internal/offender"

// Backend is an offender.Store holding resources that must be released.
// Every adapter under this package implements it, so callers can swap
// drivers without changing registry code.
type Backend interface {
	offender.Store
	Close() error
}

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverBadger   = "badger"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Drivers lists every supported driver name.
func Drivers() []string {
	return []string{DriverMemory, DriverSQLite, DriverBadger, DriverRedis, DriverPostgres}
}
