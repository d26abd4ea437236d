package offender

import "context"

// Store is the durable backing for offender records, the single source of truth
// the registry cache is rebuilt from.
type Store interface {
	// All returns every stored record.
	All(ctx context.Context) ([]Record, error)

	// Upsert stores rec, unioning its keys with any record already stored for the
	// same hostname. Implementations must never drop previously stored keys, since
	// concurrent upserts for one host may arrive in any order.
	Upsert(ctx context.Context, rec Record) error
}
