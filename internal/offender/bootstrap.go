package offender

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

const defaultSeedConcurrency = 4

// DefaultBootstrap is the built-in list of hosts known to put page identity in the query.
// Every host keeps all of its non-tracking keys; narrower key sets come from config or
// from later registrations.
func DefaultBootstrap() []Record {
	return []Record{
		NewRecord("youtube.com"),
		NewRecord("news.ycombinator.com"),
		NewRecord("play.google.com"),
		NewRecord("facebook.com"),
		NewRecord("google.com"),
	}
}

// Seed writes records straight to the store. The store is the single source of truth:
// seed it once, then let every process rebuild its cache from it. Seeding is idempotent
// because upserts union keys.
func Seed(ctx context.Context, store Store, records []Record, concurrency int) error {
	if concurrency < 1 {
		concurrency = defaultSeedConcurrency
	}

	normalized := make([]Record, 0, len(records))
	for _, rec := range records {
		n := NewRecord(rec.Hostname, rec.SignificantKeys...)
		if n.Hostname == "" {
			return &RegistryError{
				Message:   fmt.Sprintf("bootstrap record with empty hostname: %+v", rec),
				Retryable: false,
				Cause:     ErrCauseInvalidHostname,
			}
		}
		normalized = append(normalized, n)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, rec := range normalized {
		g.Go(func() error {
			if err := store.Upsert(gctx, rec); err != nil {
				return &RegistryError{
					Message:   "cannot seed " + rec.Hostname,
					Retryable: true,
					Cause:     ErrCauseStoreWrite,
					Err:       err,
				}
			}
			return nil
		})
	}

	return g.Wait()
}
