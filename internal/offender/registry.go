/*
Responsibilities
- Answer "is this host an offender, and which query keys matter" without blocking
- Accept registrations from any goroutine, visible to readers immediately
- Mirror registrations into the durable store
- Rebuild the in-memory view from the store on demand

Readers load an immutable snapshot through an atomic pointer. Writers publish a
modified copy with compare-and-swap, so a registration is always a full-record
replacement and two writers never lose each other's keys.
*/
package offender

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rohmanhakim/canonurl/internal/metadata"
	"github.com/rohmanhakim/canonurl/pkg/urlutil"
	"golang.org/x/sync/singleflight"
)

const rebuildKey = "rebuild"

type Registry struct {
	store        Store
	metadataSink metadata.MetadataSink
	snapshot     atomic.Pointer[snapshot]
	rebuilds     singleflight.Group
}

// NewRegistry returns an empty registry. A nil store keeps the registry purely in memory.
func NewRegistry(store Store, metadataSink metadata.MetadataSink) *Registry {
	if metadataSink == nil {
		metadataSink = &metadata.NoopSink{}
	}
	r := &Registry{
		store:        store,
		metadataSink: metadataSink,
	}
	r.snapshot.Store(emptySnapshot())
	return r
}

// IsOffender reports whether hostname has a record.
func (r *Registry) IsOffender(hostname string) bool {
	_, ok := r.snapshot.Load().records[urlutil.NormalizeHostname(hostname)]
	return ok
}

// SignificantKeysFor returns the key set registered for hostname. An offender
// without restrictions yields an empty slice and true.
func (r *Registry) SignificantKeysFor(hostname string) ([]string, bool) {
	rec, ok := r.Lookup(hostname)
	if !ok {
		return nil, false
	}
	return rec.SignificantKeys, true
}

// Lookup returns a copy of the record registered for hostname.
func (r *Registry) Lookup(hostname string) (Record, bool) {
	rec, ok := r.snapshot.Load().records[urlutil.NormalizeHostname(hostname)]
	if !ok {
		return Record{}, false
	}
	return rec.clone(), true
}

// Records returns every cached record sorted by hostname.
func (r *Registry) Records() []Record {
	current := r.snapshot.Load()
	records := make([]Record, 0, len(current.records))
	for _, rec := range current.records {
		records = append(records, rec.clone())
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Hostname < records[j].Hostname
	})
	return records
}

func (r *Registry) Len() int {
	return len(r.snapshot.Load().records)
}

// Register unions keys into hostname's record. The cache is updated before the store
// write, so the registration is visible to readers even when the write fails. A store
// failure is returned as a recoverable *RegistryError and the cache is not rolled back.
func (r *Registry) Register(ctx context.Context, hostname string, keys ...string) error {
	rec, err := r.admit(hostname, keys)
	if err != nil {
		return err
	}
	return r.persist(ctx, rec)
}

// RegisterAsync performs the cache update synchronously and the store write in the
// background. The returned channel yields exactly one value, nil on success.
func (r *Registry) RegisterAsync(ctx context.Context, hostname string, keys ...string) <-chan error {
	done := make(chan error, 1)

	rec, err := r.admit(hostname, keys)
	if err != nil {
		done <- err
		close(done)
		return done
	}

	go func() {
		defer close(done)
		done <- r.persist(ctx, rec)
	}()
	return done
}

// RebuildCacheFromStore replaces the cache with the store's contents. Concurrent calls
// share one store read. On failure the current cache is kept.
func (r *Registry) RebuildCacheFromStore(ctx context.Context) error {
	if r.store == nil {
		return nil
	}

	_, err, _ := r.rebuilds.Do(rebuildKey, func() (any, error) {
		started := time.Now()

		stored, err := r.store.All(ctx)
		if err != nil {
			regErr := &RegistryError{
				Message:   "cannot load offender records",
				Retryable: true,
				Cause:     ErrCauseStoreRead,
				Err:       err,
			}
			r.recordError("Registry.RebuildCacheFromStore", regErr, nil)
			return nil, regErr
		}

		records := make(map[string]Record, len(stored))
		for _, s := range stored {
			rec := NewRecord(s.Hostname, s.SignificantKeys...)
			if rec.Hostname == "" {
				continue
			}
			if existing, ok := records[rec.Hostname]; ok {
				rec = existing.Merge(rec.SignificantKeys)
			}
			records[rec.Hostname] = rec
		}

		r.snapshot.Store(&snapshot{records: records})
		r.metadataSink.RecordRebuild(len(records), time.Since(started))
		return nil, nil
	})
	return err
}

// ResetCache empties the cache. The store is left untouched.
func (r *Registry) ResetCache() {
	r.snapshot.Store(emptySnapshot())
}

// admit validates a registration and publishes it to the cache.
func (r *Registry) admit(hostname string, keys []string) (Record, error) {
	rec := NewRecord(hostname, keys...)
	if rec.Hostname == "" {
		err := &RegistryError{
			Message:   "hostname is empty",
			Retryable: false,
			Cause:     ErrCauseInvalidHostname,
		}
		r.recordError("Registry.Register", err, []metadata.Attribute{
			metadata.NewAttr(metadata.AttrHost, hostname),
		})
		return Record{}, err
	}
	r.mergeIntoCache(rec)
	return rec, nil
}

func (r *Registry) mergeIntoCache(rec Record) {
	for {
		current := r.snapshot.Load()

		merged := rec
		existing, ok := current.records[rec.Hostname]
		if ok {
			merged = existing.Merge(rec.SignificantKeys)
			if merged.equal(existing) {
				return
			}
		}

		next := make(map[string]Record, len(current.records)+1)
		for host, stored := range current.records {
			next[host] = stored
		}
		next[merged.Hostname] = merged

		if r.snapshot.CompareAndSwap(current, &snapshot{records: next}) {
			return
		}
	}
}

// persist writes the registration delta; the store unions it with what it holds.
func (r *Registry) persist(ctx context.Context, rec Record) error {
	if r.store == nil {
		r.metadataSink.RecordRegistration(rec.Hostname, rec.SignificantKeys, false)
		return nil
	}

	if err := r.store.Upsert(ctx, rec); err != nil {
		regErr := &RegistryError{
			Message:   "offender cached but not persisted: " + rec.Hostname,
			Retryable: true,
			Cause:     ErrCauseStoreWrite,
			Err:       err,
		}
		r.recordError("Registry.Register", regErr, []metadata.Attribute{
			metadata.NewAttr(metadata.AttrHost, rec.Hostname),
		})
		r.metadataSink.RecordRegistration(rec.Hostname, rec.SignificantKeys, false)
		return regErr
	}

	r.metadataSink.RecordRegistration(rec.Hostname, rec.SignificantKeys, true)
	return nil
}

func (r *Registry) recordError(action string, err *RegistryError, attrs []metadata.Attribute) {
	r.metadataSink.RecordError(
		time.Now(),
		"offender",
		action,
		mapRegistryErrorToMetadataCause(err),
		err.Error(),
		attrs,
	)
}
