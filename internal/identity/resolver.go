/*
Responsibilities
- Give every canonical URL a stable, algorithm-tagged identifier
- Remember which raw URL and content fingerprint first produced a canonical URL
- Teach the offender registry when two different documents collapse to one URL

A collision is only actionable when the two raw URLs differ in their query
arguments: those arguments evidently select content, so the host becomes an
offender with the differing keys as significant keys.
*/
package identity

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rohmanhakim/canonurl/internal/metadata"
	"github.com/rohmanhakim/canonurl/internal/normalize"
	"github.com/rohmanhakim/canonurl/internal/sanitizer"
	"github.com/rohmanhakim/canonurl/pkg/hashutil"
	"github.com/rohmanhakim/canonurl/pkg/urlutil"
)

type Resolver struct {
	normalizer   Canonicalizer
	registrar    Registrar
	sanitizer    sanitizer.Sanitizer
	algo         hashutil.HashAlgo
	observed     *expirable.LRU[string, seen]
	metadataSink metadata.MetadataSink
}

// NewResolver builds a resolver. A nil registrar disables learning; collisions are
// still reported. Non-positive cacheSize and cacheTTL fall back to the defaults.
func NewResolver(
	normalizer Canonicalizer,
	registrar Registrar,
	algo hashutil.HashAlgo,
	cacheSize int,
	cacheTTL time.Duration,
	metadataSink metadata.MetadataSink,
) (*Resolver, error) {
	if _, err := hashutil.ParseAlgo(string(algo)); err != nil {
		return nil, &IdentityError{
			Message: "resolver setup",
			Cause:   ErrCauseHashFailure,
			Err:     err,
		}
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	if metadataSink == nil {
		metadataSink = &metadata.NoopSink{}
	}
	return &Resolver{
		normalizer:   normalizer,
		registrar:    registrar,
		sanitizer:    sanitizer.NewURLSanitizer(),
		algo:         algo,
		observed:     expirable.NewLRU[string, seen](cacheSize, nil, cacheTTL),
		metadataSink: metadataSink,
	}, nil
}

// Resolve canonicalizes raw and derives its identifier.
func (r *Resolver) Resolve(raw string) Identity {
	canonical := r.normalizer.Normalize(raw)
	// The algorithm was validated in NewResolver, so hashing cannot fail.
	id, _ := hashutil.Tagged(canonical, r.algo)
	return Identity{Canonical: canonical, ID: id}
}

// Observe records that raw was fetched and its content hashed to fingerprint.
//
// If a previously observed URL with the same canonical form had a different
// fingerprint, the query keys on which the two URLs disagree are registered as
// significant for the host and the returned identity reflects the new canonical form.
// A registration failure is returned alongside the observation; the registry cache
// already holds the new keys in that case.
func (r *Resolver) Observe(ctx context.Context, raw string, fingerprint string) (Observation, error) {
	current := r.Resolve(raw)

	prev, ok := r.observed.Get(current.Canonical)
	if !ok || prev.fingerprint == fingerprint {
		if !ok {
			r.observed.Add(current.Canonical, seen{raw: raw, fingerprint: fingerprint})
		}
		return Observation{Identity: current}, nil
	}

	keys := r.differingKeys(prev.raw, raw)
	r.metadataSink.RecordCollision(current.Canonical, prev.raw, raw, keys)

	obs := Observation{Identity: current, Collision: true}
	if len(keys) == 0 || r.registrar == nil {
		return obs, nil
	}

	parts, ok := urlutil.Decompose(current.Canonical)
	if !ok {
		return obs, nil
	}

	var regErr error
	if err := r.registrar.Register(ctx, parts.Hostname, keys...); err != nil {
		identityErr := &IdentityError{
			Message:   "learn offender " + parts.Hostname,
			Retryable: true,
			Cause:     ErrCauseRegisterFailure,
			Err:       err,
		}
		r.metadataSink.RecordError(
			time.Now(),
			"identity",
			"Resolver.Observe",
			mapIdentityErrorToMetadataCause(identityErr),
			identityErr.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, raw),
				metadata.NewAttr(metadata.AttrHost, parts.Hostname),
			},
		)
		regErr = identityErr
	}

	// Both URLs now canonicalize apart; re-key the memory under the new forms.
	r.observed.Remove(current.Canonical)
	r.observed.Add(r.normalizer.Normalize(prev.raw), prev)
	learned := r.Resolve(raw)
	r.observed.Add(learned.Canonical, seen{raw: raw, fingerprint: fingerprint})

	obs.Identity = learned
	obs.Learned = keys
	return obs, regErr
}

// Forget drops every remembered observation.
func (r *Resolver) Forget() {
	r.observed.Purge()
}

// differingKeys lists the non-tracking query keys whose values differ between a and b.
func (r *Resolver) differingKeys(a, b string) []string {
	left := r.queryOf(a)
	right := r.queryOf(b)

	diff := map[string]struct{}{}
	for key, values := range left {
		if !equalValues(values, right[key]) {
			diff[key] = struct{}{}
		}
	}
	for key := range right {
		if _, ok := left[key]; !ok {
			diff[key] = struct{}{}
		}
	}

	keys := make([]string, 0, len(diff))
	for key := range diff {
		if key != "" && !normalize.IsTrackingKey(key) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

func (r *Resolver) queryOf(raw string) map[string][]string {
	values := map[string][]string{}
	parts, ok := urlutil.Decompose(r.sanitizer.SanitizeURL(raw))
	if !ok {
		return values
	}
	for _, pair := range normalize.SplitQuery(parts.RawQuery) {
		values[pair.Key] = append(values[pair.Key], pair.Value)
	}
	return values
}

func equalValues(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	a = slices.Clone(a)
	b = slices.Clone(b)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}
