package identity

import (
	"context"
	"time"
)

const (
	DefaultCacheSize = 4096
	DefaultCacheTTL  = time.Hour
)

// Identity names a resource by its canonical URL and a stable digest of it.
type Identity struct {
	Canonical string `json:"canonical"`
	ID        string `json:"id"`
}

// Observation is the outcome of recording one fetched URL.
type Observation struct {
	Identity Identity `json:"identity"`
	// Collision is set when an earlier URL with the same canonical form carried
	// different content.
	Collision bool `json:"collision"`
	// Learned holds the query keys registered as significant because of the collision.
	Learned []string `json:"learned,omitempty"`
}

// Canonicalizer is the normalizer as seen by the resolver.
type Canonicalizer interface {
	Normalize(raw string) string
}

// Registrar is the write side of the offender registry.
type Registrar interface {
	Register(ctx context.Context, hostname string, keys ...string) error
}

// seen is what the resolver remembers about the first URL observed for a canonical form.
type seen struct {
	raw         string
	fingerprint string
}
