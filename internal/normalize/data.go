package normalize

import (
	"strings"

	"github.com/rohmanhakim/canonurl/internal/offender"
)

const (
	SchemeHTTP  = "http"
	SchemeOther = "other"

	defaultPort    = "80"
	trackingPrefix = "utm_"
	hashbangMarker = "!"
)

// OffenderLookup is the read side of the offender registry.
type OffenderLookup interface {
	Lookup(hostname string) (offender.Record, bool)
}

// SlugRules rewrites a path to its stable prefix for hosts that append cosmetic slugs.
type SlugRules interface {
	Apply(hostname, path string) string
}

// noOffenders is used when no registry is wired; every query is dropped.
type noOffenders struct{}

func (noOffenders) Lookup(string) (offender.Record, bool) {
	return offender.Record{}, false
}

// IsTrackingKey reports whether a query key is campaign tracking noise
// that never survives normalization. The match is case-sensitive: "UTM_x" is kept.
func IsTrackingKey(key string) bool {
	return strings.HasPrefix(key, trackingPrefix)
}

// QueryPair is one argument of a raw query string, as spelled in the URL.
type QueryPair struct {
	Key   string
	Value string
}

func (p QueryPair) String() string {
	return p.Key + "=" + p.Value
}

// SplitQuery splits a raw query on "&" without decoding anything, so separators
// such as ";" stay inside the value. Segments with an empty key are skipped and a
// segment without "=" has an empty value.
func SplitQuery(rawQuery string) []QueryPair {
	var pairs []QueryPair
	for _, segment := range strings.Split(rawQuery, "&") {
		key, value, _ := strings.Cut(segment, "=")
		if key == "" {
			continue
		}
		pairs = append(pairs, QueryPair{Key: key, Value: value})
	}
	return pairs
}
