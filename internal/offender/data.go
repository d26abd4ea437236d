package offender

import (
	"slices"
	"sort"

	"github.com/rohmanhakim/canonurl/pkg/urlutil"
)

// Record tells the normalizer that a host carries meaning in its query string.
//
// An empty SignificantKeys means "keep every non-tracking key"; a non-empty one
// restricts the query to those keys. Keys are sorted and unique. A Record is a value:
// every change produces a new Record, so one that was handed out never changes.
type Record struct {
	Hostname        string   `json:"hostname"`
	SignificantKeys []string `json:"significantKeys"`
}

// NewRecord normalizes hostname and canonicalizes the key set (sorted, unique, no empties).
func NewRecord(hostname string, keys ...string) Record {
	return Record{
		Hostname:        urlutil.NormalizeHostname(hostname),
		SignificantKeys: canonicalKeys(keys),
	}
}

// Merge returns a new Record whose key set is the union of r's and keys.
func (r Record) Merge(keys []string) Record {
	union := make([]string, 0, len(r.SignificantKeys)+len(keys))
	union = append(union, r.SignificantKeys...)
	union = append(union, keys...)
	return Record{
		Hostname:        r.Hostname,
		SignificantKeys: canonicalKeys(union),
	}
}

// Keeps reports whether a query key survives normalization for this host,
// ignoring the tracking-prefix rule which applies to every offender.
func (r Record) Keeps(key string) bool {
	if len(r.SignificantKeys) == 0 {
		return true
	}
	_, found := slices.BinarySearch(r.SignificantKeys, key)
	return found
}

func (r Record) clone() Record {
	return Record{
		Hostname:        r.Hostname,
		SignificantKeys: slices.Clone(r.SignificantKeys),
	}
}

func (r Record) equal(other Record) bool {
	return r.Hostname == other.Hostname && slices.Equal(r.SignificantKeys, other.SignificantKeys)
}

func canonicalKeys(keys []string) []string {
	if len(keys) == 0 {
		return nil
	}
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		if key != "" {
			out = append(out, key)
		}
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return slices.Compact(out)
}

// snapshot is the immutable cache state published by the registry.
type snapshot struct {
	records map[string]Record
}

func emptySnapshot() *snapshot {
	return &snapshot{records: map[string]Record{}}
}
