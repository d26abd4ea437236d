/*
Responsibilities
- Map every spelling of a resource's URL to one canonical string
- Keep query strings only for hosts registered as offenders
- Never fail: unparseable input still yields a stable canonical string

Canonical form

	scheme://host[:port]path[?query][#!fragment]

Properties
  - Total: any input produces an output
  - Idempotent: Normalize(Normalize(u)) == Normalize(u)
  - Depends only on the input and the registry contents at call time
*/
package normalize

import (
	"slices"
	"strings"

	"github.com/rohmanhakim/canonurl/internal/sanitizer"
	"github.com/rohmanhakim/canonurl/internal/slug"
	"github.com/rohmanhakim/canonurl/pkg/urlutil"
)

type Normalizer struct {
	sanitizer sanitizer.Sanitizer
	offenders OffenderLookup
	slugs     SlugRules
}

// NewNormalizer wires the normalizer's collaborators. Nil arguments fall back to a
// registry with no offenders, the built-in slug table and the default sanitizer.
func NewNormalizer(
	offenders OffenderLookup,
	slugs SlugRules,
	urlSanitizer sanitizer.Sanitizer,
) *Normalizer {
	if offenders == nil {
		offenders = noOffenders{}
	}
	if slugs == nil {
		slugs = slug.DefaultTable()
	}
	if urlSanitizer == nil {
		urlSanitizer = sanitizer.NewURLSanitizer()
	}
	return &Normalizer{
		sanitizer: urlSanitizer,
		offenders: offenders,
		slugs:     slugs,
	}
}

func (n *Normalizer) Normalize(raw string) string {
	cleaned := n.sanitizer.SanitizeURL(raw)

	parts, ok := urlutil.Decompose(cleaned)
	if !ok {
		return opaque(cleaned)
	}

	host := urlutil.NormalizeHostname(parts.Hostname)

	var b strings.Builder
	b.Grow(len(cleaned))
	b.WriteString(normalizeScheme(parts.Scheme))
	b.WriteString("://")
	b.WriteString(urlutil.JoinHostPort(host, normalizePort(parts.Port)))
	b.WriteString(n.normalizePath(host, parts.Path))

	if query := n.normalizeQuery(host, parts.RawQuery); query != "" {
		b.WriteByte('?')
		b.WriteString(query)
	}

	if strings.HasPrefix(parts.Fragment, hashbangMarker) {
		b.WriteByte('#')
		b.WriteString(parts.Fragment)
	}

	return b.String()
}

// opaque is the canonical form of input that has no usable authority.
// An existing "other:" prefix is not repeated, keeping the result idempotent.
func opaque(s string) string {
	return SchemeOther + ":" + strings.TrimPrefix(s, SchemeOther+":")
}

func normalizeScheme(scheme string) string {
	switch scheme {
	case "http", "https", "":
		return SchemeHTTP
	default:
		return SchemeOther
	}
}

func normalizePort(port string) string {
	if port == defaultPort {
		return ""
	}
	return port
}

func (n *Normalizer) normalizePath(host, path string) string {
	if path == "" || path == "/" {
		return "/"
	}
	return urlutil.StripTrailingSlash(n.slugs.Apply(host, path))
}

// normalizeQuery drops the query of non-offenders. For offenders it drops tracking keys,
// applies the significant-key restriction, and sorts what is left by key. Pairs keep
// their original spelling; pairs sharing a key keep their relative order.
func (n *Normalizer) normalizeQuery(host, rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	rec, ok := n.offenders.Lookup(host)
	if !ok {
		return ""
	}

	var kept []QueryPair
	for _, pair := range SplitQuery(rawQuery) {
		if IsTrackingKey(pair.Key) || !rec.Keeps(pair.Key) {
			continue
		}
		kept = append(kept, pair)
	}
	slices.SortStableFunc(kept, func(a, b QueryPair) int {
		return strings.Compare(a.Key, b.Key)
	})

	joined := make([]string, len(kept))
	for i, pair := range kept {
		joined[i] = pair.String()
	}
	return strings.Join(joined, "&")
}
