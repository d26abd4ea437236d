package urlutil

import (
	"net"
	"net/url"
	"regexp"
	"strings"
)

// Parts is a URL split into the components a canonicalizer reasons about.
// Path and Fragment keep their escaped spelling so re-parsing the assembled
// string yields the same components.
type Parts struct {
	Scheme   string
	Hostname string
	Port     string
	Path     string
	RawQuery string
	Fragment string
}

// Decompose splits raw into Parts.
// It reports false when raw does not parse or carries no host, in which case
// callers should treat the string as opaque.
//
// Properties:
//   - Pure: no state, no memory
//   - Total: never panics, whatever the input
//   - Scheme is lowercased; everything else is returned as spelled
func Decompose(raw string) (Parts, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Opaque != "" {
		return Parts{}, false
	}

	hostname := u.Hostname()
	if hostname == "" {
		return Parts{}, false
	}

	return Parts{
		Scheme:   lowerASCII(u.Scheme),
		Hostname: hostname,
		Port:     u.Port(),
		Path:     u.EscapedPath(),
		RawQuery: u.RawQuery,
		Fragment: u.EscapedFragment(),
	}, true
}

var blogspotHost = regexp.MustCompile(`^(.+)\.blogspot\.[a-z]{2,3}(\.[a-z]{2})?$`)

// NormalizeHostname maps equivalent spellings of a hostname onto one key:
// ASCII lowercase, leading "www." labels removed, and country-specific
// blogspot domains folded onto ".blogspot.com".
func NormalizeHostname(hostname string) string {
	host := lowerASCII(strings.TrimSpace(hostname))
	for len(host) > len("www.") && strings.HasPrefix(host, "www.") {
		host = host[len("www."):]
	}
	return blogspotHost.ReplaceAllString(host, "$1.blogspot.com")
}

// JoinHostPort assembles the authority part of a URL. The port is omitted when empty
// and IPv6 literals are bracketed. The "%" introducing an IPv6 zone is written as
// "%25" so the result parses back to the same hostname.
func JoinHostPort(hostname, port string) string {
	if strings.Contains(hostname, ":") {
		hostname = strings.ReplaceAll(hostname, "%", "%25")
	}
	if port == "" {
		if strings.Contains(hostname, ":") {
			return "[" + hostname + "]"
		}
		return hostname
	}
	return net.JoinHostPort(hostname, port)
}

// StripTrailingSlash removes every trailing slash from a path.
// The root path and an emptied path both come back as "/".
func StripTrailingSlash(path string) string {
	for len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	if path == "" {
		return "/"
	}
	return path
}

// lowerASCII converts ASCII characters to lowercase without allocating.
func lowerASCII(s string) string {
	var needsLower bool
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			needsLower = true
			break
		}
	}
	if !needsLower {
		return s
	}
	b := make([]byte, len(s))
	copy(b, s)
	for i := 0; i < len(b); i++ {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}
