package sanitizer

// Sanitizer turns an untrusted URL string, as scraped or submitted, into plain text
// safe to hand to a URL parser. Implementations must be total and idempotent.
type Sanitizer interface {
	SanitizeURL(raw string) string
}

// Compile-time interface check
var _ Sanitizer = (*URLSanitizer)(nil)
