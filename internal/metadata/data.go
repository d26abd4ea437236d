package metadata

/*
	ErrorCause is a closed, canonical classification used exclusively for
	observability (logging, metrics, reporting).

	Rules:
	 - ErrorCause MUST NOT influence control flow.
	 - ErrorCause MUST NOT be used for retry or abort decisions.
	 - ErrorCause values MUST have stable, package-agnostic semantics.
	 - Packages MAY map their local errors to ErrorCause,
	   but MUST NOT invent new meanings.

If a failure does not clearly match a defined cause, CauseUnknown MUST be used.
*/
type ErrorCause int

/*
Canonical ErrorCause Table

# CauseUnknown

Meaning:
  - The failure does not map cleanly to any known category.

# CauseStorageFailure

Meaning:
  - Failure while reading or persisting offender records.

Examples:
  - Database unavailable
  - Constraint or transaction failures
  - Corrupt stored values

# CauseContentInvalid

Meaning:
  - Input could not be processed meaningfully.

Examples:
  - Empty hostname on registration
  - Unreadable document handed to link extraction

# CauseConfigInvalid

Meaning:
  - A configured value was rejected.

Examples:
  - Slug pattern without a capture group
  - Unknown store driver

# CauseInvariantViolation

Meaning:
  - An internal consistency check failed.
*/
const (
	CauseUnknown ErrorCause = iota
	CauseStorageFailure
	CauseContentInvalid
	CauseConfigInvalid
	CauseInvariantViolation
)

func (c ErrorCause) String() string {
	switch c {
	case CauseStorageFailure:
		return "storage_failure"
	case CauseContentInvalid:
		return "content_invalid"
	case CauseConfigInvalid:
		return "config_invalid"
	case CauseInvariantViolation:
		return "invariant_violation"
	default:
		return "unknown"
	}
}

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{
		Key:   key,
		Value: val,
	}
}

type AttributeKey string

const (
	AttrURL       AttributeKey = "url"
	AttrCanonical AttributeKey = "canonical"
	AttrHost      AttributeKey = "host"
	AttrKeys      AttributeKey = "keys"
	AttrStore     AttributeKey = "store"
	AttrField     AttributeKey = "field"
	AttrIdentity  AttributeKey = "identity"
)
