package sanitizer

// skippedElements hold text that is never part of a URL.
var skippedElements = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
	"template": {},
}

// linkAttributes are consulted when markup carries no text of its own.
var linkAttributes = []string{"href", "src"}

// unsafeRunes are removed even when escaped spellings exist, since a bare occurrence
// is either markup residue or an injection attempt.
var unsafeRunes = map[rune]struct{}{
	'<':  {},
	'>':  {},
	'"':  {},
	'`':  {},
	'\\': {},
}
