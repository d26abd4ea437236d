package slug

import "regexp"

// Rule pairs a hostname with a pattern whose first capture group is the
// stable part of the path to keep.
type Rule struct {
	Hostname string
	Pattern  *regexp.Regexp
}

// stackExchangeQuestion matches "/questions/<id>" followed by an optional cosmetic slug.
var stackExchangeQuestion = regexp.MustCompile(`^(/questions/\d+)(?:/.*)?$`)

// defaultRules is keyed by normalized hostname.
var defaultRules = map[string]*regexp.Regexp{
	"stackoverflow.com": stackExchangeQuestion,
	"superuser.com":     stackExchangeQuestion,
	"serverfault.com":   stackExchangeQuestion,
	"askubuntu.com":     stackExchangeQuestion,
	"mathoverflow.net":  stackExchangeQuestion,
}
