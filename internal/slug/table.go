package slug

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/rohmanhakim/canonurl/pkg/urlutil"
)

// Table is a read-only hostname to Rule lookup. It is built once and never mutated,
// so concurrent readers need no synchronization.
type Table struct {
	rules map[string]Rule
}

// DefaultTable returns the built-in rules for the StackExchange question family.
func DefaultTable() *Table {
	return &Table{rules: builtinRules(0)}
}

func builtinRules(extra int) map[string]Rule {
	rules := make(map[string]Rule, len(defaultRules)+extra)
	for host, pattern := range defaultRules {
		rules[host] = Rule{Hostname: host, Pattern: pattern}
	}
	return rules
}

// NewTable compiles overrides on top of the built-in rules. Hostnames are normalized
// the same way the normalizer normalizes them, so "www.Example.com" and "example.com"
// name the same rule.
func NewTable(overrides map[string]string) (*Table, error) {
	rules := builtinRules(len(overrides))
	for host, pattern := range overrides {
		rule, err := compileRule(host, pattern)
		if err != nil {
			return nil, err
		}
		rules[rule.Hostname] = rule
	}
	return &Table{rules: rules}, nil
}

func compileRule(hostname, pattern string) (Rule, error) {
	host := urlutil.NormalizeHostname(hostname)
	if host == "" {
		return Rule{}, &SlugError{
			Message: fmt.Sprintf("empty hostname for pattern %q", pattern),
			Cause:   ErrCauseInvalidHostname,
		}
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Rule{}, &SlugError{
			Message: fmt.Sprintf("%s: %v", host, err),
			Cause:   ErrCauseInvalidPattern,
		}
	}
	if re.NumSubexp() < 1 {
		return Rule{}, &SlugError{
			Message: fmt.Sprintf("%s: pattern %q has no capture group", host, pattern),
			Cause:   ErrCauseMissingCapture,
		}
	}
	return Rule{Hostname: host, Pattern: re}, nil
}

// PatternFor returns the pattern registered for an already-normalized hostname.
func (t *Table) PatternFor(hostname string) (*regexp.Regexp, bool) {
	rule, ok := t.rules[hostname]
	if !ok {
		return nil, false
	}
	return rule.Pattern, true
}

// Apply replaces path with the first capture group of the hostname's pattern.
// Paths that do not match, and hosts without a rule, are returned unchanged.
func (t *Table) Apply(hostname, path string) string {
	pattern, ok := t.PatternFor(hostname)
	if !ok {
		return path
	}
	match := pattern.FindStringSubmatch(path)
	if match == nil {
		return path
	}
	return match[1]
}

// Hostnames lists every hostname that has a rule, sorted.
func (t *Table) Hostnames() []string {
	hosts := make([]string, 0, len(t.rules))
	for host := range t.rules {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)
	return hosts
}
