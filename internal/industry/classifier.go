// Package industry classifies free-text company names into a closed set of industry labels.
package industry

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jonathan/career-transitions/internal/rules"
)

// Other is the label returned when nothing matches.
const Other = "Other"

// legalSuffixes are stripped from names before exact lookup.
var legalSuffixes = []string{", inc.", ", inc", " inc.", " inc", ", llc", " llc", ", ltd.", " ltd.", " ltd", " l.p.", " lp", " plc", " gmbh", " ag"}

var whitespace = regexp.MustCompile(`\s+`)

type compiledRule struct {
	label    string
	patterns []*regexp.Regexp
}

// Classifier maps company names to industry labels using an exact-match table
// followed by ordered regex rules. It is immutable and safe for concurrent use.
type Classifier struct {
	version  string
	fallback string
	labels   []string
	exact    map[string]string
	rules    []compiledRule
}

// New compiles a rule table into a Classifier.
// Returns an error if a pattern does not compile or a label is outside the table's label set.
func New(table rules.IndustryTable) (*Classifier, error) {
	known := make(map[string]bool, len(table.Labels))
	for _, label := range table.Labels {
		known[label] = true
	}

	fallback := table.Default
	if fallback == "" {
		fallback = Other
	}
	if len(known) > 0 && !known[fallback] {
		return nil, fmt.Errorf("default label %q is not in the label set", fallback)
	}

	c := &Classifier{
		version:  table.Version,
		fallback: fallback,
		labels:   append([]string(nil), table.Labels...),
		exact:    make(map[string]string, len(table.Exact)),
		rules:    make([]compiledRule, 0, len(table.Rules)),
	}

	for name, label := range table.Exact {
		if len(known) > 0 && !known[label] {
			return nil, fmt.Errorf("exact entry %q has unknown label %q", name, label)
		}
		c.exact[normalizeKey(name)] = label
	}

	for i, rule := range table.Rules {
		if len(known) > 0 && !known[rule.Label] {
			return nil, fmt.Errorf("rule %d has unknown label %q", i, rule.Label)
		}
		compiled := compiledRule{label: rule.Label}
		for _, pattern := range rule.Patterns {
			re, err := regexp.Compile("(?i)" + pattern)
			if err != nil {
				return nil, fmt.Errorf("rule %d (%s): invalid pattern %q: %w", i, rule.Label, pattern, err)
			}
			compiled.patterns = append(compiled.patterns, re)
		}
		c.rules = append(c.rules, compiled)
	}

	return c, nil
}

// MustNew is like New but panics on error. Use it for embedded tables known to be valid.
func MustNew(table rules.IndustryTable) *Classifier {
	c, err := New(table)
	if err != nil {
		panic(fmt.Sprintf("failed to build industry classifier: %v", err))
	}
	return c
}

// Classify returns the industry label for a company name. It never fails;
// empty or unrecognized names return the default label.
func (c *Classifier) Classify(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return c.fallback
	}

	if label, ok := c.exact[normalizeKey(trimmed)]; ok {
		return label
	}

	for _, rule := range c.rules {
		for _, re := range rule.patterns {
			if re.MatchString(trimmed) {
				return rule.label
			}
		}
	}

	return c.fallback
}

// Labels returns the closed label set.
func (c *Classifier) Labels() []string {
	return append([]string(nil), c.labels...)
}

// Version returns the rule table version the classifier was built from.
func (c *Classifier) Version() string {
	return c.version
}

// normalizeKey lowercases, collapses whitespace, and strips legal suffixes.
// Example: "McKinsey & Company, Inc." -> "mckinsey & company"
func normalizeKey(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	key = whitespace.ReplaceAllString(key, " ")
	for {
		stripped := false
		for _, suffix := range legalSuffixes {
			if strings.HasSuffix(key, suffix) && len(key) > len(suffix) {
				key = strings.TrimSpace(strings.TrimSuffix(key, suffix))
				stripped = true
			}
		}
		if !stripped {
			break
		}
	}
	return strings.TrimRight(key, " .,")
}
