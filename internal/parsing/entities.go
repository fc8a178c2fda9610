package parsing

import (
	"regexp"
	"sort"
	"strings"

	"github.com/jonathan/career-transitions/internal/rules"
)

// boundary matches a position that is not inside a word.
const (
	leftBoundary  = `(?:^|[^\p{L}\p{N}])`
	rightBoundary = `(?:$|[^\p{L}\p{N}])`
)

// termMatcher finds one whole-word term and reports the canonical value it stands for.
type termMatcher struct {
	term      string
	canonical string
	re        *regexp.Regexp
}

// labelGroup maps any of several patterns to one label.
type labelGroup struct {
	label    string
	patterns []*regexp.Regexp
}

// match is one extracted entity and where it first appeared.
type match struct {
	canonical string
	index     int
}

// newTermMatchers builds whole-word matchers ordered longest term first, so that
// a short term never shadows a longer, more specific one. pluralize allows a trailing s/es.
func newTermMatchers(section string, entries map[string][]string, order []string, pluralize bool) ([]termMatcher, error) {
	var matchers []termMatcher
	for _, canonical := range order {
		for _, term := range entries[canonical] {
			term = strings.ToLower(strings.TrimSpace(term))
			if term == "" {
				continue
			}
			suffix := ""
			if pluralize {
				suffix = `(?:s|es)?`
			}
			re, err := regexp.Compile(leftBoundary + `(` + regexp.QuoteMeta(term) + suffix + `)` + rightBoundary)
			if err != nil {
				return nil, &LexiconError{Section: section, Entry: term, Cause: err}
			}
			matchers = append(matchers, termMatcher{term: term, canonical: canonical, re: re})
		}
	}

	sort.SliceStable(matchers, func(i, j int) bool {
		return len(matchers[i].term) > len(matchers[j].term)
	})
	return matchers, nil
}

// extractTerms finds every matcher's term in text, longest first. Each matched span is
// blanked out so shorter terms cannot match inside it. Returns canonical values in order
// of first appearance and the text with matched spans blanked.
func extractTerms(text string, matchers []termMatcher) ([]string, string) {
	masked := []byte(text)
	var found []match
	seen := make(map[string]int)

	for _, m := range matchers {
		for _, loc := range m.re.FindAllSubmatchIndex(masked, -1) {
			start, end := loc[2], loc[3]
			for i := start; i < end; i++ {
				masked[i] = ' '
			}
			if idx, ok := seen[m.canonical]; ok {
				if start < found[idx].index {
					found[idx].index = start
				}
				continue
			}
			seen[m.canonical] = len(found)
			found = append(found, match{canonical: m.canonical, index: start})
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].index < found[j].index
	})

	values := make([]string, 0, len(found))
	for _, f := range found {
		values = append(values, f.canonical)
	}
	return values, string(masked)
}

// newLabelGroups compiles pattern groups case-insensitively.
func newLabelGroups(section string, groups []rules.PatternGroup) ([]labelGroup, error) {
	compiled := make([]labelGroup, 0, len(groups))
	for _, g := range groups {
		patterns, err := compilePatterns(section, g.Patterns)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, labelGroup{label: g.Label, patterns: patterns})
	}
	return compiled, nil
}

// extractLabels returns the labels of every group with a matching pattern, in group order.
func extractLabels(text string, groups []labelGroup) []string {
	labels := make([]string, 0)
	for _, g := range groups {
		if matchAny(text, g.patterns) {
			labels = append(labels, g.label)
		}
	}
	return labels
}

func compilePatterns(section string, patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, &LexiconError{Section: section, Entry: p, Cause: err}
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

func matchAny(text string, patterns []*regexp.Regexp) bool {
	for _, re := range patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
