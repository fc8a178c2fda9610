// Package ranking groups transitions into ranked, percentage-weighted buckets.
package ranking

import (
	"math"
	"sort"
	"strings"

	"github.com/jonathan/career-transitions/internal/types"
)

// Key selects the transition field buckets are grouped by.
type Key string

// Grouping keys.
const (
	KeyDestinationCompany Key = "destination_company"
	KeySourceCompany      Key = "source_company"
	KeyIndustry           Key = "industry"
	KeySourceIndustry     Key = "source_industry"
)

const (
	// DefaultTopK is the number of buckets kept when Options.TopK is unset.
	DefaultTopK = 10
	// IndustryTopK is the number of buckets kept in the industry breakdown.
	IndustryTopK = 5
	// SampleRolesCap is the number of distinct roles kept per bucket.
	SampleRolesCap = 3
	// UnknownKey labels transitions whose key field is empty.
	UnknownKey = "Unknown"
)

// Filters narrows the transitions considered. Matching is case-insensitive substring; empty disables a filter.
type Filters struct {
	SourceRole          string
	DestinationRole     string
	SourceIndustry      string
	DestinationIndustry string
}

// Options configures one aggregation.
type Options struct {
	Key     Key
	Filters Filters
	TopK    int
}

// Aggregation is the outcome of one Aggregate call.
// Percentages in both bucket lists are relative to CohortSize.
type Aggregation struct {
	Buckets    []types.Bucket
	Industries []types.Bucket
	CohortSize int
	Considered int
}

type accumulator struct {
	key         string
	count       int
	industry    string
	roles       []string
	seenRoles   map[string]bool
	tenureTotal float64
}

// Aggregate filters transitions into a cohort, groups the cohort by opts.Key, and ranks
// the groups by count. Ties keep first-seen order. A second pass groups the same cohort
// by industry (destination or source, following the key's side) for the breakdown.
func Aggregate(transitions []types.Transition, opts Options) Aggregation {
	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	cohort := Filter(transitions, opts.Filters)
	total := len(cohort)

	return Aggregation{
		Buckets:    rank(cohort, opts.Key, total, topK),
		Industries: rank(cohort, industryKeyFor(opts.Key), total, IndustryTopK),
		CohortSize: total,
		Considered: len(transitions),
	}
}

// Filter returns the transitions matching every non-empty filter.
func Filter(transitions []types.Transition, f Filters) []types.Transition {
	cohort := make([]types.Transition, 0, len(transitions))
	for _, t := range transitions {
		if contains(t.SourceRole, f.SourceRole) &&
			contains(t.DestinationRole, f.DestinationRole) &&
			contains(t.SourceIndustry, f.SourceIndustry) &&
			contains(t.DestinationIndustry, f.DestinationIndustry) {
			cohort = append(cohort, t)
		}
	}
	return cohort
}

// contains reports whether value contains filter, ignoring case. An empty filter matches everything.
func contains(value, filter string) bool {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(filter))
}

// Percentage returns count as a share of total, rounded half up. A zero total yields zero.
func Percentage(count, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Floor(float64(count)*100/float64(total) + 0.5))
}

// rank groups cohort by key and returns the top buckets. total is fixed by the caller.
func rank(cohort []types.Transition, key Key, total, topK int) []types.Bucket {
	index := make(map[string]int)
	var groups []*accumulator

	for _, t := range cohort {
		k := keyOf(t, key)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, &accumulator{
				key:       k,
				industry:  industryOf(t, key),
				roles:     make([]string, 0, SampleRolesCap),
				seenRoles: make(map[string]bool),
			})
		}
		g := groups[i]
		g.count++
		g.tenureTotal += t.TenureYears
		g.addRole(roleOf(t, key))
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].count > groups[j].count
	})
	if len(groups) > topK {
		groups = groups[:topK]
	}

	buckets := make([]types.Bucket, 0, len(groups))
	for _, g := range groups {
		buckets = append(buckets, types.Bucket{
			Key:            g.key,
			Count:          g.count,
			Percentage:     Percentage(g.count, total),
			Industry:       g.industry,
			SampleRoles:    g.roles,
			AvgTenureYears: math.Round(g.tenureTotal/float64(g.count)*100) / 100,
		})
	}
	return buckets
}

func (a *accumulator) addRole(role string) {
	role = strings.TrimSpace(role)
	if role == "" || len(a.roles) >= SampleRolesCap {
		return
	}
	folded := strings.ToLower(role)
	if a.seenRoles[folded] {
		return
	}
	a.seenRoles[folded] = true
	a.roles = append(a.roles, role)
}

func keyOf(t types.Transition, key Key) string {
	var k string
	switch key {
	case KeySourceCompany:
		k = t.SourceCompany
	case KeyIndustry:
		k = t.DestinationIndustry
	case KeySourceIndustry:
		k = t.SourceIndustry
	default:
		k = t.DestinationCompany
	}
	k = strings.TrimSpace(k)
	if k == "" {
		return UnknownKey
	}
	return k
}

// industryOf returns the industry attached to a company-keyed bucket.
func industryOf(t types.Transition, key Key) string {
	switch key {
	case KeyDestinationCompany:
		return t.DestinationIndustry
	case KeySourceCompany:
		return t.SourceIndustry
	default:
		return ""
	}
}

// roleOf returns the role sampled into a bucket: the role held on the key's side.
func roleOf(t types.Transition, key Key) string {
	if isSourceSide(key) {
		return t.SourceRole
	}
	return t.DestinationRole
}

func industryKeyFor(key Key) Key {
	if isSourceSide(key) {
		return KeySourceIndustry
	}
	return KeyIndustry
}

func isSourceSide(key Key) bool {
	return key == KeySourceCompany || key == KeySourceIndustry
}
