// Package transitions infers job-to-job moves from a person's employment history.
// All functions are pure: no I/O, no logging, no shared state.
package transitions

import (
	"strings"
	"time"

	"github.com/jonathan/career-transitions/internal/types"
)

// DefaultTolerance is how far before the source end date a next position may start
// and still count as the move out of the source company.
const DefaultTolerance = 90 * 24 * time.Hour

// FallbackTenureYears is reported when the source position has no start date.
const FallbackTenureYears = 2.5

const daysPerYear = 365.25

// Classifier labels a company name with an industry.
type Classifier interface {
	Classify(name string) string
}

// Infer derives the exit transition of one person out of source.
// positions need not be sorted. It returns false when the person has no ended
// position at source or no position that plausibly follows it.
func Infer(personID string, positions []types.Position, source types.CompanyRef, tolerance time.Duration, classifier Classifier) (types.Transition, bool) {
	sorted := types.SortedPositions(positions)

	idx := findSource(sorted, source, false)
	if idx < 0 {
		return types.Transition{}, false
	}
	src := sorted[idx]
	if src.EndDate == nil {
		return types.Transition{}, false
	}

	threshold := src.EndDate.Add(-tolerance)
	next := -1
	var bestGap time.Duration
	for i, p := range sorted {
		if i == idx || p.StartDate == nil || p.StartDate.Before(threshold) {
			continue
		}
		if sameCompany(p.Company, src.Company, source) {
			continue
		}
		gap := absDuration(p.StartDate.Sub(*src.EndDate))
		if next < 0 || gap < bestGap || (gap == bestGap && p.StartDate.Before(*sorted[next].StartDate)) {
			next = i
			bestGap = gap
		}
	}
	if next < 0 {
		return types.Transition{}, false
	}
	dest := sorted[next]

	return types.Transition{
		PersonID:            personID,
		SourceCompany:       src.Company.Name,
		SourceCompanyID:     src.Company.ID,
		SourceRole:          src.Title,
		SourceIndustry:      classifier.Classify(src.Company.Name),
		TenureYears:         Tenure(src.StartDate, src.EndDate),
		DestinationCompany:  dest.Company.Name,
		DestinationRole:     dest.Title,
		DestinationIndustry: classifier.Classify(dest.Company.Name),
	}, true
}

// InferEntry derives how a person arrived at target: the position held right before
// their current position there. It returns false when the person is not currently at
// target or has no earlier position at another company.
func InferEntry(personID string, positions []types.Position, target types.CompanyRef, classifier Classifier) (types.Transition, bool) {
	sorted := types.SortedPositions(positions)

	idx := findSource(sorted, target, true)
	if idx < 0 {
		return types.Transition{}, false
	}
	cur := sorted[idx]

	prior := -1
	for i, p := range sorted {
		if i == idx || p.StartDate == nil || sameCompany(p.Company, cur.Company, target) {
			continue
		}
		if cur.StartDate != nil && !p.StartDate.Before(*cur.StartDate) {
			continue
		}
		// sorted is start-descending, so the first qualifying position is the latest.
		prior = i
		break
	}
	if prior < 0 {
		return types.Transition{}, false
	}
	prev := sorted[prior]
	prevEnd := prev.EndDate
	if prevEnd == nil {
		prevEnd = cur.StartDate
	}

	return types.Transition{
		PersonID:            personID,
		SourceCompany:       prev.Company.Name,
		SourceCompanyID:     prev.Company.ID,
		SourceRole:          prev.Title,
		SourceIndustry:      classifier.Classify(prev.Company.Name),
		TenureYears:         Tenure(prev.StartDate, prevEnd),
		DestinationCompany:  cur.Company.Name,
		DestinationRole:     cur.Title,
		DestinationIndustry: classifier.Classify(cur.Company.Name),
	}, true
}

// Tenure returns the years between start and end, or FallbackTenureYears when either is unknown.
func Tenure(start, end *time.Time) float64 {
	if start == nil || end == nil {
		return FallbackTenureYears
	}
	days := end.Sub(*start).Hours() / 24
	return days / daysPerYear
}

// findSource returns the index of the first position at company, preferring an ID match
// over a name match. When currentOnly is set, only ongoing positions qualify.
func findSource(sorted []types.Position, company types.CompanyRef, currentOnly bool) int {
	byName := -1
	for i, p := range sorted {
		if currentOnly && !p.IsCurrent() {
			continue
		}
		if p.Company.MatchesID(company) {
			return i
		}
		if byName < 0 && p.Company.MatchesName(company) {
			byName = i
		}
	}
	return byName
}

// sameCompany reports whether candidate is the company of the matched position.
// IDs decide when both sides carry one; otherwise names are compared against the queried company.
func sameCompany(candidate, matched, queried types.CompanyRef) bool {
	if candidate.ID != "" && matched.ID != "" {
		return candidate.ID == matched.ID
	}
	return candidate.MatchesName(queried) || strings.EqualFold(strings.TrimSpace(candidate.Name), strings.TrimSpace(matched.Name))
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
