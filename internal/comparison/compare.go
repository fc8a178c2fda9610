// Package comparison compares two companies' exit patterns into a target industry.
package comparison

import (
	"fmt"
	"strings"

	"github.com/jonathan/career-transitions/internal/types"
)

// maxCitedBuckets is how many of the winner's buckets the insight names.
const maxCitedBuckets = 2

// Side is one company's aggregated exits.
type Side struct {
	Company string
	Buckets []types.Bucket
}

// Compare derives each side's rate into targetIndustry and names a winner.
// A side's rate is the sum of the percentages of its buckets whose industry contains
// targetIndustry, ignoring case. Equal rates produce no winner.
func Compare(a, b Side, targetIndustry string) types.Comparison {
	rateA := Rate(a.Buckets, targetIndustry)
	rateB := Rate(b.Buckets, targetIndustry)

	result := types.Comparison{
		CompanyA:       a.Company,
		CompanyB:       b.Company,
		TargetIndustry: targetIndustry,
		RateA:          rateA,
		RateB:          rateB,
		BucketsA:       a.Buckets,
		BucketsB:       b.Buckets,
	}

	if rateA == rateB {
		result.Insight = fmt.Sprintf("%s and %s send a similar share of people into %s (%d%% each).",
			a.Company, b.Company, targetIndustry, rateA)
		return result
	}

	winner, loser, gap := a, b, rateA-rateB
	if rateB > rateA {
		winner, loser, gap = b, a, rateB-rateA
	}
	result.Winner = winner.Company

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s leads %s into %s by %d percentage points (%d%% vs %d%%).",
		winner.Company, loser.Company, targetIndustry, gap, max(rateA, rateB), min(rateA, rateB))
	if cited := topMatching(winner.Buckets, targetIndustry, maxCitedBuckets); len(cited) > 0 {
		fmt.Fprintf(&sb, " Top destinations: %s.", strings.Join(cited, ", "))
	}
	result.Insight = sb.String()
	return result
}

// Rate sums the percentages of buckets whose industry matches targetIndustry.
func Rate(buckets []types.Bucket, targetIndustry string) int {
	rate := 0
	for _, b := range buckets {
		if matchesIndustry(b, targetIndustry) {
			rate += b.Percentage
		}
	}
	return rate
}

func topMatching(buckets []types.Bucket, targetIndustry string, limit int) []string {
	var cited []string
	for _, b := range buckets {
		if len(cited) == limit {
			break
		}
		if matchesIndustry(b, targetIndustry) {
			cited = append(cited, fmt.Sprintf("%s (%d%%)", b.Key, b.Percentage))
		}
	}
	return cited
}

func matchesIndustry(b types.Bucket, targetIndustry string) bool {
	target := strings.ToLower(strings.TrimSpace(targetIndustry))
	if target == "" {
		return false
	}
	return strings.Contains(strings.ToLower(b.Industry), target)
}
