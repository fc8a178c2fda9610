package pipeline

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/career-transitions/internal/comparison"
	"github.com/jonathan/career-transitions/internal/ranking"
	"github.com/jonathan/career-transitions/internal/transitions"
	"github.com/jonathan/career-transitions/internal/types"
)

func (e *Executor) inferExit(person *types.Person, company types.CompanyRef) (types.Transition, bool) {
	return transitions.Infer(person.ID, person.Positions, company, e.cfg.Tolerance, e.classifier)
}

func (e *Executor) inferEntry(person *types.Person, company types.CompanyRef) (types.Transition, bool) {
	return transitions.InferEntry(person.ID, person.Positions, company, e.classifier)
}

// exitsFrom answers where people go after leaving the first company named.
func (e *Executor) exitsFrom(ctx context.Context, q *types.ParsedQuery) *types.Result {
	c, err := e.collect(ctx, q.Companies[0], false, e.inferExit)
	if err != nil {
		return e.failure(ctx, err)
	}
	e.save(ctx, c.transitions)

	filters := ranking.Filters{SourceRole: first(q.Roles), DestinationIndustry: first(q.Industries)}
	agg := ranking.Aggregate(c.transitions, ranking.Options{Key: ranking.KeyDestinationCompany, Filters: filters, TopK: e.cfg.TopK})
	e.progress(ctx, "aggregate", fmt.Sprintf("Grouped %d exits into %d destinations", agg.CohortSize, len(agg.Buckets)))

	result := &types.Result{
		Success: true,
		Summary: exitsFromSummary(c, agg, filters),
		Data: &types.ResultData{
			Company:       c.company.Name,
			TotalAnalyzed: c.analyzed,
			CohortSize:    agg.CohortSize,
			Exits:         agg.Buckets,
			Industries:    agg.Industries,
		},
	}
	if q.IsGeneric {
		result.FollowUp = e.parser.FollowUp(types.QueryExitsFrom, c.company.Name)
	}
	return result
}

// exitsTo answers where current employees of the first company named came from.
func (e *Executor) exitsTo(ctx context.Context, q *types.ParsedQuery) *types.Result {
	c, err := e.collect(ctx, q.Companies[0], true, e.inferEntry)
	if err != nil {
		return e.failure(ctx, err)
	}

	filters := ranking.Filters{DestinationRole: first(q.Roles), SourceIndustry: first(q.Industries)}
	agg := ranking.Aggregate(c.transitions, ranking.Options{Key: ranking.KeySourceCompany, Filters: filters, TopK: e.cfg.TopK})
	e.progress(ctx, "aggregate", fmt.Sprintf("Grouped %d entries into %d sources", agg.CohortSize, len(agg.Buckets)))

	result := &types.Result{
		Success: true,
		Summary: exitsToSummary(c, agg, filters),
		Data: &types.ResultData{
			Company:       c.company.Name,
			TotalAnalyzed: c.analyzed,
			CohortSize:    agg.CohortSize,
			Sources:       agg.Buckets,
			Industries:    agg.Industries,
		},
	}
	if q.IsGeneric {
		result.FollowUp = e.parser.FollowUp(types.QueryExitsTo, c.company.Name)
	}
	return result
}

// compare runs the exits branch for the first two companies concurrently, then compares them.
// Either side failing fails the whole comparison.
func (e *Executor) compare(ctx context.Context, q *types.ParsedQuery) *types.Result {
	names := q.Companies[:2]
	cohorts := make([]*cohort, len(names))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.CompareFanOut)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			c, err := e.collect(gCtx, name, false, e.inferExit)
			if err != nil {
				return err
			}
			cohorts[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return e.failure(ctx, err)
	}
	for _, c := range cohorts {
		e.save(ctx, c.transitions)
	}

	target := first(q.Industries)
	if target == "" {
		target = e.cfg.DefaultCompareIndustry
	}
	filters := ranking.Filters{SourceRole: first(q.Roles)}

	sides := make([]comparison.Side, len(cohorts))
	data := &types.ResultData{}
	for i, c := range cohorts {
		agg := ranking.Aggregate(c.transitions, ranking.Options{Key: ranking.KeyDestinationCompany, Filters: filters, TopK: e.cfg.TopK})
		sides[i] = comparison.Side{Company: c.company.Name, Buckets: agg.Buckets}
		data.Companies = append(data.Companies, c.company.Name)
		data.TotalAnalyzed += c.analyzed
		data.CohortSize += agg.CohortSize
	}

	cmp := comparison.Compare(sides[0], sides[1], target)
	data.Comparison = &cmp
	e.progress(ctx, "compare", fmt.Sprintf("Compared %s and %s for %s", cmp.CompanyA, cmp.CompanyB, target))

	result := &types.Result{Success: true, Summary: cmp.Insight, Data: data}
	if q.IsGeneric {
		result.FollowUp = e.parser.FollowUp(types.QueryCompare, cmp.CompanyA)
	}
	return result
}

func exitsFromSummary(c *cohort, agg ranking.Aggregation, f ranking.Filters) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyzed %d former employees of %s", c.analyzed, c.company.Name)
	writeFilters(&sb, f.SourceRole, f.DestinationIndustry)
	if agg.CohortSize == 0 {
		sb.WriteString(" but found no matching exits.")
		return sb.String()
	}
	fmt.Fprintf(&sb, ": %d exits found.", agg.CohortSize)
	writeTop(&sb, "Top destination", agg.Buckets)
	writeTop(&sb, "Most common industry", agg.Industries)
	return sb.String()
}

func exitsToSummary(c *cohort, agg ranking.Aggregation, f ranking.Filters) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyzed %d current employees of %s", c.analyzed, c.company.Name)
	writeFilters(&sb, f.DestinationRole, f.SourceIndustry)
	if agg.CohortSize == 0 {
		sb.WriteString(" but found no matching prior employers.")
		return sb.String()
	}
	fmt.Fprintf(&sb, ": %d joined from another company.", agg.CohortSize)
	writeTop(&sb, "Top source", agg.Buckets)
	writeTop(&sb, "Most common background", agg.Industries)
	return sb.String()
}

func writeFilters(sb *strings.Builder, role, industry string) {
	var parts []string
	if role != "" {
		parts = append(parts, "role: "+role)
	}
	if industry != "" {
		parts = append(parts, "industry: "+industry)
	}
	if len(parts) > 0 {
		fmt.Fprintf(sb, " (%s)", strings.Join(parts, ", "))
	}
}

func writeTop(sb *strings.Builder, label string, buckets []types.Bucket) {
	if len(buckets) == 0 {
		return
	}
	fmt.Fprintf(sb, " %s: %s (%d%%).", label, buckets[0].Key, buckets[0].Percentage)
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
