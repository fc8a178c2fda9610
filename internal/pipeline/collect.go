package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/career-transitions/internal/directory"
	"github.com/jonathan/career-transitions/internal/types"
)

// inferFunc derives at most one transition from a person relative to a resolved company.
type inferFunc func(person *types.Person, company types.CompanyRef) (types.Transition, bool)

// cohort is what one company's sample yielded.
type cohort struct {
	company     types.CompanyRef
	analyzed    int
	transitions []types.Transition
}

// collect resolves companyName, samples up to MaxPeoplePerQuery current or former employees,
// enriches them with bounded concurrency, and infers one transition per person.
// People whose enrichment fails are skipped; only resolution and listing failures are returned.
func (e *Executor) collect(ctx context.Context, companyName string, current bool, infer inferFunc) (*cohort, error) {
	company, err := e.directory.SearchCompany(ctx, companyName)
	if err != nil {
		return nil, &ResolveError{Company: companyName, Cause: err}
	}
	if company == nil {
		return nil, &ResolveError{Company: companyName, Cause: directory.ErrNotFound}
	}
	ref := company.Ref()
	e.progress(ctx, "resolve", fmt.Sprintf("Resolved %q to %s", companyName, ref.Name))

	members, err := directory.CollectMembers(ctx, e.directory, ref.ID, current, e.cfg.MaxPeoplePerQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees of %s: %w", ref.Name, err)
	}
	e.progress(ctx, "enrich", fmt.Sprintf("Enriching %d people from %s", len(members), ref.Name))

	enriched := make([]bool, len(members))
	found := make([]*types.Transition, len(members))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.EnrichConcurrency)
	for i, member := range members {
		i, member := i, member
		g.Go(func() error {
			person, err := e.directory.EnrichPerson(gCtx, member.ID)
			if err != nil {
				e.logger.Debug("skipping person",
					zap.String("request_id", requestIDFrom(ctx)), zap.String("person_id", member.ID), zap.Error(err))
				return nil
			}
			if person == nil {
				return nil
			}
			enriched[i] = true
			if t, ok := infer(person, ref); ok {
				found[i] = &t
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := &cohort{company: ref}
	for i := range members {
		if enriched[i] {
			c.analyzed++
		}
		if found[i] != nil {
			c.transitions = append(c.transitions, *found[i])
		}
	}
	return c, nil
}

// save upserts computed exit transitions. Entry transitions are never stored. Failures are logged; answering does not depend on them.
func (e *Executor) save(ctx context.Context, computed []types.Transition) {
	if e.store == nil || len(computed) == 0 {
		return
	}
	if err := e.store.UpsertTransitions(ctx, computed); err != nil {
		e.logger.Warn("failed to store transitions",
			zap.String("request_id", requestIDFrom(ctx)), zap.Int("count", len(computed)), zap.Error(err))
	}
}
