// Package ingestion precomputes transitions for one company in a batch and stores them.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/career-transitions/internal/directory"
	"github.com/jonathan/career-transitions/internal/events"
	"github.com/jonathan/career-transitions/internal/transitions"
	"github.com/jonathan/career-transitions/internal/types"
)

// Defaults for Options fields left at zero.
const (
	DefaultLimit       = 200
	DefaultConcurrency = 5
)

// Options configures one ingestion run. Tolerance is used as given; zero is strict.
type Options struct {
	Company     string        `validate:"required"`
	Limit       int           `validate:"gte=0"`
	Concurrency int           `validate:"gte=0"`
	Tolerance   time.Duration `validate:"gte=0"`
}

// Sink stores ingested transitions.
type Sink interface {
	UpsertTransitions(ctx context.Context, transitions []types.Transition) error
}

// Ingester runs batch ingestion against a directory.
type Ingester struct {
	directory  directory.Directory
	sink       Sink
	classifier transitions.Classifier
	publisher  events.Publisher
	logger     *zap.Logger
	validate   *validator.Validate
	now        func() time.Time
}

// New creates an Ingester. A nil publisher disables events.
func New(dir directory.Directory, sink Sink, classifier transitions.Classifier, publisher events.Publisher, logger *zap.Logger) (*Ingester, error) {
	if dir == nil {
		return nil, errors.New("ingestion requires a directory")
	}
	if sink == nil {
		return nil, errors.New("ingestion requires a transition store")
	}
	if classifier == nil {
		return nil, errors.New("ingestion requires an industry classifier")
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingester{
		directory:  dir,
		sink:       sink,
		classifier: classifier,
		publisher:  publisher,
		logger:     logger.Named("ingestion"),
		validate:   validator.New(),
		now:        time.Now,
	}, nil
}

// Run resolves opts.Company, pages through up to opts.Limit former employees, infers their
// exits, and upserts them. People who fail enrichment are counted as skipped.
func (in *Ingester) Run(ctx context.Context, opts Options) (*Report, error) {
	if err := in.validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("invalid ingestion options: %w", err)
	}
	if opts.Limit == 0 {
		opts.Limit = DefaultLimit
	}
	if opts.Concurrency == 0 {
		opts.Concurrency = DefaultConcurrency
	}

	report := &Report{StartedAt: in.now().UTC()}

	company, err := in.directory.SearchCompany(ctx, opts.Company)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve company %q: %w", opts.Company, err)
	}
	if company == nil {
		return nil, fmt.Errorf("failed to resolve company %q: %w", opts.Company, directory.ErrNotFound)
	}
	ref := company.Ref()
	report.Company = ref.Name
	report.CompanyID = ref.ID

	members, err := directory.CollectMembers(ctx, in.directory, ref.ID, false, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list former employees of %s: %w", ref.Name, err)
	}
	report.Scanned = len(members)
	in.logger.Info("ingesting company",
		zap.String("company", ref.Name), zap.String("company_id", ref.ID), zap.Int("people", len(members)))

	found := make([]*types.Transition, len(members))
	skipped := make([]bool, len(members))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, member := range members {
		i, member := i, member
		g.Go(func() error {
			person, err := in.directory.EnrichPerson(gCtx, member.ID)
			if err != nil || person == nil {
				in.logger.Debug("skipping person", zap.String("person_id", member.ID), zap.Error(err))
				skipped[i] = true
				return nil
			}
			if t, ok := transitions.Infer(person.ID, person.Positions, ref, opts.Tolerance, in.classifier); ok {
				found[i] = &t
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("ingestion of %s interrupted: %w", ref.Name, err)
	}

	computed := make([]types.Transition, 0, len(members))
	for i := range members {
		if skipped[i] {
			report.Skipped++
		}
		if found[i] != nil {
			computed = append(computed, *found[i])
		}
	}
	report.Transitions = len(computed)

	if len(computed) > 0 {
		if err := in.sink.UpsertTransitions(ctx, computed); err != nil {
			return nil, fmt.Errorf("failed to store transitions for %s: %w", ref.Name, err)
		}
	}
	report.FinishedAt = in.now().UTC()

	in.logger.Info("ingested company",
		zap.String("company", ref.Name),
		zap.Int("scanned", report.Scanned),
		zap.Int("transitions", report.Transitions),
		zap.Int("skipped", report.Skipped),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)
	in.publisher.TransitionsIngested(ctx, events.TransitionsIngested{
		Company:     report.Company,
		CompanyID:   report.CompanyID,
		Scanned:     report.Scanned,
		Transitions: report.Transitions,
		Skipped:     report.Skipped,
		IngestedAt:  report.FinishedAt,
	})
	return report, nil
}
