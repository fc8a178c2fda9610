package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/career-transitions/internal/config"
	"github.com/jonathan/career-transitions/internal/db"
	"github.com/jonathan/career-transitions/internal/directory"
	"github.com/jonathan/career-transitions/internal/events"
	"github.com/jonathan/career-transitions/internal/industry"
	"github.com/jonathan/career-transitions/internal/ingestion"
	"github.com/jonathan/career-transitions/internal/parsing"
	"github.com/jonathan/career-transitions/internal/pipeline"
	"github.com/jonathan/career-transitions/internal/rules"
	"github.com/jonathan/career-transitions/internal/types"
)

var errDirectoryRequired = errors.New("directory URL is required (set DIRECTORY_URL or directory_url)")

// unconfiguredDirectory stands in when no directory URL is set, so questions that never
// reach the directory still get answered.
type unconfiguredDirectory struct{}

func (unconfiguredDirectory) SearchCompany(context.Context, string) (*types.CompanyRecord, error) {
	return nil, errDirectoryRequired
}

func (unconfiguredDirectory) ListEmployees(context.Context, string, directory.ListOptions) (*directory.Page, error) {
	return nil, errDirectoryRequired
}

func (unconfiguredDirectory) EnrichPerson(context.Context, string) (*types.Person, error) {
	return nil, errDirectoryRequired
}

// app holds the collaborators shared by the subcommands.
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	store      db.Store
	directory  directory.Directory
	publisher  events.Publisher
	parser     *parsing.Parser
	classifier *industry.Classifier
	closers    []func()
}

// newApp wires the store, directory, event publisher, and rule tables described by cfg.
// Without a database URL the store is in memory; without a NATS URL events are dropped.
// Without a directory URL every directory call fails with errDirectoryRequired.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger, publisher: events.Nop{}}

	parser, classifier, err := loadRules(cfg.RulesPath)
	if err != nil {
		return nil, err
	}
	a.parser = parser
	a.classifier = classifier

	var upstream directory.Directory = unconfiguredDirectory{}
	if cfg.DirectoryURL != "" {
		client, err := directory.NewClient(directory.ClientConfig{
			BaseURL: cfg.DirectoryURL,
			APIKey:  cfg.DirectoryAPIKey,
			RPS:     cfg.DirectoryRPS,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create directory client: %w", err)
		}
		upstream = client
	}

	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.store = database
	} else {
		logger.Debug("no database configured, using in-memory store")
		a.store = db.NewMemory()
	}
	a.closers = append(a.closers, a.store.Close)
	a.directory = directory.NewCached(upstream, a.store, cfg.CacheTTL(), logger)

	if cfg.NatsURL != "" {
		publisher, err := events.Connect(cfg.NatsURL, logger)
		if err != nil {
			a.close()
			return nil, err
		}
		a.publisher = publisher
		a.closers = append(a.closers, publisher.Close)
	}
	return a, nil
}

// close releases connections in reverse order of creation.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) executor(onProgress pipeline.ProgressCallback) (*pipeline.Executor, error) {
	return pipeline.NewExecutor(pipeline.Options{
		Parser:     a.parser,
		Classifier: a.classifier,
		Directory:  a.directory,
		Store:      a.store,
		Publisher:  a.publisher,
		Config: pipeline.Config{
			MaxPeoplePerQuery:      a.cfg.MaxPeoplePerQuery,
			EnrichConcurrency:      a.cfg.EnrichConcurrency,
			CompareFanOut:          a.cfg.CompareFanOut,
			TopK:                   a.cfg.TopK,
			Tolerance:              a.cfg.Tolerance(),
			DefaultCompareIndustry: a.cfg.DefaultCompareIndustry,
		},
		Logger:     a.logger,
		OnProgress: onProgress,
	})
}

func (a *app) ingester() (*ingestion.Ingester, error) {
	return ingestion.New(a.directory, a.store, a.classifier, a.publisher, a.logger)
}

// loadRules builds the parser and classifier from the embedded tables, overridden by files in dir.
func loadRules(dir string) (*parsing.Parser, *industry.Classifier, error) {
	tables, err := rules.Load(dir)
	if err != nil {
		return nil, nil, err
	}
	parser, err := parsing.New(tables.Lexicon)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build query parser: %w", err)
	}
	classifier, err := industry.New(tables.Industries)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build industry classifier: %w", err)
	}
	return parser, classifier, nil
}
