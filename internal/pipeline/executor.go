// Package pipeline answers free-text career questions: it parses the question, gathers
// transitions through the directory, and aggregates or compares them into a Result.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/career-transitions/internal/directory"
	"github.com/jonathan/career-transitions/internal/events"
	"github.com/jonathan/career-transitions/internal/parsing"
	"github.com/jonathan/career-transitions/internal/ranking"
	"github.com/jonathan/career-transitions/internal/transitions"
	"github.com/jonathan/career-transitions/internal/types"
)

// Defaults for Config fields left at zero.
const (
	DefaultMaxPeoplePerQuery = 50
	DefaultEnrichConcurrency = 5
	DefaultCompareFanOut     = 2
	DefaultCompareIndustry   = "Private Equity"
	DefaultTolerance         = transitions.DefaultTolerance
	defaultTopK              = ranking.DefaultTopK
)

// Config bounds the work done per query.
type Config struct {
	// MaxPeoplePerQuery caps how many people are enriched per company. Results are always a sample.
	MaxPeoplePerQuery int
	// EnrichConcurrency caps concurrent enrichment calls per company.
	EnrichConcurrency int
	// CompareFanOut caps concurrent COMPARE branches.
	CompareFanOut int
	TopK          int
	// Tolerance is how far a next position may start before the source position ends.
	// Zero requires the next start on or after the end; use DefaultConfig for the usual window.
	Tolerance              time.Duration
	DefaultCompareIndustry string
}

// DefaultConfig returns the default per-query limits.
func DefaultConfig() Config {
	return Config{
		MaxPeoplePerQuery:      DefaultMaxPeoplePerQuery,
		EnrichConcurrency:      DefaultEnrichConcurrency,
		CompareFanOut:          DefaultCompareFanOut,
		TopK:                   defaultTopK,
		Tolerance:              DefaultTolerance,
		DefaultCompareIndustry: DefaultCompareIndustry,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxPeoplePerQuery <= 0 {
		c.MaxPeoplePerQuery = d.MaxPeoplePerQuery
	}
	if c.EnrichConcurrency <= 0 {
		c.EnrichConcurrency = d.EnrichConcurrency
	}
	if c.CompareFanOut <= 0 {
		c.CompareFanOut = d.CompareFanOut
	}
	if c.TopK <= 0 {
		c.TopK = d.TopK
	}
	if c.Tolerance < 0 {
		c.Tolerance = 0
	}
	if c.DefaultCompareIndustry == "" {
		c.DefaultCompareIndustry = d.DefaultCompareIndustry
	}
	return c
}

// TransitionSink stores transitions computed while answering.
type TransitionSink interface {
	UpsertTransitions(ctx context.Context, transitions []types.Transition) error
}

// ProgressEvent represents a progress update while answering a query
type ProgressEvent struct {
	RequestID string `json:"request_id"`
	Step      string `json:"step"`
	Message   string `json:"message"`
}

// ProgressCallback is called when answering progresses. Calls are serialized per Executor.
type ProgressCallback func(event ProgressEvent)

// Options holds the collaborators of an Executor. Parser, Classifier, and Directory are required.
type Options struct {
	Parser     *parsing.Parser
	Classifier transitions.Classifier
	Directory  directory.Directory
	Store      TransitionSink
	Publisher  events.Publisher
	Config     Config
	Logger     *zap.Logger
	OnProgress ProgressCallback
}

// Executor dispatches parsed queries. It holds no per-query state and is safe for concurrent use.
type Executor struct {
	parser     *parsing.Parser
	classifier transitions.Classifier
	directory  directory.Directory
	store      TransitionSink
	publisher  events.Publisher
	cfg        Config
	logger     *zap.Logger
	onProgress ProgressCallback
	progressMu sync.Mutex
}

// NewExecutor creates an Executor.
func NewExecutor(opts Options) (*Executor, error) {
	if opts.Parser == nil {
		return nil, errors.New("executor requires a parser")
	}
	if opts.Classifier == nil {
		return nil, errors.New("executor requires an industry classifier")
	}
	if opts.Directory == nil {
		return nil, errors.New("executor requires a directory")
	}
	if opts.Publisher == nil {
		opts.Publisher = events.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Executor{
		parser:     opts.Parser,
		classifier: opts.Classifier,
		directory:  opts.Directory,
		store:      opts.Store,
		publisher:  opts.Publisher,
		cfg:        opts.Config.withDefaults(),
		logger:     opts.Logger.Named("executor"),
		onProgress: opts.OnProgress,
	}, nil
}

// Answer parses text and answers it. Every outcome, including failures, is reported through the Result.
func (e *Executor) Answer(ctx context.Context, text string) *types.Result {
	start := time.Now()
	requestID := uuid.NewString()
	ctx = withRequestID(ctx, requestID)

	query := e.parser.Parse(text)
	e.progress(ctx, "parse", fmt.Sprintf("Classified as %s (confidence %.2f)", query.Type, query.Confidence))

	result := e.dispatch(ctx, query)
	result.RequestID = requestID
	result.Type = query.Type
	result.Query = query

	totalAnalyzed := 0
	if result.Data != nil {
		totalAnalyzed = result.Data.TotalAnalyzed
	}
	e.logger.Info("answered query",
		zap.String("request_id", requestID),
		zap.String("type", string(query.Type)),
		zap.Float64("confidence", query.Confidence),
		zap.Strings("companies", query.Companies),
		zap.Bool("success", result.Success),
		zap.Int("total_analyzed", totalAnalyzed),
		zap.Duration("elapsed", time.Since(start)),
	)
	e.publisher.QueryAnswered(ctx, events.QueryAnswered{
		RequestID:     requestID,
		Type:          string(query.Type),
		Success:       result.Success,
		Companies:     query.Companies,
		TotalAnalyzed: totalAnalyzed,
		AnsweredAt:    time.Now().UTC(),
	})
	return result
}

func (e *Executor) dispatch(ctx context.Context, q *types.ParsedQuery) *types.Result {
	switch q.Type {
	case types.QueryClarification:
		return e.clarify(q)
	case types.QueryCompare:
		return e.compare(ctx, q)
	case types.QueryExitsTo:
		if len(q.Companies) == 0 {
			return e.needCompany(q)
		}
		return e.exitsTo(ctx, q)
	case types.QueryGeneric:
		if len(q.Companies) == 0 {
			return e.needCompany(q)
		}
		result := e.exitsFrom(ctx, q)
		result.FollowUp = e.parser.FollowUp(types.QueryGeneric, q.Companies[0])
		return result
	default:
		if len(q.Companies) == 0 {
			return e.needCompany(q)
		}
		return e.exitsFrom(ctx, q)
	}
}

// clarify answers without touching the directory.
func (e *Executor) clarify(q *types.ParsedQuery) *types.Result {
	return &types.Result{
		Success:  true,
		Summary:  "I couldn't tell what you're asking.",
		FollowUp: q.FollowUp,
		Data:     &types.ResultData{Examples: e.parser.Examples()},
	}
}

// needCompany answers a directional question that names no company.
func (e *Executor) needCompany(q *types.ParsedQuery) *types.Result {
	return &types.Result{
		Success:  false,
		Summary:  "Which company do you mean? Name one in your question.",
		FollowUp: e.parser.FollowUp(types.QueryClarification, ""),
		Error:    "no company named",
	}
}

// failure converts a branch error into a failed Result with a human-readable summary.
func (e *Executor) failure(ctx context.Context, err error) *types.Result {
	var resolveErr *ResolveError
	summary := "Something went wrong while answering your question."
	switch {
	case errors.As(err, &resolveErr) && IsNotFound(err):
		summary = fmt.Sprintf("Couldn't find company %s.", resolveErr.Company)
	case directory.IsRetryable(err):
		summary = "The people directory is busy right now. Please try again shortly."
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		summary = "The request ended before the answer was ready."
	}
	e.logger.Warn("query branch failed", zap.String("request_id", requestIDFrom(ctx)), zap.Error(err))
	return &types.Result{Success: false, Summary: summary, Error: err.Error()}
}

func (e *Executor) progress(ctx context.Context, step, message string) {
	if e.onProgress == nil {
		return
	}
	e.progressMu.Lock()
	defer e.progressMu.Unlock()
	e.onProgress(ProgressEvent{RequestID: requestIDFrom(ctx), Step: step, Message: message})
}

type requestIDKey struct{}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
