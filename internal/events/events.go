// Package events publishes domain events to NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Subjects events are published on.
const (
	SubjectQueryAnswered       = "career.query.answered"
	SubjectTransitionsIngested = "career.transitions.ingested"
)

// QueryAnswered is emitted after every answered query, successful or not.
type QueryAnswered struct {
	RequestID     string    `json:"request_id"`
	Type          string    `json:"type"`
	Success       bool      `json:"success"`
	Companies     []string  `json:"companies,omitempty"`
	TotalAnalyzed int       `json:"total_analyzed"`
	AnsweredAt    time.Time `json:"answered_at"`
}

// TransitionsIngested is emitted after a batch ingestion run.
type TransitionsIngested struct {
	Company     string    `json:"company"`
	CompanyID   string    `json:"company_id"`
	Scanned     int       `json:"scanned"`
	Transitions int       `json:"transitions"`
	Skipped     int       `json:"skipped"`
	IngestedAt  time.Time `json:"ingested_at"`
}

// Publisher emits domain events. Implementations log failures rather than return them.
type Publisher interface {
	QueryAnswered(ctx context.Context, event QueryAnswered)
	TransitionsIngested(ctx context.Context, event TransitionsIngested)
}

// conn is the subset of *nats.Conn used for publishing.
type conn interface {
	Publish(subject string, data []byte) error
	Close()
}

// NATS publishes events as JSON messages.
type NATS struct {
	conn   conn
	logger *zap.Logger
}

// Connect dials the NATS server at url. The connection retries and reconnects in the background.
func Connect(url string, logger *zap.Logger) (*NATS, error) {
	logger = logger.Named("events")
	opts := []nats.Option{
		nats.Name("career-transitions"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return &NATS{conn: nc, logger: logger}, nil
}

// QueryAnswered publishes on SubjectQueryAnswered.
func (p *NATS) QueryAnswered(_ context.Context, event QueryAnswered) {
	p.publish(SubjectQueryAnswered, event)
}

// TransitionsIngested publishes on SubjectTransitionsIngested.
func (p *NATS) TransitionsIngested(_ context.Context, event TransitionsIngested) {
	p.publish(SubjectTransitionsIngested, event)
}

// Close closes the underlying connection.
func (p *NATS) Close() {
	p.conn.Close()
}

func (p *NATS) publish(subject string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		p.logger.Error("failed to marshal event", zap.String("subject", subject), zap.Error(err))
		return
	}
	if err := p.conn.Publish(subject, payload); err != nil {
		p.logger.Warn("failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}

// Nop discards every event.
type Nop struct{}

// QueryAnswered does nothing.
func (Nop) QueryAnswered(context.Context, QueryAnswered) {}

// TransitionsIngested does nothing.
func (Nop) TransitionsIngested(context.Context, TransitionsIngested) {}
