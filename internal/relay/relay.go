// Package relay drains the transactional outbox onto Pub/Sub.
package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/victorybazaar/victorybazaar-backend/pkg/config"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	"github.com/victorybazaar/victorybazaar-backend/pkg/logger"
	"github.com/victorybazaar/victorybazaar-backend/pkg/metrics"
	"github.com/victorybazaar/victorybazaar-backend/pkg/outbox/registry"
)

const (
	defaultBatchSize   = 50
	defaultPoll        = 500 * time.Millisecond
	defaultMaxAttempts = 10
	publishTimeout     = 15 * time.Second
	maxBackoff         = 10 * time.Second
)

type database interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type outboxRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type dlqRepository interface {
	InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error
}

type resolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

// Params wires a relay. Topics, when set, are opened before the first batch
// so a missing topic fails startup instead of dead-lettering events.
type Params struct {
	Outbox     config.OutboxConfig
	Ordering   bool
	Logger     *logger.Logger
	DB         database
	Repository outboxRepository
	DLQ        dlqRepository
	Registry   resolver
	Topics     Topics
	Metrics    *metrics.OutboxMetrics
	Warm       []string
}

// Relay publishes outbox rows in creation order. Rows are claimed with SKIP
// LOCKED on postgres so several relays can run side by side.
type Relay struct {
	logg        *logger.Logger
	db          database
	repo        outboxRepository
	dlq         dlqRepository
	registry    resolver
	topics      Topics
	metrics     *metrics.OutboxMetrics
	ordering    bool
	warm        []string
	batchSize   int
	maxAttempts int
	poll        time.Duration
}

func New(p Params) (*Relay, error) {
	switch {
	case p.Logger == nil:
		return nil, errors.New("logger is required")
	case p.DB == nil:
		return nil, errors.New("database client is required")
	case p.Repository == nil:
		return nil, errors.New("outbox repository is required")
	case p.DLQ == nil:
		return nil, errors.New("dlq repository is required")
	case p.Registry == nil:
		return nil, errors.New("event registry is required")
	case p.Topics == nil:
		return nil, errors.New("topics are required")
	}

	r := &Relay{
		logg:        p.Logger,
		db:          p.DB,
		repo:        p.Repository,
		dlq:         p.DLQ,
		registry:    p.Registry,
		topics:      p.Topics,
		metrics:     p.Metrics,
		ordering:    p.Ordering,
		warm:        p.Warm,
		batchSize:   p.Outbox.BatchSize,
		maxAttempts: p.Outbox.MaxAttempts,
		poll:        time.Duration(p.Outbox.PollIntervalMS) * time.Millisecond,
	}
	if r.batchSize <= 0 {
		r.batchSize = defaultBatchSize
	}
	if r.maxAttempts <= 0 {
		r.maxAttempts = defaultMaxAttempts
	}
	if r.poll <= 0 {
		r.poll = defaultPoll
	}
	return r, nil
}

// Run polls until ctx is cancelled. A batch that published something is
// followed immediately by the next one; failures back off exponentially.
func (r *Relay) Run(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return fmt.Errorf("database ping: %w", err)
	}
	for _, topic := range r.warm {
		if r.topics.Open(topic) == nil {
			return fmt.Errorf("topic %s is not available", topic)
		}
	}

	wait := r.poll
	for {
		if err := ctx.Err(); err != nil {
			r.logg.Info(ctx, "outbox relay stopping")
			return err
		}

		claimed, err := r.processBatch(ctx)
		switch {
		case err != nil:
			r.logg.Error(ctx, "outbox batch failed", err)
			wait = nextBackoff(wait, r.poll)
		case claimed:
			wait = r.poll
			continue
		default:
			wait = r.poll
		}
		if err := sleep(ctx, withJitter(wait)); err != nil {
			return err
		}
	}
}

// Close flushes and stops the open topic publishers.
func (r *Relay) Close() {
	r.topics.Close()
}
