package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/victorybazaar/victorybazaar-backend/pkg/logger"
)

// DefaultOutboxRetention keeps a week of delivered events for replays.
const DefaultOutboxRetention = 7 * 24 * time.Hour

type outboxPruner interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error)
}

type OutboxRetentionJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository outboxPruner
	Retention  time.Duration
	// MinAttempts marks an unpublished row as abandoned; it must match the
	// relay's max attempts or live rows get pruned.
	MinAttempts int
}

// NewOutboxRetentionJob prunes delivered and abandoned outbox rows that are
// older than the retention window.
func NewOutboxRetentionJob(p OutboxRetentionJobParams) (Job, error) {
	switch {
	case p.Logger == nil:
		return nil, errors.New("logger required")
	case p.DB == nil:
		return nil, errors.New("db runner required")
	case p.Repository == nil:
		return nil, errors.New("outbox repository required")
	case p.MinAttempts <= 0:
		return nil, errors.New("min attempts must be positive")
	}
	if p.Retention <= 0 {
		p.Retention = DefaultOutboxRetention
	}
	return &outboxRetentionJob{params: p, now: time.Now}, nil
}

type outboxRetentionJob struct {
	params OutboxRetentionJobParams
	now    func() time.Time
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.params.Retention)

	var pruned int64
	if err := j.params.DB.WithTx(ctx, func(tx *gorm.DB) (err error) {
		pruned, err = j.params.Repository.DeletePublishedBefore(ctx, tx, cutoff, j.params.MinAttempts)
		return err
	}); err != nil {
		return fmt.Errorf("prune outbox before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	logg := j.params.Logger
	logg.Info(logg.WithFields(ctx, map[string]any{
		"cutoff": cutoff.Format(time.RFC3339),
		"pruned": pruned,
	}), "cron.outbox_pruned")
	return nil
}
