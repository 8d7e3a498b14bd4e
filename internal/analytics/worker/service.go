// Package worker consumes order and payment events from Pub/Sub and hands them
// to the analytics router, at most once per event id.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/victorybazaar/victorybazaar-backend/internal/analytics/router"
	"github.com/victorybazaar/victorybazaar-backend/internal/analytics/types"
	"github.com/victorybazaar/victorybazaar-backend/pkg/logger"
	"github.com/victorybazaar/victorybazaar-backend/pkg/metrics"
)


type Handler interface {
	Handle(ctx context.Context, envelope types.Envelope) error
}

type HandlerFunc func(ctx context.Context, envelope types.Envelope) error

func (fn HandlerFunc) Handle(ctx context.Context, envelope types.Envelope) error {
	return fn(ctx, envelope)
}

// Deduplicator claims event ids so a redelivered message is handled once.
// *idempotency.Ledger implements it.
type Deduplicator interface {
	Claim(ctx context.Context, eventID uuid.UUID) (bool, error)
	Release(ctx context.Context, eventID uuid.UUID) error
}

type Params struct {
	Subscriptions []*gcppubsub.Subscriber
	Handler       Handler
	Dedupe        Deduplicator
	Logger        *logger.Logger
	Metrics       *metrics.AnalyticsMetrics
}

type Service struct {
	subscriptions []*gcppubsub.Subscriber
	handler       Handler
	dedupe        Deduplicator
	logg          *logger.Logger
	metrics       *metrics.AnalyticsMetrics
}

func NewService(p Params) (*Service, error) {
	switch {
	case len(p.Subscriptions) == 0:
		return nil, errors.New("analytics subscription is required")
	case p.Handler == nil:
		return nil, errors.New("analytics handler is required")
	case p.Dedupe == nil:
		return nil, errors.New("deduplicator is required")
	case p.Logger == nil:
		return nil, errors.New("logger is required")
	}
	for _, sub := range p.Subscriptions {
		if sub == nil {
			return nil, errors.New("analytics subscription is nil")
		}
	}
	return &Service{
		subscriptions: p.Subscriptions,
		handler:       p.Handler,
		dedupe:        p.Dedupe,
		logg:          p.Logger,
		metrics:       p.Metrics,
	}, nil
}

// Run receives from every subscription until ctx ends or one receiver fails,
// which stops the rest.
func (s *Service) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, sub := range s.subscriptions {
		g.Go(func() error {
			err := sub.Receive(gctx, func(msgCtx context.Context, msg *gcppubsub.Message) {
				if s.process(msgCtx, msg) == metrics.AnalyticsRetry {
					msg.Nack()
					return
				}
				msg.Ack()
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("receive %s: %w", sub.String(), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// process decides the fate of one message. Only AnalyticsRetry nacks; a
// message that can never be handled is acked and counted as dropped.
func (s *Service) process(ctx context.Context, msg *gcppubsub.Message) (outcome metrics.AnalyticsOutcome) {
	ctx = s.logg.WithField(ctx, "message_id", msg.ID)
	eventType := msg.Attributes["event_type"]
	defer func() { s.metrics.Record(eventType, outcome) }()

	env, err := buildEnvelope(msg)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "analytics.invalid_envelope")
		return metrics.AnalyticsDropped
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"event_id":       env.EventID,
		"event_type":     string(env.EventType),
		"aggregate_type": string(env.AggregateType),
		"aggregate_id":   env.AggregateID,
		"occurred_at":    env.OccurredAt.Format(time.RFC3339Nano),
	})

	eventID, err := uuid.Parse(env.EventID)
	if err != nil {
		s.logg.Warn(ctx, "analytics.invalid_event_id")
		return metrics.AnalyticsDropped
	}

	claimed, err := s.dedupe.Claim(ctx, eventID)
	switch {
	case err != nil:
		s.logg.Error(ctx, "analytics.idempotency_failed", err)
		return metrics.AnalyticsRetry
	case !claimed:
		s.logg.Info(ctx, "analytics.duplicate")
		return metrics.AnalyticsDuplicate
	}

	err = s.handler.Handle(ctx, *env)
	switch {
	case err == nil:
		s.logg.Info(ctx, "analytics.handled")
		return metrics.AnalyticsHandled
	case errors.Is(err, router.ErrUnsupportedEventType), errors.Is(err, router.ErrInvalidPayload):
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "analytics.dropped")
		return metrics.AnalyticsDropped
	}

	s.logg.Error(ctx, "analytics.handler_failed", err)
	if err := s.dedupe.Release(ctx, eventID); err != nil {
		s.logg.Error(ctx, "analytics.release_failed", err)
	}
	return metrics.AnalyticsRetry
}
