package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	"github.com/victorybazaar/victorybazaar-backend/pkg/outbox/registry"
)

var errNoPublisher = errors.New("no publisher for topic")

// delivery is the result of one publish attempt. reason is set when the row
// must not be retried.
type delivery struct {
	topic   string
	eventID string
	err     error
	reason  enums.OutboxDLQErrorReason
}

// processBatch claims up to batchSize rows in one transaction. Once a row of
// an aggregate fails, the later rows of that aggregate in the batch are left
// untouched so subscribers never see them out of order.
func (r *Relay) processBatch(ctx context.Context) (bool, error) {
	claimed := false
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := r.repo.FetchUnpublishedForPublish(tx, r.batchSize, r.maxAttempts)
		if err != nil {
			return err
		}
		claimed = len(events) > 0

		held := map[uuid.UUID]bool{}
		for _, event := range events {
			if held[event.AggregateID] {
				continue
			}
			d := r.deliver(ctx, event)
			retrying, err := r.settle(ctx, tx, event, d)
			if err != nil {
				return err
			}
			if retrying {
				held[event.AggregateID] = true
			}
		}
		return nil
	})
	return claimed, err
}

func (r *Relay) deliver(ctx context.Context, event models.OutboxEvent) delivery {
	resolved, err := r.registry.Resolve(event)
	if err != nil {
		return delivery{err: err, reason: enums.OutboxDLQReasonNonRetryable}
	}
	d := delivery{topic: resolved.Descriptor.Topic, eventID: resolved.Envelope.EventID}

	pub := r.topics.Open(d.topic)
	if pub == nil {
		d.err = fmt.Errorf("%w %s", errNoPublisher, d.topic)
		d.reason = enums.OutboxDLQReasonNoPublisher
		return d
	}

	msg := r.message(event, resolved)
	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if _, err := pub.Publish(publishCtx, msg).Get(publishCtx); err != nil {
		if msg.OrderingKey != "" {
			pub.Resume(msg.OrderingKey)
		}
		d.err = err
		if registry.IsNonRetryable(err) {
			d.reason = enums.OutboxDLQReasonNonRetryable
		}
	}
	return d
}

// message carries the stored payload verbatim; consumers route on attributes.
func (r *Relay) message(event models.OutboxEvent, resolved *registry.ResolvedEvent) *gcppubsub.Message {
	eventID := resolved.Envelope.EventID
	if eventID == "" {
		eventID = event.ID.String()
	}
	msg := &gcppubsub.Message{
		Data: event.Payload,
		Attributes: map[string]string{
			"event_id":       eventID,
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
			"created_at":     event.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	}
	if r.ordering {
		msg.OrderingKey = event.AggregateID.String()
	}
	return msg
}

// settle records the outcome and reports whether the row stays pending.
func (r *Relay) settle(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, d delivery) (bool, error) {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     string(event.EventType),
		"aggregate_type": string(event.AggregateType),
		"aggregate_id":   event.AggregateID.String(),
		"attempt_count":  event.AttemptCount,
	}
	if d.topic != "" {
		fields["topic"] = d.topic
	}
	if d.eventID != "" {
		fields["event_id"] = d.eventID
	}
	ctx = r.logg.WithFields(ctx, fields)

	if d.err == nil {
		if err := r.repo.MarkPublishedTx(tx, event.ID); err != nil {
			return false, fmt.Errorf("mark published %s: %w", event.ID, err)
		}
		r.metrics.Published(string(event.EventType))
		r.logg.Info(ctx, "outbox.published")
		return false, nil
	}

	if d.reason == "" && event.AttemptCount+1 >= r.maxAttempts {
		d.reason = enums.OutboxDLQReasonMaxAttempts
		d.err = fmt.Errorf("max publish attempts reached: %w", d.err)
	}
	ctx = r.logg.WithField(ctx, "error", d.err.Error())

	if d.reason == "" {
		if err := r.repo.MarkFailedTx(tx, event.ID, d.err); err != nil {
			return false, fmt.Errorf("mark failed %s: %w", event.ID, err)
		}
		r.metrics.Retried(string(event.EventType))
		r.logg.Warn(ctx, "outbox.retry")
		return true, nil
	}

	msg := d.err.Error()
	entry := models.OutboxDLQ{
		EventID:       event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		ErrorReason:   d.reason,
		ErrorMessage:  &msg,
		AttemptCount:  event.AttemptCount,
		FailedAt:      time.Now().UTC(),
	}
	if err := r.dlq.InsertTx(tx, entry); err != nil {
		return false, fmt.Errorf("insert dlq %s: %w", event.ID, err)
	}
	if err := r.repo.MarkTerminalTx(tx, event.ID, d.err, r.maxAttempts); err != nil {
		return false, fmt.Errorf("mark terminal %s: %w", event.ID, err)
	}
	r.metrics.DeadLettered(string(event.EventType))
	r.logg.Warn(r.logg.WithField(ctx, "error_reason", string(d.reason)), "outbox.dead_lettered")
	return false, nil
}
