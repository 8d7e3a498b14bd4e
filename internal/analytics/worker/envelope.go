package worker

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/victorybazaar/victorybazaar-backend/internal/analytics/types"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	"github.com/victorybazaar/victorybazaar-backend/pkg/outbox"
)

// buildEnvelope joins the routing attributes set by the outbox relay with the
// stored payload envelope. The envelope's own event id and timestamp win over
// the attribute copies.
func buildEnvelope(msg *gcppubsub.Message) (*types.Envelope, error) {
	var stored outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &stored); err != nil {
		return nil, fmt.Errorf("decode payload envelope: %w", err)
	}
	attrs := attributes(msg.Attributes)

	eventType, err := enums.ParseOutboxEventType(attrs.get("event_type"))
	if err != nil {
		return nil, fmt.Errorf("event_type: %w", err)
	}
	aggregateType := enums.OutboxAggregateType(attrs.get("aggregate_type"))
	if !aggregateType.IsValid() {
		return nil, fmt.Errorf("aggregate_type: invalid value %q", aggregateType)
	}

	env := &types.Envelope{
		EventID:       firstNonEmpty(strings.TrimSpace(stored.EventID), attrs.get("event_id")),
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   attrs.get("aggregate_id"),
		Version:       stored.Version,
		OccurredAt:    stored.OccurredAt,
		Actor:         stored.Actor,
		Payload:       stored.Data,
	}
	switch {
	case env.AggregateID == "":
		return nil, errors.New("aggregate_id missing")
	case env.EventID == "":
		return nil, errors.New("event_id missing")
	}
	if env.OccurredAt.IsZero() {
		env.OccurredAt, _ = time.Parse(time.RFC3339Nano, attrs.get("created_at"))
	}
	env.OccurredAt = env.OccurredAt.UTC()
	return env, nil
}

type attributes map[string]string

func (a attributes) get(key string) string {
	return strings.TrimSpace(a[key])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
