package types

import (
	"encoding/json"
	"time"

	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	"github.com/victorybazaar/victorybazaar-backend/pkg/outbox"
)

// Envelope is a domain event as delivered over Pub/Sub: the routing attributes
// plus the stored payload envelope.
type Envelope struct {
	EventID       string                    `json:"event_id"`
	EventType     enums.OutboxEventType     `json:"event_type"`
	AggregateType enums.OutboxAggregateType `json:"aggregate_type"`
	AggregateID   string                    `json:"aggregate_id"`
	Version       int                       `json:"version"`
	OccurredAt    time.Time                 `json:"occurred_at"`
	Actor         *outbox.ActorRef          `json:"actor,omitempty"`
	Payload       json.RawMessage           `json:"payload"`
}

// ActorID returns the acting user, if the event recorded one.
func (e Envelope) ActorID() string {
	if e.Actor == nil {
		return ""
	}
	return e.Actor.UserID
}
