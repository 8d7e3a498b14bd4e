package outbox

import (
	"encoding/json"
	"time"

	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
)

// ActorRef identifies who produced the event.
type ActorRef struct {
	UserID string     `json:"userId"`
	Role   enums.Role `json:"role,omitempty"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}
