package registry

import (
	"github.com/victorybazaar/victorybazaar-backend/pkg/config"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	"github.com/victorybazaar/victorybazaar-backend/pkg/outbox/payloads"
)

type topicKind int

const (
	ordersTopic topicKind = iota
	paymentsTopic
)

func (k topicKind) name(cfg config.PubSubConfig) string {
	if k == paymentsTopic {
		return cfg.PaymentsTopic
	}
	return cfg.OrdersTopic
}

type catalogEntry struct {
	aggregate enums.OutboxAggregateType
	topic     topicKind
	payload   func() any
}

func payloadOf[T any]() func() any {
	return func() any { return new(T) }
}

// catalog is the single list of v1 events the outbox carries. Publisher-side
// routing and consumer-side decoding are both derived from it.
var catalog = map[enums.OutboxEventType]catalogEntry{
	enums.EventOrderCreated:       {enums.AggregateOrder, ordersTopic, payloadOf[payloads.OrderCreatedEvent]()},
	enums.EventOrderCancelled:     {enums.AggregateOrder, ordersTopic, payloadOf[payloads.OrderCancelledEvent]()},
	enums.EventOrderStatusChanged: {enums.AggregateOrder, ordersTopic, payloadOf[payloads.OrderStatusChangedEvent]()},
	enums.EventPaymentCompleted:   {enums.AggregatePayment, paymentsTopic, payloadOf[payloads.PaymentStatusEvent]()},
	enums.EventPaymentFailed:      {enums.AggregatePayment, paymentsTopic, payloadOf[payloads.PaymentStatusEvent]()},
	enums.EventPaymentRefunded:    {enums.AggregatePayment, paymentsTopic, payloadOf[payloads.PaymentStatusEvent]()},
}
