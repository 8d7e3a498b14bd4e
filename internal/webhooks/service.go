// Package webhooks verifies and applies payment gateway notifications.
package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/victorybazaar/victorybazaar-backend/internal/gateways"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
	"github.com/victorybazaar/victorybazaar-backend/pkg/logger"
)

type parserSource interface {
	Webhook(gateway enums.PaymentGateway) (gateways.WebhookParser, error)
}

type paymentSync interface {
	ApplyWebhook(ctx context.Context, gateway enums.PaymentGateway, event *gateways.WebhookEvent) (*models.Payment, error)
}

type ServiceParams struct {
	Parsers  parserSource
	Payments paymentSync
	Guard    *IdempotencyGuard
	Logger   *logger.Logger
}

type Service struct {
	parsers  parserSource
	payments paymentSync
	guard    *IdempotencyGuard
	logg     *logger.Logger
}

// Result describes what happened to one delivery.
type Result struct {
	EventID   string `json:"eventId"`
	Duplicate bool   `json:"duplicate"`
	Applied   bool   `json:"applied"`
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Parsers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "webhook parsers required")
	}
	if params.Payments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payments service required")
	}
	if params.Guard == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard required")
	}
	if params.Logger == nil {
		params.Logger = logger.New(logger.Options{ServiceName: "webhooks", Output: io.Discard})
	}
	return &Service{
		parsers:  params.Parsers,
		payments: params.Payments,
		guard:    params.Guard,
		logg:     params.Logger,
	}, nil
}

// Handle verifies the delivery signature, drops repeats and applies the
// outcome to the matching payment. Deliveries for unknown payments are
// acknowledged so the provider stops retrying.
func (s *Service) Handle(ctx context.Context, gateway enums.PaymentGateway, payload []byte, headers http.Header) (*Result, error) {
	parser, err := s.parsers.Webhook(gateway)
	if err != nil {
		return nil, err
	}
	event, err := parser.ParseWebhook(payload, headers)
	if err != nil {
		return nil, err
	}
	if event.EventID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook event id missing")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"gateway": string(gateway), "event_id": event.EventID, "event_type": event.Type})
	duplicate, err := s.guard.CheckAndMark(ctx, string(gateway), event.EventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check webhook idempotency")
	}
	if duplicate {
		s.logg.Info(ctx, "duplicate webhook delivery ignored")
		return &Result{EventID: event.EventID, Duplicate: true}, nil
	}

	payment, err := s.payments.ApplyWebhook(ctx, gateway, event)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			s.logg.Warn(ctx, "webhook for unknown payment acknowledged")
			return &Result{EventID: event.EventID}, nil
		}
		if delErr := s.guard.Delete(ctx, string(gateway), event.EventID); delErr != nil {
			s.logg.Error(ctx, "release webhook idempotency key", delErr)
		}
		s.logg.Error(ctx, "apply webhook", err)
		return nil, err
	}
	if payment != nil {
		s.logg.Info(s.logg.WithPayment(ctx, payment.PaymentNumber, string(gateway)), "webhook applied")
	}
	return &Result{EventID: event.EventID, Applied: payment != nil}, nil
}
