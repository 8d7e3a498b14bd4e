package webhooks

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victorybazaar/victorybazaar-backend/internal/gateways"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
	"github.com/victorybazaar/victorybazaar-backend/pkg/redis"
	"github.com/victorybazaar/victorybazaar-backend/pkg/redis/redistest"
)

type stubParser struct {
	event *gateways.WebhookEvent
	err   error
}

func (s *stubParser) ParseWebhook([]byte, http.Header) (*gateways.WebhookEvent, error) {
	return s.event, s.err
}

type stubParsers struct {
	parser *stubParser
}

func (s *stubParsers) Webhook(gateway enums.PaymentGateway) (gateways.WebhookParser, error) {
	if gateway != enums.GatewayRazorpay {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no webhooks")
	}
	return s.parser, nil
}

type stubPayments struct {
	calls int
	err   error
}

func (s *stubPayments) ApplyWebhook(_ context.Context, _ enums.PaymentGateway, event *gateways.WebhookEvent) (*models.Payment, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if event.Outcome == nil {
		return nil, nil
	}
	return &models.Payment{PaymentNumber: "PAY000001", Status: enums.PaymentStatusCompleted}, nil
}

func newService(t *testing.T, parser *stubParser, payments *stubPayments) (*Service, *redistest.Memory) {
	t.Helper()
	mem := redistest.NewMemory()
	guard, err := NewIdempotencyGuard(redis.NewWithStore(mem), 24*time.Hour)
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{Parsers: &stubParsers{parser: parser}, Payments: payments, Guard: guard})
	require.NoError(t, err)
	return svc, mem
}

func succeeded(id string) *gateways.WebhookEvent {
	return &gateways.WebhookEvent{
		EventID:        id,
		Type:           "payment.captured",
		GatewayOrderID: "order_1",
		Outcome:        &gateways.Outcome{Status: gateways.OutcomeSucceeded},
	}
}

func TestHandleAppliesOnceAndDedupes(t *testing.T) {
	payments := &stubPayments{}
	svc, mem := newService(t, &stubParser{event: succeeded("evt_1")}, payments)

	res, err := svc.Handle(context.Background(), enums.GatewayRazorpay, []byte(`{}`), http.Header{})
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.False(t, res.Duplicate)

	res, err = svc.Handle(context.Background(), enums.GatewayRazorpay, []byte(`{}`), http.Header{})
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.Equal(t, 1, payments.calls)

	key := redis.NewWithStore(mem).WebhookKey("razorpay", "evt_1")
	assert.True(t, mem.Has(key))
	assert.Equal(t, 24*time.Hour, mem.TTL(key))
}

func TestHandleReleasesKeyOnFailure(t *testing.T) {
	payments := &stubPayments{err: pkgerrors.New(pkgerrors.CodeDependency, "db down")}
	svc, _ := newService(t, &stubParser{event: succeeded("evt_2")}, payments)

	_, err := svc.Handle(context.Background(), enums.GatewayRazorpay, nil, http.Header{})
	require.Error(t, err)

	payments.err = nil
	res, err := svc.Handle(context.Background(), enums.GatewayRazorpay, nil, http.Header{})
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, 2, payments.calls)
}

func TestHandleAcknowledgesUnknownPayment(t *testing.T) {
	payments := &stubPayments{err: pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")}
	svc, _ := newService(t, &stubParser{event: succeeded("evt_3")}, payments)

	res, err := svc.Handle(context.Background(), enums.GatewayRazorpay, nil, http.Header{})
	require.NoError(t, err)
	assert.False(t, res.Applied)
}

func TestHandleRejectsBadSignatureAndUnknownGateway(t *testing.T) {
	parser := &stubParser{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid signature")}
	svc, _ := newService(t, parser, &stubPayments{})

	_, err := svc.Handle(context.Background(), enums.GatewayRazorpay, nil, http.Header{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = svc.Handle(context.Background(), enums.GatewayCash, nil, http.Header{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	parser.err = nil
	parser.event = &gateways.WebhookEvent{}
	_, err = svc.Handle(context.Background(), enums.GatewayRazorpay, nil, http.Header{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestIdempotencyGuardValidation(t *testing.T) {
	_, err := NewIdempotencyGuard(nil, time.Hour)
	require.Error(t, err)
	_, err = NewIdempotencyGuard(redis.NewWithStore(redistest.NewMemory()), -time.Second)
	require.Error(t, err)

	guard, err := NewIdempotencyGuard(redis.NewWithStore(redistest.NewMemory()), time.Hour)
	require.NoError(t, err)
	_, err = guard.CheckAndMark(context.Background(), "stripe", "")
	require.Error(t, err)
	assert.Error(t, guard.Delete(context.Background(), "stripe", ""))
}
