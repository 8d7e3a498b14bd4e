package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/victorybazaar/victorybazaar-backend/pkg/config"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	"github.com/victorybazaar/victorybazaar-backend/pkg/logger"
	"github.com/victorybazaar/victorybazaar-backend/pkg/metrics"
	"github.com/victorybazaar/victorybazaar-backend/pkg/outbox"
	"github.com/victorybazaar/victorybazaar-backend/pkg/outbox/registry"
)

func TestProcessBatchContinuesAfterTransientFailure(t *testing.T) {
	first, second := orderEvent(t, enums.EventOrderCreated), orderEvent(t, enums.EventOrderCreated)
	repo := &fakeRepo{events: []models.OutboxEvent{first, second}}
	pub := &fakePublisher{errs: []error{errors.New("transient"), nil}}
	relay := newTestRelay(t, repo, pub, &fakeDLQ{}, 5)

	claimed, err := relay.processBatch(context.Background())
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.Equal(t, []uuid.UUID{first.ID}, repo.failed)
	assert.Equal(t, []uuid.UUID{second.ID}, repo.published)
}

func TestProcessBatchHoldsLaterEventsOfFailedAggregate(t *testing.T) {
	created := orderEvent(t, enums.EventOrderCreated)
	cancelled := orderEvent(t, enums.EventOrderCancelled)
	cancelled.AggregateID = created.AggregateID
	other := orderEvent(t, enums.EventOrderCreated)

	repo := &fakeRepo{events: []models.OutboxEvent{created, cancelled, other}}
	pub := &fakePublisher{errs: []error{errors.New("deadline exceeded"), nil}}
	relay := newTestRelay(t, repo, pub, &fakeDLQ{}, 5)

	_, err := relay.processBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{created.ID}, repo.failed)
	assert.Equal(t, []uuid.UUID{other.ID}, repo.published)
	assert.Len(t, pub.sent, 2, "the cancellation must wait for the creation")
	assert.Equal(t, []string{created.AggregateID.String()}, pub.resumed)
}

func TestMessageAttributesAndOrderingKey(t *testing.T) {
	event := paymentEvent(t)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{}
	relay := newTestRelay(t, repo, pub, &fakeDLQ{}, 5)
	topics := relay.topics.(*fakeTopics)

	_, err := relay.processBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"payments-topic"}, topics.opened)
	require.Len(t, pub.sent, 1)

	msg := pub.sent[0]
	assert.Equal(t, "payment.completed", msg.Attributes["event_type"])
	assert.Equal(t, "payment", msg.Attributes["aggregate_type"])
	assert.Equal(t, event.AggregateID.String(), msg.Attributes["aggregate_id"])
	assert.Equal(t, "evt-payment", msg.Attributes["event_id"])
	assert.Equal(t, event.AggregateID.String(), msg.OrderingKey)
	assert.True(t, bytes.Equal(event.Payload, msg.Data), "payload is published verbatim")
}

func TestUnresolvableEventIsDeadLettered(t *testing.T) {
	event := orderEvent(t, enums.EventOrderCreated)
	event.AggregateType = enums.AggregatePayment
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	dlq := &fakeDLQ{}
	pub := &fakePublisher{}
	relay := newTestRelay(t, repo, pub, dlq, 5)

	_, err := relay.processBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, dlq.entries, 1)
	assert.Equal(t, event.ID, dlq.entries[0].EventID)
	assert.Equal(t, enums.OutboxDLQReasonNonRetryable, dlq.entries[0].ErrorReason)
	assert.True(t, bytes.Equal(event.Payload, dlq.entries[0].Payload))
	assert.Equal(t, []uuid.UUID{event.ID}, repo.terminal)
	assert.Empty(t, pub.sent)
}

func TestMaxAttemptsIsDeadLettered(t *testing.T) {
	event := orderEvent(t, enums.EventOrderCreated)
	event.AttemptCount = 1
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	dlq := &fakeDLQ{}
	relay := newTestRelay(t, repo, &fakePublisher{errs: []error{errors.New("unavailable")}}, dlq, 2)

	_, err := relay.processBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, dlq.entries, 1)
	assert.Equal(t, enums.OutboxDLQReasonMaxAttempts, dlq.entries[0].ErrorReason)
	assert.Empty(t, repo.failed)
}

func TestMissingTopicIsDeadLettered(t *testing.T) {
	event := orderEvent(t, enums.EventOrderCreated)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	dlq := &fakeDLQ{}
	relay := newTestRelay(t, repo, nil, dlq, 5)

	_, err := relay.processBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, dlq.entries, 1)
	assert.Equal(t, enums.OutboxDLQReasonNoPublisher, dlq.entries[0].ErrorReason)
}

func TestProcessBatchRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	repo := &fakeRepo{events: []models.OutboxEvent{orderEvent(t, enums.EventOrderCancelled)}}
	relay := newTestRelay(t, repo, &fakePublisher{}, &fakeDLQ{}, 5)
	relay.metrics = metrics.NewOutboxMetrics(reg)

	_, err := relay.processBatch(context.Background())
	require.NoError(t, err)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, mfs, 1)
	assert.Equal(t, "vb_outbox_events_total", mfs[0].GetName())
	assert.Equal(t, 1.0, mfs[0].GetMetric()[0].GetCounter().GetValue())
}

func TestEmptyBatchIsNotClaimed(t *testing.T) {
	relay := newTestRelay(t, &fakeRepo{}, &fakePublisher{}, &fakeDLQ{}, 5)
	claimed, err := relay.processBatch(context.Background())
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestRunFailsOnMissingWarmTopic(t *testing.T) {
	relay := newTestRelay(t, &fakeRepo{}, nil, &fakeDLQ{}, 5)
	relay.warm = []string{"orders-topic"}
	assert.Error(t, relay.Run(context.Background()))
}

func TestRunStopsOnCancel(t *testing.T) {
	relay := newTestRelay(t, &fakeRepo{}, &fakePublisher{}, &fakeDLQ{}, 5)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, relay.Run(ctx), context.DeadlineExceeded)
}

func TestNewRequiresCollaborators(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "relay-test", Output: io.Discard})
	_, err := New(Params{Logger: logg, DB: fakeDB{}, Repository: &fakeRepo{}, Registry: testRegistry(t), Topics: &fakeTopics{}})
	assert.Error(t, err, "dlq is required")

	r, err := New(Params{Logger: logg, DB: fakeDB{}, Repository: &fakeRepo{}, DLQ: &fakeDLQ{}, Registry: testRegistry(t), Topics: &fakeTopics{}})
	require.NoError(t, err)
	assert.Equal(t, defaultBatchSize, r.batchSize)
	assert.Equal(t, defaultMaxAttempts, r.maxAttempts)
	assert.Equal(t, defaultPoll, r.poll)
}

func TestNextBackoff(t *testing.T) {
	base := 500 * time.Millisecond
	assert.Equal(t, time.Second, nextBackoff(base, base))
	assert.Equal(t, time.Second, nextBackoff(0, base))
	assert.Equal(t, maxBackoff, nextBackoff(8*time.Second, base))
}

func newTestRelay(t *testing.T, repo *fakeRepo, pub *fakePublisher, dlq *fakeDLQ, maxAttempts int) *Relay {
	t.Helper()
	r, err := New(Params{
		Outbox:     config.OutboxConfig{BatchSize: 10, PollIntervalMS: 10, MaxAttempts: maxAttempts},
		Ordering:   true,
		Logger:     logger.New(logger.Options{ServiceName: "relay-test", Output: io.Discard}),
		DB:         fakeDB{},
		Repository: repo,
		DLQ:        dlq,
		Registry:   testRegistry(t),
		Topics:     &fakeTopics{pub: pub},
	})
	require.NoError(t, err)
	return r
}

func testRegistry(t *testing.T) *registry.EventRegistry {
	t.Helper()
	reg, err := registry.NewEventRegistry(config.PubSubConfig{OrdersTopic: "orders-topic", PaymentsTopic: "payments-topic"})
	require.NoError(t, err)
	return reg
}

func orderEvent(t *testing.T, eventType enums.OutboxEventType) models.OutboxEvent {
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       envelope(t, uuid.NewString(), `{"orderNumber":"VB000001"}`),
		CreatedAt:     time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func paymentEvent(t *testing.T) models.OutboxEvent {
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventPaymentCompleted,
		AggregateType: enums.AggregatePayment,
		AggregateID:   uuid.New(),
		Payload:       envelope(t, "evt-payment", `{"paymentNumber":"PAY000001","status":"completed"}`),
	}
}

func envelope(t *testing.T, eventID, data string) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID,
		OccurredAt: time.Now().UTC(),
		Data:       json.RawMessage(data),
	})
	require.NoError(t, err)
	return raw
}

type fakeDB struct{}

func (fakeDB) Ping(context.Context) error { return nil }

func (fakeDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error { return fn(nil) }

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	terminal  []uuid.UUID
}

func (f *fakeRepo) FetchUnpublishedForPublish(*gorm.DB, int, int) ([]models.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeRepo) MarkPublishedTx(_ *gorm.DB, id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailedTx(_ *gorm.DB, id uuid.UUID, _ error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) MarkTerminalTx(_ *gorm.DB, id uuid.UUID, _ error, _ int) error {
	f.terminal = append(f.terminal, id)
	return nil
}

type fakeDLQ struct {
	entries []models.OutboxDLQ
}

func (f *fakeDLQ) InsertTx(_ *gorm.DB, entry models.OutboxDLQ) error {
	f.entries = append(f.entries, entry)
	return nil
}

type fakeTopics struct {
	pub    *fakePublisher
	opened []string
}

func (f *fakeTopics) Open(topic string) Publisher {
	f.opened = append(f.opened, topic)
	if f.pub == nil {
		return nil
	}
	return f.pub
}

func (f *fakeTopics) Close() {}

type fakePublisher struct {
	errs    []error
	sent    []*gcppubsub.Message
	resumed []string
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) Result {
	f.sent = append(f.sent, msg)
	var err error
	if len(f.errs) > 0 {
		err, f.errs = f.errs[0], f.errs[1:]
	}
	return fakeResult{err: err}
}

func (f *fakePublisher) Resume(key string) { f.resumed = append(f.resumed, key) }

type fakeResult struct {
	err error
}

func (f fakeResult) Get(context.Context) (string, error) { return "srv-1", f.err }
