package writer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/victorybazaar/victorybazaar-backend/internal/analytics/types"
)

func TestNewWriterValidation(t *testing.T) {
	_, err := New(nil, Config{})
	assert.Error(t, err)

	_, err = New(&fakeInserter{}, Config{OrderTable: " ", PaymentTable: "payment_events"})
	assert.Error(t, err)

	_, err = New(&fakeInserter{}, Config{OrderTable: "order_events", PaymentTable: " "})
	assert.Error(t, err)
}

func TestEncodeJSON(t *testing.T) {
	nj, err := EncodeJSON(map[string]any{"foo": "bar"})
	require.NoError(t, err)
	assert.True(t, nj.Valid)
	assert.JSONEq(t, `{"foo":"bar"}`, nj.JSONVal)

	nj, err = EncodeJSON(nil)
	require.NoError(t, err)
	assert.False(t, nj.Valid)

	raw := json.RawMessage(`{"foo":"baz"}`)
	nj, err = EncodeJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, string(raw), nj.JSONVal)
}

func TestWriterRetriesOnTransientError(t *testing.T) {
	writer, fake := newWriterWithFakeInserter(t)
	fake.responses = []error{
		&googleapi.Error{Code: http.StatusServiceUnavailable},
		nil,
	}

	require.NoError(t, writer.InsertOrderEvent(context.Background(), types.OrderEventRow{EventID: "1"}))
	require.Len(t, fake.calls, 2)
	assert.Equal(t, "order_events", fake.calls[1].table)
	assert.Equal(t, []time.Duration{time.Millisecond}, fake.slept)
}

func TestWriterStopsOnPermanentError(t *testing.T) {
	writer, fake := newWriterWithFakeInserter(t)
	fake.responses = []error{&googleapi.Error{Code: http.StatusBadRequest}}

	err := writer.InsertPaymentEvent(context.Background(), types.PaymentEventRow{EventID: "1"})
	require.Error(t, err)
	assert.Len(t, fake.calls, 1)
	assert.Equal(t, "payment_events", fake.calls[0].table)
}

func TestWriterGivesUpAfterMaxAttempts(t *testing.T) {
	writer, fake := newWriterWithFakeInserter(t)
	unavailable := status.Error(codes.Unavailable, "try later")
	fake.responses = []error{unavailable, unavailable, unavailable, nil}

	err := writer.InsertOrderEvent(context.Background(), types.OrderEventRow{EventID: "1"})
	require.Error(t, err)
	assert.Len(t, fake.calls, 3)
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, fake.slept)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.True(t, IsRetryable(status.Error(codes.ResourceExhausted, "quota")))
	assert.False(t, IsRetryable(status.Error(codes.InvalidArgument, "bad row")))
	assert.False(t, IsRetryable(errors.New("schema mismatch")))

	transient := cbigquery.PutMultiError{
		{InsertID: "a", Errors: cbigquery.MultiError{&googleapi.Error{Code: http.StatusInternalServerError}}},
	}
	assert.True(t, IsRetryable(transient))

	mixed := cbigquery.PutMultiError{
		{InsertID: "a", Errors: cbigquery.MultiError{&googleapi.Error{Code: http.StatusInternalServerError}}},
		{InsertID: "b", Errors: cbigquery.MultiError{&googleapi.Error{Code: http.StatusBadRequest}}},
	}
	assert.False(t, IsRetryable(mixed))
}

type insertCall struct {
	table    string
	rowCount int
}

type fakeInserter struct {
	responses []error
	calls     []insertCall
	slept     []time.Duration
	index     int
}

func (f *fakeInserter) InsertRows(_ context.Context, table string, rows []any) error {
	f.calls = append(f.calls, insertCall{table: table, rowCount: len(rows)})
	var err error
	if f.index < len(f.responses) {
		err = f.responses[f.index]
	}
	f.index++
	return err
}

func newWriterWithFakeInserter(t *testing.T) (*BigQueryWriter, *fakeInserter) {
	t.Helper()
	fake := &fakeInserter{}
	writer, err := New(fake, Config{
		OrderTable:   "order_events",
		PaymentTable: "payment_events",
		RetryPolicy:  RetryPolicy{InitialBackoff: time.Millisecond, MaximumBackoff: 4 * time.Millisecond},
	})
	require.NoError(t, err)
	writer.sleep = func(_ context.Context, d time.Duration) error {
		fake.slept = append(fake.slept, d)
		return nil
	}
	return writer, fake
}
