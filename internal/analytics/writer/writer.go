// Package writer streams analytics rows into BigQuery. Rows are written before
// the Pub/Sub message is acked, so nothing is buffered in memory.
package writer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	cbigquery "cloud.google.com/go/bigquery"

	"github.com/victorybazaar/victorybazaar-backend/internal/analytics/types"
)

type Config struct {
	OrderTable   string
	PaymentTable string
	RetryPolicy  RetryPolicy
}

// TableInserter is the streaming insert surface of pkg/bigquery.Client.
type TableInserter interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

type BigQueryWriter struct {
	client       TableInserter
	orderTable   string
	paymentTable string
	retry        RetryPolicy
	sleep        func(ctx context.Context, d time.Duration) error
}

func New(client TableInserter, cfg Config) (*BigQueryWriter, error) {
	if client == nil {
		return nil, errors.New("bigquery client required")
	}
	tables := map[string]*string{"order": &cfg.OrderTable, "payment": &cfg.PaymentTable}
	for name, table := range tables {
		if *table = strings.TrimSpace(*table); *table == "" {
			return nil, fmt.Errorf("%s table is required", name)
		}
	}
	return &BigQueryWriter{
		client:       client,
		orderTable:   cfg.OrderTable,
		paymentTable: cfg.PaymentTable,
		retry:        cfg.RetryPolicy.withDefaults(),
		sleep:        sleepCtx,
	}, nil
}

func (w *BigQueryWriter) InsertOrderEvent(ctx context.Context, row types.OrderEventRow) error {
	return w.insert(ctx, w.orderTable, &row)
}

func (w *BigQueryWriter) InsertPaymentEvent(ctx context.Context, row types.PaymentEventRow) error {
	return w.insert(ctx, w.paymentTable, &row)
}

// insert retries transient failures with capped doubling backoff.
func (w *BigQueryWriter) insert(ctx context.Context, table string, row cbigquery.ValueSaver) error {
	rows := []any{row}
	backoff := w.retry.InitialBackoff
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := w.client.InsertRows(ctx, table, rows)
		if err == nil {
			return nil
		}
		if attempt >= w.retry.MaxAttempts || !IsRetryable(err) {
			return fmt.Errorf("insert into %s after %d attempt(s): %w", table, attempt, err)
		}
		if err := w.sleep(ctx, backoff); err != nil {
			return err
		}
		backoff = min(backoff*2, w.retry.MaximumBackoff)
	}
}

// EncodeJSON renders payload for a BigQuery JSON column. Nil and empty raw
// messages become NULL.
func EncodeJSON(payload any) (cbigquery.NullJSON, error) {
	var raw []byte
	switch value := payload.(type) {
	case nil:
		return cbigquery.NullJSON{}, nil
	case json.RawMessage:
		raw = value
	default:
		marshaled, err := json.Marshal(payload)
		if err != nil {
			return cbigquery.NullJSON{}, fmt.Errorf("marshal json: %w", err)
		}
		raw = marshaled
	}
	if len(raw) == 0 {
		return cbigquery.NullJSON{}, nil
	}
	return cbigquery.NullJSON{Valid: true, JSONVal: string(raw)}, nil
}
