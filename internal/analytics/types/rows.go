package types

import (
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"github.com/shopspring/decimal"
)

// OrderEventRow mirrors the order_events BigQuery schema. Money columns are NUMERIC.
type OrderEventRow struct {
	EventID        string
	EventType      string
	OccurredAt     time.Time
	OrderID        string
	OrderNumber    string
	UserID         string
	ActorID        string
	Status         string
	PreviousStatus string
	PaymentMethod  string
	CouponCode     string
	TrackingNumber string
	Reason         string
	Expired        bool
	ItemCount      int
	Subtotal       *decimal.Decimal
	Discount       *decimal.Decimal
	Total          *decimal.Decimal
	Items          cbigquery.NullJSON
	Payload        cbigquery.NullJSON
}

// Save implements bigquery.ValueSaver. The event id doubles as the insert id so
// a redelivered message does not produce a second row.
func (r *OrderEventRow) Save() (map[string]cbigquery.Value, string, error) {
	return map[string]cbigquery.Value{
		"event_id":        r.EventID,
		"event_type":      r.EventType,
		"occurred_at":     r.OccurredAt,
		"order_id":        r.OrderID,
		"order_number":    r.OrderNumber,
		"user_id":         nullString(r.UserID),
		"actor_id":        nullString(r.ActorID),
		"status":          nullString(r.Status),
		"previous_status": nullString(r.PreviousStatus),
		"payment_method":  nullString(r.PaymentMethod),
		"coupon_code":     nullString(r.CouponCode),
		"tracking_number": nullString(r.TrackingNumber),
		"reason":          nullString(r.Reason),
		"expired":         r.Expired,
		"item_count":      r.ItemCount,
		"subtotal":        numeric(r.Subtotal),
		"discount":        numeric(r.Discount),
		"total":           numeric(r.Total),
		"items":           r.Items,
		"payload":         r.Payload,
	}, r.EventID, nil
}

// PaymentEventRow mirrors the payment_events BigQuery schema.
type PaymentEventRow struct {
	EventID          string
	EventType        string
	OccurredAt       time.Time
	PaymentID        string
	PaymentNumber    string
	OrderID          string
	OrderNumber      string
	UserID           string
	Gateway          string
	Method           string
	Status           string
	Currency         string
	Amount           decimal.Decimal
	RefundAmount     *decimal.Decimal
	GatewayPaymentID string
	Reason           string
	Attempts         int
	Payload          cbigquery.NullJSON
}

// Save implements bigquery.ValueSaver.
func (r *PaymentEventRow) Save() (map[string]cbigquery.Value, string, error) {
	amount := r.Amount
	return map[string]cbigquery.Value{
		"event_id":           r.EventID,
		"event_type":         r.EventType,
		"occurred_at":        r.OccurredAt,
		"payment_id":         r.PaymentID,
		"payment_number":     r.PaymentNumber,
		"order_id":           r.OrderID,
		"order_number":       nullString(r.OrderNumber),
		"user_id":            nullString(r.UserID),
		"gateway":            r.Gateway,
		"method":             nullString(r.Method),
		"status":             r.Status,
		"currency":           r.Currency,
		"amount":             numeric(&amount),
		"refund_amount":      numeric(r.RefundAmount),
		"gateway_payment_id": nullString(r.GatewayPaymentID),
		"reason":             nullString(r.Reason),
		"attempts":           r.Attempts,
		"payload":            r.Payload,
	}, r.EventID, nil
}

func nullString(value string) cbigquery.Value {
	if value == "" {
		return nil
	}
	return value
}

func numeric(value *decimal.Decimal) cbigquery.Value {
	if value == nil {
		return nil
	}
	return value.Rat()
}
