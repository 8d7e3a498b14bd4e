package gateways

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victorybazaar/victorybazaar-backend/pkg/config"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
)

func phonePeConfig(base string) config.PhonePeConfig {
	return config.PhonePeConfig{MerchantID: "MERCHANT", SaltKey: "salt", SaltIndex: "1", BaseURL: base}
}

func TestPhonePeInitializeSignsPayload(t *testing.T) {
	var decoded map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, phonePePayPath, r.URL.Path)
		var envelope struct {
			Request string `json:"request"`
		}
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &envelope))
		adapter := NewPhonePe(phonePeConfig(""), nil)
		assert.Equal(t, adapter.Checksum(envelope.Request+phonePePayPath), r.Header.Get("X-VERIFY"))

		payload, err := base64.StdEncoding.DecodeString(envelope.Request)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(payload, &decoded))
		_, _ = w.Write([]byte(`{"success":true,"code":"PAYMENT_INITIATED","data":{"instrumentResponse":{"redirectInfo":{"url":"https://phonepe.test/pay"}}}}`))
	}))
	defer srv.Close()

	adapter := NewPhonePe(phonePeConfig(srv.URL), srv.Client())
	intent, err := adapter.Initialize(context.Background(), &models.Order{OrderNumber: "VB000001"}, testPayment())
	require.NoError(t, err)
	assert.Equal(t, "PAY000001", intent.GatewayOrderID)
	assert.Equal(t, "https://phonepe.test/pay", intent.PaymentLink)
	assert.Equal(t, float64(70800), decoded["amount"])
	assert.Equal(t, "PAY000001", decoded["merchantTransactionId"])
}

func TestPhonePeChecksumFormat(t *testing.T) {
	adapter := NewPhonePe(phonePeConfig(""), nil)
	sum := adapter.Checksum("abc")
	assert.Len(t, sum, 64+len("###1"))
	assert.Equal(t, "###1", sum[64:])
}

func TestPhonePeVerifyChecksStatus(t *testing.T) {
	code := "PAYMENT_SUCCESS"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pg/v1/status/MERCHANT/PAY000001", r.URL.Path)
		assert.Equal(t, "MERCHANT", r.Header.Get("X-MERCHANT-ID"))
		_, _ = w.Write([]byte(`{"success":true,"code":"` + code + `","data":{"transactionId":"T123"}}`))
	}))
	defer srv.Close()
	adapter := NewPhonePe(phonePeConfig(srv.URL), srv.Client())
	payment := testPayment()
	payment.GatewayOrderID = strPtr("PAY000001")

	outcome, err := adapter.Verify(context.Background(), payment, PhonePeCallback{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, outcome.Status)
	assert.Equal(t, "T123", outcome.GatewayPaymentID)

	code = "PAYMENT_ERROR"
	outcome, err = adapter.Verify(context.Background(), payment, PhonePeCallback{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, outcome.Status)

	outcome, err = adapter.Verify(context.Background(), payment, PhonePeCallback{Response: "e30=", Checksum: "forged###1"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, outcome.Status)
	assert.Equal(t, "checksum mismatch", outcome.Reason)
}

func TestPhonePeRefundAndCapture(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, phonePeRefundPath, r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"code":"PAYMENT_PENDING","data":{}}`))
	}))
	defer srv.Close()
	adapter := NewPhonePe(phonePeConfig(srv.URL), srv.Client())
	adapter.now = func() time.Time { return time.UnixMilli(1700000000000) }

	result, err := adapter.Refund(context.Background(), testPayment(), decimal.NewFromInt(10), "")
	require.NoError(t, err)
	assert.Equal(t, "RPAY0000011700000000000", result.RefundID)

	_, err = adapter.Capture(context.Background(), testPayment())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidState))
}

func TestPhonePeWebhook(t *testing.T) {
	adapter := NewPhonePe(phonePeConfig(""), nil)
	inner := base64.StdEncoding.EncodeToString([]byte(`{"success":true,"code":"PAYMENT_SUCCESS","data":{"merchantTransactionId":"PAY000001","transactionId":"T1"}}`))
	payload := []byte(`{"response":"` + inner + `"}`)

	headers := http.Header{}
	headers.Set("X-VERIFY", adapter.Checksum(inner))
	event, err := adapter.ParseWebhook(payload, headers)
	require.NoError(t, err)
	assert.Equal(t, "PAY000001:PAYMENT_SUCCESS", event.EventID)
	assert.Equal(t, "PAY000001", event.GatewayOrderID)
	require.NotNil(t, event.Outcome)
	assert.Equal(t, OutcomeSucceeded, event.Outcome.Status)

	headers.Set("X-VERIFY", "bad###1")
	_, err = adapter.ParseWebhook(payload, headers)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}
