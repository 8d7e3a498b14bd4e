package gateways

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
)

func TestDecodeCallbackPicksVariant(t *testing.T) {
	cb, err := DecodeCallback(enums.GatewayRazorpay, json.RawMessage(`{
		"razorpay_payment_id":"pay_1","razorpay_order_id":"order_1","razorpay_signature":"abc"}`))
	require.NoError(t, err)
	assert.Equal(t, RazorpayCallback{PaymentID: "pay_1", OrderID: "order_1", Signature: "abc"}, cb)

	cb, err = DecodeCallback(enums.GatewayStripe, nil)
	require.NoError(t, err)
	assert.Equal(t, StripeCallback{}, cb)

	cb, err = DecodeCallback(enums.GatewayCash, json.RawMessage(`{"ignored":true}`))
	require.NoError(t, err)
	assert.Equal(t, enums.GatewayCash, cb.Gateway())
}

func TestDecodeCallbackRejectsIncompleteRazorpay(t *testing.T) {
	_, err := DecodeCallback(enums.GatewayRazorpay, json.RawMessage(`{"razorpay_payment_id":"pay_1"}`))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDecodeCallbackPhonePeNeedsChecksumWithResponse(t *testing.T) {
	_, err := DecodeCallback(enums.GatewayPhonePe, json.RawMessage(`{"response":"e30="}`))
	require.Error(t, err)

	cb, err := DecodeCallback(enums.GatewayPhonePe, json.RawMessage(`{"transactionId":"PAY000001"}`))
	require.NoError(t, err)
	assert.Equal(t, "PAY000001", cb.(PhonePeCallback).TransactionID)
}

func TestDecodeCallbackUnknownGateway(t *testing.T) {
	_, err := DecodeCallback(enums.GatewayPaytm, json.RawMessage(`{}`))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDecodeCallbackMalformedJSON(t *testing.T) {
	_, err := DecodeCallback(enums.GatewaySquare, json.RawMessage(`{"paymentId":`))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestRecordKeepsGatewayDiscriminator(t *testing.T) {
	raw, err := NewRecord(enums.GatewayPhonePe, PhonePeCallback{TransactionID: "PAY1", Response: "eyJ9", Checksum: "abc###1"}, []byte(`{"code":"PAYMENT_SUCCESS"}`))
	require.NoError(t, err)

	var shape map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &shape))
	assert.JSONEq(t, `"phonepe"`, string(shape["gateway"]))
	assert.JSONEq(t, `{"transactionId":"PAY1","response":"eyJ9","checksum":"abc###1"}`, string(shape["callback"]))

	rec, err := ParseRecord(raw)
	require.NoError(t, err)
	assert.Equal(t, PhonePeCallback{TransactionID: "PAY1", Response: "eyJ9", Checksum: "abc###1"}, rec.Callback)
	assert.JSONEq(t, `{"code":"PAYMENT_SUCCESS"}`, string(rec.Provider))
}

func TestRecordQuotesNonJSONProviderBytes(t *testing.T) {
	raw, err := NewRecord(enums.GatewayCash, CashCallback{}, []byte("not json"))
	require.NoError(t, err)

	rec, err := ParseRecord(raw)
	require.NoError(t, err)
	assert.Equal(t, CashCallback{}, rec.Callback)
	assert.JSONEq(t, `"not json"`, string(rec.Provider))
}

func TestRecordRejectsMismatchedCallback(t *testing.T) {
	_, err := NewRecord(enums.GatewayStripe, SquareCallback{PaymentID: "sq_1"}, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = ParseRecord(json.RawMessage(`{"gateway":"barter"}`))
	assert.Error(t, err)
}
