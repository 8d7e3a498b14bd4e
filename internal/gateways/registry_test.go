package gateways

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
	"github.com/victorybazaar/victorybazaar-backend/pkg/metrics"
)

func TestRegistryResolvesAdapters(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register(NewCash())

	adapter, err := reg.Get(enums.GatewayCash)
	require.NoError(t, err)
	assert.Equal(t, enums.GatewayCash, adapter.Gateway())
	assert.Equal(t, []enums.PaymentGateway{enums.GatewayCash}, reg.Available())

	_, err = reg.Get("venmo")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = reg.Get(enums.GatewayPaytm)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Contains(t, err.Error(), "not available")
}

func TestRegistryWebhookRequiresParser(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register(NewCash())
	reg.Register(NewSquare(&stubSquare{}, "https://example.test/hooks/square"))

	_, err := reg.Webhook(enums.GatewayCash)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	parser, err := reg.Webhook(enums.GatewaySquare)
	require.NoError(t, err)
	assert.NotNil(t, parser)
}

func TestRegistryObservesCalls(t *testing.T) {
	promReg := prometheus.NewRegistry()
	reg := NewRegistry(metrics.NewGatewayMetrics(promReg))
	reg.Register(NewCash())

	adapter, err := reg.Get(enums.GatewayCash)
	require.NoError(t, err)

	payment := &models.Payment{PaymentNumber: "PAY000001", Amount: decimal.NewFromInt(100)}
	_, err = adapter.Initialize(context.Background(), &models.Order{OrderNumber: "VB000001"}, payment)
	require.NoError(t, err)
	_, err = adapter.Refund(context.Background(), payment, decimal.NewFromInt(100), "")
	require.NoError(t, err)

	families, err := promReg.Gather()
	require.NoError(t, err)
	var total float64
	for _, family := range families {
		if family.GetName() != "vb_payment_gateway_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(2), total)
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(70800), MinorUnits(decimal.NewFromInt(708)))
	assert.Equal(t, int64(24950), MinorUnits(decimal.RequireFromString("249.50")))
	assert.Equal(t, int64(1), MinorUnits(decimal.RequireFromString("0.005")))
}
