package gateways

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
	"github.com/victorybazaar/victorybazaar-backend/pkg/metrics"
)

// Registry resolves a gateway name to its configured adapter.
type Registry struct {
	adapters map[enums.PaymentGateway]Adapter
	metrics  *metrics.GatewayMetrics
}

// NewRegistry builds an empty registry. m may be nil.
func NewRegistry(m *metrics.GatewayMetrics) *Registry {
	return &Registry{adapters: map[enums.PaymentGateway]Adapter{}, metrics: m}
}

// Register installs adapter, replacing any previous one for the same gateway.
func (r *Registry) Register(adapter Adapter) {
	if adapter == nil {
		return
	}
	r.adapters[adapter.Gateway()] = adapter
}

// Get returns the instrumented adapter for gateway. Unknown names and known
// gateways without configuration both fail validation.
func (r *Registry) Get(gateway enums.PaymentGateway) (Adapter, error) {
	if !gateway.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid payment gateway %q", gateway)
	}
	adapter, ok := r.adapters[gateway]
	if !ok {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "payment gateway %s not available", gateway)
	}
	return &observed{Adapter: adapter, metrics: r.metrics}, nil
}

// Webhook returns the notification parser for gateway.
func (r *Registry) Webhook(gateway enums.PaymentGateway) (WebhookParser, error) {
	adapter, ok := r.adapters[gateway]
	if !ok {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "payment gateway %s not available", gateway)
	}
	parser, ok := adapter.(WebhookParser)
	if !ok {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "payment gateway %s does not send webhooks", gateway)
	}
	return parser, nil
}

// Available lists registered gateways in name order.
func (r *Registry) Available() []enums.PaymentGateway {
	out := make([]enums.PaymentGateway, 0, len(r.adapters))
	for gateway := range r.adapters {
		out = append(out, gateway)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type observed struct {
	Adapter
	metrics *metrics.GatewayMetrics
}

func (o *observed) observe(op string, start time.Time, err error) {
	o.metrics.Observe(string(o.Gateway()), op, time.Since(start), err)
}

func (o *observed) Initialize(ctx context.Context, order *models.Order, payment *models.Payment) (intent *Intent, err error) {
	defer func(start time.Time) { o.observe("initialize", start, err) }(time.Now())
	return o.Adapter.Initialize(ctx, order, payment)
}

func (o *observed) Verify(ctx context.Context, payment *models.Payment, callback Callback) (outcome *Outcome, err error) {
	defer func(start time.Time) { o.observe("verify", start, err) }(time.Now())
	return o.Adapter.Verify(ctx, payment, callback)
}

func (o *observed) Capture(ctx context.Context, payment *models.Payment) (outcome *Outcome, err error) {
	defer func(start time.Time) { o.observe("capture", start, err) }(time.Now())
	return o.Adapter.Capture(ctx, payment)
}

func (o *observed) Refund(ctx context.Context, payment *models.Payment, amount decimal.Decimal, reason string) (result *RefundResult, err error) {
	defer func(start time.Time) { o.observe("refund", start, err) }(time.Now())
	return o.Adapter.Refund(ctx, payment, amount, reason)
}
