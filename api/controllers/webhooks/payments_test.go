package webhooks

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victorybazaar/victorybazaar-backend/internal/webhooks"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
)

type recorder struct {
	gateway enums.PaymentGateway
	payload string
	headers http.Header
	result  *webhooks.Result
	err     error
	called  bool
}

func (r *recorder) Handle(ctx context.Context, gateway enums.PaymentGateway, payload []byte, headers http.Header) (*webhooks.Result, error) {
	r.called = true
	r.gateway, r.payload, r.headers = gateway, string(payload), headers
	return r.result, r.err
}

func webhookRequest(gateway, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook/"+gateway, strings.NewReader(body))
	req.Header.Set("X-Razorpay-Signature", "sig")
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("gateway", gateway)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestPaymentWebhookPassesRawBody(t *testing.T) {
	svc := &recorder{result: &webhooks.Result{EventID: "evt-1", Applied: true}}
	body := `{"event":"payment.captured", "payload":{}}`
	rec := httptest.NewRecorder()
	PaymentWebhook(svc, nil)(rec, webhookRequest("razorpay", body))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, enums.GatewayRazorpay, svc.gateway)
	assert.Equal(t, body, svc.payload)
	assert.Equal(t, "sig", svc.headers.Get("X-Razorpay-Signature"))
	assert.Contains(t, rec.Body.String(), `"eventId":"evt-1"`)
}

func TestPaymentWebhookUnknownGateway(t *testing.T) {
	svc := &recorder{}
	rec := httptest.NewRecorder()
	PaymentWebhook(svc, nil)(rec, webhookRequest("bitcoin", `{}`))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, svc.called)
}

func TestPaymentWebhookServiceErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{name: "bad signature", err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook signature"), status: http.StatusUnauthorized},
		{name: "malformed", err: pkgerrors.New(pkgerrors.CodeValidation, "malformed webhook"), status: http.StatusBadRequest},
		{name: "untyped", err: errors.New("db down"), status: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &recorder{err: tc.err}
			rec := httptest.NewRecorder()
			PaymentWebhook(svc, nil)(rec, webhookRequest("stripe", `{}`))

			assert.Equal(t, tc.status, rec.Code)
		})
	}
}
