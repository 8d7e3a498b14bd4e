package payments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victorybazaar/victorybazaar-backend/api/middleware"
	ordersvc "github.com/victorybazaar/victorybazaar-backend/internal/orders"
	paymentsvc "github.com/victorybazaar/victorybazaar-backend/internal/payments"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
)

type stubPayments struct {
	paymentsvc.Service
	created bool
	err     error
	create  paymentsvc.CreatePaymentInput
	refund  paymentsvc.RefundInput
	actor   ordersvc.Actor
	number  string
	called  bool
}

func (s *stubPayments) CreatePayment(ctx context.Context, userID string, input paymentsvc.CreatePaymentInput) (*paymentsvc.CreateResult, error) {
	s.called = true
	s.create = input
	if s.err != nil {
		return nil, s.err
	}
	payment := &models.Payment{PaymentNumber: "PAY-1", OrderNumber: input.OrderNumber, Gateway: input.PaymentGateway}
	return &paymentsvc.CreateResult{Payment: payment, Created: s.created}, nil
}

func (s *stubPayments) VerifyPayment(ctx context.Context, userID string, input paymentsvc.VerifyInput) (*models.Payment, error) {
	s.called = true
	return &models.Payment{PaymentNumber: input.PaymentNumber}, nil
}

func (s *stubPayments) RefundPayment(ctx context.Context, actor ordersvc.Actor, paymentNumber string, input paymentsvc.RefundInput) (*models.Payment, error) {
	s.called = true
	s.actor, s.number, s.refund = actor, paymentNumber, input
	return &models.Payment{PaymentNumber: paymentNumber, Status: enums.PaymentStatusRefunded}, nil
}

func authed(req *http.Request, role enums.Role) *http.Request {
	ctx := middleware.WithUserID(req.Context(), "uid-1")
	return req.WithContext(middleware.WithRole(ctx, string(role)))
}

func withPayment(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("paymentId", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

const createBody = `{"orderId":"VB000001","paymentMethod":"card","paymentGateway":"razorpay"}`

func TestCreateStatusFollowsInsert(t *testing.T) {
	cases := []struct {
		name    string
		created bool
		status  int
	}{
		{name: "new payment", created: true, status: http.StatusCreated},
		{name: "existing payment", created: false, status: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubPayments{created: tc.created}
			rec := httptest.NewRecorder()
			Create(svc, nil)(rec, authed(httptest.NewRequest(http.MethodPost, "/api/payments/create", strings.NewReader(createBody)), enums.RoleCustomer))

			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Equal(t, "VB000001", svc.create.OrderNumber)
			assert.Equal(t, enums.GatewayRazorpay, svc.create.PaymentGateway)
		})
	}
}

func TestCreateRequiresFields(t *testing.T) {
	svc := &stubPayments{}
	rec := httptest.NewRecorder()
	Create(svc, nil)(rec, authed(httptest.NewRequest(http.MethodPost, "/api/payments/create", strings.NewReader(`{"orderId":"VB000001"}`)), enums.RoleCustomer))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, svc.called)
}

func TestCreateSurfacesGatewayFailure(t *testing.T) {
	svc := &stubPayments{err: pkgerrors.New(pkgerrors.CodeGateway, "razorpay unavailable")}
	rec := httptest.NewRecorder()
	Create(svc, nil)(rec, authed(httptest.NewRequest(http.MethodPost, "/api/payments/create", strings.NewReader(createBody)), enums.RoleCustomer))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestVerifyRequiresPaymentID(t *testing.T) {
	svc := &stubPayments{}
	rec := httptest.NewRecorder()
	Verify(svc, nil)(rec, authed(httptest.NewRequest(http.MethodPost, "/api/payments/verify", strings.NewReader(`{"gatewayResponse":{}}`)), enums.RoleCustomer))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, svc.called)
}

func TestRefundWithoutBodyRefundsInFull(t *testing.T) {
	svc := &stubPayments{}
	rec := httptest.NewRecorder()
	req := authed(httptest.NewRequest(http.MethodPost, "/api/payments/PAY-1/refund", nil), enums.RoleOperator)
	Refund(svc, nil)(rec, withPayment(req, "PAY-1"))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "PAY-1", svc.number)
	assert.Nil(t, svc.refund.Amount)
	assert.Equal(t, enums.RoleOperator, svc.actor.Role)
}

func TestRefundPartialAmount(t *testing.T) {
	svc := &stubPayments{}
	rec := httptest.NewRecorder()
	req := authed(httptest.NewRequest(http.MethodPost, "/api/payments/PAY-1/refund", strings.NewReader(`{"amount":"150.50","reason":"damaged"}`)), enums.RoleOperator)
	Refund(svc, nil)(rec, withPayment(req, "PAY-1"))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, svc.refund.Amount)
	assert.True(t, decimal.RequireFromString("150.50").Equal(*svc.refund.Amount))
	assert.Equal(t, "damaged", svc.refund.Reason)
}

func TestRefundRequiresUser(t *testing.T) {
	svc := &stubPayments{}
	rec := httptest.NewRecorder()
	Refund(svc, nil)(rec, withPayment(httptest.NewRequest(http.MethodPost, "/api/payments/PAY-1/refund", nil), "PAY-1"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, svc.called)
}
