package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victorybazaar/victorybazaar-backend/api/middleware"
	ordersvc "github.com/victorybazaar/victorybazaar-backend/internal/orders"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	"github.com/victorybazaar/victorybazaar-backend/pkg/pagination"
)

const shipping = `"shippingAddress":{"fullName":"Asha Rao","phone":"9876543210","addressLine1":"12 MG Road","city":"Pune","state":"MH","zipCode":"411001"}`

type stubOrders struct {
	ordersvc.Service
	input   ordersvc.CreateOrderInput
	actor   ordersvc.Actor
	number  string
	reason  string
	status  enums.OrderStatus
	filters ordersvc.AdminFilters
	called  bool
}

func (s *stubOrders) CreateOrder(ctx context.Context, userID string, input ordersvc.CreateOrderInput) (*models.Order, error) {
	s.called = true
	s.input = input
	return &models.Order{OrderNumber: "VB000001", UserID: userID}, nil
}

func (s *stubOrders) CancelOrder(ctx context.Context, actor ordersvc.Actor, orderNumber, reason string) (*models.Order, error) {
	s.actor, s.number, s.reason = actor, orderNumber, reason
	return &models.Order{OrderNumber: orderNumber}, nil
}

func (s *stubOrders) UpdateOrderStatus(ctx context.Context, actor ordersvc.Actor, orderNumber string, status enums.OrderStatus) (*models.Order, error) {
	s.called = true
	s.actor, s.number, s.status = actor, orderNumber, status
	return &models.Order{OrderNumber: orderNumber, Status: status}, nil
}

func (s *stubOrders) ListAllOrders(ctx context.Context, filters ordersvc.AdminFilters, params pagination.Params) (*ordersvc.OrderList, error) {
	s.filters = filters
	return &ordersvc.OrderList{}, nil
}

func request(method, target, body string, role enums.Role, orderID string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := middleware.WithUserID(req.Context(), "uid-1")
	ctx = middleware.WithRole(ctx, string(role))
	if orderID != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("orderId", orderID)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func TestCreateFromCart(t *testing.T) {
	svc := &stubOrders{}
	rec := httptest.NewRecorder()
	Create(svc, nil)(rec, request(http.MethodPost, "/api/orders", `{"paymentMethod":"cod",`+shipping+`}`, enums.RoleCustomer, ""))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, svc.input.ClearCart)
	assert.Equal(t, enums.PaymentMethodCOD, svc.input.PaymentMethod)
	assert.Empty(t, svc.input.Items)

	var body struct {
		Message string `json:"message"`
		Data    struct {
			OrderID string `json:"orderId"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "order placed", body.Message)
	assert.Equal(t, "VB000001", body.Data.OrderID)
}

func TestCreateWithItemsKeepsCart(t *testing.T) {
	svc := &stubOrders{}
	rec := httptest.NewRecorder()
	payload := `{"paymentMethod":"card","items":[{"productId":"p-1","quantity":2}],` + shipping + `}`
	Create(svc, nil)(rec, request(http.MethodPost, "/api/orders", payload, enums.RoleCustomer, ""))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.False(t, svc.input.ClearCart)
	require.Len(t, svc.input.Items, 1)
	assert.Equal(t, 2, svc.input.Items[0].Quantity)
}

func TestCreateRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"payment method":   `{"paymentMethod":"barter",` + shipping + `}`,
		"no items no cart": `{"paymentMethod":"cod","clearCart":false,` + shipping + `}`,
		"missing address":  `{"paymentMethod":"cod"}`,
		"zero quantity":    `{"paymentMethod":"cod","items":[{"productId":"p-1","quantity":0}],` + shipping + `}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &stubOrders{}
			rec := httptest.NewRecorder()
			Create(svc, nil)(rec, request(http.MethodPost, "/api/orders", payload, enums.RoleCustomer, ""))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, svc.called)
		})
	}
}

func TestCancelWithoutBody(t *testing.T) {
	svc := &stubOrders{}
	rec := httptest.NewRecorder()
	Cancel(svc, nil)(rec, request(http.MethodPut, "/api/orders/VB000001/cancel", "", enums.RoleCustomer, "VB000001"))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "VB000001", svc.number)
	assert.Empty(t, svc.reason)
	assert.Equal(t, "uid-1", svc.actor.UserID)
}

func TestCancelPassesReason(t *testing.T) {
	svc := &stubOrders{}
	rec := httptest.NewRecorder()
	Cancel(svc, nil)(rec, request(http.MethodPut, "/api/orders/VB000001/cancel", `{"reason":"changed my mind"}`, enums.RoleCustomer, "VB000001"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "changed my mind", svc.reason)
}

func TestAdminUpdateStatus(t *testing.T) {
	svc := &stubOrders{}
	rec := httptest.NewRecorder()
	AdminUpdateStatus(svc, nil)(rec, request(http.MethodPut, "/api/admin/orders/VB000001/status", `{"status":"shipped"}`, enums.RoleOperator, "VB000001"))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, enums.OrderStatusShipped, svc.status)
	assert.Equal(t, enums.RoleOperator, svc.actor.Role)
}

func TestAdminUpdateStatusRejectsUnknown(t *testing.T) {
	svc := &stubOrders{}
	rec := httptest.NewRecorder()
	AdminUpdateStatus(svc, nil)(rec, request(http.MethodPut, "/api/admin/orders/VB000001/status", `{"status":"lost"}`, enums.RoleOperator, "VB000001"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, svc.called)
}

func TestAdminListFilters(t *testing.T) {
	svc := &stubOrders{}
	rec := httptest.NewRecorder()
	AdminList(svc, nil)(rec, request(http.MethodGet, "/api/admin/orders?status=pending&paymentStatus=completed", "", enums.RoleOperator, ""))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.filters.Status)
	require.NotNil(t, svc.filters.PaymentStatus)
	assert.Equal(t, enums.OrderStatusPending, *svc.filters.Status)
	assert.Equal(t, enums.OrderPaymentCompleted, *svc.filters.PaymentStatus)

	rec = httptest.NewRecorder()
	AdminList(svc, nil)(rec, request(http.MethodGet, "/api/admin/orders?paymentStatus=owed", "", enums.RoleOperator, ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNilServiceIsInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	Tracking(nil, nil)(rec, request(http.MethodGet, "/api/orders/VB000001/tracking", "", enums.RoleCustomer, "VB000001"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
