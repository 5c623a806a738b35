package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/laundrydesk-backend/api/middleware"
	internalorders "github.com/angelmondragon/laundrydesk-backend/internal/orders"
	"github.com/angelmondragon/laundrydesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/laundrydesk-backend/pkg/errors"
	"github.com/angelmondragon/laundrydesk-backend/pkg/logger"
	"github.com/angelmondragon/laundrydesk-backend/pkg/pagination"
)

// stubOrdersService embeds the interface so unexercised methods panic.
type stubOrdersService struct {
	internalorders.Service
	create  func(ctx context.Context, input internalorders.CreateOrderInput, actor *uuid.UUID) (*internalorders.OrderDTO, error)
	list    func(ctx context.Context, filters internalorders.ListFilters, params pagination.Params) (*pagination.Page[internalorders.OrderSummaryDTO], error)
	cancel  func(ctx context.Context, id uuid.UUID, reason *string, actor *uuid.UUID) (*internalorders.OrderDTO, error)
	advance func(ctx context.Context, id uuid.UUID, actor *uuid.UUID) (*internalorders.OrderDTO, error)
}

func (s *stubOrdersService) CreateOrder(ctx context.Context, input internalorders.CreateOrderInput, actor *uuid.UUID) (*internalorders.OrderDTO, error) {
	return s.create(ctx, input, actor)
}

func (s *stubOrdersService) ListActiveOrders(ctx context.Context, filters internalorders.ListFilters, params pagination.Params) (*pagination.Page[internalorders.OrderSummaryDTO], error) {
	return s.list(ctx, filters, params)
}

func (s *stubOrdersService) Cancel(ctx context.Context, id uuid.UUID, reason *string, actor *uuid.UUID) (*internalorders.OrderDTO, error) {
	return s.cancel(ctx, id, reason, actor)
}

func (s *stubOrdersService) Advance(ctx context.Context, id uuid.UUID, actor *uuid.UUID) (*internalorders.OrderDTO, error) {
	return s.advance(ctx, id, actor)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func withOrderID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orderId", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestCreatePassesActor(t *testing.T) {
	actor := uuid.New()
	customerID := uuid.New()
	serviceID := uuid.New()
	var gotActor *uuid.UUID
	svc := &stubOrdersService{
		create: func(_ context.Context, input internalorders.CreateOrderInput, a *uuid.UUID) (*internalorders.OrderDTO, error) {
			gotActor = a
			assert.Equal(t, customerID, input.CustomerID)
			require.Len(t, input.Lines, 1)
			assert.Equal(t, serviceID, input.Lines[0].ServiceID)
			out := &internalorders.OrderDTO{}
			out.Code = "ORD-00001"
			return out, nil
		},
	}

	payload := `{"customer_id":"` + customerID.String() + `","lines":[{"service_id":"` + serviceID.String() + `","quantity":"2"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewBufferString(payload))
	req = req.WithContext(middleware.WithActor(req.Context(), actor.String(), enums.StaffRoleCashier))
	rec := httptest.NewRecorder()

	Create(svc, testLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, gotActor)
	assert.Equal(t, actor, *gotActor)
	assert.Contains(t, rec.Body.String(), "ORD-00001")
}

func TestCreateRejectsMissingLines(t *testing.T) {
	svc := &stubOrdersService{}
	payload := `{"customer_id":"` + uuid.NewString() + `","lines":[]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()

	Create(svc, testLogger()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeValidation), decodeError(t, rec))
}

func TestListParsesFilters(t *testing.T) {
	customerID := uuid.New()
	var got internalorders.ListFilters
	var gotParams pagination.Params
	svc := &stubOrdersService{
		list: func(_ context.Context, filters internalorders.ListFilters, params pagination.Params) (*pagination.Page[internalorders.OrderSummaryDTO], error) {
			got = filters
			gotParams = params
			return &pagination.Page[internalorders.OrderSummaryDTO]{Items: []internalorders.OrderSummaryDTO{}}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?q=ana&status=ready&customer_id="+customerID.String()+"&limit=5", nil)
	rec := httptest.NewRecorder()

	List(svc, testLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ana", got.Query)
	require.NotNil(t, got.Status)
	assert.Equal(t, enums.OrderStatusReady, *got.Status)
	require.NotNil(t, got.CustomerID)
	assert.Equal(t, customerID, *got.CustomerID)
	assert.Equal(t, 5, gotParams.Limit)
}

func TestListRejectsUnknownStatus(t *testing.T) {
	svc := &stubOrdersService{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?status=folded", nil)
	rec := httptest.NewRecorder()

	List(svc, testLogger()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelWithoutBody(t *testing.T) {
	orderID := uuid.New()
	called := false
	svc := &stubOrdersService{
		cancel: func(_ context.Context, id uuid.UUID, reason *string, _ *uuid.UUID) (*internalorders.OrderDTO, error) {
			called = true
			assert.Equal(t, orderID, id)
			assert.Nil(t, reason)
			return &internalorders.OrderDTO{}, nil
		},
	}

	req := withOrderID(httptest.NewRequest(http.MethodPost, "/", nil), orderID.String())
	rec := httptest.NewRecorder()

	Cancel(svc, testLogger()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}

func TestCancelWithReason(t *testing.T) {
	svc := &stubOrdersService{
		cancel: func(_ context.Context, _ uuid.UUID, reason *string, _ *uuid.UUID) (*internalorders.OrderDTO, error) {
			require.NotNil(t, reason)
			assert.Equal(t, "customer left", *reason)
			return &internalorders.OrderDTO{}, nil
		},
	}

	req := withOrderID(httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"reason":"customer left"}`)), uuid.NewString())
	rec := httptest.NewRecorder()

	Cancel(svc, testLogger()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdvanceMapsStateConflict(t *testing.T) {
	svc := &stubOrdersService{
		advance: func(context.Context, uuid.UUID, *uuid.UUID) (*internalorders.OrderDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot advance from its current status")
		},
	}

	req := withOrderID(httptest.NewRequest(http.MethodPost, "/", nil), uuid.NewString())
	rec := httptest.NewRecorder()

	Advance(svc, testLogger()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeStateConflict), decodeError(t, rec))
}

func TestDetailRejectsBadID(t *testing.T) {
	svc := &stubOrdersService{}
	req := withOrderID(httptest.NewRequest(http.MethodGet, "/", nil), "not-a-uuid")
	rec := httptest.NewRecorder()

	Detail(svc, testLogger()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
