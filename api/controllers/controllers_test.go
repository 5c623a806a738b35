package controllers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/laundrydesk-backend/api/middleware"
	"github.com/angelmondragon/laundrydesk-backend/internal/cash"
	"github.com/angelmondragon/laundrydesk-backend/internal/catalog"
	"github.com/angelmondragon/laundrydesk-backend/internal/inventory"
	"github.com/angelmondragon/laundrydesk-backend/pkg/config"
	"github.com/angelmondragon/laundrydesk-backend/pkg/enums"
	"github.com/angelmondragon/laundrydesk-backend/pkg/logger"
	"github.com/angelmondragon/laundrydesk-backend/pkg/pagination"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func withURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

type stubCatalog struct {
	catalog.Service
	setPrice func(ctx context.Context, id uuid.UUID, customerType enums.CustomerType, price decimal.Decimal) (*catalog.ServiceDTO, error)
}

func (s *stubCatalog) SetPrice(ctx context.Context, id uuid.UUID, customerType enums.CustomerType, price decimal.Decimal) (*catalog.ServiceDTO, error) {
	return s.setPrice(ctx, id, customerType, price)
}

type stubInventory struct {
	inventory.Service
	listMovements func(ctx context.Context, filters inventory.MovementFilters, params pagination.Params) (*pagination.Page[inventory.MovementDTO], error)
	recordEntry   func(ctx context.Context, id uuid.UUID, input inventory.EntryInput, actor *uuid.UUID) (*inventory.MovementDTO, error)
}

func (s *stubInventory) ListMovements(ctx context.Context, filters inventory.MovementFilters, params pagination.Params) (*pagination.Page[inventory.MovementDTO], error) {
	return s.listMovements(ctx, filters, params)
}

func (s *stubInventory) RecordEntry(ctx context.Context, id uuid.UUID, input inventory.EntryInput, actor *uuid.UUID) (*inventory.MovementDTO, error) {
	return s.recordEntry(ctx, id, input, actor)
}

type stubCash struct {
	cash.Service
	open func(ctx context.Context, input cash.OpenRegisterInput, actor *uuid.UUID) (*cash.RegisterDTO, error)
}

func (s *stubCash) OpenRegister(ctx context.Context, input cash.OpenRegisterInput, actor *uuid.UUID) (*cash.RegisterDTO, error) {
	return s.open(ctx, input, actor)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestServiceSetPrice(t *testing.T) {
	serviceID := uuid.New()
	svc := &stubCatalog{
		setPrice: func(_ context.Context, id uuid.UUID, customerType enums.CustomerType, price decimal.Decimal) (*catalog.ServiceDTO, error) {
			assert.Equal(t, serviceID, id)
			assert.Equal(t, enums.CustomerTypeBusiness, customerType)
			assert.True(t, price.Equal(decimal.RequireFromString("12.5")))
			return &catalog.ServiceDTO{}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPut, "/", bytes.NewBufferString(`{"price":"12.50"}`))
	req = withURLParams(req, map[string]string{"serviceId": serviceID.String(), "customerType": "business"})
	rec := httptest.NewRecorder()

	ServiceSetPrice(svc, testLogger()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServiceSetPriceRejectsUnknownCustomerType(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/", bytes.NewBufferString(`{"price":"1"}`))
	req = withURLParams(req, map[string]string{"serviceId": uuid.NewString(), "customerType": "wholesale"})
	rec := httptest.NewRecorder()

	ServiceSetPrice(&stubCatalog{}, testLogger()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInventoryMovementListFilters(t *testing.T) {
	itemID := uuid.New()
	var got inventory.MovementFilters
	svc := &stubInventory{
		listMovements: func(_ context.Context, filters inventory.MovementFilters, _ pagination.Params) (*pagination.Page[inventory.MovementDTO], error) {
			got = filters
			return &pagination.Page[inventory.MovementDTO]{}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/?item_id="+itemID.String()+"&type=exit", nil)
	rec := httptest.NewRecorder()

	InventoryMovementList(svc, testLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got.ItemID)
	assert.Equal(t, itemID, *got.ItemID)
	require.NotNil(t, got.MovementType)
	assert.Equal(t, enums.InventoryMovementExit, *got.MovementType)
	assert.Nil(t, got.OrderID)
}

func TestInventoryMovementListRejectsBadType(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?type=theft", nil)
	rec := httptest.NewRecorder()

	InventoryMovementList(&stubInventory{}, testLogger()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestItemEntryPassesActor(t *testing.T) {
	actor := uuid.New()
	itemID := uuid.New()
	svc := &stubInventory{
		recordEntry: func(_ context.Context, id uuid.UUID, input inventory.EntryInput, a *uuid.UUID) (*inventory.MovementDTO, error) {
			assert.Equal(t, itemID, id)
			assert.True(t, input.Quantity.Equal(decimal.NewFromInt(4)))
			require.NotNil(t, a)
			assert.Equal(t, actor, *a)
			return &inventory.MovementDTO{}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"quantity":"4"}`))
	req = withURLParams(req, map[string]string{"itemId": itemID.String()})
	req = req.WithContext(middleware.WithActor(req.Context(), actor.String(), enums.StaffRoleOperator))
	rec := httptest.NewRecorder()

	ItemEntry(svc, testLogger()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRegisterOpenAcceptsEmptyBody(t *testing.T) {
	called := false
	svc := &stubCash{
		open: func(_ context.Context, input cash.OpenRegisterInput, _ *uuid.UUID) (*cash.RegisterDTO, error) {
			called = true
			assert.Nil(t, input.Name)
			assert.True(t, input.OpeningBalance.IsZero())
			return &cash.RegisterDTO{}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()

	RegisterOpen(svc, testLogger()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, called)
}

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{}
	cfg.App.Env = "test"

	ok := pingerFunc(func(context.Context) error { return nil })
	down := pingerFunc(func(context.Context) error { return errors.New("connection refused") })

	rec := httptest.NewRecorder()
	HealthReady(cfg, testLogger(), map[string]Pinger{"db": ok, "redis": ok}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get(envHeader))

	rec = httptest.NewRecorder()
	HealthReady(cfg, testLogger(), map[string]Pinger{"db": ok, "redis": down}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"down"`)
}
