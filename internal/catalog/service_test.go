package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/laundrydesk-backend/pkg/db"
	"github.com/angelmondragon/laundrydesk-backend/pkg/db/dbtest"
	"github.com/angelmondragon/laundrydesk-backend/pkg/db/models"
	"github.com/angelmondragon/laundrydesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/laundrydesk-backend/pkg/errors"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), db.Wrap(conn))
	require.NoError(t, err)
	return svc, conn
}

func seedItem(t *testing.T, conn *gorm.DB, name string) models.InventoryItem {
	t.Helper()
	unit := models.UnitOfMeasure{Name: "liter-" + name, Abbreviation: "l-" + name}
	require.NoError(t, conn.Create(&unit).Error)
	item := models.InventoryItem{
		Name:         name,
		UnitID:       unit.ID,
		CurrentStock: decimal.NewFromInt(10),
		MinStock:     decimal.NewFromInt(2),
		CostPerUnit:  decimal.NewFromInt(3),
		IsActive:     true,
	}
	require.NoError(t, conn.Create(&item).Error)
	return item
}

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestCreateServiceWithRecipe(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	detergent := seedItem(t, conn, "detergent")

	category, err := svc.CreateCategory(ctx, CreateCategoryInput{Name: "Washing"})
	require.NoError(t, err)

	created, err := svc.CreateService(ctx, CreateServiceInput{
		Name:       "Wash & fold",
		CategoryID: &category.ID,
		BasePrice:  dec("4.50"),
		Components: []ComponentInput{{InventoryItemID: detergent.ID, QuantityUsed: dec("0.25")}},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.ServiceUnitGarment, created.UnitType)
	assert.Equal(t, DefaultEstimatedTimeMinutes, created.EstimatedTimeMinutes)
	assert.Equal(t, "Washing", created.CategoryName)
	require.Len(t, created.Components, 1)
	assert.Equal(t, "detergent", created.Components[0].ItemName)
	assert.True(t, created.Components[0].QuantityUsed.Equal(dec("0.25")))
}

func TestCreateServiceRejectsBadInput(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	item := seedItem(t, conn, "softener")

	_, err := svc.CreateService(ctx, CreateServiceInput{Name: "x", BasePrice: dec("-1")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.CreateService(ctx, CreateServiceInput{Name: "x", Components: []ComponentInput{
		{InventoryItemID: item.ID, QuantityUsed: dec("1")},
		{InventoryItemID: item.ID, QuantityUsed: dec("2")},
	}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.CreateService(ctx, CreateServiceInput{Name: "x", Components: []ComponentInput{
		{InventoryItemID: uuid.New(), QuantityUsed: dec("1")},
	}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	missing := uuid.New()
	_, err = svc.CreateService(ctx, CreateServiceInput{Name: "x", CategoryID: &missing})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	var count int64
	require.NoError(t, conn.Model(&models.Service{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateServiceDuplicateNameConflicts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateService(ctx, CreateServiceInput{Name: "Ironing", BasePrice: dec("2")})
	require.NoError(t, err)
	_, err = svc.CreateService(ctx, CreateServiceInput{Name: "Ironing", BasePrice: dec("3")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestSetComponentsReplacesRecipe(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	a := seedItem(t, conn, "bleach")
	b := seedItem(t, conn, "starch")

	created, err := svc.CreateService(ctx, CreateServiceInput{
		Name:       "Whites",
		BasePrice:  dec("5"),
		Components: []ComponentInput{{InventoryItemID: a.ID, QuantityUsed: dec("1")}},
	})
	require.NoError(t, err)

	updated, err := svc.SetComponents(ctx, created.ID, []ComponentInput{{InventoryItemID: b.ID, QuantityUsed: dec("0.125")}})
	require.NoError(t, err)
	require.Len(t, updated.Components, 1)
	assert.Equal(t, b.ID, updated.Components[0].InventoryItemID)

	cleared, err := svc.SetComponents(ctx, created.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, cleared.Components)
}

func TestSetPriceAndResolvePrice(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateService(ctx, CreateServiceInput{Name: "Dry clean", BasePrice: dec("10")})
	require.NoError(t, err)

	_, err = svc.SetPrice(ctx, created.ID, enums.CustomerTypeBusiness, dec("8"))
	require.NoError(t, err)
	detail, err := svc.SetPrice(ctx, created.ID, enums.CustomerTypeBusiness, dec("7.5"))
	require.NoError(t, err)
	require.Len(t, detail.Pricing, 1)
	assert.True(t, detail.Pricing[0].Price.Equal(dec("7.5")))

	model, err := svc.RequireActiveService(ctx, conn, created.ID)
	require.NoError(t, err)

	price, err := svc.ResolvePrice(ctx, conn, model, enums.CustomerTypeBusiness)
	require.NoError(t, err)
	assert.True(t, price.Equal(dec("7.5")))

	price, err = svc.ResolvePrice(ctx, conn, model, enums.CustomerTypePersonal)
	require.NoError(t, err)
	assert.True(t, price.Equal(dec("10")))

	_, err = svc.SetPrice(ctx, created.ID, "wholesale", dec("1"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDeactivateHidesFromDefaultList(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	a, err := svc.CreateService(ctx, CreateServiceInput{Name: "Wash", BasePrice: dec("3")})
	require.NoError(t, err)
	_, err = svc.CreateService(ctx, CreateServiceInput{Name: "Press", BasePrice: dec("2")})
	require.NoError(t, err)
	require.NoError(t, svc.DeactivateService(ctx, a.ID))

	list, err := svc.ListServices(ctx, ServiceFilters{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Press", list[0].Name)

	list, err = svc.ListServices(ctx, ServiceFilters{IncludeInactive: true, Query: "WA"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Wash", list[0].Name)

	_, err = svc.RequireActiveService(ctx, conn, a.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestUpdateService(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateService(ctx, CreateServiceInput{Name: "Duvet", BasePrice: dec("12")})
	require.NoError(t, err)

	price := dec("14.999")
	express := true
	unit := enums.ServiceUnitKilo
	updated, err := svc.UpdateService(ctx, created.ID, UpdateServiceInput{BasePrice: &price, IsExpressAvailable: &express, UnitType: &unit})
	require.NoError(t, err)
	assert.True(t, updated.BasePrice.Equal(dec("15")))
	assert.True(t, updated.IsExpressAvailable)
	assert.Equal(t, enums.ServiceUnitKilo, updated.UnitType)

	_, err = svc.UpdateService(ctx, uuid.New(), UpdateServiceInput{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
