package inventory

import (
	"context"
	"slices"
	"strings"
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
	"github.com/angelmondragon/laundrydesk-backend/pkg/outbox"
	"github.com/angelmondragon/laundrydesk-backend/pkg/pagination"
)

type fixture struct {
	conn *gorm.DB
	svc  Service
	unit *UnitDTO
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(ServiceParams{
		Repo:   NewRepository(conn),
		Tx:     db.Wrap(conn),
		Outbox: outbox.NewService(outbox.NewRepository(conn), nil),
	})
	require.NoError(t, err)
	unit, err := svc.CreateUnit(context.Background(), CreateUnitInput{Name: "Liter", Abbreviation: "l"})
	require.NoError(t, err)
	return &fixture{conn: conn, svc: svc, unit: unit}
}

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func (f *fixture) item(t *testing.T, name, stock, min string) *ItemDTO {
	t.Helper()
	item, err := f.svc.CreateItem(context.Background(), CreateItemInput{
		Name:         name,
		UnitID:       f.unit.ID,
		InitialStock: dec(stock),
		MinStock:     dec(min),
		CostPerUnit:  dec("1.5"),
	}, nil)
	require.NoError(t, err)
	return item
}

// serviceWithRecipe creates a service whose one unit consumes qty of each item.
func (f *fixture) serviceWithRecipe(t *testing.T, name string, recipe map[uuid.UUID]string) uuid.UUID {
	t.Helper()
	svc := models.Service{Name: name, UnitType: enums.ServiceUnitGarment, BasePrice: dec("5"), IsActive: true}
	require.NoError(t, f.conn.Omit("Category", "Components", "Pricing").Create(&svc).Error)
	for itemID, qty := range recipe {
		c := models.ServiceComponent{ServiceID: svc.ID, InventoryItemID: itemID, QuantityUsed: dec(qty)}
		require.NoError(t, f.conn.Omit("Item").Create(&c).Error)
	}
	return svc.ID
}

func (f *fixture) stock(t *testing.T, id uuid.UUID) decimal.Decimal {
	t.Helper()
	got, err := f.svc.GetItem(context.Background(), id)
	require.NoError(t, err)
	return got.CurrentStock
}

func TestCreateItemBooksOpeningStock(t *testing.T) {
	f := newFixture(t)
	item := f.item(t, "Detergent", "50", "10")

	assert.True(t, item.CurrentStock.Equal(dec("50")))
	assert.Equal(t, "l", item.UnitAbbreviation)
	assert.Equal(t, enums.StockLevelOK, item.Level)

	page, err := f.svc.ListMovements(context.Background(), MovementFilters{ItemID: &item.ID}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, enums.InventoryMovementEntry, page.Items[0].MovementType)
	assert.True(t, page.Items[0].BalanceAfter.Equal(dec("50")))
}

func TestCreateItemValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateItem(ctx, CreateItemInput{Name: "x", UnitID: uuid.New()}, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.CreateItem(ctx, CreateItemInput{Name: "x", UnitID: f.unit.ID, MinStock: dec("-1")}, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	f.item(t, "Bleach", "1", "1")
	_, err = f.svc.CreateItem(ctx, CreateItemInput{Name: "Bleach", UnitID: f.unit.ID}, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestRecordEntryIncreasesStockAndCost(t *testing.T) {
	f := newFixture(t)
	item := f.item(t, "Softener", "5", "2")
	actor := uuid.New()
	cost := dec("2.25")

	movement, err := f.svc.RecordEntry(context.Background(), item.ID, EntryInput{Quantity: dec("7.5"), CostPerUnit: &cost}, &actor)
	require.NoError(t, err)
	assert.Equal(t, enums.InventoryMovementEntry, movement.MovementType)
	assert.True(t, movement.BalanceAfter.Equal(dec("12.5")))
	require.NotNil(t, movement.CreatedBy)
	assert.Equal(t, actor, *movement.CreatedBy)

	got, err := f.svc.GetItem(context.Background(), item.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentStock.Equal(dec("12.5")))
	assert.True(t, got.CostPerUnit.Equal(cost))

	_, err = f.svc.RecordEntry(context.Background(), item.ID, EntryInput{Quantity: decimal.Zero}, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = f.svc.RecordEntry(context.Background(), uuid.New(), EntryInput{Quantity: dec("1")}, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestAdjustWritesAbsoluteDelta(t *testing.T) {
	f := newFixture(t)
	item := f.item(t, "Starch", "20", "5")

	movement, err := f.svc.Adjust(context.Background(), item.ID, AdjustInput{NewStock: dec("17")}, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.InventoryMovementAdjustment, movement.MovementType)
	assert.True(t, movement.Quantity.Equal(dec("3")))
	assert.True(t, movement.BalanceAfter.Equal(dec("17")))
	assert.True(t, f.stock(t, item.ID).Equal(dec("17")))

	_, err = f.svc.Adjust(context.Background(), item.ID, AdjustInput{NewStock: dec("17")}, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = f.svc.Adjust(context.Background(), item.ID, AdjustInput{NewStock: dec("-1")}, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestConsumeFloorsAtZeroAndRestockReturnsFullQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	detergent := f.item(t, "Detergent", "10", "2")
	bags := f.item(t, "Bags", "1", "0")
	wash := f.serviceWithRecipe(t, "Wash", map[uuid.UUID]string{detergent.ID: "0.5", bags.ID: "1"})

	order := &models.Order{
		ID:   uuid.New(),
		Code: "ORD-00001",
		Lines: []models.OrderLine{
			{ServiceID: wash, Quantity: dec("3")},
		},
	}

	var consumed []models.InventoryMovement
	err := f.conn.Transaction(func(tx *gorm.DB) error {
		var err error
		consumed, err = f.svc.Consume(ctx, tx, order, nil)
		return err
	})
	require.NoError(t, err)
	require.Len(t, consumed, 2)
	for _, m := range consumed {
		assert.Equal(t, enums.InventoryMovementExit, m.MovementType)
		require.NotNil(t, m.OrderID)
		assert.Equal(t, order.ID, *m.OrderID)
	}

	assert.True(t, f.stock(t, detergent.ID).Equal(dec("8.5")))
	assert.True(t, f.stock(t, bags.ID).IsZero(), "stock floors at zero")

	err = f.conn.Transaction(func(tx *gorm.DB) error {
		_, err := f.svc.Restock(ctx, tx, order, nil)
		return err
	})
	require.NoError(t, err)
	assert.True(t, f.stock(t, detergent.ID).Equal(dec("10")))
	assert.True(t, f.stock(t, bags.ID).Equal(dec("3")))

	page, err := f.svc.ListMovements(ctx, MovementFilters{OrderID: &order.ID}, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 4)
}

func TestConsumeWithoutRecipeIsNoop(t *testing.T) {
	f := newFixture(t)
	plain := f.serviceWithRecipe(t, "Press", nil)
	order := &models.Order{ID: uuid.New(), Lines: []models.OrderLine{{ServiceID: plain, Quantity: dec("2")}}}

	movements, err := f.svc.Consume(context.Background(), f.conn, order, nil)
	require.NoError(t, err)
	assert.Empty(t, movements)

	_, err = f.svc.Consume(context.Background(), nil, order, nil)
	require.Error(t, err)
}

func TestConsumeQueuesLowStockEventOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.item(t, "Bleach", "5", "4")
	svcID := f.serviceWithRecipe(t, "Whites", map[uuid.UUID]string{item.ID: "1"})

	for i := 0; i < 2; i++ {
		order := &models.Order{ID: uuid.New(), Lines: []models.OrderLine{{ServiceID: svcID, Quantity: dec("1")}}}
		require.NoError(t, f.conn.Transaction(func(tx *gorm.DB) error {
			_, err := f.svc.Consume(ctx, tx, order, nil)
			return err
		}))
	}

	var count int64
	require.NoError(t, f.conn.Model(&models.OutboxEvent{}).
		Where("event_type = ?", enums.EventInventoryLowStock).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)

	queued, err := f.svc.ScanLowStock(ctx)
	require.NoError(t, err)
	assert.Zero(t, queued)
}

func TestListLowStockLevels(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.item(t, "Danger", "2", "2")
	f.item(t, "Warning", "12", "10")
	f.item(t, "Plenty", "100", "10")

	low, err := f.svc.ListLowStock(ctx, false)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "Danger", low[0].Name)
	assert.Equal(t, enums.StockLevelDanger, low[0].Level)

	low, err = f.svc.ListLowStock(ctx, true)
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, enums.StockLevelWarning, low[1].Level)

	queued, err := f.svc.ScanLowStock(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, queued)
}

func TestUpdateItemNeverTouchesStock(t *testing.T) {
	f := newFixture(t)
	item := f.item(t, "Hangers", "30", "10")
	min := dec("40")
	name := "Wire hangers"

	updated, err := f.svc.UpdateItem(context.Background(), item.ID, UpdateItemInput{Name: &name, MinStock: &min})
	require.NoError(t, err)
	assert.Equal(t, "Wire hangers", updated.Name)
	assert.True(t, updated.CurrentStock.Equal(dec("30")))
	assert.Equal(t, enums.StockLevelDanger, updated.Level)

	require.NoError(t, f.svc.DeactivateItem(context.Background(), item.ID))
	list, err := f.svc.ListItems(context.Background(), ItemFilters{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestFindItemsForUpdateReturnsIDOrder(t *testing.T) {
	f := newFixture(t)
	var ids []uuid.UUID
	for _, name := range []string{"Bleach", "Softener", "Starch", "Hangers", "Bags"} {
		ids = append(ids, f.item(t, name, "10", "1").ID)
	}
	slices.Reverse(ids)

	rows, err := NewRepository(f.conn).FindItemsForUpdate(context.Background(), ids)
	require.NoError(t, err)
	require.Len(t, rows, len(ids))

	got := make([]string, 0, len(rows))
	for _, row := range rows {
		got = append(got, row.ID.String())
	}
	assert.True(t, slices.IsSortedFunc(got, strings.Compare), "rows out of id order: %v", got)

	rows, err = NewRepository(f.conn).FindItemsForUpdate(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
