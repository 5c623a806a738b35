package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/laundrydesk-backend/pkg/enums"
)

// UnitOfMeasure is a standard unit for supplies (liter, kilogram, unit).
type UnitOfMeasure struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name         string    `gorm:"column:name;not null;uniqueIndex"`
	Abbreviation string    `gorm:"column:abbreviation;not null;uniqueIndex"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (UnitOfMeasure) TableName() string { return "units_of_measure" }

func (u *UnitOfMeasure) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

// InventoryItem is a physical supply. CurrentStock only changes through
// InventoryMovement rows written by the inventory ledger.
type InventoryItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name         string          `gorm:"column:name;not null;uniqueIndex"`
	UnitID       uuid.UUID       `gorm:"column:unit_id;type:uuid;not null"`
	CurrentStock decimal.Decimal `gorm:"column:current_stock;type:numeric(12,3);not null"`
	MinStock     decimal.Decimal `gorm:"column:min_stock;type:numeric(12,3);not null"`
	CostPerUnit  decimal.Decimal `gorm:"column:cost_per_unit;type:numeric(12,2);not null"`
	IsActive     bool            `gorm:"column:is_active;not null"`
	Unit         *UnitOfMeasure  `gorm:"foreignKey:UnitID"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// IsBelowMin reports whether stock reached the reorder point.
func (i InventoryItem) IsBelowMin() bool {
	return i.CurrentStock.LessThanOrEqual(i.MinStock)
}

// StockLevel grades the item: danger at or under the minimum, warning within
// warnFactor times the minimum.
func (i InventoryItem) StockLevel(warnFactor decimal.Decimal) enums.StockLevel {
	if i.IsBelowMin() {
		return enums.StockLevelDanger
	}
	if i.CurrentStock.LessThanOrEqual(i.MinStock.Mul(warnFactor)) {
		return enums.StockLevelWarning
	}
	return enums.StockLevelOK
}

func (i *InventoryItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// InventoryMovement is an immutable stock ledger entry.
type InventoryMovement struct {
	ID              uuid.UUID                   `gorm:"column:id;type:uuid;primaryKey"`
	InventoryItemID uuid.UUID                   `gorm:"column:inventory_item_id;type:uuid;not null;index"`
	OrderID         *uuid.UUID                  `gorm:"column:order_id;type:uuid;index"`
	MovementType    enums.InventoryMovementType `gorm:"column:movement_type;type:text;not null"`
	Quantity        decimal.Decimal             `gorm:"column:quantity;type:numeric(12,3);not null"`
	BalanceAfter    decimal.Decimal             `gorm:"column:balance_after;type:numeric(12,3);not null"`
	CreatedBy       *uuid.UUID                  `gorm:"column:created_by;type:uuid"`
	Notes           *string                     `gorm:"column:notes"`
	CreatedAt       time.Time                   `gorm:"column:created_at;autoCreateTime"`
}

func (m *InventoryMovement) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
