package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/laundrydesk-backend/pkg/enums"
)

// CashRegister is a shift-scoped cash ledger. At most one is open at a time.
type CashRegister struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name           string          `gorm:"column:name;not null;uniqueIndex"`
	IsOpen         bool            `gorm:"column:is_open;not null"`
	OpenedAt       time.Time       `gorm:"column:opened_at;not null"`
	ClosedAt       *time.Time      `gorm:"column:closed_at"`
	OpenedBy       *uuid.UUID      `gorm:"column:opened_by;type:uuid"`
	ClosedBy       *uuid.UUID      `gorm:"column:closed_by;type:uuid"`
	OpeningBalance decimal.Decimal `gorm:"column:opening_balance;type:numeric(12,2);not null"`
	ClosingBalance decimal.Decimal `gorm:"column:closing_balance;type:numeric(12,2);not null"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *CashRegister) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

// CashMovement is money entering or leaving a register, optionally tied to an order.
type CashMovement struct {
	ID           uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	RegisterID   uuid.UUID              `gorm:"column:register_id;type:uuid;not null;index"`
	MovementType enums.CashMovementType `gorm:"column:movement_type;type:text;not null"`
	Amount       decimal.Decimal        `gorm:"column:amount;type:numeric(12,2);not null"`
	Description  string                 `gorm:"column:description;not null"`
	OrderID      *uuid.UUID             `gorm:"column:order_id;type:uuid;index"`
	CreatedBy    *uuid.UUID             `gorm:"column:created_by;type:uuid"`
	CreatedAt    time.Time              `gorm:"column:created_at;autoCreateTime"`
}

func (m *CashMovement) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
