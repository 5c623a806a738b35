package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/laundrydesk-backend/pkg/db/models"
	"github.com/angelmondragon/laundrydesk-backend/pkg/enums"
)

type CreateUnitInput struct {
	Name         string `json:"name" validate:"required,max=50"`
	Abbreviation string `json:"abbreviation" validate:"required,max=10"`
}

type UnitDTO struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Abbreviation string    `json:"abbreviation"`
}

type CreateItemInput struct {
	Name         string          `json:"name" validate:"required,max=100"`
	UnitID       uuid.UUID       `json:"unit_id" validate:"required"`
	InitialStock decimal.Decimal `json:"initial_stock"`
	MinStock     decimal.Decimal `json:"min_stock"`
	CostPerUnit  decimal.Decimal `json:"cost_per_unit"`
}

// UpdateItemInput is a partial update. Stock is never set here; it moves only
// through entries, adjustments and order consumption.
type UpdateItemInput struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=100"`
	UnitID      *uuid.UUID       `json:"unit_id"`
	MinStock    *decimal.Decimal `json:"min_stock"`
	CostPerUnit *decimal.Decimal `json:"cost_per_unit"`
	IsActive    *bool            `json:"is_active"`
}

type ItemFilters struct {
	Query           string
	IncludeInactive bool
}

type EntryInput struct {
	Quantity    decimal.Decimal  `json:"quantity"`
	CostPerUnit *decimal.Decimal `json:"cost_per_unit"`
	Notes       *string          `json:"notes"`
}

type AdjustInput struct {
	NewStock decimal.Decimal `json:"new_stock"`
	Notes    *string         `json:"notes"`
}

type MovementFilters struct {
	ItemID       *uuid.UUID
	OrderID      *uuid.UUID
	MovementType *enums.InventoryMovementType
}

type ItemDTO struct {
	ID               uuid.UUID        `json:"id"`
	Name             string           `json:"name"`
	UnitID           uuid.UUID        `json:"unit_id"`
	UnitAbbreviation string           `json:"unit,omitempty"`
	CurrentStock     decimal.Decimal  `json:"current_stock"`
	MinStock         decimal.Decimal  `json:"min_stock"`
	CostPerUnit      decimal.Decimal  `json:"cost_per_unit"`
	IsActive         bool             `json:"is_active"`
	Level            enums.StockLevel `json:"level"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

type MovementDTO struct {
	ID              uuid.UUID                   `json:"id"`
	InventoryItemID uuid.UUID                   `json:"inventory_item_id"`
	OrderID         *uuid.UUID                  `json:"order_id,omitempty"`
	MovementType    enums.InventoryMovementType `json:"movement_type"`
	Quantity        decimal.Decimal             `json:"quantity"`
	BalanceAfter    decimal.Decimal             `json:"balance_after"`
	CreatedBy       *uuid.UUID                  `json:"created_by,omitempty"`
	Notes           *string                     `json:"notes,omitempty"`
	CreatedAt       time.Time                   `json:"created_at"`
}

func unitFromModel(m models.UnitOfMeasure) UnitDTO {
	return UnitDTO{ID: m.ID, Name: m.Name, Abbreviation: m.Abbreviation}
}

func itemFromModel(m models.InventoryItem, warnFactor decimal.Decimal) ItemDTO {
	dto := ItemDTO{
		ID:           m.ID,
		Name:         m.Name,
		UnitID:       m.UnitID,
		CurrentStock: m.CurrentStock,
		MinStock:     m.MinStock,
		CostPerUnit:  m.CostPerUnit,
		IsActive:     m.IsActive,
		Level:        m.StockLevel(warnFactor),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if m.Unit != nil {
		dto.UnitAbbreviation = m.Unit.Abbreviation
	}
	return dto
}

func movementFromModel(m models.InventoryMovement) MovementDTO {
	return MovementDTO{
		ID:              m.ID,
		InventoryItemID: m.InventoryItemID,
		OrderID:         m.OrderID,
		MovementType:    m.MovementType,
		Quantity:        m.Quantity,
		BalanceAfter:    m.BalanceAfter,
		CreatedBy:       m.CreatedBy,
		Notes:           m.Notes,
		CreatedAt:       m.CreatedAt,
	}
}
