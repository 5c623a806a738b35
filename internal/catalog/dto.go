package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/laundrydesk-backend/pkg/db/models"
	"github.com/angelmondragon/laundrydesk-backend/pkg/enums"
)

// DefaultEstimatedTimeMinutes applies when a service is created without one.
const DefaultEstimatedTimeMinutes = 30

type CreateCategoryInput struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description"`
}

type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ComponentInput is one recipe line: quantity of an item consumed per service unit.
type ComponentInput struct {
	InventoryItemID uuid.UUID       `json:"inventory_item_id" validate:"required"`
	QuantityUsed    decimal.Decimal `json:"quantity_used"`
}

type CreateServiceInput struct {
	Name                 string                `json:"name" validate:"required,max=200"`
	CategoryID           *uuid.UUID            `json:"category_id"`
	Description          *string               `json:"description"`
	UnitType             enums.ServiceUnitType `json:"unit_type" validate:"omitempty,oneof=garment pound kilo service"`
	BasePrice            decimal.Decimal       `json:"base_price"`
	EstimatedTimeMinutes *int                  `json:"estimated_time_minutes" validate:"omitempty,min=0"`
	IsExpressAvailable   bool                  `json:"is_express_available"`
	Components           []ComponentInput      `json:"components" validate:"omitempty,dive"`
}

// UpdateServiceInput is a partial update; nil fields are left untouched.
type UpdateServiceInput struct {
	Name                 *string                `json:"name" validate:"omitempty,min=1,max=200"`
	CategoryID           *uuid.UUID             `json:"category_id"`
	Description          *string                `json:"description"`
	UnitType             *enums.ServiceUnitType `json:"unit_type" validate:"omitempty,oneof=garment pound kilo service"`
	BasePrice            *decimal.Decimal       `json:"base_price"`
	EstimatedTimeMinutes *int                   `json:"estimated_time_minutes" validate:"omitempty,min=0"`
	IsExpressAvailable   *bool                  `json:"is_express_available"`
	IsActive             *bool                  `json:"is_active"`
}

type ServiceFilters struct {
	Query           string
	CategoryID      *uuid.UUID
	IncludeInactive bool
}

type ComponentDTO struct {
	ID              uuid.UUID       `json:"id"`
	InventoryItemID uuid.UUID       `json:"inventory_item_id"`
	ItemName        string          `json:"item_name,omitempty"`
	QuantityUsed    decimal.Decimal `json:"quantity_used"`
}

type PriceDTO struct {
	CustomerType enums.CustomerType `json:"customer_type"`
	Price        decimal.Decimal    `json:"price"`
}

type ServiceDTO struct {
	ID                   uuid.UUID             `json:"id"`
	Name                 string                `json:"name"`
	CategoryID           *uuid.UUID            `json:"category_id,omitempty"`
	CategoryName         string                `json:"category_name,omitempty"`
	Description          *string               `json:"description,omitempty"`
	UnitType             enums.ServiceUnitType `json:"unit_type"`
	BasePrice            decimal.Decimal       `json:"base_price"`
	EstimatedTimeMinutes int                   `json:"estimated_time_minutes"`
	IsExpressAvailable   bool                  `json:"is_express_available"`
	IsActive             bool                  `json:"is_active"`
	Components           []ComponentDTO        `json:"components,omitempty"`
	Pricing              []PriceDTO            `json:"pricing,omitempty"`
	CreatedAt            time.Time             `json:"created_at"`
	UpdatedAt            time.Time             `json:"updated_at"`
}

func categoryFromModel(m models.ServiceCategory) CategoryDTO {
	return CategoryDTO{ID: m.ID, Name: m.Name, Description: m.Description, CreatedAt: m.CreatedAt}
}

func serviceFromModel(m models.Service) ServiceDTO {
	dto := ServiceDTO{
		ID:                   m.ID,
		Name:                 m.Name,
		CategoryID:           m.CategoryID,
		Description:          m.Description,
		UnitType:             m.UnitType,
		BasePrice:            m.BasePrice,
		EstimatedTimeMinutes: m.EstimatedTimeMinutes,
		IsExpressAvailable:   m.IsExpressAvailable,
		IsActive:             m.IsActive,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
	if m.Category != nil {
		dto.CategoryName = m.Category.Name
	}
	for _, c := range m.Components {
		component := ComponentDTO{ID: c.ID, InventoryItemID: c.InventoryItemID, QuantityUsed: c.QuantityUsed}
		if c.Item != nil {
			component.ItemName = c.Item.Name
		}
		dto.Components = append(dto.Components, component)
	}
	for _, p := range m.Pricing {
		dto.Pricing = append(dto.Pricing, PriceDTO{CustomerType: p.CustomerType, Price: p.Price})
	}
	return dto
}
