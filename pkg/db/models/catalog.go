package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/laundrydesk-backend/pkg/enums"
)

// ServiceCategory groups services (washing, ironing, dry cleaning).
type ServiceCategory struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name        string    `gorm:"column:name;not null;uniqueIndex"`
	Description *string   `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ServiceCategory) TableName() string { return "service_categories" }

func (c *ServiceCategory) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// Service is a billable laundry service. Its components form the recipe of
// inventory consumed per unit.
type Service struct {
	ID                   uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Name                 string                `gorm:"column:name;not null;uniqueIndex"`
	CategoryID           *uuid.UUID            `gorm:"column:category_id;type:uuid"`
	Description          *string               `gorm:"column:description"`
	UnitType             enums.ServiceUnitType `gorm:"column:unit_type;type:text;not null"`
	BasePrice            decimal.Decimal       `gorm:"column:base_price;type:numeric(12,2);not null"`
	EstimatedTimeMinutes int                   `gorm:"column:estimated_time_minutes;not null"`
	IsExpressAvailable   bool                  `gorm:"column:is_express_available;not null"`
	IsActive             bool                  `gorm:"column:is_active;not null"`
	Category             *ServiceCategory      `gorm:"foreignKey:CategoryID"`
	Components           []ServiceComponent    `gorm:"foreignKey:ServiceID;constraint:OnDelete:CASCADE"`
	Pricing              []ServicePricing      `gorm:"foreignKey:ServiceID;constraint:OnDelete:CASCADE"`
	CreatedAt            time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Service) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// ServiceComponent states how much of an inventory item one unit of a service consumes.
type ServiceComponent struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ServiceID       uuid.UUID       `gorm:"column:service_id;type:uuid;not null;uniqueIndex:idx_service_components_service_item"`
	InventoryItemID uuid.UUID       `gorm:"column:inventory_item_id;type:uuid;not null;uniqueIndex:idx_service_components_service_item"`
	QuantityUsed    decimal.Decimal `gorm:"column:quantity_used;type:numeric(10,3);not null"`
	Item            *InventoryItem  `gorm:"foreignKey:InventoryItemID"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (c *ServiceComponent) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// ServicePricing overrides a service base price for one customer type.
type ServicePricing struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	ServiceID    uuid.UUID          `gorm:"column:service_id;type:uuid;not null;uniqueIndex:idx_service_pricing_service_type"`
	CustomerType enums.CustomerType `gorm:"column:customer_type;type:text;not null;uniqueIndex:idx_service_pricing_service_type"`
	Price        decimal.Decimal    `gorm:"column:price;type:numeric(12,2);not null"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (ServicePricing) TableName() string { return "service_pricing" }

func (p *ServicePricing) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
