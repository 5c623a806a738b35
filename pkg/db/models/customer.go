package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/laundrydesk-backend/pkg/enums"
)

// Customer is a person or company that drops off laundry.
type Customer struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Name          string             `gorm:"column:name;not null"`
	CustomerType  enums.CustomerType `gorm:"column:customer_type;type:text;not null"`
	Email         *string            `gorm:"column:email"`
	Phone         *string            `gorm:"column:phone"`
	Address       *string            `gorm:"column:address"`
	ContactPerson *string            `gorm:"column:contact_person"`
	CreditLimit   decimal.Decimal    `gorm:"column:credit_limit;type:numeric(12,2);not null"`
	Balance       decimal.Decimal    `gorm:"column:balance;type:numeric(12,2);not null"`
	IsActive      bool               `gorm:"column:is_active;not null"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Customer) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
