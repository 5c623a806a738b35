package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/laundrydesk-backend/pkg/enums"
)

// OrderCodeFormat renders the human facing code from the order number.
const OrderCodeFormat = "ORD-%05d"

// FormatOrderCode returns the code assigned to the given order number.
func FormatOrderCode(number int64) string {
	return fmt.Sprintf(OrderCodeFormat, number)
}

// Order is a customer's laundry request; the aggregate root for lines and tracking.
type Order struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber int64             `gorm:"column:order_number;not null;uniqueIndex"`
	Code        string            `gorm:"column:code;not null;uniqueIndex"`
	CustomerID  uuid.UUID         `gorm:"column:customer_id;type:uuid;not null;index"`
	Status      enums.OrderStatus `gorm:"column:status;type:text;not null;index"`
	Notes       *string           `gorm:"column:notes"`
	TotalAmount decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Discount    decimal.Decimal   `gorm:"column:discount;type:numeric(12,2);not null"`
	FinalAmount decimal.Decimal   `gorm:"column:final_amount;type:numeric(12,2);not null"`
	IsPaid      bool              `gorm:"column:is_paid;not null"`
	CreatedBy   *uuid.UUID        `gorm:"column:created_by;type:uuid"`
	Customer    *Customer         `gorm:"foreignKey:CustomerID"`
	Lines       []OrderLine       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Tracking    []OrderTracking   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// RecalculateTotals sets TotalAmount to the sum of the line subtotals and
// FinalAmount to that sum minus the discount.
func (o *Order) RecalculateTotals() {
	total := decimal.Zero
	for _, line := range o.Lines {
		total = total.Add(line.Subtotal)
	}
	o.TotalAmount = total
	o.FinalAmount = total.Sub(o.Discount)
}

// OrderLine is a quantity of one service at a recorded unit price.
type OrderLine struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ServiceID uuid.UUID       `gorm:"column:service_id;type:uuid;not null"`
	Position  int             `gorm:"column:position;not null;default:0"`
	Quantity  decimal.Decimal `gorm:"column:quantity;type:numeric(10,2);not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Subtotal  decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Service   *Service        `gorm:"foreignKey:ServiceID"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// ComputeSubtotal sets Subtotal to Quantity x UnitPrice.
func (l *OrderLine) ComputeSubtotal() {
	l.Subtotal = l.Quantity.Mul(l.UnitPrice).Round(2)
}

func (l *OrderLine) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}

// OrderTracking is one entry of an order's append-only status history.
type OrderTracking struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID          `gorm:"column:order_id;type:uuid;not null;index"`
	PreviousStatus *enums.OrderStatus `gorm:"column:previous_status;type:text"`
	NewStatus      enums.OrderStatus  `gorm:"column:new_status;type:text;not null"`
	ChangedBy      *uuid.UUID         `gorm:"column:changed_by;type:uuid"`
	Notes          *string            `gorm:"column:notes"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (OrderTracking) TableName() string { return "order_tracking" }

func (t *OrderTracking) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}
