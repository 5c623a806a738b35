package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/laundrydesk-backend/pkg/enums"
)

// OrderCreatedEvent is emitted when a counter order is registered.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	Code        string          `json:"code"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	FinalAmount decimal.Decimal `json:"final_amount"`
	LineCount   int             `json:"line_count"`
}

// OrderStatusChangedEvent reports one applied lifecycle transition.
type OrderStatusChangedEvent struct {
	OrderID    uuid.UUID         `json:"order_id"`
	Code       string            `json:"code"`
	FromStatus enums.OrderStatus `json:"from_status"`
	ToStatus   enums.OrderStatus `json:"to_status"`
	Notes      string            `json:"notes,omitempty"`
	ChangedAt  time.Time         `json:"changed_at"`
}

// OrderPaidEvent is emitted when delivery records the order's income.
type OrderPaidEvent struct {
	OrderID        uuid.UUID       `json:"order_id"`
	Code           string          `json:"code"`
	Amount         decimal.Decimal `json:"amount"`
	CashRegisterID *uuid.UUID      `json:"cash_register_id,omitempty"`
	CashMovementID *uuid.UUID      `json:"cash_movement_id,omitempty"`
}

// InventoryLowStockEvent flags an active item at or below its minimum.
type InventoryLowStockEvent struct {
	ItemID       uuid.UUID        `json:"item_id"`
	Name         string           `json:"name"`
	CurrentStock decimal.Decimal  `json:"current_stock"`
	MinStock     decimal.Decimal  `json:"min_stock"`
	Level        enums.StockLevel `json:"level"`
}

// CashRegisterOpenedEvent is emitted when a shift register opens.
type CashRegisterOpenedEvent struct {
	RegisterID     uuid.UUID       `json:"register_id"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	OpenedAt       time.Time       `json:"opened_at"`
}

// CashRegisterClosedEvent carries the reconciliation figures of a closed register.
type CashRegisterClosedEvent struct {
	RegisterID     uuid.UUID       `json:"register_id"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	TotalIncome    decimal.Decimal `json:"total_income"`
	TotalExpense   decimal.Decimal `json:"total_expense"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	ClosedAt       time.Time       `json:"closed_at"`
}

// CashRegisterOverdueEvent warns that a register stayed open too long.
type CashRegisterOverdueEvent struct {
	RegisterID uuid.UUID     `json:"register_id"`
	OpenedAt   time.Time     `json:"opened_at"`
	OpenFor    time.Duration `json:"open_for_ns"`
}
