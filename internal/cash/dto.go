package cash

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/laundrydesk-backend/pkg/db/models"
	"github.com/angelmondragon/laundrydesk-backend/pkg/enums"
)

// DefaultRegisterNameLayout names a register after the moment it opened.
const DefaultRegisterNameLayout = "Shift 2006-01-02 15:04"

type OpenRegisterInput struct {
	Name           *string         `json:"name" validate:"omitempty,max=100"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

type MovementInput struct {
	MovementType enums.CashMovementType `json:"movement_type" validate:"required,oneof=income expense"`
	Amount       decimal.Decimal        `json:"amount"`
	Description  string                 `json:"description" validate:"required,max=255"`
	OrderID      *uuid.UUID             `json:"order_id"`
}

type MovementFilters struct {
	RegisterID   *uuid.UUID
	OrderID      *uuid.UUID
	MovementType *enums.CashMovementType
}

// Totals aggregates one register's movements.
type Totals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
	Count   int
}

// Balance returns opening + income - expense.
func (t Totals) Balance(opening decimal.Decimal) decimal.Decimal {
	return opening.Add(t.Income).Sub(t.Expense)
}

// PaymentResult describes what RecordOrderPayment did.
type PaymentResult struct {
	Paid     bool
	Movement *models.CashMovement
}

type RegisterDTO struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	IsOpen         bool            `json:"is_open"`
	OpenedAt       time.Time       `json:"opened_at"`
	ClosedAt       *time.Time      `json:"closed_at,omitempty"`
	OpenedBy       *uuid.UUID      `json:"opened_by,omitempty"`
	ClosedBy       *uuid.UUID      `json:"closed_by,omitempty"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	TotalIncome    decimal.Decimal `json:"total_income"`
	TotalExpense   decimal.Decimal `json:"total_expense"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	MovementCount  int             `json:"movement_count"`
}

type MovementDTO struct {
	ID           uuid.UUID              `json:"id"`
	RegisterID   uuid.UUID              `json:"register_id"`
	MovementType enums.CashMovementType `json:"movement_type"`
	Amount       decimal.Decimal        `json:"amount"`
	Description  string                 `json:"description"`
	OrderID      *uuid.UUID             `json:"order_id,omitempty"`
	CreatedBy    *uuid.UUID             `json:"created_by,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

func registerFromModel(m models.CashRegister, totals *Totals) RegisterDTO {
	dto := RegisterDTO{
		ID:             m.ID,
		Name:           m.Name,
		IsOpen:         m.IsOpen,
		OpenedAt:       m.OpenedAt,
		ClosedAt:       m.ClosedAt,
		OpenedBy:       m.OpenedBy,
		ClosedBy:       m.ClosedBy,
		OpeningBalance: m.OpeningBalance,
		ClosingBalance: m.ClosingBalance,
	}
	if totals != nil {
		dto.TotalIncome = totals.Income
		dto.TotalExpense = totals.Expense
		dto.CurrentBalance = totals.Balance(m.OpeningBalance)
		dto.MovementCount = totals.Count
	}
	return dto
}

func movementFromModel(m models.CashMovement) MovementDTO {
	return MovementDTO{
		ID:           m.ID,
		RegisterID:   m.RegisterID,
		MovementType: m.MovementType,
		Amount:       m.Amount,
		Description:  m.Description,
		OrderID:      m.OrderID,
		CreatedBy:    m.CreatedBy,
		CreatedAt:    m.CreatedAt,
	}
}
