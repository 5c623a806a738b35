package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/laundrydesk-backend/pkg/db/models"
	"github.com/angelmondragon/laundrydesk-backend/pkg/enums"
)

// LineInput describes one service line. A nil UnitPrice takes the price of the
// service for the customer's type.
type LineInput struct {
	ServiceID uuid.UUID        `json:"service_id" validate:"required"`
	Quantity  decimal.Decimal  `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

type CreateOrderInput struct {
	CustomerID uuid.UUID       `json:"customer_id" validate:"required"`
	Discount   decimal.Decimal `json:"discount"`
	Notes      *string         `json:"notes"`
	Lines      []LineInput     `json:"lines" validate:"required,min=1,dive"`
}

// UpdateOrderInput is a partial update. A non-nil Lines replaces every line.
type UpdateOrderInput struct {
	Discount *decimal.Decimal `json:"discount"`
	Notes    *string          `json:"notes"`
	Lines    []LineInput      `json:"lines" validate:"omitempty,min=1,dive"`
}

type UpdateLineInput struct {
	Quantity  *decimal.Decimal `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

type ChangeStatusInput struct {
	Status enums.OrderStatus `json:"status" validate:"required,oneof=pending in_process ready delivered cancelled"`
	Notes  *string           `json:"notes"`
}

// ListFilters narrows the order listing.
type ListFilters struct {
	Query      string
	Status     *enums.OrderStatus
	CustomerID *uuid.UUID
}

type LineDTO struct {
	ID          uuid.UUID       `json:"id"`
	ServiceID   uuid.UUID       `json:"service_id"`
	Position    int             `json:"position"`
	ServiceName string          `json:"service_name,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// OrderSummaryDTO is the list and board shape of an order.
type OrderSummaryDTO struct {
	ID           uuid.UUID         `json:"id"`
	Code         string            `json:"code"`
	CustomerID   uuid.UUID         `json:"customer_id"`
	CustomerName string            `json:"customer_name,omitempty"`
	Status       enums.OrderStatus `json:"status"`
	TotalAmount  decimal.Decimal   `json:"total_amount"`
	Discount     decimal.Decimal   `json:"discount"`
	FinalAmount  decimal.Decimal   `json:"final_amount"`
	IsPaid       bool              `json:"is_paid"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

type OrderDTO struct {
	OrderSummaryDTO
	Notes     *string    `json:"notes,omitempty"`
	CreatedBy *uuid.UUID `json:"created_by,omitempty"`
	Lines     []LineDTO  `json:"lines"`
}

type TrackingDTO struct {
	ID             uuid.UUID          `json:"id"`
	PreviousStatus *enums.OrderStatus `json:"previous_status"`
	NewStatus      enums.OrderStatus  `json:"new_status"`
	ChangedBy      *uuid.UUID         `json:"changed_by,omitempty"`
	Notes          *string            `json:"notes,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}

// WorkflowColumn is one status lane of the order board.
type WorkflowColumn struct {
	Status enums.OrderStatus `json:"status"`
	Count  int               `json:"count"`
	Orders []OrderSummaryDTO `json:"orders"`
}

type WorkflowDTO struct {
	Columns []WorkflowColumn `json:"columns"`
}

// boardStatuses are the lanes shown on the workflow board.
var boardStatuses = []enums.OrderStatus{
	enums.OrderStatusPending,
	enums.OrderStatusInProcess,
	enums.OrderStatusReady,
}

func summaryFromModel(m models.Order) OrderSummaryDTO {
	dto := OrderSummaryDTO{
		ID:          m.ID,
		Code:        m.Code,
		CustomerID:  m.CustomerID,
		Status:      m.Status,
		TotalAmount: m.TotalAmount,
		Discount:    m.Discount,
		FinalAmount: m.FinalAmount,
		IsPaid:      m.IsPaid,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.Customer != nil {
		dto.CustomerName = m.Customer.Name
	}
	return dto
}

func orderFromModel(m models.Order) OrderDTO {
	dto := OrderDTO{
		OrderSummaryDTO: summaryFromModel(m),
		Notes:           m.Notes,
		CreatedBy:       m.CreatedBy,
		Lines:           make([]LineDTO, 0, len(m.Lines)),
	}
	for _, line := range m.Lines {
		l := LineDTO{
			ID:        line.ID,
			ServiceID: line.ServiceID,
			Position:  line.Position,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Subtotal:  line.Subtotal,
		}
		if line.Service != nil {
			l.ServiceName = line.Service.Name
		}
		dto.Lines = append(dto.Lines, l)
	}
	return dto
}

func trackingFromModel(m models.OrderTracking) TrackingDTO {
	return TrackingDTO{
		ID:             m.ID,
		PreviousStatus: m.PreviousStatus,
		NewStatus:      m.NewStatus,
		ChangedBy:      m.ChangedBy,
		Notes:          m.Notes,
		CreatedAt:      m.CreatedAt,
	}
}
