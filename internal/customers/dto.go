package customers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/laundrydesk-backend/pkg/db/models"
	"github.com/angelmondragon/laundrydesk-backend/pkg/enums"
)

// CreateCustomerInput carries the fields accepted when registering a customer.
type CreateCustomerInput struct {
	Name          string             `json:"name" validate:"required,max=200"`
	CustomerType  enums.CustomerType `json:"customer_type" validate:"omitempty,oneof=personal business delivery"`
	Email         *string            `json:"email" validate:"omitempty,email"`
	Phone         *string            `json:"phone" validate:"omitempty,max=20"`
	Address       *string            `json:"address"`
	ContactPerson *string            `json:"contact_person" validate:"omitempty,max=100"`
	CreditLimit   *decimal.Decimal   `json:"credit_limit"`
}

// UpdateCustomerInput is a partial update; nil fields are left untouched.
type UpdateCustomerInput struct {
	Name          *string             `json:"name" validate:"omitempty,min=1,max=200"`
	CustomerType  *enums.CustomerType `json:"customer_type" validate:"omitempty,oneof=personal business delivery"`
	Email         *string             `json:"email" validate:"omitempty,email"`
	Phone         *string             `json:"phone" validate:"omitempty,max=20"`
	Address       *string             `json:"address"`
	ContactPerson *string             `json:"contact_person" validate:"omitempty,max=100"`
	CreditLimit   *decimal.Decimal    `json:"credit_limit"`
}

// ListFilters narrows the customer listing.
type ListFilters struct {
	Query           string
	CustomerType    *enums.CustomerType
	IncludeInactive bool
}

// CustomerDTO is the API shape of a customer.
type CustomerDTO struct {
	ID            uuid.UUID          `json:"id"`
	Name          string             `json:"name"`
	CustomerType  enums.CustomerType `json:"customer_type"`
	Email         *string            `json:"email,omitempty"`
	Phone         *string            `json:"phone,omitempty"`
	Address       *string            `json:"address,omitempty"`
	ContactPerson *string            `json:"contact_person,omitempty"`
	CreditLimit   decimal.Decimal    `json:"credit_limit"`
	Balance       decimal.Decimal    `json:"balance"`
	IsActive      bool               `json:"is_active"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// FromModel maps a persisted customer to its DTO.
func FromModel(m models.Customer) CustomerDTO {
	return CustomerDTO{
		ID:            m.ID,
		Name:          m.Name,
		CustomerType:  m.CustomerType,
		Email:         m.Email,
		Phone:         m.Phone,
		Address:       m.Address,
		ContactPerson: m.ContactPerson,
		CreditLimit:   m.CreditLimit,
		Balance:       m.Balance,
		IsActive:      m.IsActive,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
