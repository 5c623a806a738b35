package orders

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/laundrydesk-backend/internal/cash"
	"github.com/angelmondragon/laundrydesk-backend/pkg/db/models"
	"github.com/angelmondragon/laundrydesk-backend/pkg/enums"
	"github.com/angelmondragon/laundrydesk-backend/pkg/pagination"
)

// Repository defines persistence operations for orders, their lines and tracking.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	NextOrderNumber(ctx context.Context) (int64, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	UpdateOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error
	FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindOrderForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	CreateLines(ctx context.Context, lines []models.OrderLine) error
	UpdateLine(ctx context.Context, lineID uuid.UUID, updates map[string]any) error
	DeleteLine(ctx context.Context, lineID uuid.UUID) error
	DeleteLines(ctx context.Context, orderID uuid.UUID) error
	CreateTracking(ctx context.Context, entry *models.OrderTracking) error
	ListTracking(ctx context.Context, orderID uuid.UUID) ([]models.OrderTracking, error)
	ListOrders(ctx context.Context, filters ListFilters, cursor *pagination.Cursor, limit int) ([]models.Order, error)
	ListByStatuses(ctx context.Context, statuses []enums.OrderStatus) ([]models.Order, error)
}

// CustomerLookup resolves the customer an order is placed for.
type CustomerLookup interface {
	RequireActive(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Customer, error)
}

// CatalogLookup resolves services and their customer-type prices.
type CatalogLookup interface {
	RequireActiveService(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Service, error)
	ResolvePrice(ctx context.Context, tx *gorm.DB, svc *models.Service, customerType enums.CustomerType) (decimal.Decimal, error)
}

// InventoryLedger consumes and returns the supplies an order's services use.
type InventoryLedger interface {
	Consume(ctx context.Context, tx *gorm.DB, order *models.Order, actor *uuid.UUID) ([]models.InventoryMovement, error)
	Restock(ctx context.Context, tx *gorm.DB, order *models.Order, actor *uuid.UUID) ([]models.InventoryMovement, error)
}

// CashLedger credits delivered orders to the open register.
type CashLedger interface {
	RecordOrderPayment(ctx context.Context, tx *gorm.DB, order *models.Order, actor *uuid.UUID) (*cash.PaymentResult, error)
}
