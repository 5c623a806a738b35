package inventory

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/laundrydesk-backend/pkg/db"
	"github.com/angelmondragon/laundrydesk-backend/pkg/db/models"
	"github.com/angelmondragon/laundrydesk-backend/pkg/pagination"
)

// Repository manages persistence for units, items and the stock ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateUnit(ctx context.Context, unit *models.UnitOfMeasure) error
	ListUnits(ctx context.Context) ([]models.UnitOfMeasure, error)
	FindUnit(ctx context.Context, id uuid.UUID) (*models.UnitOfMeasure, error)
	CreateItem(ctx context.Context, item *models.InventoryItem) error
	UpdateItem(ctx context.Context, id uuid.UUID, updates map[string]any) error
	FindItem(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error)
	FindItemsForUpdate(ctx context.Context, ids []uuid.UUID) ([]models.InventoryItem, error)
	ListItems(ctx context.Context, filters ItemFilters) ([]models.InventoryItem, error)
	ListBelow(ctx context.Context, factor float64) ([]models.InventoryItem, error)
	SetStock(ctx context.Context, id uuid.UUID, stock decimal.Decimal) error
	CreateMovement(ctx context.Context, movement *models.InventoryMovement) error
	ListMovements(ctx context.Context, filters MovementFilters, cursor *pagination.Cursor, limit int) ([]models.InventoryMovement, error)
	ComponentsForServices(ctx context.Context, serviceIDs []uuid.UUID) ([]models.ServiceComponent, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an inventory repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateUnit(ctx context.Context, unit *models.UnitOfMeasure) error {
	return r.db.WithContext(ctx).Create(unit).Error
}

func (r *repository) ListUnits(ctx context.Context) ([]models.UnitOfMeasure, error) {
	var rows []models.UnitOfMeasure
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindUnit(ctx context.Context, id uuid.UUID) (*models.UnitOfMeasure, error) {
	var unit models.UnitOfMeasure
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&unit).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *repository) CreateItem(ctx context.Context, item *models.InventoryItem) error {
	return r.db.WithContext(ctx).Omit("Unit").Create(item).Error
}

func (r *repository) UpdateItem(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.InventoryItem{}).Where("id = ?", id).Updates(updates).Error
}

func (r *repository) FindItem(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.db.WithContext(ctx).Preload("Unit").Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindItemsForUpdate locks the rows in id order so concurrent consumers never
// deadlock on each other.
func (r *repository) FindItemsForUpdate(ctx context.Context, ids []uuid.UUID) ([]models.InventoryItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.InventoryItem
	err := db.ForUpdate(r.db.WithContext(ctx)).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListItems(ctx context.Context, filters ItemFilters) ([]models.InventoryItem, error) {
	q := r.db.WithContext(ctx).Model(&models.InventoryItem{}).Preload("Unit")
	if !filters.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}
	if term := strings.ToLower(strings.TrimSpace(filters.Query)); term != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+term+"%")
	}
	var rows []models.InventoryItem
	if err := q.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListBelow returns active items whose stock is at or under factor x min_stock,
// lowest stock first.
func (r *repository) ListBelow(ctx context.Context, factor float64) ([]models.InventoryItem, error) {
	var rows []models.InventoryItem
	err := r.db.WithContext(ctx).
		Preload("Unit").
		Where("is_active = ?", true).
		Where("current_stock <= min_stock * ?", factor).
		Order("current_stock ASC").
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) SetStock(ctx context.Context, id uuid.UUID, stock decimal.Decimal) error {
	return r.db.WithContext(ctx).Model(&models.InventoryItem{}).
		Where("id = ?", id).
		Update("current_stock", stock).Error
}

func (r *repository) CreateMovement(ctx context.Context, movement *models.InventoryMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repository) ListMovements(ctx context.Context, filters MovementFilters, cursor *pagination.Cursor, limit int) ([]models.InventoryMovement, error) {
	q := r.db.WithContext(ctx).Model(&models.InventoryMovement{})
	if filters.ItemID != nil {
		q = q.Where("inventory_item_id = ?", *filters.ItemID)
	}
	if filters.OrderID != nil {
		q = q.Where("order_id = ?", *filters.OrderID)
	}
	if filters.MovementType != nil {
		q = q.Where("movement_type = ?", *filters.MovementType)
	}
	var rows []models.InventoryMovement
	if err := pagination.Apply(q, "", cursor, limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ComponentsForServices(ctx context.Context, serviceIDs []uuid.UUID) ([]models.ServiceComponent, error) {
	if len(serviceIDs) == 0 {
		return nil, nil
	}
	var rows []models.ServiceComponent
	err := r.db.WithContext(ctx).
		Where("service_id IN ?", serviceIDs).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
