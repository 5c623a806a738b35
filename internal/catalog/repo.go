package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/laundrydesk-backend/pkg/db/models"
	"github.com/angelmondragon/laundrydesk-backend/pkg/enums"
)

// Repository manages persistence for categories, services, recipes and prices.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateCategory(ctx context.Context, category *models.ServiceCategory) error
	ListCategories(ctx context.Context) ([]models.ServiceCategory, error)
	FindCategory(ctx context.Context, id uuid.UUID) (*models.ServiceCategory, error)
	CreateService(ctx context.Context, svc *models.Service) error
	UpdateService(ctx context.Context, id uuid.UUID, updates map[string]any) error
	FindService(ctx context.Context, id uuid.UUID) (*models.Service, error)
	FindServiceDetail(ctx context.Context, id uuid.UUID) (*models.Service, error)
	ListServices(ctx context.Context, filters ServiceFilters) ([]models.Service, error)
	ReplaceComponents(ctx context.Context, serviceID uuid.UUID, components []models.ServiceComponent) error
	CountItems(ctx context.Context, ids []uuid.UUID) (int64, error)
	UpsertPrice(ctx context.Context, price *models.ServicePricing) error
	FindPrice(ctx context.Context, serviceID uuid.UUID, customerType enums.CustomerType) (*models.ServicePricing, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateCategory(ctx context.Context, category *models.ServiceCategory) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *repository) ListCategories(ctx context.Context) ([]models.ServiceCategory, error) {
	var rows []models.ServiceCategory
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindCategory(ctx context.Context, id uuid.UUID) (*models.ServiceCategory, error) {
	var category models.ServiceCategory
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *repository) CreateService(ctx context.Context, svc *models.Service) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(svc).Error
}

func (r *repository) UpdateService(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Service{}).Where("id = ?", id).Updates(updates).Error
}

func (r *repository) FindService(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	var svc models.Service
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&svc).Error; err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *repository) FindServiceDetail(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	var svc models.Service
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Components", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Components.Item").
		Preload("Pricing", func(db *gorm.DB) *gorm.DB { return db.Order("customer_type ASC") }).
		Where("id = ?", id).
		First(&svc).Error
	if err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *repository) ListServices(ctx context.Context, filters ServiceFilters) ([]models.Service, error) {
	q := r.db.WithContext(ctx).Model(&models.Service{}).Preload("Category")
	if !filters.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}
	if filters.CategoryID != nil {
		q = q.Where("category_id = ?", *filters.CategoryID)
	}
	if term := strings.ToLower(strings.TrimSpace(filters.Query)); term != "" {
		like := "%" + term + "%"
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ?)", like, like)
	}
	var rows []models.Service
	if err := q.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ReplaceComponents(ctx context.Context, serviceID uuid.UUID, components []models.ServiceComponent) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("service_id = ?", serviceID).Delete(&models.ServiceComponent{}).Error; err != nil {
		return err
	}
	if len(components) == 0 {
		return nil
	}
	return db.Omit(clause.Associations).Create(&components).Error
}

func (r *repository) CountItems(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.InventoryItem{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}

func (r *repository) UpsertPrice(ctx context.Context, price *models.ServicePricing) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "service_id"}, {Name: "customer_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"price", "updated_at"}),
	}).Create(price).Error
}

func (r *repository) FindPrice(ctx context.Context, serviceID uuid.UUID, customerType enums.CustomerType) (*models.ServicePricing, error) {
	var price models.ServicePricing
	err := r.db.WithContext(ctx).
		Where("service_id = ? AND customer_type = ?", serviceID, customerType).
		First(&price).Error
	if err != nil {
		return nil, err
	}
	return &price, nil
}
