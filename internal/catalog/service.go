package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/laundrydesk-backend/pkg/db"
	"github.com/angelmondragon/laundrydesk-backend/pkg/db/models"
	"github.com/angelmondragon/laundrydesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/laundrydesk-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages the service catalog and answers price lookups for orders.
type Service interface {
	CreateCategory(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error)
	ListCategories(ctx context.Context) ([]CategoryDTO, error)
	CreateService(ctx context.Context, input CreateServiceInput) (*ServiceDTO, error)
	UpdateService(ctx context.Context, id uuid.UUID, input UpdateServiceInput) (*ServiceDTO, error)
	GetService(ctx context.Context, id uuid.UUID) (*ServiceDTO, error)
	ListServices(ctx context.Context, filters ServiceFilters) ([]ServiceDTO, error)
	DeactivateService(ctx context.Context, id uuid.UUID) error
	SetComponents(ctx context.Context, id uuid.UUID, components []ComponentInput) (*ServiceDTO, error)
	SetPrice(ctx context.Context, id uuid.UUID, customerType enums.CustomerType, price decimal.Decimal) (*ServiceDTO, error)
	RequireActiveService(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Service, error)
	ResolvePrice(ctx context.Context, tx *gorm.DB, svc *models.Service, customerType enums.CustomerType) (decimal.Decimal, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService wires the catalog service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) CreateCategory(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	category := &models.ServiceCategory{Name: name, Description: input.Description}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create category")
	}
	dto := categoryFromModel(*category)
	return &dto, nil
}

func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, categoryFromModel(row))
	}
	return out, nil
}

func (s *service) CreateService(ctx context.Context, input CreateServiceInput) (*ServiceDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	unitType := input.UnitType
	if unitType == "" {
		unitType = enums.ServiceUnitGarment
	}
	if !unitType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid unit type")
	}
	if input.BasePrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price cannot be negative")
	}
	minutes := DefaultEstimatedTimeMinutes
	if input.EstimatedTimeMinutes != nil {
		if *input.EstimatedTimeMinutes < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "estimated time cannot be negative")
		}
		minutes = *input.EstimatedTimeMinutes
	}
	components, err := buildComponents(uuid.Nil, input.Components)
	if err != nil {
		return nil, err
	}

	svc := &models.Service{
		Name:                 name,
		CategoryID:           input.CategoryID,
		Description:          input.Description,
		UnitType:             unitType,
		BasePrice:            input.BasePrice.Round(2),
		EstimatedTimeMinutes: minutes,
		IsExpressAvailable:   input.IsExpressAvailable,
		IsActive:             true,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := s.ensureCategory(ctx, repo, input.CategoryID); err != nil {
			return err
		}
		if err := repo.CreateService(ctx, svc); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "service name already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create service")
		}
		return s.replaceComponents(ctx, repo, svc.ID, components)
	})
	if err != nil {
		return nil, err
	}
	return s.GetService(ctx, svc.ID)
}

func (s *service) UpdateService(ctx context.Context, id uuid.UUID, input UpdateServiceInput) (*ServiceDTO, error) {
	if _, err := s.findService(ctx, s.repo, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be blank")
		}
		updates["name"] = name
	}
	if input.CategoryID != nil {
		if err := s.ensureCategory(ctx, s.repo, input.CategoryID); err != nil {
			return nil, err
		}
		updates["category_id"] = *input.CategoryID
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.UnitType != nil {
		if !input.UnitType.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid unit type")
		}
		updates["unit_type"] = *input.UnitType
	}
	if input.BasePrice != nil {
		if input.BasePrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price cannot be negative")
		}
		updates["base_price"] = input.BasePrice.Round(2)
	}
	if input.EstimatedTimeMinutes != nil {
		if *input.EstimatedTimeMinutes < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "estimated time cannot be negative")
		}
		updates["estimated_time_minutes"] = *input.EstimatedTimeMinutes
	}
	if input.IsExpressAvailable != nil {
		updates["is_express_available"] = *input.IsExpressAvailable
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	if err := s.repo.UpdateService(ctx, id, updates); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "service name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update service")
	}
	return s.GetService(ctx, id)
}

func (s *service) GetService(ctx context.Context, id uuid.UUID) (*ServiceDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service id is required")
	}
	svc, err := s.repo.FindServiceDetail(ctx, id)
	if err != nil {
		return nil, mapServiceErr(err)
	}
	dto := serviceFromModel(*svc)
	return &dto, nil
}

func (s *service) ListServices(ctx context.Context, filters ServiceFilters) ([]ServiceDTO, error) {
	rows, err := s.repo.ListServices(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list services")
	}
	out := make([]ServiceDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, serviceFromModel(row))
	}
	return out, nil
}

func (s *service) DeactivateService(ctx context.Context, id uuid.UUID) error {
	if _, err := s.findService(ctx, s.repo, id); err != nil {
		return err
	}
	if err := s.repo.UpdateService(ctx, id, map[string]any{"is_active": false}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivate service")
	}
	return nil
}

// SetComponents replaces the service recipe in one transaction.
func (s *service) SetComponents(ctx context.Context, id uuid.UUID, inputs []ComponentInput) (*ServiceDTO, error) {
	components, err := buildComponents(id, inputs)
	if err != nil {
		return nil, err
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := s.findService(ctx, repo, id); err != nil {
			return err
		}
		return s.replaceComponents(ctx, repo, id, components)
	})
	if err != nil {
		return nil, err
	}
	return s.GetService(ctx, id)
}

func (s *service) SetPrice(ctx context.Context, id uuid.UUID, customerType enums.CustomerType, price decimal.Decimal) (*ServiceDTO, error) {
	if !customerType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid customer type")
	}
	if price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if _, err := s.findService(ctx, s.repo, id); err != nil {
		return nil, err
	}
	row := &models.ServicePricing{ServiceID: id, CustomerType: customerType, Price: price.Round(2)}
	if err := s.repo.UpsertPrice(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set service price")
	}
	return s.GetService(ctx, id)
}

// RequireActiveService loads a service inside tx and fails unless it is active.
func (s *service) RequireActiveService(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Service, error) {
	svc, err := s.findService(ctx, s.repo.WithTx(tx), id)
	if err != nil {
		return nil, err
	}
	if !svc.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("service %q is inactive", svc.Name))
	}
	return svc, nil
}

// ResolvePrice returns the customer-type price for svc, falling back to its base price.
func (s *service) ResolvePrice(ctx context.Context, tx *gorm.DB, svc *models.Service, customerType enums.CustomerType) (decimal.Decimal, error) {
	if svc == nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "service is required")
	}
	if !customerType.IsValid() {
		return svc.BasePrice, nil
	}
	price, err := s.repo.WithTx(tx).FindPrice(ctx, svc.ID, customerType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return svc.BasePrice, nil
		}
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve service price")
	}
	return price.Price, nil
}

func (s *service) findService(ctx context.Context, repo Repository, id uuid.UUID) (*models.Service, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service id is required")
	}
	svc, err := repo.FindService(ctx, id)
	if err != nil {
		return nil, mapServiceErr(err)
	}
	return svc, nil
}

func (s *service) ensureCategory(ctx context.Context, repo Repository, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, err := repo.FindCategory(ctx, *id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category")
	}
	return nil
}

func (s *service) replaceComponents(ctx context.Context, repo Repository, serviceID uuid.UUID, components []models.ServiceComponent) error {
	ids := make([]uuid.UUID, 0, len(components))
	for i := range components {
		components[i].ServiceID = serviceID
		ids = append(ids, components[i].InventoryItemID)
	}
	count, err := repo.CountItems(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load inventory items")
	}
	if count != int64(len(ids)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "component references unknown inventory item")
	}
	if err := repo.ReplaceComponents(ctx, serviceID, components); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replace components")
	}
	return nil
}

func buildComponents(serviceID uuid.UUID, inputs []ComponentInput) ([]models.ServiceComponent, error) {
	seen := make(map[uuid.UUID]struct{}, len(inputs))
	out := make([]models.ServiceComponent, 0, len(inputs))
	for i, in := range inputs {
		if in.InventoryItemID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("components[%d]: inventory item is required", i))
		}
		if !in.QuantityUsed.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("components[%d]: quantity used must be positive", i))
		}
		if _, dup := seen[in.InventoryItemID]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("components[%d]: duplicate inventory item", i))
		}
		seen[in.InventoryItemID] = struct{}{}
		out = append(out, models.ServiceComponent{
			ServiceID:       serviceID,
			InventoryItemID: in.InventoryItemID,
			QuantityUsed:    in.QuantityUsed.Round(3),
		})
	}
	return out, nil
}

func mapServiceErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load service")
}
