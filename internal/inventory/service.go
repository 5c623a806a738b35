package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/laundrydesk-backend/pkg/db"
	"github.com/angelmondragon/laundrydesk-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/laundrydesk-backend/pkg/errors"
	"github.com/angelmondragon/laundrydesk-backend/pkg/logger"
	"github.com/angelmondragon/laundrydesk-backend/pkg/metrics"
	"github.com/angelmondragon/laundrydesk-backend/pkg/outbox"
	"github.com/angelmondragon/laundrydesk-backend/pkg/pagination"
)

// DefaultWarnFactor grades items within 25% above their minimum as "warning".
var DefaultWarnFactor = decimal.RequireFromString("1.25")

// lowStockAlertWindow limits low-stock events to one per item per window.
const lowStockAlertWindow = 24 * time.Hour

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	EmitIfNotExistsSince(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent, since time.Time) (bool, error)
}

// Service manages supplies and owns every change to their stock.
type Service interface {
	CreateUnit(ctx context.Context, input CreateUnitInput) (*UnitDTO, error)
	ListUnits(ctx context.Context) ([]UnitDTO, error)
	CreateItem(ctx context.Context, input CreateItemInput, actor *uuid.UUID) (*ItemDTO, error)
	UpdateItem(ctx context.Context, id uuid.UUID, input UpdateItemInput) (*ItemDTO, error)
	GetItem(ctx context.Context, id uuid.UUID) (*ItemDTO, error)
	ListItems(ctx context.Context, filters ItemFilters) ([]ItemDTO, error)
	DeactivateItem(ctx context.Context, id uuid.UUID) error
	ListLowStock(ctx context.Context, includeWarning bool) ([]ItemDTO, error)
	RecordEntry(ctx context.Context, id uuid.UUID, input EntryInput, actor *uuid.UUID) (*MovementDTO, error)
	Adjust(ctx context.Context, id uuid.UUID, input AdjustInput, actor *uuid.UUID) (*MovementDTO, error)
	ListMovements(ctx context.Context, filters MovementFilters, params pagination.Params) (*pagination.Page[MovementDTO], error)
	Consume(ctx context.Context, tx *gorm.DB, order *models.Order, actor *uuid.UUID) ([]models.InventoryMovement, error)
	Restock(ctx context.Context, tx *gorm.DB, order *models.Order, actor *uuid.UUID) ([]models.InventoryMovement, error)
	ScanLowStock(ctx context.Context) (int, error)
}

// ServiceParams groups the inventory service dependencies.
type ServiceParams struct {
	Repo       Repository
	Tx         txRunner
	Outbox     outboxEmitter
	Metrics    *metrics.WorkflowMetrics
	Logger     *logger.Logger
	WarnFactor decimal.Decimal
}

type service struct {
	repo       Repository
	tx         txRunner
	outbox     outboxEmitter
	metrics    *metrics.WorkflowMetrics
	logg       *logger.Logger
	warnFactor decimal.Decimal
}

// NewService wires the inventory service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	warn := params.WarnFactor
	if !warn.GreaterThan(decimal.NewFromInt(1)) {
		warn = DefaultWarnFactor
	}
	return &service{
		repo:       params.Repo,
		tx:         params.Tx,
		outbox:     params.Outbox,
		metrics:    params.Metrics,
		logg:       params.Logger,
		warnFactor: warn,
	}, nil
}

func (s *service) CreateUnit(ctx context.Context, input CreateUnitInput) (*UnitDTO, error) {
	name := strings.TrimSpace(input.Name)
	abbr := strings.TrimSpace(input.Abbreviation)
	if name == "" || abbr == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and abbreviation are required")
	}
	unit := &models.UnitOfMeasure{Name: name, Abbreviation: abbr}
	if err := s.repo.CreateUnit(ctx, unit); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "unit already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create unit")
	}
	dto := unitFromModel(*unit)
	return &dto, nil
}

func (s *service) ListUnits(ctx context.Context) ([]UnitDTO, error) {
	rows, err := s.repo.ListUnits(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list units")
	}
	out := make([]UnitDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, unitFromModel(row))
	}
	return out, nil
}

// CreateItem registers a supply. A positive initial stock is booked as an
// entry movement so the ledger explains the opening balance.
func (s *service) CreateItem(ctx context.Context, input CreateItemInput, actor *uuid.UUID) (*ItemDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.UnitID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit is required")
	}
	if input.InitialStock.IsNegative() || input.MinStock.IsNegative() || input.CostPerUnit.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock and cost values cannot be negative")
	}

	item := &models.InventoryItem{
		Name:         name,
		UnitID:       input.UnitID,
		CurrentStock: decimal.Zero,
		MinStock:     input.MinStock.Round(3),
		CostPerUnit:  input.CostPerUnit.Round(2),
		IsActive:     true,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindUnit(ctx, input.UnitID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "unit does not exist")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load unit")
		}
		if err := repo.CreateItem(ctx, item); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "item name already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create item")
		}
		if input.InitialStock.IsPositive() {
			notes := "opening stock"
			_, err := s.applyEntry(ctx, repo, item, input.InitialStock, &notes, actor)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetItem(ctx, item.ID)
}

func (s *service) UpdateItem(ctx context.Context, id uuid.UUID, input UpdateItemInput) (*ItemDTO, error) {
	if _, err := s.findItem(ctx, s.repo, id); err != nil {
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
	if input.UnitID != nil {
		if _, err := s.repo.FindUnit(ctx, *input.UnitID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit does not exist")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load unit")
		}
		updates["unit_id"] = *input.UnitID
	}
	if input.MinStock != nil {
		if input.MinStock.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "min stock cannot be negative")
		}
		updates["min_stock"] = input.MinStock.Round(3)
	}
	if input.CostPerUnit != nil {
		if input.CostPerUnit.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cost cannot be negative")
		}
		updates["cost_per_unit"] = input.CostPerUnit.Round(2)
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if err := s.repo.UpdateItem(ctx, id, updates); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "item name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update item")
	}
	return s.GetItem(ctx, id)
}

func (s *service) GetItem(ctx context.Context, id uuid.UUID) (*ItemDTO, error) {
	item, err := s.findItem(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	dto := itemFromModel(*item, s.warnFactor)
	return &dto, nil
}

func (s *service) ListItems(ctx context.Context, filters ItemFilters) ([]ItemDTO, error) {
	rows, err := s.repo.ListItems(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list items")
	}
	return s.itemDTOs(rows), nil
}

func (s *service) DeactivateItem(ctx context.Context, id uuid.UUID) error {
	if _, err := s.findItem(ctx, s.repo, id); err != nil {
		return err
	}
	if err := s.repo.UpdateItem(ctx, id, map[string]any{"is_active": false}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivate item")
	}
	return nil
}

// ListLowStock returns active items at or under their minimum. With
// includeWarning it also returns items inside the warning band.
func (s *service) ListLowStock(ctx context.Context, includeWarning bool) ([]ItemDTO, error) {
	factor := 1.0
	if includeWarning {
		factor = s.warnFactor.InexactFloat64()
	}
	rows, err := s.repo.ListBelow(ctx, factor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list low stock")
	}
	return s.itemDTOs(rows), nil
}

func (s *service) ListMovements(ctx context.Context, filters MovementFilters, params pagination.Params) (*pagination.Page[MovementDTO], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListMovements(ctx, filters, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list movements")
	}
	page := pagination.Trim(rows, params.Limit, func(m models.InventoryMovement) pagination.Cursor {
		return pagination.Cursor{CreatedAt: m.CreatedAt, ID: m.ID}
	})
	out := pagination.Page[MovementDTO]{Items: make([]MovementDTO, 0, len(page.Items)), NextCursor: page.NextCursor}
	for _, m := range page.Items {
		out.Items = append(out.Items, movementFromModel(m))
	}
	return &out, nil
}

func (s *service) itemDTOs(rows []models.InventoryItem) []ItemDTO {
	out := make([]ItemDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, itemFromModel(row, s.warnFactor))
	}
	return out
}

func (s *service) findItem(ctx context.Context, repo Repository, id uuid.UUID) (*models.InventoryItem, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	item, err := repo.FindItem(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load inventory item")
	}
	return item, nil
}
