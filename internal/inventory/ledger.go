package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/laundrydesk-backend/pkg/db/models"
	"github.com/angelmondragon/laundrydesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/laundrydesk-backend/pkg/errors"
	"github.com/angelmondragon/laundrydesk-backend/pkg/outbox"
	"github.com/angelmondragon/laundrydesk-backend/pkg/outbox/payloads"
)

// RecordEntry books a purchase receipt and optionally refreshes the unit cost.
func (s *service) RecordEntry(ctx context.Context, id uuid.UUID, input EntryInput, actor *uuid.UUID) (*MovementDTO, error) {
	if !input.Quantity.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.CostPerUnit != nil && input.CostPerUnit.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cost cannot be negative")
	}

	var movement *models.InventoryMovement
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := s.lockItem(ctx, repo, id)
		if err != nil {
			return err
		}
		if input.CostPerUnit != nil {
			if err := repo.UpdateItem(ctx, id, map[string]any{"cost_per_unit": input.CostPerUnit.Round(2)}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update item cost")
			}
		}
		movement, err = s.applyEntry(ctx, repo, item, input.Quantity, input.Notes, actor)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncStockMovement(string(movement.MovementType))
	dto := movementFromModel(*movement)
	return &dto, nil
}

// Adjust sets the stock to a physical count. The movement quantity is the
// absolute difference; balance_after carries the counted value.
func (s *service) Adjust(ctx context.Context, id uuid.UUID, input AdjustInput, actor *uuid.UUID) (*MovementDTO, error) {
	if input.NewStock.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "new stock cannot be negative")
	}

	var movement *models.InventoryMovement
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := s.lockItem(ctx, repo, id)
		if err != nil {
			return err
		}
		target := input.NewStock.Round(3)
		delta := target.Sub(item.CurrentStock)
		if delta.IsZero() {
			return pkgerrors.New(pkgerrors.CodeValidation, "new stock equals current stock")
		}
		movement, err = s.record(ctx, repo, item, enums.InventoryMovementAdjustment, delta.Abs(), target, nil, input.Notes, actor)
		if err != nil {
			return err
		}
		return s.alertLowStock(ctx, tx, []*models.InventoryItem{item})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncStockMovement(string(movement.MovementType))
	dto := movementFromModel(*movement)
	return &dto, nil
}

// Consume deducts the recipe of every order line from stock inside tx. Each
// line and component pair writes one exit movement; stock floors at zero.
func (s *service) Consume(ctx context.Context, tx *gorm.DB, order *models.Order, actor *uuid.UUID) ([]models.InventoryMovement, error) {
	return s.applyRecipe(ctx, tx, order, actor, enums.InventoryMovementExit)
}

// Restock returns the full recipe quantity of every order line to stock.
func (s *service) Restock(ctx context.Context, tx *gorm.DB, order *models.Order, actor *uuid.UUID) ([]models.InventoryMovement, error) {
	return s.applyRecipe(ctx, tx, order, actor, enums.InventoryMovementReturn)
}

// ScanLowStock queues one low-stock event per item at or under its minimum,
// at most once per alert window, and reports how many were queued.
func (s *service) ScanLowStock(ctx context.Context) (int, error) {
	queued := 0
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := s.repo.WithTx(tx).ListBelow(ctx, 1.0)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list low stock")
		}
		s.metrics.SetLowStockItems(len(rows))
		for i := range rows {
			ok, err := s.emitLowStock(ctx, tx, &rows[i])
			if err != nil {
				return err
			}
			if ok {
				queued++
			}
		}
		return nil
	})
	return queued, err
}

func (s *service) applyRecipe(ctx context.Context, tx *gorm.DB, order *models.Order, actor *uuid.UUID, movementType enums.InventoryMovementType) ([]models.InventoryMovement, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if order == nil || order.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order is required")
	}
	if len(order.Lines) == 0 {
		return nil, nil
	}

	repo := s.repo.WithTx(tx)
	serviceIDs := make([]uuid.UUID, 0, len(order.Lines))
	seenService := map[uuid.UUID]struct{}{}
	for _, line := range order.Lines {
		if _, ok := seenService[line.ServiceID]; ok {
			continue
		}
		seenService[line.ServiceID] = struct{}{}
		serviceIDs = append(serviceIDs, line.ServiceID)
	}

	components, err := repo.ComponentsForServices(ctx, serviceIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load service components")
	}
	if len(components) == 0 {
		return nil, nil
	}
	byService := map[uuid.UUID][]models.ServiceComponent{}
	itemIDs := make([]uuid.UUID, 0, len(components))
	seenItem := map[uuid.UUID]struct{}{}
	for _, c := range components {
		byService[c.ServiceID] = append(byService[c.ServiceID], c)
		if _, ok := seenItem[c.InventoryItemID]; !ok {
			seenItem[c.InventoryItemID] = struct{}{}
			itemIDs = append(itemIDs, c.InventoryItemID)
		}
	}

	locked, err := repo.FindItemsForUpdate(ctx, itemIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock inventory items")
	}
	items := make(map[uuid.UUID]*models.InventoryItem, len(locked))
	for i := range locked {
		items[locked[i].ID] = &locked[i]
	}

	verb := "consumed"
	if movementType == enums.InventoryMovementReturn {
		verb = "returned"
	}
	notes := fmt.Sprintf("%s by order %s", verb, order.Code)
	orderID := order.ID

	var movements []models.InventoryMovement
	touched := []*models.InventoryItem{}
	for _, line := range order.Lines {
		for _, c := range byService[line.ServiceID] {
			total := line.Quantity.Mul(c.QuantityUsed).Round(3)
			if !total.IsPositive() {
				continue
			}
			item, ok := items[c.InventoryItemID]
			if !ok {
				return nil, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("inventory item %s missing", c.InventoryItemID))
			}
			var next decimal.Decimal
			if movementType == enums.InventoryMovementReturn {
				next = item.CurrentStock.Add(total)
			} else {
				next = decimal.Max(decimal.Zero, item.CurrentStock.Sub(total))
			}
			m, err := s.record(ctx, repo, item, movementType, total, next, &orderID, &notes, actor)
			if err != nil {
				return nil, err
			}
			movements = append(movements, *m)
			touched = append(touched, item)
		}
	}

	if movementType == enums.InventoryMovementExit {
		if err := s.alertLowStock(ctx, tx, touched); err != nil {
			return nil, err
		}
	}
	return movements, nil
}

func (s *service) applyEntry(ctx context.Context, repo Repository, item *models.InventoryItem, qty decimal.Decimal, notes *string, actor *uuid.UUID) (*models.InventoryMovement, error) {
	return s.record(ctx, repo, item, enums.InventoryMovementEntry, qty, item.CurrentStock.Add(qty), nil, notes, actor)
}

// record persists the new stock and its ledger row. Every stock change goes
// through here so balance_after always equals the stored stock.
func (s *service) record(ctx context.Context, repo Repository, item *models.InventoryItem, movementType enums.InventoryMovementType, qty, next decimal.Decimal, orderID *uuid.UUID, notes *string, actor *uuid.UUID) (*models.InventoryMovement, error) {
	next = next.Round(3)
	if err := repo.SetStock(ctx, item.ID, next); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update stock")
	}
	item.CurrentStock = next

	movement := &models.InventoryMovement{
		InventoryItemID: item.ID,
		OrderID:         orderID,
		MovementType:    movementType,
		Quantity:        qty.Round(3),
		BalanceAfter:    next,
		CreatedBy:       actor,
		Notes:           notes,
	}
	if err := repo.CreateMovement(ctx, movement); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record inventory movement")
	}
	return movement, nil
}

func (s *service) lockItem(ctx context.Context, repo Repository, id uuid.UUID) (*models.InventoryItem, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	rows, err := repo.FindItemsForUpdate(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock inventory item")
	}
	if len(rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
	}
	return &rows[0], nil
}

func (s *service) alertLowStock(ctx context.Context, tx *gorm.DB, items []*models.InventoryItem) error {
	seen := map[uuid.UUID]struct{}{}
	for _, item := range items {
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}
		if !item.IsActive || !item.IsBelowMin() {
			continue
		}
		if _, err := s.emitLowStock(ctx, tx, item); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) emitLowStock(ctx context.Context, tx *gorm.DB, item *models.InventoryItem) (bool, error) {
	queued, err := s.outbox.EmitIfNotExistsSince(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventInventoryLowStock,
		AggregateType: enums.AggregateInventoryItem,
		AggregateID:   item.ID,
		Data: payloads.InventoryLowStockEvent{
			ItemID:       item.ID,
			Name:         item.Name,
			CurrentStock: item.CurrentStock,
			MinStock:     item.MinStock,
			Level:        item.StockLevel(s.warnFactor),
		},
	}, time.Now().Add(-lowStockAlertWindow))
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue low stock event")
	}
	if queued && s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"item_id":       item.ID.String(),
			"current_stock": item.CurrentStock.String(),
			"min_stock":     item.MinStock.String(),
		})
		s.logg.Warn(logCtx, "inventory item below minimum stock")
	}
	return queued, nil
}
