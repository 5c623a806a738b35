package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/laundrydesk-backend/pkg/db/models"
	"github.com/angelmondragon/laundrydesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/laundrydesk-backend/pkg/errors"
	"github.com/angelmondragon/laundrydesk-backend/pkg/outbox"
	"github.com/angelmondragon/laundrydesk-backend/pkg/outbox/payloads"
)

// targetFunc picks the status an order should move to, or fails when the
// request is not allowed from the order's current status.
type targetFunc func(order *models.Order) (enums.OrderStatus, error)

// effects records what a committed transition did so counters are only
// bumped for work that was actually persisted.
type effects struct {
	from      enums.OrderStatus
	to        enums.OrderStatus
	code      string
	movements []models.InventoryMovement
	paid      bool
}

// ChangeStatus moves the order to input.Status. An unchanged status is a no-op.
// Finished orders only accept the ready -> delivered edge.
func (s *service) ChangeStatus(ctx context.Context, id uuid.UUID, input ChangeStatusInput, actor *uuid.UUID) (*OrderDTO, error) {
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	return s.transition(ctx, id, input.Notes, actor, func(order *models.Order) (enums.OrderStatus, error) {
		if order.Status == input.Status {
			return order.Status, nil
		}
		deliveringReady := order.Status == enums.OrderStatusReady && input.Status == enums.OrderStatusDelivered
		if order.Status.IsFinished() && !deliveringReady {
			return "", pkgerrors.New(pkgerrors.CodeStateConflict, "order is already finished").
				WithDetails(map[string]any{"status": order.Status})
		}
		if !order.Status.CanTransitionTo(input.Status) {
			return "", pkgerrors.New(pkgerrors.CodeStateConflict, "status transition not allowed").
				WithDetails(map[string]any{"from": order.Status, "to": input.Status})
		}
		return input.Status, nil
	})
}

// Advance moves the order one step along pending -> in_process -> ready -> delivered.
func (s *service) Advance(ctx context.Context, id uuid.UUID, actor *uuid.UUID) (*OrderDTO, error) {
	return s.transition(ctx, id, nil, actor, func(order *models.Order) (enums.OrderStatus, error) {
		next, ok := order.Status.Next()
		if !ok {
			return "", pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot advance from its current status").
				WithDetails(map[string]any{"status": order.Status})
		}
		return next, nil
	})
}

// Cancel cancels a pending or in-process order; in-process orders get their
// consumed supplies back.
func (s *service) Cancel(ctx context.Context, id uuid.UUID, reason *string, actor *uuid.UUID) (*OrderDTO, error) {
	return s.transition(ctx, id, reason, actor, func(order *models.Order) (enums.OrderStatus, error) {
		switch order.Status {
		case enums.OrderStatusCancelled:
			return "", pkgerrors.New(pkgerrors.CodeStateConflict, "order is already cancelled")
		case enums.OrderStatusDelivered:
			return "", pkgerrors.New(pkgerrors.CodeStateConflict, "delivered orders cannot be cancelled")
		}
		if !order.Status.CanTransitionTo(enums.OrderStatusCancelled) {
			return "", pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled").
				WithDetails(map[string]any{"status": order.Status})
		}
		return enums.OrderStatusCancelled, nil
	})
}

// transition is the single executor for status changes. It locks the order,
// applies the side effects of the edge and records tracking and the outbox
// event in one transaction; any failure aborts the whole change.
func (s *service) transition(ctx context.Context, id uuid.UUID, notes *string, actor *uuid.UUID, target targetFunc) (*OrderDTO, error) {
	var applied *effects
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.lockOrder(ctx, s.repo.WithTx(tx), id)
		if err != nil {
			return err
		}
		next, err := target(order)
		if err != nil {
			return err
		}
		if next == order.Status {
			return nil
		}
		applied, err = s.apply(ctx, tx, order, next, normalizeNotes(notes), actor)
		return err
	})
	if err != nil {
		return nil, err
	}
	if applied != nil {
		s.record(ctx, applied)
	}
	return s.GetOrder(ctx, id)
}

func (s *service) apply(ctx context.Context, tx *gorm.DB, order *models.Order, next enums.OrderStatus, notes *string, actor *uuid.UUID) (*effects, error) {
	repo := s.repo.WithTx(tx)
	from := order.Status
	out := &effects{from: from, to: next, code: order.Code}

	switch {
	case next == enums.OrderStatusInProcess:
		movements, err := s.inventory.Consume(ctx, tx, order, actor)
		if err != nil {
			return nil, err
		}
		out.movements = movements
	case from == enums.OrderStatusInProcess && next == enums.OrderStatusCancelled:
		movements, err := s.inventory.Restock(ctx, tx, order, actor)
		if err != nil {
			return nil, err
		}
		out.movements = movements
	case next == enums.OrderStatusDelivered:
		result, err := s.cash.RecordOrderPayment(ctx, tx, order, actor)
		if err != nil {
			return nil, err
		}
		out.paid = result != nil && result.Paid
	}

	if err := repo.UpdateOrder(ctx, order.ID, map[string]any{"status": next}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
	}
	previous := from
	if err := repo.CreateTracking(ctx, &models.OrderTracking{
		OrderID:        order.ID,
		PreviousStatus: &previous,
		NewStatus:      next,
		ChangedBy:      actor,
		Notes:          notes,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record order tracking")
	}

	event := payloads.OrderStatusChangedEvent{
		OrderID:    order.ID,
		Code:       order.Code,
		FromStatus: from,
		ToStatus:   next,
		ChangedAt:  time.Now().UTC(),
	}
	if notes != nil {
		event.Notes = *notes
	}
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         outbox.ActorFromID(actor),
		Data:          event,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue status change event")
	}
	order.Status = next
	return out, nil
}

func (s *service) record(ctx context.Context, applied *effects) {
	s.metrics.IncTransition(string(applied.from), string(applied.to))
	for _, m := range applied.movements {
		s.metrics.IncStockMovement(string(m.MovementType))
	}
	if applied.paid {
		s.metrics.IncPayment()
	}
	if s.logg != nil {
		logCtx := s.logg.WithOrderCode(ctx, applied.code)
		logCtx = s.logg.WithFields(logCtx, map[string]any{
			"from":      string(applied.from),
			"to":        string(applied.to),
			"movements": len(applied.movements),
		})
		s.logg.Info(logCtx, "order status changed")
	}
}
