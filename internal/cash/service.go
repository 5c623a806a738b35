package cash

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
	"github.com/angelmondragon/laundrydesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/laundrydesk-backend/pkg/errors"
	"github.com/angelmondragon/laundrydesk-backend/pkg/logger"
	"github.com/angelmondragon/laundrydesk-backend/pkg/outbox"
	"github.com/angelmondragon/laundrydesk-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/laundrydesk-backend/pkg/pagination"
)

const maxRegisterNameAttempts = 10

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service runs the single-open-register cash ledger.
type Service interface {
	OpenRegister(ctx context.Context, input OpenRegisterInput, actor *uuid.UUID) (*RegisterDTO, error)
	CloseRegister(ctx context.Context, id uuid.UUID, actor *uuid.UUID) (*RegisterDTO, error)
	GetRegister(ctx context.Context, id uuid.UUID) (*RegisterDTO, error)
	CurrentRegister(ctx context.Context) (*RegisterDTO, error)
	ListRegisters(ctx context.Context, params pagination.Params) (*pagination.Page[RegisterDTO], error)
	CreateMovement(ctx context.Context, input MovementInput, actor *uuid.UUID) (*MovementDTO, error)
	ListMovements(ctx context.Context, filters MovementFilters, params pagination.Params) (*pagination.Page[MovementDTO], error)
	RecordOrderPayment(ctx context.Context, tx *gorm.DB, order *models.Order, actor *uuid.UUID) (*PaymentResult, error)
	FlagOverdueRegisters(ctx context.Context, openFor time.Duration) (int, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outbox.Emitter
	logg   *logger.Logger
	now    func() time.Time
}

// NewService wires the cash service.
func NewService(repo Repository, tx txRunner, emitter outbox.Emitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cash repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{repo: repo, tx: tx, outbox: emitter, logg: logg, now: time.Now}, nil
}

// OpenRegister starts a shift. Only one register may be open at a time.
func (s *service) OpenRegister(ctx context.Context, input OpenRegisterInput, actor *uuid.UUID) (*RegisterDTO, error) {
	if input.OpeningBalance.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "opening balance cannot be negative")
	}
	now := s.now()
	register := &models.CashRegister{
		IsOpen:         true,
		OpenedAt:       now.UTC(),
		OpenedBy:       actor,
		OpeningBalance: input.OpeningBalance.Round(2),
		ClosingBalance: decimal.Zero,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindOpenRegister(ctx, true); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "a cash register is already open")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load open register")
		}

		name, err := s.registerName(ctx, repo, input.Name, now)
		if err != nil {
			return err
		}
		register.Name = name
		if err := repo.CreateRegister(ctx, register); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "a cash register is already open")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create register")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCashRegisterOpened,
			AggregateType: enums.AggregateCashRegister,
			AggregateID:   register.ID,
			Actor:         outbox.ActorFromID(actor),
			Data: payloads.CashRegisterOpenedEvent{
				RegisterID:     register.ID,
				OpeningBalance: register.OpeningBalance,
				OpenedAt:       register.OpenedAt,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "register_id", register.ID.String()), "cash register opened")
	}
	dto := registerFromModel(*register, &Totals{})
	return &dto, nil
}

// CloseRegister settles the register at opening + income - expense.
func (s *service) CloseRegister(ctx context.Context, id uuid.UUID, actor *uuid.UUID) (*RegisterDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "register id is required")
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		register, err := repo.FindRegisterForUpdate(ctx, id)
		if err != nil {
			return mapRegisterErr(err)
		}
		if !register.IsOpen {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cash register is already closed")
		}
		totals, err := repo.Totals(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum register movements")
		}
		closedAt := s.now().UTC()
		closing := totals.Balance(register.OpeningBalance)
		if err := repo.UpdateRegister(ctx, id, map[string]any{
			"is_open":         false,
			"closed_at":       closedAt,
			"closed_by":       actor,
			"closing_balance": closing,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "close register")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCashRegisterClosed,
			AggregateType: enums.AggregateCashRegister,
			AggregateID:   id,
			Actor:         outbox.ActorFromID(actor),
			Data: payloads.CashRegisterClosedEvent{
				RegisterID:     id,
				OpeningBalance: register.OpeningBalance,
				TotalIncome:    totals.Income,
				TotalExpense:   totals.Expense,
				ClosingBalance: closing,
				ClosedAt:       closedAt,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "register_id", id.String()), "cash register closed")
	}
	return s.GetRegister(ctx, id)
}

func (s *service) GetRegister(ctx context.Context, id uuid.UUID) (*RegisterDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "register id is required")
	}
	register, err := s.repo.FindRegister(ctx, id)
	if err != nil {
		return nil, mapRegisterErr(err)
	}
	return s.withTotals(ctx, register)
}

// CurrentRegister returns the open register or NOT_FOUND when none is open.
func (s *service) CurrentRegister(ctx context.Context) (*RegisterDTO, error) {
	register, err := s.repo.FindOpenRegister(ctx, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no cash register is open")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load open register")
	}
	return s.withTotals(ctx, register)
}

func (s *service) ListRegisters(ctx context.Context, params pagination.Params) (*pagination.Page[RegisterDTO], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListRegisters(ctx, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list registers")
	}
	page := pagination.Trim(rows, params.Limit, func(r models.CashRegister) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
	})
	out := pagination.Page[RegisterDTO]{Items: make([]RegisterDTO, 0, len(page.Items)), NextCursor: page.NextCursor}
	for _, r := range page.Items {
		out.Items = append(out.Items, registerFromModel(r, nil))
	}
	return &out, nil
}

// CreateMovement books a manual income or expense on the open register.
func (s *service) CreateMovement(ctx context.Context, input MovementInput, actor *uuid.UUID) (*MovementDTO, error) {
	if !input.MovementType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid movement type")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}

	var movement *models.CashMovement
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		register, err := s.requireOpen(ctx, repo)
		if err != nil {
			return err
		}
		movement = &models.CashMovement{
			RegisterID:   register.ID,
			MovementType: input.MovementType,
			Amount:       input.Amount.Round(2),
			Description:  description,
			OrderID:      input.OrderID,
			CreatedBy:    actor,
		}
		if err := repo.CreateMovement(ctx, movement); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cash movement")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := movementFromModel(*movement)
	return &dto, nil
}

func (s *service) ListMovements(ctx context.Context, filters MovementFilters, params pagination.Params) (*pagination.Page[MovementDTO], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListMovements(ctx, filters, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cash movements")
	}
	page := pagination.Trim(rows, params.Limit, func(m models.CashMovement) pagination.Cursor {
		return pagination.Cursor{CreatedAt: m.CreatedAt, ID: m.ID}
	})
	out := pagination.Page[MovementDTO]{Items: make([]MovementDTO, 0, len(page.Items)), NextCursor: page.NextCursor}
	for _, m := range page.Items {
		out.Items = append(out.Items, movementFromModel(m))
	}
	return &out, nil
}

// RecordOrderPayment credits the order's final amount to the open register
// inside tx and marks the order paid. An already paid order is left alone.
// Zero-amount orders are marked paid without a movement.
func (s *service) RecordOrderPayment(ctx context.Context, tx *gorm.DB, order *models.Order, actor *uuid.UUID) (*PaymentResult, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if order == nil || order.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order is required")
	}
	if order.IsPaid {
		return &PaymentResult{}, nil
	}

	repo := s.repo.WithTx(tx)
	var movement *models.CashMovement
	var registerID *uuid.UUID
	if order.FinalAmount.IsPositive() {
		register, err := s.requireOpen(ctx, repo)
		if err != nil {
			return nil, err
		}
		orderID := order.ID
		movement = &models.CashMovement{
			RegisterID:   register.ID,
			MovementType: enums.CashMovementIncome,
			Amount:       order.FinalAmount.Round(2),
			Description:  fmt.Sprintf("Payment for order %s", order.Code),
			OrderID:      &orderID,
			CreatedBy:    actor,
		}
		if err := repo.CreateMovement(ctx, movement); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record order payment")
		}
		registerID = &register.ID
	}

	marked, err := repo.MarkOrderPaid(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark order paid")
	}
	if !marked {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is already paid")
	}
	order.IsPaid = true

	event := payloads.OrderPaidEvent{
		OrderID:        order.ID,
		Code:           order.Code,
		Amount:         order.FinalAmount,
		CashRegisterID: registerID,
	}
	if movement != nil {
		event.CashMovementID = &movement.ID
	}
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderPaid,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         outbox.ActorFromID(actor),
		Data:          event,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue order paid event")
	}
	return &PaymentResult{Paid: true, Movement: movement}, nil
}

// FlagOverdueRegisters queues one overdue event per register left open longer
// than openFor and reports how many were queued.
func (s *service) FlagOverdueRegisters(ctx context.Context, openFor time.Duration) (int, error) {
	if openFor <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "open duration must be positive")
	}
	now := s.now().UTC()
	queued := 0
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := s.repo.WithTx(tx).ListOpenSince(ctx, now.Add(-openFor))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list overdue registers")
		}
		for _, register := range rows {
			ok, err := s.outbox.EmitIfNotExistsSince(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventCashRegisterOverdue,
				AggregateType: enums.AggregateCashRegister,
				AggregateID:   register.ID,
				Data: payloads.CashRegisterOverdueEvent{
					RegisterID: register.ID,
					OpenedAt:   register.OpenedAt,
					OpenFor:    now.Sub(register.OpenedAt),
				},
			}, time.Time{})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue overdue register event")
			}
			if ok {
				queued++
				if s.logg != nil {
					s.logg.Warn(s.logg.WithField(ctx, "register_id", register.ID.String()), "cash register open past shift length")
				}
			}
		}
		return nil
	})
	return queued, err
}

func (s *service) requireOpen(ctx context.Context, repo Repository) (*models.CashRegister, error) {
	register, err := repo.FindOpenRegister(ctx, true)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no cash register is open")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load open register")
	}
	return register, nil
}

// registerName returns the requested name, or the shift name for now with a
// numeric suffix when that name is already taken.
func (s *service) registerName(ctx context.Context, repo Repository, requested *string, now time.Time) (string, error) {
	if requested != nil {
		if name := strings.TrimSpace(*requested); name != "" {
			exists, err := repo.NameExists(ctx, name)
			if err != nil {
				return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check register name")
			}
			if exists {
				return "", pkgerrors.New(pkgerrors.CodeConflict, "register name already exists")
			}
			return name, nil
		}
	}
	base := now.Format(DefaultRegisterNameLayout)
	candidate := base
	for attempt := 2; attempt <= maxRegisterNameAttempts+1; attempt++ {
		exists, err := repo.NameExists(ctx, candidate)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check register name")
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s (%d)", base, attempt)
	}
	return "", pkgerrors.New(pkgerrors.CodeConflict, "could not allocate a register name")
}

func (s *service) withTotals(ctx context.Context, register *models.CashRegister) (*RegisterDTO, error) {
	totals, err := s.repo.Totals(ctx, register.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum register movements")
	}
	dto := registerFromModel(*register, &totals)
	return &dto, nil
}

func mapRegisterErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cash register not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cash register")
}
