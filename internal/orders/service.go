package orders

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
	"github.com/angelmondragon/laundrydesk-backend/pkg/logger"
	"github.com/angelmondragon/laundrydesk-backend/pkg/metrics"
	"github.com/angelmondragon/laundrydesk-backend/pkg/outbox"
	"github.com/angelmondragon/laundrydesk-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/laundrydesk-backend/pkg/pagination"
)

// maxCodeAttempts bounds the retries when two orders race for one number.
const maxCodeAttempts = 5

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service runs the order lifecycle and its inventory and cash side effects.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput, actor *uuid.UUID) (*OrderDTO, error)
	UpdateOrder(ctx context.Context, id uuid.UUID, input UpdateOrderInput) (*OrderDTO, error)
	AddLine(ctx context.Context, id uuid.UUID, input LineInput) (*OrderDTO, error)
	UpdateLine(ctx context.Context, id, lineID uuid.UUID, input UpdateLineInput) (*OrderDTO, error)
	RemoveLine(ctx context.Context, id, lineID uuid.UUID) (*OrderDTO, error)
	ChangeStatus(ctx context.Context, id uuid.UUID, input ChangeStatusInput, actor *uuid.UUID) (*OrderDTO, error)
	Advance(ctx context.Context, id uuid.UUID, actor *uuid.UUID) (*OrderDTO, error)
	Cancel(ctx context.Context, id uuid.UUID, reason *string, actor *uuid.UUID) (*OrderDTO, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*OrderDTO, error)
	ListActiveOrders(ctx context.Context, filters ListFilters, params pagination.Params) (*pagination.Page[OrderSummaryDTO], error)
	ListPending(ctx context.Context) ([]OrderSummaryDTO, error)
	ListReady(ctx context.Context) ([]OrderSummaryDTO, error)
	Workflow(ctx context.Context) (*WorkflowDTO, error)
	ListTracking(ctx context.Context, id uuid.UUID) ([]TrackingDTO, error)
}

// ServiceParams groups the order service dependencies.
type ServiceParams struct {
	Repo      Repository
	Tx        txRunner
	Outbox    outboxPublisher
	Customers CustomerLookup
	Catalog   CatalogLookup
	Inventory InventoryLedger
	Cash      CashLedger
	Metrics   *metrics.WorkflowMetrics
	Logger    *logger.Logger
}

type service struct {
	repo      Repository
	tx        txRunner
	outbox    outboxPublisher
	customers CustomerLookup
	catalog   CatalogLookup
	inventory InventoryLedger
	cash      CashLedger
	metrics   *metrics.WorkflowMetrics
	logg      *logger.Logger
}

// NewService builds the order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customer lookup required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog lookup required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if params.Cash == nil {
		return nil, fmt.Errorf("cash ledger required")
	}
	return &service{
		repo:      params.Repo,
		tx:        params.Tx,
		outbox:    params.Outbox,
		customers: params.Customers,
		catalog:   params.Catalog,
		inventory: params.Inventory,
		cash:      params.Cash,
		metrics:   params.Metrics,
		logg:      params.Logger,
	}, nil
}

// CreateOrder registers a pending order with its priced lines, the creation
// tracking row and an order_created event.
func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput, actor *uuid.UUID) (*OrderDTO, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer is required")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line is required")
	}
	if input.Discount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount cannot be negative")
	}

	var orderID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		customer, err := s.customers.RequireActive(ctx, tx, input.CustomerID)
		if err != nil {
			return err
		}
		lines, err := s.buildLines(ctx, tx, customer.CustomerType, input.Lines)
		if err != nil {
			return err
		}

		order := &models.Order{
			CustomerID: customer.ID,
			Status:     enums.OrderStatusPending,
			Notes:      normalizeNotes(input.Notes),
			Discount:   input.Discount.Round(2),
			CreatedBy:  actor,
			Lines:      lines,
		}
		order.RecalculateTotals()
		if order.FinalAmount.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "discount exceeds order total")
		}
		if err := s.insertWithCode(ctx, tx, order); err != nil {
			return err
		}
		for i := range order.Lines {
			order.Lines[i].OrderID = order.ID
		}
		if err := repo.CreateLines(ctx, order.Lines); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order lines")
		}

		createdNote := "order created"
		if err := repo.CreateTracking(ctx, &models.OrderTracking{
			OrderID:   order.ID,
			NewStatus: enums.OrderStatusPending,
			ChangedBy: actor,
			Notes:     &createdNote,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record order tracking")
		}

		orderID = order.ID
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         outbox.ActorFromID(actor),
			Data: payloads.OrderCreatedEvent{
				OrderID:     order.ID,
				Code:        order.Code,
				CustomerID:  order.CustomerID,
				FinalAmount: order.FinalAmount,
				LineCount:   len(order.Lines),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, orderID)
}

// insertWithCode assigns the next order number and retries inside a savepoint
// when a concurrent insert took it first.
func (s *service) insertWithCode(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	repo := s.repo.WithTx(tx)
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		number, err := repo.NextOrderNumber(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "allocate order number")
		}
		order.OrderNumber = number
		order.Code = models.FormatOrderCode(number)
		err = tx.Transaction(func(sp *gorm.DB) error {
			return s.repo.WithTx(sp).CreateOrder(ctx, order)
		})
		if err == nil {
			return nil
		}
		if !db.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "could not allocate an order code")
}

// UpdateOrder edits discount and notes while the order is pending or in
// process. Replacing lines is only allowed while pending.
func (s *service) UpdateOrder(ctx context.Context, id uuid.UUID, input UpdateOrderInput) (*OrderDTO, error) {
	if input.Discount != nil && input.Discount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount cannot be negative")
	}
	if input.Lines != nil && len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line is required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.lockOrder(ctx, repo, id)
		if err != nil {
			return err
		}
		if order.Status.IsFinished() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "finished orders cannot be edited")
		}

		updates := map[string]any{}
		if input.Notes != nil {
			updates["notes"] = normalizeNotes(input.Notes)
		}
		if input.Discount != nil {
			order.Discount = input.Discount.Round(2)
		}
		if input.Lines != nil {
			if order.Status != enums.OrderStatusPending {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "lines can only change while the order is pending")
			}
			lines, err := s.buildLines(ctx, tx, order.Customer.CustomerType, input.Lines)
			if err != nil {
				return err
			}
			for i := range lines {
				lines[i].OrderID = order.ID
			}
			if err := repo.DeleteLines(ctx, order.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete order lines")
			}
			if err := repo.CreateLines(ctx, lines); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order lines")
			}
			order.Lines = lines
		}
		if input.Discount != nil || input.Lines != nil {
			if err := addTotals(order, updates); err != nil {
				return err
			}
		}
		if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, id)
}

func (s *service) AddLine(ctx context.Context, id uuid.UUID, input LineInput) (*OrderDTO, error) {
	return s.editLines(ctx, id, func(tx *gorm.DB, repo Repository, order *models.Order) error {
		lines, err := s.buildLines(ctx, tx, order.Customer.CustomerType, []LineInput{input})
		if err != nil {
			return err
		}
		lines[0].OrderID = order.ID
		lines[0].Position = nextPosition(order.Lines)
		if err := repo.CreateLines(ctx, lines); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order line")
		}
		order.Lines = append(order.Lines, lines[0])
		return nil
	})
}

func (s *service) UpdateLine(ctx context.Context, id, lineID uuid.UUID, input UpdateLineInput) (*OrderDTO, error) {
	return s.editLines(ctx, id, func(_ *gorm.DB, repo Repository, order *models.Order) error {
		line := findLine(order, lineID)
		if line == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order line not found")
		}
		if input.Quantity != nil {
			qty, err := normalizeQuantity(*input.Quantity)
			if err != nil {
				return err
			}
			line.Quantity = qty
		}
		if input.UnitPrice != nil {
			if input.UnitPrice.IsNegative() {
				return pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
			}
			line.UnitPrice = input.UnitPrice.Round(2)
		}
		line.ComputeSubtotal()
		if err := repo.UpdateLine(ctx, line.ID, map[string]any{
			"quantity":   line.Quantity,
			"unit_price": line.UnitPrice,
			"subtotal":   line.Subtotal,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order line")
		}
		return nil
	})
}

// RemoveLine deletes one line. The last line of an order cannot be removed.
func (s *service) RemoveLine(ctx context.Context, id, lineID uuid.UUID) (*OrderDTO, error) {
	return s.editLines(ctx, id, func(_ *gorm.DB, repo Repository, order *models.Order) error {
		if findLine(order, lineID) == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order line not found")
		}
		if len(order.Lines) == 1 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "an order needs at least one line")
		}
		if err := repo.DeleteLine(ctx, lineID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete order line")
		}
		kept := order.Lines[:0]
		for _, line := range order.Lines {
			if line.ID != lineID {
				kept = append(kept, line)
			}
		}
		order.Lines = kept
		return nil
	})
}

// editLines runs one line edit on a locked pending order and stores the
// recomputed totals in the same transaction.
func (s *service) editLines(ctx context.Context, id uuid.UUID, edit func(tx *gorm.DB, repo Repository, order *models.Order) error) (*OrderDTO, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.lockOrder(ctx, repo, id)
		if err != nil {
			return err
		}
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "lines can only change while the order is pending")
		}
		if err := edit(tx, repo, order); err != nil {
			return err
		}
		updates := map[string]any{}
		if err := addTotals(order, updates); err != nil {
			return err
		}
		if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order totals")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, id)
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*OrderDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindOrder(ctx, id)
	if err != nil {
		return nil, mapOrderErr(err)
	}
	dto := orderFromModel(*order)
	return &dto, nil
}

func (s *service) ListActiveOrders(ctx context.Context, filters ListFilters, params pagination.Params) (*pagination.Page[OrderSummaryDTO], error) {
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListOrders(ctx, filters, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	page := pagination.Trim(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	out := pagination.Page[OrderSummaryDTO]{Items: make([]OrderSummaryDTO, 0, len(page.Items)), NextCursor: page.NextCursor}
	for _, o := range page.Items {
		out.Items = append(out.Items, summaryFromModel(o))
	}
	return &out, nil
}

func (s *service) ListPending(ctx context.Context) ([]OrderSummaryDTO, error) {
	return s.listByStatus(ctx, enums.OrderStatusPending)
}

func (s *service) ListReady(ctx context.Context) ([]OrderSummaryDTO, error) {
	return s.listByStatus(ctx, enums.OrderStatusReady)
}

// Workflow groups the open orders into board lanes.
func (s *service) Workflow(ctx context.Context) (*WorkflowDTO, error) {
	rows, err := s.repo.ListByStatuses(ctx, boardStatuses)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load workflow")
	}
	lanes := make(map[enums.OrderStatus][]OrderSummaryDTO, len(boardStatuses))
	for _, o := range rows {
		lanes[o.Status] = append(lanes[o.Status], summaryFromModel(o))
	}
	board := &WorkflowDTO{Columns: make([]WorkflowColumn, 0, len(boardStatuses))}
	for _, status := range boardStatuses {
		orders := lanes[status]
		if orders == nil {
			orders = []OrderSummaryDTO{}
		}
		board.Columns = append(board.Columns, WorkflowColumn{Status: status, Count: len(orders), Orders: orders})
	}
	return board, nil
}

func (s *service) ListTracking(ctx context.Context, id uuid.UUID) ([]TrackingDTO, error) {
	if _, err := s.GetOrder(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListTracking(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list order tracking")
	}
	out := make([]TrackingDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, trackingFromModel(row))
	}
	return out, nil
}

func (s *service) listByStatus(ctx context.Context, status enums.OrderStatus) ([]OrderSummaryDTO, error) {
	rows, err := s.repo.ListByStatuses(ctx, []enums.OrderStatus{status})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	out := make([]OrderSummaryDTO, 0, len(rows))
	for _, o := range rows {
		out = append(out, summaryFromModel(o))
	}
	return out, nil
}

// buildLines validates and prices line inputs against the catalog.
func (s *service) buildLines(ctx context.Context, tx *gorm.DB, customerType enums.CustomerType, inputs []LineInput) ([]models.OrderLine, error) {
	lines := make([]models.OrderLine, 0, len(inputs))
	for i, input := range inputs {
		if input.ServiceID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: service is required", i+1))
		}
		qty, err := normalizeQuantity(input.Quantity)
		if err != nil {
			return nil, err
		}
		svc, err := s.catalog.RequireActiveService(ctx, tx, input.ServiceID)
		if err != nil {
			return nil, err
		}
		var price decimal.Decimal
		if input.UnitPrice != nil {
			if input.UnitPrice.IsNegative() {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: unit price cannot be negative", i+1))
			}
			price = input.UnitPrice.Round(2)
		} else {
			price, err = s.catalog.ResolvePrice(ctx, tx, svc, customerType)
			if err != nil {
				return nil, err
			}
		}
		line := models.OrderLine{
			ServiceID: svc.ID,
			Position:  i + 1,
			Quantity:  qty,
			UnitPrice: price,
			Service:   svc,
		}
		line.ComputeSubtotal()
		lines = append(lines, line)
	}
	return lines, nil
}

func (s *service) lockOrder(ctx context.Context, repo Repository, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := repo.FindOrderForUpdate(ctx, id)
	if err != nil {
		return nil, mapOrderErr(err)
	}
	return order, nil
}

// addTotals recomputes the order totals and stages them in updates.
func addTotals(order *models.Order, updates map[string]any) error {
	order.RecalculateTotals()
	if order.FinalAmount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount exceeds order total")
	}
	updates["total_amount"] = order.TotalAmount
	updates["discount"] = order.Discount
	updates["final_amount"] = order.FinalAmount
	return nil
}

func findLine(order *models.Order, lineID uuid.UUID) *models.OrderLine {
	for i := range order.Lines {
		if order.Lines[i].ID == lineID {
			return &order.Lines[i]
		}
	}
	return nil
}

func normalizeQuantity(qty decimal.Decimal) (decimal.Decimal, error) {
	qty = qty.Round(2)
	if !qty.IsPositive() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	return qty, nil
}

func normalizeNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*notes)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func mapOrderErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
}

// nextPosition places a new line after every existing one.
func nextPosition(lines []models.OrderLine) int {
	last := 0
	for _, line := range lines {
		last = max(last, line.Position)
	}
	return last + 1
}
