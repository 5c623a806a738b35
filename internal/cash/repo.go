package cash

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/laundrydesk-backend/pkg/db"
	"github.com/angelmondragon/laundrydesk-backend/pkg/db/models"
	"github.com/angelmondragon/laundrydesk-backend/pkg/enums"
	"github.com/angelmondragon/laundrydesk-backend/pkg/pagination"
)

// Repository manages persistence for cash registers and their movements.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateRegister(ctx context.Context, register *models.CashRegister) error
	FindRegister(ctx context.Context, id uuid.UUID) (*models.CashRegister, error)
	FindRegisterForUpdate(ctx context.Context, id uuid.UUID) (*models.CashRegister, error)
	FindOpenRegister(ctx context.Context, forUpdate bool) (*models.CashRegister, error)
	NameExists(ctx context.Context, name string) (bool, error)
	UpdateRegister(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListRegisters(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.CashRegister, error)
	ListOpenSince(ctx context.Context, before time.Time) ([]models.CashRegister, error)
	CreateMovement(ctx context.Context, movement *models.CashMovement) error
	ListMovements(ctx context.Context, filters MovementFilters, cursor *pagination.Cursor, limit int) ([]models.CashMovement, error)
	Totals(ctx context.Context, registerID uuid.UUID) (Totals, error)
	MarkOrderPaid(ctx context.Context, orderID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a cash repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateRegister(ctx context.Context, register *models.CashRegister) error {
	return r.db.WithContext(ctx).Create(register).Error
}

func (r *repository) FindRegister(ctx context.Context, id uuid.UUID) (*models.CashRegister, error) {
	var register models.CashRegister
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&register).Error; err != nil {
		return nil, err
	}
	return &register, nil
}

func (r *repository) FindRegisterForUpdate(ctx context.Context, id uuid.UUID) (*models.CashRegister, error) {
	var register models.CashRegister
	if err := db.ForUpdate(r.db.WithContext(ctx)).Where("id = ?", id).First(&register).Error; err != nil {
		return nil, err
	}
	return &register, nil
}

// FindOpenRegister returns the single open register or gorm.ErrRecordNotFound.
func (r *repository) FindOpenRegister(ctx context.Context, forUpdate bool) (*models.CashRegister, error) {
	q := r.db.WithContext(ctx)
	if forUpdate {
		q = db.ForUpdate(q)
	}
	var register models.CashRegister
	if err := q.Where("is_open = ?", true).Order("opened_at DESC").First(&register).Error; err != nil {
		return nil, err
	}
	return &register, nil
}

func (r *repository) NameExists(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CashRegister{}).Where("name = ?", name).Count(&count).Error
	return count > 0, err
}

func (r *repository) UpdateRegister(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.CashRegister{}).Where("id = ?", id).Updates(updates).Error
}

func (r *repository) ListRegisters(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.CashRegister, error) {
	var rows []models.CashRegister
	q := r.db.WithContext(ctx).Model(&models.CashRegister{})
	if err := pagination.Apply(q, "", cursor, limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListOpenSince returns open registers opened before the cutoff, oldest first.
func (r *repository) ListOpenSince(ctx context.Context, before time.Time) ([]models.CashRegister, error) {
	var rows []models.CashRegister
	err := r.db.WithContext(ctx).
		Where("is_open = ?", true).
		Where("opened_at < ?", before).
		Order("opened_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CreateMovement(ctx context.Context, movement *models.CashMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repository) ListMovements(ctx context.Context, filters MovementFilters, cursor *pagination.Cursor, limit int) ([]models.CashMovement, error) {
	q := r.db.WithContext(ctx).Model(&models.CashMovement{})
	if filters.RegisterID != nil {
		q = q.Where("register_id = ?", *filters.RegisterID)
	}
	if filters.OrderID != nil {
		q = q.Where("order_id = ?", *filters.OrderID)
	}
	if filters.MovementType != nil {
		q = q.Where("movement_type = ?", *filters.MovementType)
	}
	var rows []models.CashMovement
	if err := pagination.Apply(q, "", cursor, limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Totals sums the register ledger in Go so the result stays exact on every driver.
func (r *repository) Totals(ctx context.Context, registerID uuid.UUID) (Totals, error) {
	var rows []models.CashMovement
	err := r.db.WithContext(ctx).
		Select("movement_type", "amount").
		Where("register_id = ?", registerID).
		Find(&rows).Error
	if err != nil {
		return Totals{}, err
	}
	var totals Totals
	for _, m := range rows {
		switch m.MovementType {
		case enums.CashMovementIncome:
			totals.Income = totals.Income.Add(m.Amount)
		case enums.CashMovementExpense:
			totals.Expense = totals.Expense.Add(m.Amount)
		}
		totals.Count++
	}
	return totals, nil
}

// MarkOrderPaid flips is_paid once and reports whether this call did it.
func (r *repository) MarkOrderPaid(ctx context.Context, orderID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND is_paid = ?", orderID, false).
		Update("is_paid", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
