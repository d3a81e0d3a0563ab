package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"pos-service/internal/model"
	"pos-service/pkg/tenancy"
	"pos-service/prometheus"
)

type expenseRepository struct {
	reg *tenancy.Registry
}

func NewExpenseRepository(reg *tenancy.Registry) ExpenseRepository {
	return &expenseRepository{reg: reg}
}

func (r *expenseRepository) List(ctx context.Context, q ListQuery) ([]model.Expense, int64, decimal.Decimal, error) {
	defer prometheus.TrackDBOperation("expenses.list")()

	h, err := r.reg.ModelFor(ctx, model.TableExpenses)
	if err != nil {
		return nil, 0, decimal.Zero, err
	}

	db := withScope(h.DB(ctx), q.Scope)
	if q.Search != "" {
		like := likePattern(q.Search)
		db = db.Where("number ILIKE ? OR description ILIKE ? OR paid_to ILIKE ?", like, like, like)
	}
	if db, err = withFilters(db, h, q.Filters); err != nil {
		return nil, 0, decimal.Zero, err
	}
	db = withDates(db, "date", q)

	var sum decimal.NullDecimal
	if err := db.Session(&gorm.Session{}).Select("SUM(amount)").Row().Scan(&sum); err != nil {
		return nil, 0, decimal.Zero, err
	}

	expenses := []model.Expense{}
	total, err := paginate(db, q, "date DESC, id DESC", &expenses)
	if err != nil {
		return nil, 0, decimal.Zero, err
	}
	if !sum.Valid {
		return expenses, total, decimal.Zero, nil
	}
	return expenses, total, sum.Decimal, nil
}

func (r *expenseRepository) Get(ctx context.Context, id uint) (*model.Expense, error) {
	h, err := r.reg.ModelFor(ctx, model.TableExpenses)
	if err != nil {
		return nil, err
	}
	var e model.Expense
	if err := h.DB(ctx).Where("id = ?", id).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *expenseRepository) Create(ctx context.Context, e *model.Expense) error {
	defer prometheus.TrackDBOperation("expenses.create")()

	h, err := r.reg.ModelFor(ctx, model.TableExpenses)
	if err != nil {
		return err
	}
	return r.reg.Transaction(ctx, func(tx *gorm.DB) error {
		e.Number = pendingNumber()
		e.IsActive = true
		if err := h.On(tx).Create(e).Error; err != nil {
			return err
		}
		e.Number = DocumentNumber(PrefixExpense, e.Date, e.ID)
		return h.On(tx).Where("id = ?", e.ID).Update("number", e.Number).Error
	})
}

func (r *expenseRepository) Update(ctx context.Context, e *model.Expense) error {
	h, err := r.reg.ModelFor(ctx, model.TableExpenses)
	if err != nil {
		return err
	}
	res := h.DB(ctx).Where("id = ?", e.ID).Updates(map[string]interface{}{
		"category":    e.Category,
		"description": e.Description,
		"amount":      e.Amount,
		"date":        e.Date,
		"paid_to":     e.PaidTo,
		"updated_by":  e.UpdatedBy,
		"updated_at":  time.Now(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *expenseRepository) SetActive(ctx context.Context, id uint, active bool, actor uint) error {
	h, err := r.reg.ModelFor(ctx, model.TableExpenses)
	if err != nil {
		return err
	}
	res := h.DB(ctx).Where("id = ?", id).Updates(map[string]interface{}{
		"is_active":  active,
		"updated_by": actor,
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
