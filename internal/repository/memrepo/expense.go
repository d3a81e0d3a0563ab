package memrepo

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"pos-service/internal/model"
	"pos-service/internal/repository"
)

type expenseRepository struct {
	s    *Store
	cols columns
}

func NewExpenseRepository(s *Store) repository.ExpenseRepository {
	return &expenseRepository{s: s, cols: parseColumns(&model.Expense{})}
}

func (r *expenseRepository) List(ctx context.Context, q repository.ListQuery) ([]model.Expense, int64, decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	td, err := r.s.tenant(ctx)
	if err != nil {
		return nil, 0, decimal.Zero, err
	}
	sum := decimal.Zero
	var matched []*model.Expense
	for _, e := range td.expenses {
		if q.Scope == model.ScopeActive && !e.IsActive {
			continue
		}
		if q.Search != "" && !containsFold(e.Number, q.Search) && !containsFold(e.Description, q.Search) && !containsFold(e.PaidTo, q.Search) {
			continue
		}
		if !inDateRange(e.Date, q) {
			continue
		}
		ok, err := r.cols.match(ctx, e, q.Filters)
		if err != nil {
			return nil, 0, decimal.Zero, err
		}
		if ok {
			matched = append(matched, e)
			sum = sum.Add(e.Amount)
		}
	}
	sortNewestFirst(matched, func(e *model.Expense) time.Time { return e.Date }, func(e *model.Expense) uint { return e.ID })

	out := []model.Expense{}
	for _, e := range page(matched, q) {
		out = append(out, *e)
	}
	return out, int64(len(matched)), sum, nil
}

func (r *expenseRepository) Get(ctx context.Context, id uint) (*model.Expense, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	td, err := r.s.tenant(ctx)
	if err != nil {
		return nil, err
	}
	e, ok := td.expenses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *e
	return &c, nil
}

func (r *expenseRepository) Create(ctx context.Context, e *model.Expense) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	td, err := r.s.tenant(ctx)
	if err != nil {
		return err
	}
	now := r.s.now()
	e.ID = td.nextID(model.TableExpenses)
	e.Number = repository.DocumentNumber(repository.PrefixExpense, e.Date, e.ID)
	e.IsActive = true
	e.CreatedAt = now
	e.UpdatedAt = now
	c := *e
	td.expenses[e.ID] = &c
	return nil
}

func (r *expenseRepository) Update(ctx context.Context, e *model.Expense) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	td, err := r.s.tenant(ctx)
	if err != nil {
		return err
	}
	stored, ok := td.expenses[e.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Category = e.Category
	stored.Description = e.Description
	stored.Amount = e.Amount
	stored.Date = e.Date
	stored.PaidTo = e.PaidTo
	stored.UpdatedBy = e.UpdatedBy
	stored.UpdatedAt = r.s.now()
	return nil
}

func (r *expenseRepository) SetActive(ctx context.Context, id uint, active bool, actor uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	td, err := r.s.tenant(ctx)
	if err != nil {
		return err
	}
	e, ok := td.expenses[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	e.IsActive = active
	e.UpdatedBy = actor
	e.UpdatedAt = r.s.now()
	return nil
}
