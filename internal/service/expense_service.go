package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pos-service/internal/apperror"
	"pos-service/internal/model"
	"pos-service/internal/repository"
)

// CreateExpenseInput is a new expense
type CreateExpenseInput struct {
	Category    string          `json:"category" validate:"required"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
	PaidTo      string          `json:"paid_to"`
}

// UpdateExpenseInput changes the submitted fields of an expense
type UpdateExpenseInput struct {
	Category    *string          `json:"category"`
	Description *string          `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
	Date        *string          `json:"date"`
	PaidTo      *string          `json:"paid_to"`
}

// ExpenseSummary accompanies every expense list
type ExpenseSummary struct {
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type ExpenseService struct {
	repo repository.ExpenseRepository
	now  func() time.Time
}

func NewExpenseService(repo repository.ExpenseRepository) *ExpenseService {
	return &ExpenseService{repo: repo, now: time.Now}
}

func (s *ExpenseService) List(ctx context.Context, q repository.ListQuery) ([]model.Expense, repository.Pagination, ExpenseSummary, error) {
	q.Normalize()
	expenses, total, sum, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, repository.Pagination{}, ExpenseSummary{}, err
	}
	return expenses, repository.NewPagination(q, total), ExpenseSummary{TotalAmount: sum}, nil
}

func (s *ExpenseService) Get(ctx context.Context, id uint) (*model.Expense, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "Expense")
	}
	return e, nil
}

func (s *ExpenseService) Create(ctx context.Context, actor uint, in CreateExpenseInput) (*model.Expense, error) {
	category := strings.TrimSpace(in.Category)
	if category == "" {
		return nil, apperror.MissingFields("category")
	}
	if !in.Amount.IsPositive() {
		return nil, apperror.InvalidAmount("amount must be greater than zero")
	}
	date, err := dateOrToday(in.Date, s.now())
	if err != nil {
		return nil, err
	}

	e := &model.Expense{
		Category:    category,
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		Date:        date,
		PaidTo:      strings.TrimSpace(in.PaidTo),
		CreatedBy:   actor,
		UpdatedBy:   actor,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *ExpenseService) Update(ctx context.Context, actor, id uint, in UpdateExpenseInput) (*model.Expense, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !e.IsActive {
		return nil, apperror.InvalidTransition("expense " + e.Number + " is void")
	}

	if in.Category != nil {
		if e.Category = strings.TrimSpace(*in.Category); e.Category == "" {
			return nil, apperror.MissingFields("category")
		}
	}
	if in.Description != nil {
		e.Description = strings.TrimSpace(*in.Description)
	}
	if in.Amount != nil {
		if !in.Amount.IsPositive() {
			return nil, apperror.InvalidAmount("amount must be greater than zero")
		}
		e.Amount = *in.Amount
	}
	if in.Date != nil {
		if e.Date, err = dateOrToday(*in.Date, s.now()); err != nil {
			return nil, err
		}
	}
	if in.PaidTo != nil {
		e.PaidTo = strings.TrimSpace(*in.PaidTo)
	}
	e.UpdatedBy = actor

	if err := s.repo.Update(ctx, e); err != nil {
		return nil, notFound(err, "Expense")
	}
	return s.Get(ctx, id)
}

// Void deactivates the expense
func (s *ExpenseService) Void(ctx context.Context, actor, id uint) (*model.Expense, error) {
	if err := s.repo.SetActive(ctx, id, false, actor); err != nil {
		return nil, notFound(err, "Expense")
	}
	return s.Get(ctx, id)
}
