package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pos-service/internal/apperror"
	"pos-service/internal/model"
	"pos-service/internal/repository"
	"pos-service/prometheus"
)

// PartyLookup fails when the counterparty of an entry does not exist
type PartyLookup func(ctx context.Context, id uint) error

// LedgerService manages receivables or payables
type LedgerService struct {
	repo     repository.LedgerRepository
	kind     repository.LedgerKind
	resource string
	party    PartyLookup
	now      func() time.Time
}

func NewLedgerService(repo repository.LedgerRepository, kind repository.LedgerKind, resource string, party PartyLookup) *LedgerService {
	return &LedgerService{repo: repo, kind: kind, resource: resource, party: party, now: time.Now}
}

// NewReceivableService returns the ledger service for customer receivables
func NewReceivableService(repos *repository.Set) *LedgerService {
	return NewLedgerService(repos.Receivables, repository.Receivables, "Receivable", func(ctx context.Context, id uint) error {
		_, err := repos.Customers.Get(ctx, id)
		return notFound(err, "Customer")
	})
}

// NewPayableService returns the ledger service for payables owed to leasing companies
func NewPayableService(repos *repository.Set) *LedgerService {
	return NewLedgerService(repos.Payables, repository.Payables, "Payable", func(ctx context.Context, id uint) error {
		_, err := repos.Leasings.Get(ctx, id)
		return notFound(err, "Leasing")
	})
}

// CreateLedgerInput is a manually entered receivable or payable
type CreateLedgerInput struct {
	PartyID     uint            `json:"party_id" validate:"required"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
	DueDate     string          `json:"due_date"`
	Total       decimal.Decimal `json:"total"`
}

// UpdateLedgerInput changes the editable fields of an open entry
type UpdateLedgerInput struct {
	Description *string `json:"description"`
	DueDate     *string `json:"due_date"`
}

// SettleInput allocates one amount over several entries
type SettleInput struct {
	IDs    []uint          `json:"ids" validate:"required,min=1"`
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method"`
	Note   string          `json:"note"`
}

// Allocation is the part of a settlement applied to one entry
type Allocation struct {
	ID      uint            `json:"id"`
	Number  string          `json:"number"`
	Amount  decimal.Decimal `json:"amount"`
	Balance decimal.Decimal `json:"balance"`
	Status  string          `json:"status"`
}

// SettleResult reports how a settlement was spread
type SettleResult struct {
	Allocations []Allocation    `json:"allocations"`
	Applied     decimal.Decimal `json:"applied"`
	Leftover    decimal.Decimal `json:"leftover"`
}

func (s *LedgerService) List(ctx context.Context, q repository.ListQuery) ([]model.Ledger, repository.Pagination, error) {
	q.Normalize()
	entries, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, repository.Pagination{}, err
	}
	return entries, repository.NewPagination(q, total), nil
}

func (s *LedgerService) Get(ctx context.Context, id uint) (*model.Ledger, error) {
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, s.resource)
	}
	return l, nil
}

func (s *LedgerService) Create(ctx context.Context, actor uint, in CreateLedgerInput) (*model.Ledger, error) {
	if !in.Total.IsPositive() {
		return nil, apperror.InvalidAmount("total must be greater than zero")
	}
	date, err := dateOrToday(in.Date, s.now())
	if err != nil {
		return nil, err
	}
	due, err := optionalDate(in.DueDate)
	if err != nil {
		return nil, err
	}
	if s.party != nil {
		if err := s.party(ctx, in.PartyID); err != nil {
			return nil, err
		}
	}

	l := &model.Ledger{
		PartyID:     in.PartyID,
		Description: strings.TrimSpace(in.Description),
		Date:        date,
		DueDate:     due,
		CreatedBy:   actor,
		UpdatedBy:   actor,
	}
	l.Open(in.Total, decimal.Zero)
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *LedgerService) Update(ctx context.Context, actor, id uint, in UpdateLedgerInput) (*model.Ledger, error) {
	l, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.Status == model.StatusClosed {
		return nil, apperror.AlreadyClosed(l.Number)
	}
	if in.Description != nil {
		l.Description = strings.TrimSpace(*in.Description)
	}
	if in.DueDate != nil {
		if l.DueDate, err = optionalDate(*in.DueDate); err != nil {
			return nil, err
		}
	}
	l.UpdatedBy = actor
	if err := s.repo.Update(ctx, l); err != nil {
		return nil, notFound(err, s.resource)
	}
	return s.Get(ctx, id)
}

// Pay records one payment against entry id
func (s *LedgerService) Pay(ctx context.Context, actor, id uint, in PaymentInput) (*model.Ledger, error) {
	if !in.Amount.IsPositive() {
		return nil, apperror.InvalidAmount("amount must be greater than zero")
	}

	now := s.now()
	_, err := s.repo.Apply(ctx, []uint{id}, func(entries []*model.Ledger) ([]*model.LedgerPayment, error) {
		l := entries[0]
		if !l.IsActive {
			return nil, apperror.InvalidTransition(l.Number + " is void")
		}
		if err := l.ApplyPayment(in.Amount); err != nil {
			return nil, err
		}
		l.UpdatedBy = actor
		return []*model.LedgerPayment{newPayment(l.ID, in.Amount, in.Method, in.Note, actor, now)}, nil
	})
	if err != nil {
		return nil, notFound(err, s.resource)
	}

	prometheus.RecordPayment(s.kind.Name, "single")
	return s.Get(ctx, id)
}

// Settle spreads one amount over the selected entries, last selected first.
// Every entry must be open; nothing is written when one is closed.
func (s *LedgerService) Settle(ctx context.Context, actor uint, in SettleInput) (*SettleResult, error) {
	if len(in.IDs) == 0 {
		return nil, apperror.MissingFields("ids")
	}
	if !in.Amount.IsPositive() {
		return nil, apperror.InvalidAmount("amount must be greater than zero")
	}
	seen := make(map[uint]bool, len(in.IDs))
	for _, id := range in.IDs {
		if seen[id] {
			return nil, apperror.InvalidRequest("duplicate id in settlement", "ids")
		}
		seen[id] = true
	}

	now := s.now()
	var result SettleResult
	_, err := s.repo.Apply(ctx, in.IDs, func(entries []*model.Ledger) ([]*model.LedgerPayment, error) {
		for _, l := range entries {
			if !l.IsActive {
				return nil, apperror.InvalidTransition(l.Number + " is void")
			}
			if l.Status == model.StatusClosed {
				return nil, apperror.AlreadyClosed(l.Number)
			}
		}

		allocations, leftover := Allocate(entries, in.Amount)
		byID := make(map[uint]*model.Ledger, len(entries))
		for _, l := range entries {
			byID[l.ID] = l
		}

		payments := make([]*model.LedgerPayment, 0, len(allocations))
		for i, a := range allocations {
			l := byID[a.ID]
			if err := l.ApplyPayment(a.Amount); err != nil {
				return nil, err
			}
			l.UpdatedBy = actor
			allocations[i].Balance = l.Balance
			allocations[i].Status = l.Status
			payments = append(payments, newPayment(l.ID, a.Amount, in.Method, in.Note, actor, now))
		}

		result = SettleResult{
			Allocations: allocations,
			Applied:     in.Amount.Sub(leftover),
			Leftover:    leftover,
		}
		return payments, nil
	})
	if err != nil {
		return nil, notFound(err, s.resource)
	}

	prometheus.RecordPayment(s.kind.Name, "settle")
	return &result, nil
}

// Allocate spreads amount over entries starting from the last one. Each
// entry receives min(remaining, balance) until the amount is used up, so at
// most one entry ends partially paid. Entries that receive nothing are omitted.
func Allocate(entries []*model.Ledger, amount decimal.Decimal) ([]Allocation, decimal.Decimal) {
	remaining := amount
	allocations := []Allocation{}
	for i := len(entries) - 1; i >= 0 && remaining.IsPositive(); i-- {
		l := entries[i]
		if !l.Balance.IsPositive() {
			continue
		}
		part := decimal.Min(remaining, l.Balance)
		remaining = remaining.Sub(part)
		allocations = append(allocations, Allocation{
			ID:      l.ID,
			Number:  l.Number,
			Amount:  part,
			Balance: l.Balance.Sub(part),
			Status:  statusFor(l.Balance.Sub(part)),
		})
	}
	return allocations, remaining
}

func statusFor(balance decimal.Decimal) string {
	if balance.IsPositive() {
		return model.StatusOpen
	}
	return model.StatusClosed
}

func newPayment(ledgerID uint, amount decimal.Decimal, method, note string, actor uint, now time.Time) *model.LedgerPayment {
	return &model.LedgerPayment{
		LedgerID:  ledgerID,
		Amount:    amount,
		Method:    strings.TrimSpace(method),
		Note:      strings.TrimSpace(note),
		PaidAt:    now,
		CreatedBy: actor,
	}
}

func optionalDate(s string) (*time.Time, error) {
	t, err := ParseDate(s)
	if err != nil || t.IsZero() {
		return nil, err
	}
	return &t, nil
}
