// Package repository defines the data access contracts and their gorm
// implementations. Tenant-scoped repositories resolve their table through
// the schema registry using the schema carried by the request context.
package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"pos-service/internal/model"
)

// MasterRepository stores one kind of master data
type MasterRepository[T any, PT model.Entity[T]] interface {
	List(ctx context.Context, q ListQuery) ([]T, int64, error)
	Get(ctx context.Context, id uint) (PT, error)
	CodeExists(ctx context.Context, code string, excludeID uint) (bool, error)
	Create(ctx context.Context, e PT) error
	Update(ctx context.Context, e PT) error
	SetActive(ctx context.Context, id uint, active bool, actor uint) error
}

// SpecialPriceRepository stores per customer category price overrides
type SpecialPriceRepository interface {
	ListByProduct(ctx context.Context, productID uint) ([]model.SpecialPrice, error)
	Find(ctx context.Context, productID, categoryID uint) (*model.SpecialPrice, error)
	Upsert(ctx context.Context, sp *model.SpecialPrice) error
	Delete(ctx context.Context, productID, categoryID uint) error
}

// SalesRepository stores sales orders and their items
type SalesRepository interface {
	List(ctx context.Context, q ListQuery) ([]model.SalesOrder, int64, error)
	Get(ctx context.Context, id uint) (*model.SalesOrder, error)
	// Create stores the order, its items and optional receivable in one
	// transaction, decrements product stock and starts the progress
	// instances keyed by item index.
	Create(ctx context.Context, order *model.SalesOrder, receivable *model.Ledger, progress map[int]*model.ProgressInstance) error
	// Void deactivates an unpaid order, its receivable and progress, and
	// returns the items to stock.
	Void(ctx context.Context, id uint, actor uint) (*model.SalesOrder, error)
}

// LedgerFunc mutates locked ledger entries and returns the payments to record
type LedgerFunc func(entries []*model.Ledger) ([]*model.LedgerPayment, error)

// LedgerRepository stores receivables or payables with their payments
type LedgerRepository interface {
	List(ctx context.Context, q ListQuery) ([]model.Ledger, int64, error)
	Get(ctx context.Context, id uint) (*model.Ledger, error)
	FindBySalesOrder(ctx context.Context, salesOrderID uint) (*model.Ledger, error)
	Create(ctx context.Context, l *model.Ledger) error
	Update(ctx context.Context, l *model.Ledger) error
	// Apply locks the entries in id order, passes them to fn in the order
	// given by ids and persists the result in the same transaction.
	Apply(ctx context.Context, ids []uint, fn LedgerFunc) ([]*model.Ledger, error)
}

// ExpenseRepository stores expenses
type ExpenseRepository interface {
	// List returns the page, the total row count and the amount summed over
	// every matching row.
	List(ctx context.Context, q ListQuery) ([]model.Expense, int64, decimal.Decimal, error)
	Get(ctx context.Context, id uint) (*model.Expense, error)
	Create(ctx context.Context, e *model.Expense) error
	Update(ctx context.Context, e *model.Expense) error
	SetActive(ctx context.Context, id uint, active bool, actor uint) error
}

// ProgressFunc mutates a locked instance and returns the event to record
type ProgressFunc func(p *model.ProgressInstance) (*model.ProgressEvent, error)

// ProgressRepository stores progress instances and their history
type ProgressRepository interface {
	List(ctx context.Context, q ListQuery) ([]model.ProgressInstance, int64, error)
	Get(ctx context.Context, id uint) (*model.ProgressInstance, error)
	Create(ctx context.Context, p *model.ProgressInstance) error
	Transition(ctx context.Context, id uint, fn ProgressFunc) (*model.ProgressInstance, error)
}

// TenantRepository reads and writes the shared tenant directory
type TenantRepository interface {
	FindByKey(ctx context.Context, key string) (*model.Tenant, error)
	FindByID(ctx context.Context, id uint) (*model.Tenant, error)
	Create(ctx context.Context, t *model.Tenant) error
}

// UserRepository reads and writes login accounts and their tenant memberships
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id uint) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
	Memberships(ctx context.Context, userID uint) ([]model.Membership, error)
	Bind(ctx context.Context, userID, tenantID uint, role string, isDefault bool) error
}
