package model

import (
	"time"

	"github.com/shopspring/decimal"

	"pos-service/internal/apperror"
)

// Balance states shared by sales orders, receivables and payables
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Ledger is a receivable or payable. Both tables share this layout.
type Ledger struct {
	ID           uint             `json:"id" gorm:"primarykey"`
	Number       string           `json:"number" gorm:"type:varchar(50);uniqueIndex;not null"`
	PartyID      uint             `json:"party_id" gorm:"index;not null"`
	SalesOrderID *uint            `json:"sales_order_id,omitempty" gorm:"index"`
	Description  string           `json:"description" gorm:"type:text"`
	Date         time.Time        `json:"date" gorm:"type:date;index;not null"`
	DueDate      *time.Time       `json:"due_date,omitempty" gorm:"type:date"`
	Total        decimal.Decimal  `json:"total" gorm:"type:numeric(18,2);not null"`
	Paid         decimal.Decimal  `json:"paid" gorm:"type:numeric(18,2);not null;default:0"`
	Balance      decimal.Decimal  `json:"balance" gorm:"type:numeric(18,2);not null"`
	Status       string           `json:"status" gorm:"type:varchar(20);index;not null"`
	IsActive     bool             `json:"is_active" gorm:"not null;default:true"`
	CreatedBy    uint             `json:"created_by"`
	UpdatedBy    uint             `json:"updated_by"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	Payments     []*LedgerPayment `json:"payments,omitempty" gorm:"-"`
}

// LedgerPayment is one payment recorded against a ledger entry
type LedgerPayment struct {
	ID        uint            `json:"id" gorm:"primarykey"`
	LedgerID  uint            `json:"ledger_id" gorm:"index;not null"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:numeric(18,2);not null"`
	Method    string          `json:"method" gorm:"type:varchar(50)"`
	Note      string          `json:"note" gorm:"type:text"`
	PaidAt    time.Time       `json:"paid_at"`
	CreatedBy uint            `json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
}

// Open initialises paid, balance and status for a new entry of total
// of which paid is already settled.
func (l *Ledger) Open(total, paid decimal.Decimal) {
	l.Total = total
	l.Paid = paid
	l.recompute()
}

// ApplyPayment records amount against the entry. The amount must be
// positive and may not exceed the balance; closed entries take no payments.
func (l *Ledger) ApplyPayment(amount decimal.Decimal) error {
	if l.Status == StatusClosed {
		return apperror.AlreadyClosed(l.Number)
	}
	if !amount.IsPositive() {
		return apperror.InvalidAmount("amount must be greater than zero")
	}
	if amount.GreaterThan(l.Balance) {
		return apperror.InvalidAmount("amount exceeds balance of " + l.Number)
	}
	l.Paid = l.Paid.Add(amount)
	l.recompute()
	return nil
}

func (l *Ledger) recompute() {
	l.Balance = l.Total.Sub(l.Paid)
	if !l.Balance.IsPositive() {
		l.Balance = decimal.Zero
		l.Status = StatusClosed
		return
	}
	l.Status = StatusOpen
}
