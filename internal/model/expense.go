package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is an operating cost paid by the tenant
type Expense struct {
	ID          uint            `json:"id" gorm:"primarykey"`
	Number      string          `json:"number" gorm:"type:varchar(50);uniqueIndex;not null"`
	Category    string          `json:"category" gorm:"type:varchar(100);index"`
	Description string          `json:"description" gorm:"type:text"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:numeric(18,2);not null"`
	Date        time.Time       `json:"date" gorm:"type:date;index;not null"`
	PaidTo      string          `json:"paid_to" gorm:"type:varchar(255)"`
	IsActive    bool            `json:"is_active" gorm:"not null;default:true"`
	CreatedBy   uint            `json:"created_by"`
	UpdatedBy   uint            `json:"updated_by"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
