package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment status labels shown on sales orders
const (
	PaymentLunas = "lunas"
	PaymentDP    = "dp"
)

// SalesOrder is a customer order with its running payment state
type SalesOrder struct {
	ID            uint              `json:"id" gorm:"primarykey"`
	Number        string            `json:"number" gorm:"type:varchar(50);uniqueIndex;not null"`
	CustomerID    uint              `json:"customer_id" gorm:"index;not null"`
	Date          time.Time         `json:"date" gorm:"type:date;index;not null"`
	Subtotal      decimal.Decimal   `json:"subtotal" gorm:"type:numeric(18,2);not null"`
	Discount      decimal.Decimal   `json:"discount" gorm:"type:numeric(18,2);not null;default:0"`
	Total         decimal.Decimal   `json:"total" gorm:"type:numeric(18,2);not null"`
	Paid          decimal.Decimal   `json:"paid" gorm:"type:numeric(18,2);not null;default:0"`
	Balance       decimal.Decimal   `json:"balance" gorm:"type:numeric(18,2);not null"`
	Status        string            `json:"status" gorm:"type:varchar(20);index;not null"`
	PaymentStatus string            `json:"payment_status" gorm:"type:varchar(20);not null"`
	Notes         string            `json:"notes" gorm:"type:text"`
	IsActive      bool              `json:"is_active" gorm:"not null;default:true"`
	CreatedBy     uint              `json:"created_by"`
	UpdatedBy     uint              `json:"updated_by"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	Items         []*SalesOrderItem `json:"items,omitempty" gorm:"-"`
}

// SalesOrderItem is one order line. Name and unit price are copied from the
// product at order time.
type SalesOrderItem struct {
	ID                 uint            `json:"id" gorm:"primarykey"`
	SalesOrderID       uint            `json:"sales_order_id" gorm:"index;not null"`
	ProductID          uint            `json:"product_id" gorm:"index;not null"`
	Name               string          `json:"name" gorm:"type:varchar(255)"`
	Qty                int             `json:"qty" gorm:"not null"`
	UnitPrice          decimal.Decimal `json:"unit_price" gorm:"type:numeric(18,2);not null"`
	Special            bool            `json:"special"`
	LineTotal          decimal.Decimal `json:"line_total" gorm:"type:numeric(18,2);not null"`
	TrackProgress      bool            `json:"track_progress"`
	ProgressTemplateID *uint           `json:"progress_template_id,omitempty"`
}

// SyncPayment copies the payment state of the order's receivable
func (o *SalesOrder) SyncPayment(paid decimal.Decimal) {
	o.Paid = paid
	o.Balance = o.Total.Sub(paid)
	if !o.Balance.IsPositive() {
		o.Balance = decimal.Zero
		o.Status = StatusClosed
		o.PaymentStatus = PaymentLunas
		return
	}
	o.Status = StatusOpen
	o.PaymentStatus = PaymentDP
}
