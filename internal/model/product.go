package model

import (
	"time"

	"github.com/shopspring/decimal"

	"pos-service/internal/apperror"
)

// Product is a sellable item
type Product struct {
	Master
	CategoryID *uint           `json:"category_id" gorm:"index"`
	Unit       string          `json:"unit" gorm:"type:varchar(20)"`
	Price      decimal.Decimal `json:"price" gorm:"type:numeric(18,2);not null;default:0"`
	Cost       decimal.Decimal `json:"cost" gorm:"type:numeric(18,2);not null;default:0"`
	Stock      int             `json:"stock" gorm:"not null;default:0"`
}

func (p *Product) Validate() error {
	switch {
	case p.Price.IsNegative():
		return apperror.InvalidRequest("price must not be negative", "price")
	case p.Cost.IsNegative():
		return apperror.InvalidRequest("cost must not be negative", "cost")
	}
	return nil
}

// SpecialPrice overrides a product's price for one customer category
type SpecialPrice struct {
	ID                 uint            `json:"id" gorm:"primarykey"`
	ProductID          uint            `json:"product_id" gorm:"uniqueIndex:idx_special_price_product_category;not null"`
	CustomerCategoryID uint            `json:"customer_category_id" gorm:"uniqueIndex:idx_special_price_product_category;not null"`
	Price              decimal.Decimal `json:"price" gorm:"type:numeric(18,2);not null"`
	UpdatedBy          uint            `json:"updated_by"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// Customer buys from the tenant
type Customer struct {
	Master
	CategoryID *uint  `json:"category_id" gorm:"index"`
	Phone      string `json:"phone" gorm:"type:varchar(50)"`
	Email      string `json:"email" gorm:"type:varchar(255)"`
	Address    string `json:"address" gorm:"type:text"`
	RegionID   *uint  `json:"region_id" gorm:"index"`
}
