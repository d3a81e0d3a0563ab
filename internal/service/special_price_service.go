package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"pos-service/internal/apperror"
	"pos-service/internal/model"
	"pos-service/internal/repository"
)

// SpecialPriceService manages price overrides per customer category
type SpecialPriceService struct {
	prices     repository.SpecialPriceRepository
	products   repository.MasterRepository[model.Product, *model.Product]
	categories repository.MasterRepository[model.CustomerCategory, *model.CustomerCategory]
}

func NewSpecialPriceService(repos *repository.Set) *SpecialPriceService {
	return &SpecialPriceService{
		prices:     repos.SpecialPrices,
		products:   repos.Products,
		categories: repos.CustomerCategories,
	}
}

func (s *SpecialPriceService) List(ctx context.Context, productID uint) ([]model.SpecialPrice, error) {
	if _, err := s.products.Get(ctx, productID); err != nil {
		return nil, notFound(err, "Product")
	}
	return s.prices.ListByProduct(ctx, productID)
}

// Set creates or replaces the price of productID for a customer category
func (s *SpecialPriceService) Set(ctx context.Context, actor, productID, categoryID uint, price decimal.Decimal) (*model.SpecialPrice, error) {
	if categoryID == 0 {
		return nil, apperror.MissingFields("customer_category_id")
	}
	if price.IsNegative() {
		return nil, apperror.InvalidAmount("price must not be negative")
	}
	if _, err := s.products.Get(ctx, productID); err != nil {
		return nil, notFound(err, "Product")
	}
	if _, err := s.categories.Get(ctx, categoryID); err != nil {
		return nil, notFound(err, "Customer category")
	}

	sp := &model.SpecialPrice{
		ProductID:          productID,
		CustomerCategoryID: categoryID,
		Price:              price,
		UpdatedBy:          actor,
	}
	if err := s.prices.Upsert(ctx, sp); err != nil {
		return nil, err
	}
	return sp, nil
}

func (s *SpecialPriceService) Remove(ctx context.Context, productID, categoryID uint) error {
	if err := s.prices.Delete(ctx, productID, categoryID); err != nil {
		return notFound(err, "Special price")
	}
	return nil
}

// PriceFor returns the unit price of p for customer c: the special price of
// the customer's category when one exists, the product price otherwise.
func (s *SpecialPriceService) PriceFor(ctx context.Context, p *model.Product, c *model.Customer) (decimal.Decimal, bool, error) {
	if c.CategoryID == nil {
		return p.Price, false, nil
	}
	sp, err := s.prices.Find(ctx, p.ID, *c.CategoryID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return p.Price, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	return sp.Price, true, nil
}
