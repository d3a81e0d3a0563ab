package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pos-service/internal/model"
	"pos-service/pkg/tenancy"
	"pos-service/prometheus"
)

type specialPriceRepository struct {
	reg *tenancy.Registry
}

func NewSpecialPriceRepository(reg *tenancy.Registry) SpecialPriceRepository {
	return &specialPriceRepository{reg: reg}
}

func (r *specialPriceRepository) ListByProduct(ctx context.Context, productID uint) ([]model.SpecialPrice, error) {
	h, err := r.reg.ModelFor(ctx, model.TableSpecialPrices)
	if err != nil {
		return nil, err
	}
	prices := []model.SpecialPrice{}
	err = h.DB(ctx).Where("product_id = ?", productID).Order("customer_category_id").Find(&prices).Error
	return prices, err
}

func (r *specialPriceRepository) Find(ctx context.Context, productID, categoryID uint) (*model.SpecialPrice, error) {
	h, err := r.reg.ModelFor(ctx, model.TableSpecialPrices)
	if err != nil {
		return nil, err
	}
	var sp model.SpecialPrice
	err = h.DB(ctx).
		Where("product_id = ? AND customer_category_id = ?", productID, categoryID).
		First(&sp).Error
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

func (r *specialPriceRepository) Upsert(ctx context.Context, sp *model.SpecialPrice) error {
	defer prometheus.TrackDBOperation("special_prices.upsert")()

	h, err := r.reg.ModelFor(ctx, model.TableSpecialPrices)
	if err != nil {
		return err
	}
	return h.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}, {Name: "customer_category_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"price", "updated_by", "updated_at"}),
	}).Create(sp).Error
}

func (r *specialPriceRepository) Delete(ctx context.Context, productID, categoryID uint) error {
	h, err := r.reg.ModelFor(ctx, model.TableSpecialPrices)
	if err != nil {
		return err
	}
	res := h.DB(ctx).
		Where("product_id = ? AND customer_category_id = ?", productID, categoryID).
		Delete(&model.SpecialPrice{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
