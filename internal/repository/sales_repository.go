package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"pos-service/internal/apperror"
	"pos-service/internal/model"
	"pos-service/pkg/tenancy"
	"pos-service/prometheus"
)

type salesRepository struct {
	reg *tenancy.Registry
}

func NewSalesRepository(reg *tenancy.Registry) SalesRepository {
	return &salesRepository{reg: reg}
}

type salesHandles struct {
	orders, items, products, receivables, progress *tenancy.Handle
}

func (r *salesRepository) handles(ctx context.Context) (*salesHandles, error) {
	var hs salesHandles
	for logical, dst := range map[string]**tenancy.Handle{
		model.TableSalesOrders:       &hs.orders,
		model.TableSalesOrderItems:   &hs.items,
		model.TableProducts:          &hs.products,
		model.TableReceivables:       &hs.receivables,
		model.TableProgressInstances: &hs.progress,
	} {
		h, err := r.reg.ModelFor(ctx, logical)
		if err != nil {
			return nil, err
		}
		*dst = h
	}
	return &hs, nil
}

func (r *salesRepository) List(ctx context.Context, q ListQuery) ([]model.SalesOrder, int64, error) {
	defer prometheus.TrackDBOperation("sales_orders.list")()

	h, err := r.reg.ModelFor(ctx, model.TableSalesOrders)
	if err != nil {
		return nil, 0, err
	}

	db := withScope(h.DB(ctx), q.Scope)
	if q.Search != "" {
		db = db.Where("number ILIKE ?", likePattern(q.Search))
	}
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	if db, err = withFilters(db, h, q.Filters); err != nil {
		return nil, 0, err
	}
	db = withDates(db, "date", q)

	orders := []model.SalesOrder{}
	total, err := paginate(db, q, "date DESC, id DESC", &orders)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *salesRepository) Get(ctx context.Context, id uint) (*model.SalesOrder, error) {
	defer prometheus.TrackDBOperation("sales_orders.get")()

	hs, err := r.handles(ctx)
	if err != nil {
		return nil, err
	}
	var order model.SalesOrder
	if err := hs.orders.DB(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	if err := hs.items.DB(ctx).Where("sales_order_id = ?", id).Order("id").Find(&order.Items).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *salesRepository) Create(ctx context.Context, order *model.SalesOrder, receivable *model.Ledger, progress map[int]*model.ProgressInstance) error {
	defer prometheus.TrackDBOperation("sales_orders.create")()

	hs, err := r.handles(ctx)
	if err != nil {
		return err
	}

	return r.reg.Transaction(ctx, func(tx *gorm.DB) error {
		order.Number = pendingNumber()
		order.IsActive = true
		if err := hs.orders.On(tx).Create(order).Error; err != nil {
			return err
		}
		order.Number = DocumentNumber(PrefixSales, order.Date, order.ID)
		if err := hs.orders.On(tx).Where("id = ?", order.ID).Update("number", order.Number).Error; err != nil {
			return err
		}

		for _, item := range order.Items {
			item.SalesOrderID = order.ID
			if err := hs.items.On(tx).Create(item).Error; err != nil {
				return err
			}
			// stock may go negative; sales are never blocked on inventory
			err := hs.products.On(tx).Where("id = ?", item.ProductID).
				Update("stock", gorm.Expr("stock - ?", item.Qty)).Error
			if err != nil {
				return err
			}
		}

		if receivable != nil {
			receivable.SalesOrderID = &order.ID
			if err := createLedger(tx, hs.receivables, PrefixReceivable, receivable); err != nil {
				return err
			}
		}

		for i, item := range order.Items {
			p, ok := progress[i]
			if !ok {
				continue
			}
			p.SalesOrderID = &order.ID
			p.SalesOrderItemID = &item.ID
			if err := hs.progress.On(tx).Create(p).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *salesRepository) Void(ctx context.Context, id uint, actor uint) (*model.SalesOrder, error) {
	defer prometheus.TrackDBOperation("sales_orders.void")()

	hs, err := r.handles(ctx)
	if err != nil {
		return nil, err
	}

	var order model.SalesOrder
	err = r.reg.Transaction(ctx, func(tx *gorm.DB) error {
		// the receivable is locked before the order, the same order payments use
		var receivables []model.Ledger
		err := hs.receivables.On(tx).Clauses(lockForUpdate).
			Where("sales_order_id = ? AND is_active = ?", id, true).
			Find(&receivables).Error
		if err != nil {
			return err
		}
		if err := hs.orders.On(tx).Clauses(lockForUpdate).Where("id = ?", id).First(&order).Error; err != nil {
			return err
		}
		if !order.IsActive {
			return apperror.InvalidTransition("sales order " + order.Number + " is already void")
		}
		if order.Paid.IsPositive() {
			return apperror.InvalidTransition("sales order " + order.Number + " has payments")
		}

		now := time.Now()
		order.IsActive = false
		order.UpdatedBy = actor
		err = hs.orders.On(tx).Where("id = ?", id).Updates(map[string]interface{}{
			"is_active":  false,
			"updated_by": actor,
			"updated_at": now,
		}).Error
		if err != nil {
			return err
		}
		if len(receivables) > 0 {
			err := hs.receivables.On(tx).Where("sales_order_id = ?", id).Updates(map[string]interface{}{
				"is_active":  false,
				"updated_by": actor,
				"updated_at": now,
			}).Error
			if err != nil {
				return err
			}
		}

		if err := hs.items.On(tx).Where("sales_order_id = ?", id).Order("id").Find(&order.Items).Error; err != nil {
			return err
		}
		for _, item := range order.Items {
			err := hs.products.On(tx).Where("id = ?", item.ProductID).
				Update("stock", gorm.Expr("stock + ?", item.Qty)).Error
			if err != nil {
				return err
			}
		}

		return hs.progress.On(tx).
			Where("sales_order_id = ? AND status = ?", id, model.ProgressInProgress).
			Updates(map[string]interface{}{
				"status":     model.ProgressCancelled,
				"updated_at": now,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}
