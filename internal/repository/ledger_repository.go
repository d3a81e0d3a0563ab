package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"pos-service/internal/model"
	"pos-service/pkg/tenancy"
	"pos-service/prometheus"
)

// LedgerKind selects the tables a ledger repository works on
type LedgerKind struct {
	Name          string
	Table         string
	PaymentsTable string
	Prefix        string
	// MirrorSales copies payment state onto the linked sales order
	MirrorSales bool
}

var (
	Receivables = LedgerKind{
		Name:          "receivable",
		Table:         model.TableReceivables,
		PaymentsTable: model.TableReceivablePayments,
		Prefix:        PrefixReceivable,
		MirrorSales:   true,
	}
	Payables = LedgerKind{
		Name:          "payable",
		Table:         model.TablePayables,
		PaymentsTable: model.TablePayablePayments,
		Prefix:        PrefixPayable,
	}
)

type ledgerRepository struct {
	reg  *tenancy.Registry
	kind LedgerKind
}

func NewLedgerRepository(reg *tenancy.Registry, kind LedgerKind) LedgerRepository {
	return &ledgerRepository{reg: reg, kind: kind}
}

func (r *ledgerRepository) List(ctx context.Context, q ListQuery) ([]model.Ledger, int64, error) {
	defer prometheus.TrackDBOperation(r.kind.Table + ".list")()

	h, err := r.reg.ModelFor(ctx, r.kind.Table)
	if err != nil {
		return nil, 0, err
	}

	db := withScope(h.DB(ctx), q.Scope)
	if q.Search != "" {
		like := likePattern(q.Search)
		db = db.Where("number ILIKE ? OR description ILIKE ?", like, like)
	}
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	if db, err = withFilters(db, h, q.Filters); err != nil {
		return nil, 0, err
	}
	db = withDates(db, "date", q)

	entries := []model.Ledger{}
	total, err := paginate(db, q, "date DESC, id DESC", &entries)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *ledgerRepository) Get(ctx context.Context, id uint) (*model.Ledger, error) {
	defer prometheus.TrackDBOperation(r.kind.Table + ".get")()

	h, err := r.reg.ModelFor(ctx, r.kind.Table)
	if err != nil {
		return nil, err
	}
	ph, err := r.reg.ModelFor(ctx, r.kind.PaymentsTable)
	if err != nil {
		return nil, err
	}

	var l model.Ledger
	if err := h.DB(ctx).Where("id = ?", id).First(&l).Error; err != nil {
		return nil, err
	}
	if err := ph.DB(ctx).Where("ledger_id = ?", id).Order("paid_at, id").Find(&l.Payments).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *ledgerRepository) FindBySalesOrder(ctx context.Context, salesOrderID uint) (*model.Ledger, error) {
	h, err := r.reg.ModelFor(ctx, r.kind.Table)
	if err != nil {
		return nil, err
	}
	var l model.Ledger
	err = h.DB(ctx).
		Where("sales_order_id = ? AND is_active = ?", salesOrderID, true).
		First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *ledgerRepository) Create(ctx context.Context, l *model.Ledger) error {
	defer prometheus.TrackDBOperation(r.kind.Table + ".create")()

	h, err := r.reg.ModelFor(ctx, r.kind.Table)
	if err != nil {
		return err
	}
	return r.reg.Transaction(ctx, func(tx *gorm.DB) error {
		return createLedger(tx, h, r.kind.Prefix, l)
	})
}

func (r *ledgerRepository) Update(ctx context.Context, l *model.Ledger) error {
	h, err := r.reg.ModelFor(ctx, r.kind.Table)
	if err != nil {
		return err
	}
	res := h.DB(ctx).Where("id = ?", l.ID).Updates(map[string]interface{}{
		"description": l.Description,
		"due_date":    l.DueDate,
		"updated_by":  l.UpdatedBy,
		"updated_at":  time.Now(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ledgerRepository) Apply(ctx context.Context, ids []uint, fn LedgerFunc) ([]*model.Ledger, error) {
	defer prometheus.TrackDBOperation(r.kind.Table + ".apply")()

	h, err := r.reg.ModelFor(ctx, r.kind.Table)
	if err != nil {
		return nil, err
	}
	ph, err := r.reg.ModelFor(ctx, r.kind.PaymentsTable)
	if err != nil {
		return nil, err
	}
	var sh *tenancy.Handle
	if r.kind.MirrorSales {
		if sh, err = r.reg.ModelFor(ctx, model.TableSalesOrders); err != nil {
			return nil, err
		}
	}

	var entries []*model.Ledger
	err = r.reg.Transaction(ctx, func(tx *gorm.DB) error {
		// rows are locked in id order so concurrent settlements cannot deadlock
		var locked []*model.Ledger
		if err := h.On(tx).Clauses(lockForUpdate).Where("id IN ?", ids).Order("id").Find(&locked).Error; err != nil {
			return err
		}
		byID := make(map[uint]*model.Ledger, len(locked))
		for _, l := range locked {
			byID[l.ID] = l
		}
		entries = make([]*model.Ledger, 0, len(ids))
		for _, id := range ids {
			l, ok := byID[id]
			if !ok {
				return gorm.ErrRecordNotFound
			}
			entries = append(entries, l)
		}

		payments, err := fn(entries)
		if err != nil {
			return err
		}

		now := time.Now()
		for _, l := range locked {
			err := h.On(tx).Where("id = ?", l.ID).Updates(map[string]interface{}{
				"paid":       l.Paid,
				"balance":    l.Balance,
				"status":     l.Status,
				"updated_by": l.UpdatedBy,
				"updated_at": now,
			}).Error
			if err != nil {
				return err
			}
		}
		if len(payments) > 0 {
			if err := ph.On(tx).Create(&payments).Error; err != nil {
				return err
			}
		}
		if sh == nil {
			return nil
		}
		for _, l := range locked {
			if l.SalesOrderID == nil {
				continue
			}
			if err := mirrorSalesOrder(tx, sh, l, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func createLedger(tx *gorm.DB, h *tenancy.Handle, prefix string, l *model.Ledger) error {
	l.Number = pendingNumber()
	l.IsActive = true
	if err := h.On(tx).Create(l).Error; err != nil {
		return err
	}
	l.Number = DocumentNumber(prefix, l.Date, l.ID)
	return h.On(tx).Where("id = ?", l.ID).Update("number", l.Number).Error
}

func mirrorSalesOrder(tx *gorm.DB, sh *tenancy.Handle, l *model.Ledger, now time.Time) error {
	var order model.SalesOrder
	if err := sh.On(tx).Clauses(lockForUpdate).Where("id = ?", *l.SalesOrderID).First(&order).Error; err != nil {
		return err
	}
	order.SyncPayment(order.Total.Sub(l.Balance))
	return sh.On(tx).Where("id = ?", order.ID).Updates(map[string]interface{}{
		"paid":           order.Paid,
		"balance":        order.Balance,
		"status":         order.Status,
		"payment_status": order.PaymentStatus,
		"updated_by":     l.UpdatedBy,
		"updated_at":     now,
	}).Error
}
