package memrepo

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"pos-service/internal/apperror"
	"pos-service/internal/model"
	"pos-service/internal/repository"
)

type salesRepository struct {
	s    *Store
	cols columns
}

func NewSalesRepository(s *Store) repository.SalesRepository {
	return &salesRepository{s: s, cols: parseColumns(&model.SalesOrder{})}
}

func cloneOrder(o *model.SalesOrder) *model.SalesOrder {
	c := *o
	c.Items = nil
	return &c
}

func (r *salesRepository) List(ctx context.Context, q repository.ListQuery) ([]model.SalesOrder, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	td, err := r.s.tenant(ctx)
	if err != nil {
		return nil, 0, err
	}
	var matched []*model.SalesOrder
	for _, o := range td.orders {
		if q.Scope == model.ScopeActive && !o.IsActive {
			continue
		}
		if q.Search != "" && !containsFold(o.Number, q.Search) {
			continue
		}
		if q.Status != "" && o.Status != q.Status {
			continue
		}
		if !inDateRange(o.Date, q) {
			continue
		}
		ok, err := r.cols.match(ctx, o, q.Filters)
		if err != nil {
			return nil, 0, err
		}
		if ok {
			matched = append(matched, o)
		}
	}
	sortNewestFirst(matched, func(o *model.SalesOrder) time.Time { return o.Date }, func(o *model.SalesOrder) uint { return o.ID })

	out := []model.SalesOrder{}
	for _, o := range page(matched, q) {
		out = append(out, *cloneOrder(o))
	}
	return out, int64(len(matched)), nil
}

func (r *salesRepository) Get(ctx context.Context, id uint) (*model.SalesOrder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	td, err := r.s.tenant(ctx)
	if err != nil {
		return nil, err
	}
	o, ok := td.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := cloneOrder(o)
	c.Items = td.orderItems(id)
	return c, nil
}

func (td *tenantData) orderItems(orderID uint) []*model.SalesOrderItem {
	items := []*model.SalesOrderItem{}
	for _, it := range td.items {
		if it.SalesOrderID == orderID {
			c := *it
			items = append(items, &c)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

func (r *salesRepository) Create(ctx context.Context, order *model.SalesOrder, receivable *model.Ledger, progress map[int]*model.ProgressInstance) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	td, err := r.s.tenant(ctx)
	if err != nil {
		return err
	}

	now := r.s.now()
	order.ID = td.nextID(model.TableSalesOrders)
	order.Number = repository.DocumentNumber(repository.PrefixSales, order.Date, order.ID)
	order.IsActive = true
	order.CreatedAt = now
	order.UpdatedAt = now
	td.orders[order.ID] = cloneOrder(order)

	for _, item := range order.Items {
		item.ID = td.nextID(model.TableSalesOrderItems)
		item.SalesOrderID = order.ID
		c := *item
		td.items[item.ID] = &c
		if p := td.product(item.ProductID); p != nil {
			p.Stock -= item.Qty
		}
	}

	if receivable != nil {
		receivable.SalesOrderID = &order.ID
		r.s.insertLedger(td, repository.Receivables, receivable)
	}

	for i, item := range order.Items {
		p, ok := progress[i]
		if !ok {
			continue
		}
		p.SalesOrderID = &order.ID
		itemID := item.ID
		p.SalesOrderItemID = &itemID
		r.s.insertProgress(td, p)
	}
	return nil
}

func (r *salesRepository) Void(ctx context.Context, id uint, actor uint) (*model.SalesOrder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	td, err := r.s.tenant(ctx)
	if err != nil {
		return nil, err
	}
	o, ok := td.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if !o.IsActive {
		return nil, apperror.InvalidTransition("sales order " + o.Number + " is already void")
	}
	if o.Paid.IsPositive() {
		return nil, apperror.InvalidTransition("sales order " + o.Number + " has payments")
	}

	now := r.s.now()
	o.IsActive = false
	o.UpdatedBy = actor
	o.UpdatedAt = now

	for _, l := range td.ledgerTable(model.TableReceivables) {
		if l.SalesOrderID != nil && *l.SalesOrderID == id {
			l.IsActive = false
			l.UpdatedBy = actor
			l.UpdatedAt = now
		}
	}
	items := td.orderItems(id)
	for _, item := range items {
		if p := td.product(item.ProductID); p != nil {
			p.Stock += item.Qty
		}
	}
	for _, p := range td.progress {
		if p.SalesOrderID != nil && *p.SalesOrderID == id && p.Status == model.ProgressInProgress {
			p.Status = model.ProgressCancelled
			p.UpdatedAt = now
		}
	}

	c := cloneOrder(o)
	c.Items = items
	return c, nil
}
