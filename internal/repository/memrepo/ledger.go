package memrepo

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"pos-service/internal/model"
	"pos-service/internal/repository"
)

type ledgerRepository struct {
	s    *Store
	kind repository.LedgerKind
	cols columns
}

func NewLedgerRepository(s *Store, kind repository.LedgerKind) repository.LedgerRepository {
	return &ledgerRepository{s: s, kind: kind, cols: parseColumns(&model.Ledger{})}
}

func cloneLedger(l *model.Ledger) *model.Ledger {
	c := *l
	c.Payments = nil
	return &c
}

func (r *ledgerRepository) List(ctx context.Context, q repository.ListQuery) ([]model.Ledger, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	td, err := r.s.tenant(ctx)
	if err != nil {
		return nil, 0, err
	}
	var matched []*model.Ledger
	for _, l := range td.ledgerTable(r.kind.Table) {
		if q.Scope == model.ScopeActive && !l.IsActive {
			continue
		}
		if q.Search != "" && !containsFold(l.Number, q.Search) && !containsFold(l.Description, q.Search) {
			continue
		}
		if q.Status != "" && l.Status != q.Status {
			continue
		}
		if !inDateRange(l.Date, q) {
			continue
		}
		ok, err := r.cols.match(ctx, l, q.Filters)
		if err != nil {
			return nil, 0, err
		}
		if ok {
			matched = append(matched, l)
		}
	}
	sortNewestFirst(matched, func(l *model.Ledger) time.Time { return l.Date }, func(l *model.Ledger) uint { return l.ID })

	out := []model.Ledger{}
	for _, l := range page(matched, q) {
		out = append(out, *cloneLedger(l))
	}
	return out, int64(len(matched)), nil
}

func (r *ledgerRepository) Get(ctx context.Context, id uint) (*model.Ledger, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	td, err := r.s.tenant(ctx)
	if err != nil {
		return nil, err
	}
	l, ok := td.ledgerTable(r.kind.Table)[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := cloneLedger(l)
	c.Payments = []*model.LedgerPayment{}
	for _, p := range td.payments[r.kind.PaymentsTable] {
		if p.LedgerID == id {
			pc := *p
			c.Payments = append(c.Payments, &pc)
		}
	}
	sort.SliceStable(c.Payments, func(i, j int) bool { return c.Payments[i].PaidAt.Before(c.Payments[j].PaidAt) })
	return c, nil
}

func (r *ledgerRepository) FindBySalesOrder(ctx context.Context, salesOrderID uint) (*model.Ledger, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	td, err := r.s.tenant(ctx)
	if err != nil {
		return nil, err
	}
	for _, l := range td.ledgerTable(r.kind.Table) {
		if l.IsActive && l.SalesOrderID != nil && *l.SalesOrderID == salesOrderID {
			return cloneLedger(l), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *ledgerRepository) Create(ctx context.Context, l *model.Ledger) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	td, err := r.s.tenant(ctx)
	if err != nil {
		return err
	}
	r.s.insertLedger(td, r.kind, l)
	return nil
}

// insertLedger stores l and assigns its id and number. Callers hold s.mu.
func (s *Store) insertLedger(td *tenantData, kind repository.LedgerKind, l *model.Ledger) {
	now := s.now()
	l.ID = td.nextID(kind.Table)
	l.Number = repository.DocumentNumber(kind.Prefix, l.Date, l.ID)
	l.IsActive = true
	l.CreatedAt = now
	l.UpdatedAt = now
	td.ledgerTable(kind.Table)[l.ID] = cloneLedger(l)
}

func (r *ledgerRepository) Update(ctx context.Context, l *model.Ledger) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	td, err := r.s.tenant(ctx)
	if err != nil {
		return err
	}
	stored, ok := td.ledgerTable(r.kind.Table)[l.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Description = l.Description
	stored.DueDate = l.DueDate
	stored.UpdatedBy = l.UpdatedBy
	stored.UpdatedAt = r.s.now()
	return nil
}

func (r *ledgerRepository) Apply(ctx context.Context, ids []uint, fn repository.LedgerFunc) ([]*model.Ledger, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	td, err := r.s.tenant(ctx)
	if err != nil {
		return nil, err
	}
	table := td.ledgerTable(r.kind.Table)

	// work on copies so a failing fn leaves the store untouched
	working := make(map[uint]*model.Ledger, len(ids))
	entries := make([]*model.Ledger, 0, len(ids))
	for _, id := range ids {
		l, ok := working[id]
		if !ok {
			stored, found := table[id]
			if !found {
				return nil, gorm.ErrRecordNotFound
			}
			l = cloneLedger(stored)
			working[id] = l
		}
		entries = append(entries, l)
	}

	payments, err := fn(entries)
	if err != nil {
		return nil, err
	}

	now := r.s.now()
	for id, l := range working {
		l.UpdatedAt = now
		table[id] = cloneLedger(l)
		if r.kind.MirrorSales && l.SalesOrderID != nil {
			if order, ok := td.orders[*l.SalesOrderID]; ok {
				order.SyncPayment(order.Total.Sub(l.Balance))
				order.UpdatedBy = l.UpdatedBy
				order.UpdatedAt = now
			}
		}
	}
	for _, p := range payments {
		p.ID = td.nextID(r.kind.PaymentsTable)
		p.CreatedAt = now
		pc := *p
		td.payments[r.kind.PaymentsTable] = append(td.payments[r.kind.PaymentsTable], &pc)
	}
	return entries, nil
}
