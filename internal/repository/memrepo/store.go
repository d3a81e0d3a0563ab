// Package memrepo implements the repository interfaces in process memory.
// Data is partitioned by the tenant schema carried in the context, the same
// way the gorm repositories resolve their tables. It backs the test suites
// and STORE=memory development runs.
package memrepo

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"pos-service/internal/model"
	"pos-service/internal/repository"
	"pos-service/pkg/tenancy"
)

// Store holds every tenant's data behind one lock
type Store struct {
	mu      sync.Mutex
	now     func() time.Time
	tenants map[string]*tenantData

	// public schema
	tenantRows []*model.Tenant
	users      []*model.User
	links      []*model.UserTenant
	publicSeq  uint
}

type tenantData struct {
	seq      map[string]uint
	masters  map[string]map[uint]interface{}
	special  map[[2]uint]*model.SpecialPrice
	orders   map[uint]*model.SalesOrder
	items    map[uint]*model.SalesOrderItem
	ledgers  map[string]map[uint]*model.Ledger
	payments map[string][]*model.LedgerPayment
	expenses map[uint]*model.Expense
	progress map[uint]*model.ProgressInstance
	events   []*model.ProgressEvent
}

// New returns an empty store
func New() *Store {
	return &Store{now: time.Now, tenants: make(map[string]*tenantData)}
}

// tenant returns the partition for the context's schema. Callers hold s.mu.
func (s *Store) tenant(ctx context.Context) (*tenantData, error) {
	schema, ok := tenancy.SchemaFrom(ctx)
	if !ok {
		return nil, tenancy.ErrSchemaRequired
	}
	if !tenancy.ValidSchemaName(schema) {
		return nil, tenancy.ErrInvalidSchema
	}
	td, ok := s.tenants[schema]
	if !ok {
		td = &tenantData{
			seq:      make(map[string]uint),
			masters:  make(map[string]map[uint]interface{}),
			special:  make(map[[2]uint]*model.SpecialPrice),
			orders:   make(map[uint]*model.SalesOrder),
			items:    make(map[uint]*model.SalesOrderItem),
			ledgers:  make(map[string]map[uint]*model.Ledger),
			payments: make(map[string][]*model.LedgerPayment),
			expenses: make(map[uint]*model.Expense),
			progress: make(map[uint]*model.ProgressInstance),
		}
		s.tenants[schema] = td
	}
	return td, nil
}

func (td *tenantData) nextID(table string) uint {
	td.seq[table]++
	return td.seq[table]
}

func (td *tenantData) masterTable(logical string) map[uint]interface{} {
	rows, ok := td.masters[logical]
	if !ok {
		rows = make(map[uint]interface{})
		td.masters[logical] = rows
	}
	return rows
}

func (td *tenantData) ledgerTable(table string) map[uint]*model.Ledger {
	rows, ok := td.ledgers[table]
	if !ok {
		rows = make(map[uint]*model.Ledger)
		td.ledgers[table] = rows
	}
	return rows
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(substr)))
}

func inDateRange(t time.Time, q repository.ListQuery) bool {
	if q.DateFrom != nil && t.Before(*q.DateFrom) {
		return false
	}
	if q.DateTo != nil && t.After(*q.DateTo) {
		return false
	}
	return true
}

// page returns the slice of rows for the query's page
func page[T any](rows []T, q repository.ListQuery) []T {
	start := q.Offset()
	if start < 0 || start >= len(rows) {
		return []T{}
	}
	end := start + q.Limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

// sortNewestFirst orders rows by date then id, both descending
func sortNewestFirst[T any](rows []T, date func(T) time.Time, id func(T) uint) {
	sort.Slice(rows, func(i, j int) bool {
		di, dj := date(rows[i]), date(rows[j])
		if !di.Equal(dj) {
			return di.After(dj)
		}
		return id(rows[i]) > id(rows[j])
	})
}
