package memrepo

import (
	"context"
	"encoding/json"
	"sort"

	"gorm.io/gorm"

	"pos-service/internal/model"
	"pos-service/internal/repository"
)

type masterRepository[T any, PT model.Entity[T]] struct {
	s       *Store
	logical string
	cols    columns
}

// NewMasterRepository returns an in-memory repository for the master table logical
func NewMasterRepository[T any, PT model.Entity[T]](s *Store, logical string) repository.MasterRepository[T, PT] {
	return &masterRepository[T, PT]{s: s, logical: logical, cols: parseColumns(PT(new(T)))}
}

// clone deep-copies e so callers never share slices with stored rows
func clone[T any, PT model.Entity[T]](e PT) PT {
	b, err := json.Marshal(e)
	if err != nil {
		panic(err)
	}
	c := PT(new(T))
	if err := json.Unmarshal(b, c); err != nil {
		panic(err)
	}
	return c
}

func (r *masterRepository[T, PT]) List(ctx context.Context, q repository.ListQuery) ([]T, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	td, err := r.s.tenant(ctx)
	if err != nil {
		return nil, 0, err
	}

	var matched []PT
	for _, row := range td.masterTable(r.logical) {
		e := row.(PT)
		m := e.GetMaster()
		if q.Scope == model.ScopeActive && m.Lifecycle() != model.Active {
			continue
		}
		if q.Search != "" && !containsFold(m.Code, q.Search) && !containsFold(m.Name, q.Search) {
			continue
		}
		ok, err := r.cols.match(ctx, e, q.Filters)
		if err != nil {
			return nil, 0, err
		}
		if ok {
			matched = append(matched, e)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].GetMaster().Code < matched[j].GetMaster().Code
	})

	out := []T{}
	for _, e := range page(matched, q) {
		out = append(out, *e)
	}
	return out, int64(len(matched)), nil
}

func (r *masterRepository[T, PT]) Get(ctx context.Context, id uint) (PT, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	td, err := r.s.tenant(ctx)
	if err != nil {
		return nil, err
	}
	row, ok := td.masterTable(r.logical)[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return clone[T, PT](row.(PT)), nil
}

func (r *masterRepository[T, PT]) CodeExists(ctx context.Context, code string, excludeID uint) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	td, err := r.s.tenant(ctx)
	if err != nil {
		return false, err
	}
	return codeTaken(td.masterTable(r.logical), code, excludeID), nil
}

func codeTaken(rows map[uint]interface{}, code string, excludeID uint) bool {
	for id, row := range rows {
		if id != excludeID && row.(interface{ GetMaster() *model.Master }).GetMaster().Code == code {
			return true
		}
	}
	return false
}

func (r *masterRepository[T, PT]) Create(ctx context.Context, e PT) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	td, err := r.s.tenant(ctx)
	if err != nil {
		return err
	}
	rows := td.masterTable(r.logical)
	m := e.GetMaster()
	if codeTaken(rows, m.Code, 0) {
		return gorm.ErrDuplicatedKey
	}

	now := r.s.now()
	m.ID = td.nextID(r.logical)
	m.CreatedAt = now
	m.UpdatedAt = now
	rows[m.ID] = clone[T, PT](e)
	return nil
}

func (r *masterRepository[T, PT]) Update(ctx context.Context, e PT) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	td, err := r.s.tenant(ctx)
	if err != nil {
		return err
	}
	rows := td.masterTable(r.logical)
	m := e.GetMaster()
	row, ok := rows[m.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if codeTaken(rows, m.Code, m.ID) {
		return gorm.ErrDuplicatedKey
	}

	stored := row.(PT).GetMaster()
	m.IsActive = stored.IsActive
	m.CreatedBy = stored.CreatedBy
	m.CreatedAt = stored.CreatedAt
	m.UpdatedAt = r.s.now()
	rows[m.ID] = clone[T, PT](e)
	return nil
}

func (r *masterRepository[T, PT]) SetActive(ctx context.Context, id uint, active bool, actor uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	td, err := r.s.tenant(ctx)
	if err != nil {
		return err
	}
	row, ok := td.masterTable(r.logical)[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	m := row.(PT).GetMaster()
	m.IsActive = active
	m.UpdatedBy = actor
	m.UpdatedAt = r.s.now()
	return nil
}

// product returns the stored product for stock updates. Callers hold s.mu.
func (td *tenantData) product(id uint) *model.Product {
	row, ok := td.masterTable(model.TableProducts)[id]
	if !ok {
		return nil
	}
	return row.(*model.Product)
}
