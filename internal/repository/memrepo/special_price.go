package memrepo

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"pos-service/internal/model"
	"pos-service/internal/repository"
)

type specialPriceRepository struct {
	s *Store
}

func NewSpecialPriceRepository(s *Store) repository.SpecialPriceRepository {
	return &specialPriceRepository{s: s}
}

func (r *specialPriceRepository) ListByProduct(ctx context.Context, productID uint) ([]model.SpecialPrice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	td, err := r.s.tenant(ctx)
	if err != nil {
		return nil, err
	}
	out := []model.SpecialPrice{}
	for key, sp := range td.special {
		if key[0] == productID {
			out = append(out, *sp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CustomerCategoryID < out[j].CustomerCategoryID })
	return out, nil
}

func (r *specialPriceRepository) Find(ctx context.Context, productID, categoryID uint) (*model.SpecialPrice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	td, err := r.s.tenant(ctx)
	if err != nil {
		return nil, err
	}
	sp, ok := td.special[[2]uint{productID, categoryID}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *sp
	return &c, nil
}

func (r *specialPriceRepository) Upsert(ctx context.Context, sp *model.SpecialPrice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	td, err := r.s.tenant(ctx)
	if err != nil {
		return err
	}
	key := [2]uint{sp.ProductID, sp.CustomerCategoryID}
	now := r.s.now()
	if existing, ok := td.special[key]; ok {
		sp.ID = existing.ID
		sp.CreatedAt = existing.CreatedAt
	} else {
		sp.ID = td.nextID(model.TableSpecialPrices)
		sp.CreatedAt = now
	}
	sp.UpdatedAt = now
	c := *sp
	td.special[key] = &c
	return nil
}

func (r *specialPriceRepository) Delete(ctx context.Context, productID, categoryID uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	td, err := r.s.tenant(ctx)
	if err != nil {
		return err
	}
	key := [2]uint{productID, categoryID}
	if _, ok := td.special[key]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(td.special, key)
	return nil
}
