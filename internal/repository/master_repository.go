package repository

import (
	"context"

	"gorm.io/gorm"

	"pos-service/internal/model"
	"pos-service/pkg/tenancy"
	"pos-service/prometheus"
)

type masterRepository[T any, PT model.Entity[T]] struct {
	reg     *tenancy.Registry
	logical string
}

// NewMasterRepository returns a gorm repository for the master table logical
func NewMasterRepository[T any, PT model.Entity[T]](reg *tenancy.Registry, logical string) MasterRepository[T, PT] {
	return &masterRepository[T, PT]{reg: reg, logical: logical}
}

func (r *masterRepository[T, PT]) List(ctx context.Context, q ListQuery) ([]T, int64, error) {
	defer prometheus.TrackDBOperation(r.logical + ".list")()

	h, err := r.reg.ModelFor(ctx, r.logical)
	if err != nil {
		return nil, 0, err
	}

	db := withScope(h.DB(ctx), q.Scope)
	if q.Search != "" {
		like := likePattern(q.Search)
		db = db.Where("code ILIKE ? OR name ILIKE ?", like, like)
	}
	if db, err = withFilters(db, h, q.Filters); err != nil {
		return nil, 0, err
	}

	items := []T{}
	total, err := paginate(db, q, "code ASC", &items)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *masterRepository[T, PT]) Get(ctx context.Context, id uint) (PT, error) {
	defer prometheus.TrackDBOperation(r.logical + ".get")()

	h, err := r.reg.ModelFor(ctx, r.logical)
	if err != nil {
		return nil, err
	}

	var e T
	if err := h.DB(ctx).Where("id = ?", id).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *masterRepository[T, PT]) CodeExists(ctx context.Context, code string, excludeID uint) (bool, error) {
	h, err := r.reg.ModelFor(ctx, r.logical)
	if err != nil {
		return false, err
	}

	db := h.DB(ctx).Where("code = ?", code)
	if excludeID != 0 {
		db = db.Where("id <> ?", excludeID)
	}
	var count int64
	if err := db.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *masterRepository[T, PT]) Create(ctx context.Context, e PT) error {
	defer prometheus.TrackDBOperation(r.logical + ".create")()

	h, err := r.reg.ModelFor(ctx, r.logical)
	if err != nil {
		return err
	}
	return h.DB(ctx).Create(e).Error
}

func (r *masterRepository[T, PT]) Update(ctx context.Context, e PT) error {
	defer prometheus.TrackDBOperation(r.logical + ".update")()

	h, err := r.reg.ModelFor(ctx, r.logical)
	if err != nil {
		return err
	}
	res := h.DB(ctx).Model(e).
		Select("*").
		Omit("id", "is_active", "created_by", "created_at").
		Updates(e)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *masterRepository[T, PT]) SetActive(ctx context.Context, id uint, active bool, actor uint) error {
	defer prometheus.TrackDBOperation(r.logical + ".set_active")()

	h, err := r.reg.ModelFor(ctx, r.logical)
	if err != nil {
		return err
	}
	res := h.DB(ctx).Where("id = ?", id).Updates(map[string]interface{}{
		"is_active":  active,
		"updated_by": actor,
		"updated_at": gorm.Expr("NOW()"),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
