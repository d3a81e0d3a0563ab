package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"pos-service/internal/model"
	"pos-service/pkg/tenancy"
	"pos-service/prometheus"
)

type progressRepository struct {
	reg *tenancy.Registry
}

func NewProgressRepository(reg *tenancy.Registry) ProgressRepository {
	return &progressRepository{reg: reg}
}

func (r *progressRepository) List(ctx context.Context, q ListQuery) ([]model.ProgressInstance, int64, error) {
	defer prometheus.TrackDBOperation("progress_instances.list")()

	h, err := r.reg.ModelFor(ctx, model.TableProgressInstances)
	if err != nil {
		return nil, 0, err
	}

	db := h.DB(ctx)
	if q.Search != "" {
		db = db.Where("title ILIKE ?", likePattern(q.Search))
	}
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	if db, err = withFilters(db, h, q.Filters); err != nil {
		return nil, 0, err
	}
	db = withDates(db, "started_at", q)

	instances := []model.ProgressInstance{}
	total, err := paginate(db, q, "started_at DESC, id DESC", &instances)
	if err != nil {
		return nil, 0, err
	}
	return instances, total, nil
}

func (r *progressRepository) Get(ctx context.Context, id uint) (*model.ProgressInstance, error) {
	h, err := r.reg.ModelFor(ctx, model.TableProgressInstances)
	if err != nil {
		return nil, err
	}
	eh, err := r.reg.ModelFor(ctx, model.TableProgressEvents)
	if err != nil {
		return nil, err
	}

	var p model.ProgressInstance
	if err := h.DB(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	if err := eh.DB(ctx).Where("instance_id = ?", id).Order("at, id").Find(&p.Events).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *progressRepository) Create(ctx context.Context, p *model.ProgressInstance) error {
	defer prometheus.TrackDBOperation("progress_instances.create")()

	h, err := r.reg.ModelFor(ctx, model.TableProgressInstances)
	if err != nil {
		return err
	}
	return h.DB(ctx).Create(p).Error
}

func (r *progressRepository) Transition(ctx context.Context, id uint, fn ProgressFunc) (*model.ProgressInstance, error) {
	defer prometheus.TrackDBOperation("progress_instances.transition")()

	h, err := r.reg.ModelFor(ctx, model.TableProgressInstances)
	if err != nil {
		return nil, err
	}
	eh, err := r.reg.ModelFor(ctx, model.TableProgressEvents)
	if err != nil {
		return nil, err
	}

	var p model.ProgressInstance
	err = r.reg.Transaction(ctx, func(tx *gorm.DB) error {
		if err := h.On(tx).Clauses(lockForUpdate).Where("id = ?", id).First(&p).Error; err != nil {
			return err
		}
		ev, err := fn(&p)
		if err != nil {
			return err
		}
		err = h.On(tx).Where("id = ?", id).Updates(map[string]interface{}{
			"current_stage": p.CurrentStage,
			"status":        p.Status,
			"completed_at":  p.CompletedAt,
			"updated_at":    time.Now(),
		}).Error
		if err != nil {
			return err
		}
		if err := eh.On(tx).Create(ev).Error; err != nil {
			return err
		}
		return eh.On(tx).Where("instance_id = ?", id).Order("at, id").Find(&p.Events).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}
