package memrepo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"pos-service/internal/model"
	"pos-service/internal/repository"
)

type progressRepository struct {
	s    *Store
	cols columns
}

func NewProgressRepository(s *Store) repository.ProgressRepository {
	return &progressRepository{s: s, cols: parseColumns(&model.ProgressInstance{})}
}

func cloneProgress(p *model.ProgressInstance) *model.ProgressInstance {
	c := *p
	c.Stages = append([]string(nil), p.Stages...)
	c.Events = nil
	return &c
}

func (r *progressRepository) List(ctx context.Context, q repository.ListQuery) ([]model.ProgressInstance, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	td, err := r.s.tenant(ctx)
	if err != nil {
		return nil, 0, err
	}
	var matched []*model.ProgressInstance
	for _, p := range td.progress {
		if q.Search != "" && !containsFold(p.Title, q.Search) {
			continue
		}
		if q.Status != "" && p.Status != q.Status {
			continue
		}
		if !inDateRange(p.StartedAt, q) {
			continue
		}
		ok, err := r.cols.match(ctx, p, q.Filters)
		if err != nil {
			return nil, 0, err
		}
		if ok {
			matched = append(matched, p)
		}
	}
	sortNewestFirst(matched, func(p *model.ProgressInstance) time.Time { return p.StartedAt }, func(p *model.ProgressInstance) uint { return p.ID })

	out := []model.ProgressInstance{}
	for _, p := range page(matched, q) {
		out = append(out, *cloneProgress(p))
	}
	return out, int64(len(matched)), nil
}

func (r *progressRepository) Get(ctx context.Context, id uint) (*model.ProgressInstance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	td, err := r.s.tenant(ctx)
	if err != nil {
		return nil, err
	}
	p, ok := td.progress[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := cloneProgress(p)
	c.Events = td.progressEvents(id)
	return c, nil
}

func (td *tenantData) progressEvents(instanceID uint) []*model.ProgressEvent {
	events := []*model.ProgressEvent{}
	for _, ev := range td.events {
		if ev.InstanceID == instanceID {
			c := *ev
			events = append(events, &c)
		}
	}
	return events
}

func (r *progressRepository) Create(ctx context.Context, p *model.ProgressInstance) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	td, err := r.s.tenant(ctx)
	if err != nil {
		return err
	}
	r.s.insertProgress(td, p)
	return nil
}

// insertProgress stores p and assigns its id. Callers hold s.mu.
func (s *Store) insertProgress(td *tenantData, p *model.ProgressInstance) {
	now := s.now()
	p.ID = td.nextID(model.TableProgressInstances)
	p.CreatedAt = now
	p.UpdatedAt = now
	td.progress[p.ID] = cloneProgress(p)
}

func (r *progressRepository) Transition(ctx context.Context, id uint, fn repository.ProgressFunc) (*model.ProgressInstance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	td, err := r.s.tenant(ctx)
	if err != nil {
		return nil, err
	}
	stored, ok := td.progress[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	p := cloneProgress(stored)
	ev, err := fn(p)
	if err != nil {
		return nil, err
	}

	p.UpdatedAt = r.s.now()
	td.progress[id] = cloneProgress(p)
	ev.ID = td.nextID(model.TableProgressEvents)
	evc := *ev
	td.events = append(td.events, &evc)

	p.Events = td.progressEvents(id)
	return p, nil
}
