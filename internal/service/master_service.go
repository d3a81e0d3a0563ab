package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"pos-service/internal/apperror"
	"pos-service/internal/model"
	"pos-service/internal/repository"
)

// MasterService implements list, get, create, update and (de)activation
// for one kind of master data
type MasterService[T any, PT model.Entity[T]] struct {
	repo     repository.MasterRepository[T, PT]
	resource string
	filters  map[string]bool
}

// NewMasterService creates a service for resource. filters lists the columns
// clients may filter on by exact match.
func NewMasterService[T any, PT model.Entity[T]](repo repository.MasterRepository[T, PT], resource string, filters ...string) *MasterService[T, PT] {
	allowed := make(map[string]bool, len(filters))
	for _, f := range filters {
		allowed[f] = true
	}
	return &MasterService[T, PT]{repo: repo, resource: resource, filters: allowed}
}

// Resource returns the display name used in messages
func (s *MasterService[T, PT]) Resource() string { return s.resource }

// Filters returns the filterable columns
func (s *MasterService[T, PT]) Filters() []string {
	out := make([]string, 0, len(s.filters))
	for f := range s.filters {
		out = append(out, f)
	}
	return out
}

func (s *MasterService[T, PT]) List(ctx context.Context, q repository.ListQuery) ([]T, repository.Pagination, error) {
	q.Normalize()
	for col := range q.Filters {
		if !s.filters[col] {
			return nil, repository.Pagination{}, apperror.InvalidRequest("unsupported filter "+col, col)
		}
	}
	items, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, repository.Pagination{}, err
	}
	return items, repository.NewPagination(q, total), nil
}

// Get returns the record whatever its lifecycle state
func (s *MasterService[T, PT]) Get(ctx context.Context, id uint) (PT, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, s.resource)
	}
	return e, nil
}

func (s *MasterService[T, PT]) Create(ctx context.Context, actor uint, e PT) (PT, error) {
	m := e.GetMaster()
	if err := s.check(e); err != nil {
		return nil, err
	}

	exists, err := s.repo.CodeExists(ctx, m.Code, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.CodeTaken(m.Code)
	}

	m.ID = 0
	m.IsActive = true
	m.CreatedBy = actor
	m.UpdatedBy = actor
	if err := s.repo.Create(ctx, e); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.CodeTaken(m.Code)
		}
		return nil, err
	}
	return e, nil
}

// Update loads the record, lets apply overlay the submitted fields and
// stores the result. Identity, lifecycle and creation audit fields cannot
// be changed through apply.
func (s *MasterService[T, PT]) Update(ctx context.Context, actor, id uint, apply func(PT) error) (PT, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	orig := *e.GetMaster()
	if err := apply(e); err != nil {
		return nil, apperror.InvalidRequest("invalid request body")
	}
	m := e.GetMaster()
	m.ID = orig.ID
	m.IsActive = orig.IsActive
	m.CreatedBy = orig.CreatedBy
	m.CreatedAt = orig.CreatedAt
	m.UpdatedBy = actor

	if err := s.check(e); err != nil {
		return nil, err
	}
	if m.Code != orig.Code {
		exists, err := s.repo.CodeExists(ctx, m.Code, id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, apperror.CodeTaken(m.Code)
		}
	}

	if err := s.repo.Update(ctx, e); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.CodeTaken(m.Code)
		}
		return nil, notFound(err, s.resource)
	}
	return s.Get(ctx, id)
}

// Deactivate marks the record inactive; it stays readable through Get and ScopeAll
func (s *MasterService[T, PT]) Deactivate(ctx context.Context, actor, id uint) (PT, error) {
	return s.setActive(ctx, actor, id, model.Inactive)
}

// Activate restores a deactivated record
func (s *MasterService[T, PT]) Activate(ctx context.Context, actor, id uint) (PT, error) {
	return s.setActive(ctx, actor, id, model.Active)
}

func (s *MasterService[T, PT]) setActive(ctx context.Context, actor, id uint, target model.Lifecycle) (PT, error) {
	if err := s.repo.SetActive(ctx, id, target == model.Active, actor); err != nil {
		return nil, notFound(err, s.resource)
	}
	return s.Get(ctx, id)
}

func (s *MasterService[T, PT]) check(e PT) error {
	m := e.GetMaster()
	m.Code = strings.TrimSpace(m.Code)
	m.Name = strings.TrimSpace(m.Name)

	var missing []string
	if m.Code == "" {
		missing = append(missing, "code")
	}
	if m.Name == "" {
		missing = append(missing, "name")
	}
	if len(missing) > 0 {
		return apperror.MissingFields(missing...)
	}

	if v, ok := any(e).(model.Validatable); ok {
		return v.Validate()
	}
	return nil
}
