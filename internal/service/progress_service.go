package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"pos-service/internal/apperror"
	"pos-service/internal/model"
	"pos-service/internal/repository"
	"pos-service/pkg/notify"
	"pos-service/pkg/tenancy"
)

// CreateProgressInput starts tracking an item outside of a sales order
type CreateProgressInput struct {
	TemplateID   uint   `json:"template_id" validate:"required"`
	Title        string `json:"title" validate:"required"`
	SalesOrderID *uint  `json:"sales_order_id"`
	CustomerID   *uint  `json:"customer_id"`
}

// TransitionInput carries the note recorded with a stage change
type TransitionInput struct {
	Note string `json:"note"`
}

// ProgressService runs progress instances through their template stages
type ProgressService struct {
	repo      repository.ProgressRepository
	templates repository.MasterRepository[model.ProgressTemplate, *model.ProgressTemplate]
	customers repository.MasterRepository[model.Customer, *model.Customer]
	sales     repository.SalesRepository
	notifier  Notifier
	logger    *zap.Logger
	now       func() time.Time
}

func NewProgressService(repos *repository.Set, notifier Notifier, logger *zap.Logger) *ProgressService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &ProgressService{
		repo:      repos.Progress,
		templates: repos.ProgressTemplates,
		customers: repos.Customers,
		sales:     repos.Sales,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *ProgressService) List(ctx context.Context, q repository.ListQuery) ([]model.ProgressInstance, repository.Pagination, error) {
	q.Normalize()
	instances, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, repository.Pagination{}, err
	}
	return instances, repository.NewPagination(q, total), nil
}

func (s *ProgressService) Get(ctx context.Context, id uint) (*model.ProgressInstance, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "Progress")
	}
	return p, nil
}

func (s *ProgressService) Create(ctx context.Context, actor uint, in CreateProgressInput) (*model.ProgressInstance, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperror.MissingFields("title")
	}
	t, err := s.templates.Get(ctx, in.TemplateID)
	if err != nil {
		return nil, notFound(err, "Progress template")
	}
	if !t.IsActive {
		return nil, apperror.InvalidRequest("progress template "+t.Code+" is inactive", "template_id")
	}

	p := &model.ProgressInstance{
		TemplateID: t.ID,
		CustomerID: in.CustomerID,
		Title:      title,
		Stages:     append([]string(nil), t.Stages...),
		Status:     model.ProgressInProgress,
		StartedAt:  s.now(),
		CreatedBy:  actor,
	}
	if in.SalesOrderID != nil {
		order, err := s.sales.Get(ctx, *in.SalesOrderID)
		if err != nil {
			return nil, notFound(err, "Sales order")
		}
		p.SalesOrderID = &order.ID
		p.CustomerID = &order.CustomerID
	}
	if p.CustomerID != nil {
		if _, err := s.customers.Get(ctx, *p.CustomerID); err != nil {
			return nil, notFound(err, "Customer")
		}
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Advance moves the instance to its next stage; leaving the last stage completes it
func (s *ProgressService) Advance(ctx context.Context, actor, id uint, in TransitionInput) (*model.ProgressInstance, error) {
	now := s.now()
	p, err := s.repo.Transition(ctx, id, func(p *model.ProgressInstance) (*model.ProgressEvent, error) {
		return p.Advance(actor, strings.TrimSpace(in.Note), now)
	})
	if err != nil {
		return nil, notFound(err, "Progress")
	}

	text := fmt.Sprintf("Progres %s: tahap %s.", p.Title, p.StageName())
	if p.Status == model.ProgressCompleted {
		text = fmt.Sprintf("Progres %s telah selesai.", p.Title)
	}
	s.notify(ctx, p, text)
	return p, nil
}

// Cancel stops the instance
func (s *ProgressService) Cancel(ctx context.Context, actor, id uint, in TransitionInput) (*model.ProgressInstance, error) {
	now := s.now()
	p, err := s.repo.Transition(ctx, id, func(p *model.ProgressInstance) (*model.ProgressEvent, error) {
		return p.Cancel(actor, strings.TrimSpace(in.Note), now)
	})
	if err != nil {
		return nil, notFound(err, "Progress")
	}
	return p, nil
}

// notify messages the customer of instances that belong to a sales order
func (s *ProgressService) notify(ctx context.Context, p *model.ProgressInstance, text string) {
	if p.SalesOrderID == nil || p.CustomerID == nil {
		return
	}
	c, err := s.customers.Get(ctx, *p.CustomerID)
	if err != nil || c.Phone == "" {
		return
	}
	schema, _ := tenancy.SchemaFrom(ctx)
	err = s.notifier.Send(ctx, notify.ForwardFrom(ctx), notify.Message{
		To:     c.Phone,
		Text:   text,
		Tenant: schema,
		Ref:    fmt.Sprintf("progress-%d", p.ID),
	})
	if err != nil {
		s.logger.Warn("Progress notification failed",
			zap.Uint("progress_id", p.ID),
			zap.Error(err))
	}
}
