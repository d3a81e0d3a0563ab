package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pos-service/internal/apperror"
	"pos-service/internal/model"
	"pos-service/internal/repository"
	"pos-service/pkg/notify"
	"pos-service/pkg/tenancy"
	"pos-service/prometheus"
)

// SalesItemInput is one requested order line
type SalesItemInput struct {
	ProductID          uint  `json:"product_id" validate:"required"`
	Qty                int   `json:"qty" validate:"required,gt=0"`
	TrackProgress      bool  `json:"track_progress"`
	ProgressTemplateID *uint `json:"progress_template_id"`
}

// CreateSalesInput is a new sales order
type CreateSalesInput struct {
	CustomerID    uint             `json:"customer_id" validate:"required"`
	Date          string           `json:"date"`
	Items         []SalesItemInput `json:"items" validate:"required,min=1,dive"`
	Discount      decimal.Decimal  `json:"discount"`
	Paid          decimal.Decimal  `json:"paid"`
	PaymentMethod string           `json:"payment_method"`
	Notes         string           `json:"notes"`
}

// SalesService creates orders and keeps them in step with their receivables
type SalesService struct {
	sales       repository.SalesRepository
	receivables repository.LedgerRepository
	products    repository.MasterRepository[model.Product, *model.Product]
	customers   repository.MasterRepository[model.Customer, *model.Customer]
	templates   repository.MasterRepository[model.ProgressTemplate, *model.ProgressTemplate]
	pricing     *SpecialPriceService
	notifier    Notifier
	logger      *zap.Logger
	now         func() time.Time
}

func NewSalesService(repos *repository.Set, pricing *SpecialPriceService, notifier Notifier, logger *zap.Logger) *SalesService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &SalesService{
		sales:       repos.Sales,
		receivables: repos.Receivables,
		products:    repos.Products,
		customers:   repos.Customers,
		templates:   repos.ProgressTemplates,
		pricing:     pricing,
		notifier:    notifier,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *SalesService) List(ctx context.Context, q repository.ListQuery) ([]model.SalesOrder, repository.Pagination, error) {
	q.Normalize()
	orders, total, err := s.sales.List(ctx, q)
	if err != nil {
		return nil, repository.Pagination{}, err
	}
	return orders, repository.NewPagination(q, total), nil
}

func (s *SalesService) Get(ctx context.Context, id uint) (*model.SalesOrder, error) {
	o, err := s.sales.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "Sales order")
	}
	return o, nil
}

// Create prices the items, stores the order with its receivable and
// progress instances, and notifies the customer.
func (s *SalesService) Create(ctx context.Context, actor uint, in CreateSalesInput) (*model.SalesOrder, error) {
	if len(in.Items) == 0 {
		return nil, apperror.MissingFields("items")
	}
	now := s.now()
	date, err := dateOrToday(in.Date, now)
	if err != nil {
		return nil, err
	}

	customer, err := s.customers.Get(ctx, in.CustomerID)
	if err != nil {
		return nil, notFound(err, "Customer")
	}
	if !customer.IsActive {
		return nil, apperror.InvalidRequest("customer "+customer.Code+" is inactive", "customer_id")
	}

	order := &model.SalesOrder{
		CustomerID: customer.ID,
		Date:       date,
		Discount:   in.Discount,
		Notes:      strings.TrimSpace(in.Notes),
		CreatedBy:  actor,
		UpdatedBy:  actor,
	}
	progress := make(map[int]*model.ProgressInstance)

	subtotal := decimal.Zero
	for i, it := range in.Items {
		if it.Qty <= 0 {
			return nil, apperror.InvalidRequest("qty must be greater than zero", "qty")
		}
		product, err := s.products.Get(ctx, it.ProductID)
		if err != nil {
			return nil, notFound(err, "Product")
		}
		if !product.IsActive {
			return nil, apperror.InvalidRequest("product "+product.Code+" is inactive", "product_id")
		}

		price, special, err := s.pricing.PriceFor(ctx, product, customer)
		if err != nil {
			return nil, err
		}
		line := price.Mul(decimal.NewFromInt(int64(it.Qty)))
		subtotal = subtotal.Add(line)

		order.Items = append(order.Items, &model.SalesOrderItem{
			ProductID:          product.ID,
			Name:               product.Name,
			Qty:                it.Qty,
			UnitPrice:          price,
			Special:            special,
			LineTotal:          line,
			TrackProgress:      it.TrackProgress,
			ProgressTemplateID: it.ProgressTemplateID,
		})

		if it.TrackProgress && it.ProgressTemplateID != nil {
			p, err := s.newProgress(ctx, *it.ProgressTemplateID, product.Name, customer.ID, actor, now)
			if err != nil {
				return nil, err
			}
			progress[i] = p
		}
	}

	if in.Discount.IsNegative() || in.Discount.GreaterThan(subtotal) {
		return nil, apperror.InvalidAmount("discount must be between zero and the subtotal")
	}
	order.Subtotal = subtotal
	order.Total = subtotal.Sub(in.Discount)
	if in.Paid.IsNegative() || in.Paid.GreaterThan(order.Total) {
		return nil, apperror.InvalidAmount("paid must be between zero and the total")
	}
	order.SyncPayment(in.Paid)

	var receivable *model.Ledger
	if order.Balance.IsPositive() {
		receivable = &model.Ledger{
			PartyID:     customer.ID,
			Description: "Sales order",
			Date:        date,
			CreatedBy:   actor,
			UpdatedBy:   actor,
		}
		receivable.Open(order.Total, in.Paid)
	}

	if err := s.sales.Create(ctx, order, receivable, progress); err != nil {
		return nil, err
	}

	s.notify(ctx, customer, order.Number, fmt.Sprintf(
		"Terima kasih, pesanan %s sebesar %s telah kami terima. Dibayar %s, sisa %s.",
		order.Number, FormatRupiah(order.Total), FormatRupiah(order.Paid), FormatRupiah(order.Balance)))

	return order, nil
}

func (s *SalesService) newProgress(ctx context.Context, templateID uint, title string, customerID, actor uint, now time.Time) (*model.ProgressInstance, error) {
	t, err := s.templates.Get(ctx, templateID)
	if err != nil {
		return nil, notFound(err, "Progress template")
	}
	if !t.IsActive {
		return nil, apperror.InvalidRequest("progress template "+t.Code+" is inactive", "progress_template_id")
	}
	return &model.ProgressInstance{
		TemplateID: t.ID,
		CustomerID: &customerID,
		Title:      title,
		Stages:     append([]string(nil), t.Stages...),
		Status:     model.ProgressInProgress,
		StartedAt:  now,
		CreatedBy:  actor,
	}, nil
}

// Pay records a payment against the order's receivable
func (s *SalesService) Pay(ctx context.Context, actor, id uint, in PaymentInput) (*model.SalesOrder, error) {
	if !in.Amount.IsPositive() {
		return nil, apperror.InvalidAmount("amount must be greater than zero")
	}
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.IsActive {
		return nil, apperror.InvalidTransition("sales order " + order.Number + " is void")
	}
	if order.Status == model.StatusClosed {
		return nil, apperror.AlreadyClosed(order.Number)
	}

	receivable, err := s.receivables.FindBySalesOrder(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.AlreadyClosed(order.Number)
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	_, err = s.receivables.Apply(ctx, []uint{receivable.ID}, func(entries []*model.Ledger) ([]*model.LedgerPayment, error) {
		l := entries[0]
		if err := l.ApplyPayment(in.Amount); err != nil {
			return nil, err
		}
		l.UpdatedBy = actor
		return []*model.LedgerPayment{newPayment(l.ID, in.Amount, in.Method, in.Note, actor, now)}, nil
	})
	if err != nil {
		return nil, err
	}
	prometheus.RecordPayment("sales", "single")

	order, err = s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer, err := s.customers.Get(ctx, order.CustomerID); err == nil {
		s.notify(ctx, customer, order.Number, fmt.Sprintf(
			"Pembayaran %s untuk pesanan %s telah diterima. Sisa tagihan %s.",
			FormatRupiah(in.Amount), order.Number, FormatRupiah(order.Balance)))
	}
	return order, nil
}

// Void deactivates an order nothing has been paid on
func (s *SalesService) Void(ctx context.Context, actor, id uint) (*model.SalesOrder, error) {
	order, err := s.sales.Void(ctx, id, actor)
	if err != nil {
		return nil, notFound(err, "Sales order")
	}
	return order, nil
}

func (s *SalesService) notify(ctx context.Context, c *model.Customer, ref, text string) {
	if c.Phone == "" {
		return
	}
	schema, _ := tenancy.SchemaFrom(ctx)
	err := s.notifier.Send(ctx, notify.ForwardFrom(ctx), notify.Message{
		To:     c.Phone,
		Text:   text,
		Tenant: schema,
		Ref:    ref,
	})
	if err != nil {
		s.logger.Warn("Customer notification failed",
			zap.String("ref", ref),
			zap.Uint("customer_id", c.ID),
			zap.Error(err))
	}
}
