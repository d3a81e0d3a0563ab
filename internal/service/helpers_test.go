package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pos-service/internal/model"
	"pos-service/internal/repository"
	"pos-service/internal/repository/memrepo"
	"pos-service/pkg/notify"
	"pos-service/pkg/tenancy"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (n *recordingNotifier) Send(_ context.Context, _ notify.Forward, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) messages() []notify.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Message(nil), n.sent...)
}

type fixture struct {
	ctx      context.Context
	store    *memrepo.Store
	repos    *repository.Set
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := memrepo.New()
	return &fixture{
		ctx:      tenancy.WithSchema(context.Background(), "tenant_a"),
		store:    s,
		repos:    memrepo.NewSet(s),
		notifier: &recordingNotifier{},
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (f *fixture) customer(t *testing.T, code string, categoryID *uint) *model.Customer {
	t.Helper()
	svc := NewMasterService(f.repos.Customers, "Customer")
	c, err := svc.Create(f.ctx, 1, &model.Customer{
		Master:     model.Master{Code: code, Name: "Customer " + code},
		CategoryID: categoryID,
		Phone:      "08123456789",
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) product(t *testing.T, code, price string, stock int) *model.Product {
	t.Helper()
	svc := NewMasterService(f.repos.Products, "Product")
	p, err := svc.Create(f.ctx, 1, &model.Product{
		Master: model.Master{Code: code, Name: "Product " + code},
		Price:  dec(price),
		Stock:  stock,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) template(t *testing.T, code string, stages ...string) *model.ProgressTemplate {
	t.Helper()
	svc := NewMasterService(f.repos.ProgressTemplates, "Progress template")
	tpl, err := svc.Create(f.ctx, 1, &model.ProgressTemplate{
		Master: model.Master{Code: code, Name: "Template " + code},
		Stages: stages,
	})
	require.NoError(t, err)
	return tpl
}

func (f *fixture) sales() *SalesService {
	return NewSalesService(f.repos, NewSpecialPriceService(f.repos), f.notifier, zap.NewNop())
}
