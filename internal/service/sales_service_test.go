package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-service/internal/apperror"
	"pos-service/internal/model"
	"pos-service/internal/repository"
)

func TestSalesCreateUsesSpecialPrice(t *testing.T) {
	f := newFixture(t)
	cats := NewMasterService(f.repos.CustomerCategories, "Customer category")
	vip, err := cats.Create(f.ctx, 1, &model.CustomerCategory{Master: model.Master{Code: "VIP", Name: "VIP"}})
	require.NoError(t, err)

	c := f.customer(t, "C1", &vip.ID)
	oil := f.product(t, "OIL", "50000", 10)
	filter := f.product(t, "FLT", "25000", 10)

	_, err = NewSpecialPriceService(f.repos).Set(f.ctx, 1, oil.ID, vip.ID, dec("45000"))
	require.NoError(t, err)

	order, err := f.sales().Create(f.ctx, 1, CreateSalesInput{
		CustomerID: c.ID,
		Date:       "2024-03-09",
		Items: []SalesItemInput{
			{ProductID: oil.ID, Qty: 2},
			{ProductID: filter.ID, Qty: 1},
		},
		Discount: dec("5000"),
		Paid:     dec("100000"),
	})
	require.NoError(t, err)

	assert.Equal(t, "SO-20240309-0001", order.Number)
	require.Len(t, order.Items, 2)
	assert.True(t, order.Items[0].Special)
	assert.True(t, order.Items[0].UnitPrice.Equal(dec("45000")))
	assert.False(t, order.Items[1].Special)
	assert.True(t, order.Subtotal.Equal(dec("115000")))
	assert.True(t, order.Total.Equal(dec("110000")))
	assert.True(t, order.Balance.Equal(dec("10000")))
	assert.Equal(t, model.StatusOpen, order.Status)
	assert.Equal(t, model.PaymentDP, order.PaymentStatus)

	stock, err := f.repos.Products.Get(f.ctx, oil.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, stock.Stock)

	receivable, err := f.repos.Receivables.FindBySalesOrder(f.ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, receivable.Total.Equal(dec("110000")))
	assert.True(t, receivable.Balance.Equal(dec("10000")))
	assert.Equal(t, c.ID, receivable.PartyID)

	msgs := f.notifier.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "08123456789", msgs[0].To)
	assert.Equal(t, "tenant_a", msgs[0].Tenant)
	assert.Contains(t, msgs[0].Text, "Rp 110.000")
}

func TestSalesCreatePaidInFullHasNoReceivable(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, "C1", nil)
	p := f.product(t, "OIL", "50000", 1)

	order, err := f.sales().Create(f.ctx, 1, CreateSalesInput{
		CustomerID: c.ID,
		Items:      []SalesItemInput{{ProductID: p.ID, Qty: 3}},
		Paid:       dec("150000"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusClosed, order.Status)
	assert.Equal(t, model.PaymentLunas, order.PaymentStatus)

	_, err = f.repos.Receivables.FindBySalesOrder(f.ctx, order.ID)
	assert.Error(t, err)

	stock, err := f.repos.Products.Get(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, -2, stock.Stock)

	_, err = f.sales().Pay(f.ctx, 1, order.ID, PaymentInput{Amount: dec("1")})
	assert.ErrorIs(t, err, apperror.ErrAlreadyClosed)
}

func TestSalesCreateRejectsBadAmounts(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, "C1", nil)
	p := f.product(t, "OIL", "100", 5)
	items := []SalesItemInput{{ProductID: p.ID, Qty: 1}}

	_, err := f.sales().Create(f.ctx, 1, CreateSalesInput{CustomerID: c.ID, Items: items, Paid: dec("101")})
	assert.ErrorIs(t, err, apperror.ErrInvalidAmount)

	_, err = f.sales().Create(f.ctx, 1, CreateSalesInput{CustomerID: c.ID, Items: items, Paid: dec("-1")})
	assert.ErrorIs(t, err, apperror.ErrInvalidAmount)

	_, err = f.sales().Create(f.ctx, 1, CreateSalesInput{CustomerID: c.ID, Items: items, Discount: dec("150")})
	assert.ErrorIs(t, err, apperror.ErrInvalidAmount)

	_, err = f.sales().Create(f.ctx, 1, CreateSalesInput{CustomerID: 99, Items: items})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	stock, err := f.repos.Products.Get(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stock.Stock)
}

func TestSalesPayKeepsOrderAndReceivableInStep(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, "C1", nil)
	p := f.product(t, "OIL", "1000", 5)
	svc := f.sales()

	order, err := svc.Create(f.ctx, 1, CreateSalesInput{
		CustomerID: c.ID,
		Items:      []SalesItemInput{{ProductID: p.ID, Qty: 1}},
		Paid:       dec("200"),
	})
	require.NoError(t, err)

	_, err = svc.Pay(f.ctx, 1, order.ID, PaymentInput{Amount: dec("900")})
	assert.ErrorIs(t, err, apperror.ErrInvalidAmount)

	order, err = svc.Pay(f.ctx, 1, order.ID, PaymentInput{Amount: dec("300")})
	require.NoError(t, err)
	assert.True(t, order.Paid.Equal(dec("500")))
	assert.True(t, order.Balance.Equal(dec("500")))

	receivable, err := f.repos.Receivables.FindBySalesOrder(f.ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, receivable.Paid.Equal(order.Paid))
	assert.True(t, receivable.Balance.Equal(order.Balance))

	order, err = svc.Pay(f.ctx, 1, order.ID, PaymentInput{Amount: dec("500")})
	require.NoError(t, err)
	assert.Equal(t, model.StatusClosed, order.Status)
	assert.Equal(t, model.PaymentLunas, order.PaymentStatus)

	_, err = svc.Pay(f.ctx, 1, order.ID, PaymentInput{Amount: dec("1")})
	assert.ErrorIs(t, err, apperror.ErrAlreadyClosed)
}

func TestReceivablePaymentPropagatesToOrder(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, "C1", nil)
	p := f.product(t, "OIL", "1000", 5)

	order, err := f.sales().Create(f.ctx, 1, CreateSalesInput{
		CustomerID: c.ID,
		Items:      []SalesItemInput{{ProductID: p.ID, Qty: 1}},
	})
	require.NoError(t, err)
	receivable, err := f.repos.Receivables.FindBySalesOrder(f.ctx, order.ID)
	require.NoError(t, err)

	_, err = NewReceivableService(f.repos).Pay(f.ctx, 1, receivable.ID, PaymentInput{Amount: dec("1000")})
	require.NoError(t, err)

	order, err = f.sales().Get(f.ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusClosed, order.Status)
	assert.True(t, order.Paid.Equal(dec("1000")))
}

func TestSalesVoid(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, "C1", nil)
	p := f.product(t, "OIL", "1000", 5)
	tpl := f.template(t, "SVC", "Received", "Done")
	svc := f.sales()

	order, err := svc.Create(f.ctx, 1, CreateSalesInput{
		CustomerID: c.ID,
		Items:      []SalesItemInput{{ProductID: p.ID, Qty: 2, TrackProgress: true, ProgressTemplateID: &tpl.ID}},
	})
	require.NoError(t, err)

	instances, _, err := NewProgressService(f.repos, nil, nil).List(f.ctx, repository.ListQuery{})
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, order.ID, *instances[0].SalesOrderID)

	voided, err := svc.Void(f.ctx, 2, order.ID)
	require.NoError(t, err)
	assert.False(t, voided.IsActive)

	stock, err := f.repos.Products.Get(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stock.Stock)

	instance, err := f.repos.Progress.Get(f.ctx, instances[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProgressCancelled, instance.Status)

	_, err = svc.Void(f.ctx, 2, order.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)

	_, err = svc.Pay(f.ctx, 1, order.ID, PaymentInput{Amount: dec("1")})
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
}

func TestSalesVoidRejectsPaidOrder(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, "C1", nil)
	p := f.product(t, "OIL", "1000", 5)

	order, err := f.sales().Create(f.ctx, 1, CreateSalesInput{
		CustomerID: c.ID,
		Items:      []SalesItemInput{{ProductID: p.ID, Qty: 1}},
		Paid:       dec("100"),
	})
	require.NoError(t, err)

	_, err = f.sales().Void(f.ctx, 1, order.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
}
