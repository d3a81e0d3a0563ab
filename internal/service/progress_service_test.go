package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pos-service/internal/apperror"
	"pos-service/internal/model"
	"pos-service/internal/repository"
)

func TestProgressAdvanceToCompletion(t *testing.T) {
	f := newFixture(t)
	tpl := f.template(t, "SVC", "Received", "Washing", "Ready")
	svc := NewProgressService(f.repos, f.notifier, zap.NewNop())

	p, err := svc.Create(f.ctx, 1, CreateProgressInput{TemplateID: tpl.ID, Title: "Motor wash"})
	require.NoError(t, err)
	assert.Equal(t, "Received", p.StageName())
	assert.Equal(t, model.ProgressInProgress, p.Status)

	p, err = svc.Advance(f.ctx, 2, p.ID, TransitionInput{Note: "started"})
	require.NoError(t, err)
	assert.Equal(t, "Washing", p.StageName())

	p, err = svc.Advance(f.ctx, 2, p.ID, TransitionInput{})
	require.NoError(t, err)
	assert.Equal(t, "Ready", p.StageName())
	assert.Equal(t, model.ProgressInProgress, p.Status)

	p, err = svc.Advance(f.ctx, 2, p.ID, TransitionInput{})
	require.NoError(t, err)
	assert.Equal(t, model.ProgressCompleted, p.Status)
	assert.NotNil(t, p.CompletedAt)

	_, err = svc.Advance(f.ctx, 2, p.ID, TransitionInput{})
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)

	got, err := svc.Get(f.ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Events, 3)
	assert.Equal(t, "Received", got.Events[0].FromStage)
	assert.Equal(t, "Washing", got.Events[0].ToStage)
	assert.Equal(t, "started", got.Events[0].Note)

	// not linked to a sales order
	assert.Empty(t, f.notifier.messages())
}

func TestProgressCancel(t *testing.T) {
	f := newFixture(t)
	tpl := f.template(t, "SVC", "Received", "Ready")
	svc := NewProgressService(f.repos, f.notifier, zap.NewNop())

	p, err := svc.Create(f.ctx, 1, CreateProgressInput{TemplateID: tpl.ID, Title: "Repair"})
	require.NoError(t, err)

	p, err = svc.Cancel(f.ctx, 1, p.ID, TransitionInput{Note: "customer left"})
	require.NoError(t, err)
	assert.Equal(t, model.ProgressCancelled, p.Status)

	_, err = svc.Advance(f.ctx, 1, p.ID, TransitionInput{})
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
	_, err = svc.Cancel(f.ctx, 1, p.ID, TransitionInput{})
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
}

func TestProgressCreateValidation(t *testing.T) {
	f := newFixture(t)
	svc := NewProgressService(f.repos, nil, zap.NewNop())

	_, err := svc.Create(f.ctx, 1, CreateProgressInput{TemplateID: 5, Title: "x"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	tpl := f.template(t, "SVC", "One")
	_, err = svc.Create(f.ctx, 1, CreateProgressInput{TemplateID: tpl.ID, Title: " "})
	assert.ErrorIs(t, err, apperror.ErrMissingFields)

	_, err = NewMasterService(f.repos.ProgressTemplates, "Progress template").Create(f.ctx, 1, &model.ProgressTemplate{
		Master: model.Master{Code: "EMPTY", Name: "Empty"},
	})
	assert.ErrorIs(t, err, apperror.ErrMissingFields)
}

func TestProgressNotifiesSalesCustomer(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, "C1", nil)
	p := f.product(t, "SVC", "1000", 0)
	tpl := f.template(t, "T", "Received", "Ready")

	order, err := f.sales().Create(f.ctx, 1, CreateSalesInput{
		CustomerID: c.ID,
		Items:      []SalesItemInput{{ProductID: p.ID, Qty: 1, TrackProgress: true, ProgressTemplateID: &tpl.ID}},
		Paid:       dec("1000"),
	})
	require.NoError(t, err)

	svc := NewProgressService(f.repos, f.notifier, zap.NewNop())
	instances, _, err := svc.List(f.ctx, repository.ListQuery{Filters: map[string]string{"sales_order_id": "1"}})
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, order.ID, *instances[0].SalesOrderID)

	_, err = svc.Advance(f.ctx, 1, instances[0].ID, TransitionInput{})
	require.NoError(t, err)

	msgs := f.notifier.messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1].Text, "Ready")
	assert.Equal(t, c.Phone, msgs[1].To)
}
