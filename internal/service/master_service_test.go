package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-service/internal/apperror"
	"pos-service/internal/model"
	"pos-service/internal/repository"
	"pos-service/pkg/tenancy"
)

func TestMasterServiceCreateAndDuplicateCode(t *testing.T) {
	f := newFixture(t)
	svc := NewMasterService(f.repos.Regions, "Region")

	r, err := svc.Create(f.ctx, 7, &model.Region{Master: model.Master{Code: " R01 ", Name: "Jakarta"}})
	require.NoError(t, err)
	assert.NotZero(t, r.ID)
	assert.Equal(t, "R01", r.Code)
	assert.True(t, r.IsActive)
	assert.Equal(t, uint(7), r.CreatedBy)

	_, err = svc.Create(f.ctx, 7, &model.Region{Master: model.Master{Code: "R01", Name: "Other"}})
	assert.ErrorIs(t, err, apperror.ErrCodeExists)

	other := tenancy.WithSchema(context.Background(), "tenant_b")
	_, err = svc.Create(other, 7, &model.Region{Master: model.Master{Code: "R01", Name: "Jakarta"}})
	assert.NoError(t, err)
}

func TestMasterServiceMissingFields(t *testing.T) {
	f := newFixture(t)
	svc := NewMasterService(f.repos.Regions, "Region")

	_, err := svc.Create(f.ctx, 1, &model.Region{Master: model.Master{Code: "  "}})
	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeMissingRequiredFields, appErr.Code)
	assert.Equal(t, []string{"code", "name"}, appErr.Fields)
}

func TestMasterServiceValidatesEntityRules(t *testing.T) {
	f := newFixture(t)
	svc := NewMasterService(f.repos.Products, "Product")

	_, err := svc.Create(f.ctx, 1, &model.Product{
		Master: model.Master{Code: "P1", Name: "Oil"},
		Price:  dec("-1"),
	})
	assert.ErrorIs(t, err, apperror.ErrInvalidRequest)
}

func TestMasterServiceUpdateKeepsLifecycle(t *testing.T) {
	f := newFixture(t)
	svc := NewMasterService(f.repos.Regions, "Region")
	r, err := svc.Create(f.ctx, 1, &model.Region{Master: model.Master{Code: "R01", Name: "Jakarta"}})
	require.NoError(t, err)
	_, err = svc.Create(f.ctx, 1, &model.Region{Master: model.Master{Code: "R02", Name: "Bandung"}})
	require.NoError(t, err)

	updated, err := svc.Update(f.ctx, 2, r.ID, func(e *model.Region) error {
		e.Name = "Jakarta Raya"
		e.IsActive = false
		e.CreatedBy = 99
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Jakarta Raya", updated.Name)
	assert.True(t, updated.IsActive)
	assert.Equal(t, uint(1), updated.CreatedBy)
	assert.Equal(t, uint(2), updated.UpdatedBy)

	_, err = svc.Update(f.ctx, 2, r.ID, func(e *model.Region) error {
		e.Code = "R02"
		return nil
	})
	assert.ErrorIs(t, err, apperror.ErrCodeExists)

	_, err = svc.Update(f.ctx, 2, 404, func(*model.Region) error { return nil })
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestMasterServiceDeactivateAndScope(t *testing.T) {
	f := newFixture(t)
	svc := NewMasterService(f.repos.Regions, "Region")
	r, err := svc.Create(f.ctx, 1, &model.Region{Master: model.Master{Code: "R01", Name: "Jakarta"}})
	require.NoError(t, err)

	deactivated, err := svc.Deactivate(f.ctx, 3, r.ID)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)
	assert.Equal(t, model.Inactive, deactivated.Lifecycle())

	items, page, err := svc.List(f.ctx, repository.ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, int64(0), page.Total)

	items, _, err = svc.List(f.ctx, repository.ListQuery{Scope: model.ScopeAll})
	require.NoError(t, err)
	require.Len(t, items, 1)

	restored, err := svc.Activate(f.ctx, 3, r.ID)
	require.NoError(t, err)
	assert.True(t, restored.IsActive)
	assert.Equal(t, model.Active, restored.Lifecycle())
}

func TestMasterServiceListPagination(t *testing.T) {
	f := newFixture(t)
	svc := NewMasterService(f.repos.Regions, "Region")
	for _, code := range []string{"R01", "R02", "R03", "R04", "R05"} {
		_, err := svc.Create(f.ctx, 1, &model.Region{Master: model.Master{Code: code, Name: "Region " + code}})
		require.NoError(t, err)
	}

	items, page, err := svc.List(f.ctx, repository.ListQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, repository.Pagination{Page: 2, Limit: 2, Total: 5, Pages: 3}, page)

	items, _, err = svc.List(f.ctx, repository.ListQuery{Search: "r03"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "R03", items[0].Code)
}

func TestMasterServiceFilters(t *testing.T) {
	f := newFixture(t)
	svc := NewMasterService(f.repos.Pools, "Pool", "region_id")
	region := uint(4)
	_, err := svc.Create(f.ctx, 1, &model.Pool{Master: model.Master{Code: "P1", Name: "North"}, RegionID: &region})
	require.NoError(t, err)
	_, err = svc.Create(f.ctx, 1, &model.Pool{Master: model.Master{Code: "P2", Name: "South"}})
	require.NoError(t, err)

	items, _, err := svc.List(f.ctx, repository.ListQuery{Filters: map[string]string{"region_id": "4"}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "P1", items[0].Code)

	_, _, err = svc.List(f.ctx, repository.ListQuery{Filters: map[string]string{"phone": "x"}})
	assert.ErrorIs(t, err, apperror.ErrInvalidRequest)
}

func TestMasterServiceTenantIsolation(t *testing.T) {
	f := newFixture(t)
	svc := NewMasterService(f.repos.Regions, "Region")
	r, err := svc.Create(f.ctx, 1, &model.Region{Master: model.Master{Code: "R01", Name: "Jakarta"}})
	require.NoError(t, err)

	other := tenancy.WithSchema(context.Background(), "tenant_b")
	_, err = svc.Get(other, r.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.Get(context.Background(), r.ID)
	assert.Equal(t, apperror.CodeTenantRequired, apperror.From(err).Code)
}
