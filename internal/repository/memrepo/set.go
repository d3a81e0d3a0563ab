package memrepo

import (
	"pos-service/internal/model"
	"pos-service/internal/repository"
)

// NewSet builds every repository on top of s
func NewSet(s *Store) *repository.Set {
	return &repository.Set{
		Regions:            NewMasterRepository[model.Region](s, model.TableRegions),
		Pools:              NewMasterRepository[model.Pool](s, model.TablePools),
		Leasings:           NewMasterRepository[model.Leasing](s, model.TableLeasings),
		DocTypes:           NewMasterRepository[model.DocType](s, model.TableDocTypes),
		UpahTarikRates:     NewMasterRepository[model.UpahTarikRate](s, model.TableUpahTarikRates),
		ProductCategories:  NewMasterRepository[model.ProductCategory](s, model.TableProductCategories),
		CustomerCategories: NewMasterRepository[model.CustomerCategory](s, model.TableCustomerCategories),
		Products:           NewMasterRepository[model.Product](s, model.TableProducts),
		Customers:          NewMasterRepository[model.Customer](s, model.TableCustomers),
		ProgressTemplates:  NewMasterRepository[model.ProgressTemplate](s, model.TableProgressTemplates),

		SpecialPrices: NewSpecialPriceRepository(s),
		Sales:         NewSalesRepository(s),
		Receivables:   NewLedgerRepository(s, repository.Receivables),
		Payables:      NewLedgerRepository(s, repository.Payables),
		Expenses:      NewExpenseRepository(s),
		Progress:      NewProgressRepository(s),

		Tenants: NewTenantRepository(s),
		Users:   NewUserRepository(s),
	}
}
