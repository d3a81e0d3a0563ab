package repository

import (
	"gorm.io/gorm"

	"pos-service/internal/model"
	"pos-service/pkg/tenancy"
)

// Set bundles every repository the services depend on
type Set struct {
	Regions            MasterRepository[model.Region, *model.Region]
	Pools              MasterRepository[model.Pool, *model.Pool]
	Leasings           MasterRepository[model.Leasing, *model.Leasing]
	DocTypes           MasterRepository[model.DocType, *model.DocType]
	UpahTarikRates     MasterRepository[model.UpahTarikRate, *model.UpahTarikRate]
	ProductCategories  MasterRepository[model.ProductCategory, *model.ProductCategory]
	CustomerCategories MasterRepository[model.CustomerCategory, *model.CustomerCategory]
	Products           MasterRepository[model.Product, *model.Product]
	Customers          MasterRepository[model.Customer, *model.Customer]
	ProgressTemplates  MasterRepository[model.ProgressTemplate, *model.ProgressTemplate]

	SpecialPrices SpecialPriceRepository
	Sales         SalesRepository
	Receivables   LedgerRepository
	Payables      LedgerRepository
	Expenses      ExpenseRepository
	Progress      ProgressRepository

	Tenants TenantRepository
	Users   UserRepository
}

// NewGormSet builds the postgres-backed repositories
func NewGormSet(db *gorm.DB, reg *tenancy.Registry) *Set {
	return &Set{
		Regions:            NewMasterRepository[model.Region](reg, model.TableRegions),
		Pools:              NewMasterRepository[model.Pool](reg, model.TablePools),
		Leasings:           NewMasterRepository[model.Leasing](reg, model.TableLeasings),
		DocTypes:           NewMasterRepository[model.DocType](reg, model.TableDocTypes),
		UpahTarikRates:     NewMasterRepository[model.UpahTarikRate](reg, model.TableUpahTarikRates),
		ProductCategories:  NewMasterRepository[model.ProductCategory](reg, model.TableProductCategories),
		CustomerCategories: NewMasterRepository[model.CustomerCategory](reg, model.TableCustomerCategories),
		Products:           NewMasterRepository[model.Product](reg, model.TableProducts),
		Customers:          NewMasterRepository[model.Customer](reg, model.TableCustomers),
		ProgressTemplates:  NewMasterRepository[model.ProgressTemplate](reg, model.TableProgressTemplates),

		SpecialPrices: NewSpecialPriceRepository(reg),
		Sales:         NewSalesRepository(reg),
		Receivables:   NewLedgerRepository(reg, Receivables),
		Payables:      NewLedgerRepository(reg, Payables),
		Expenses:      NewExpenseRepository(reg),
		Progress:      NewProgressRepository(reg),

		Tenants: NewTenantRepository(db),
		Users:   NewUserRepository(db),
	}
}
