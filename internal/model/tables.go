package model

import "pos-service/pkg/tenancy"

// Logical table names inside every tenant schema
const (
	TableRegions            = "regions"
	TablePools              = "pools"
	TableLeasings           = "leasings"
	TableDocTypes           = "doc_types"
	TableUpahTarikRates     = "upah_tarik_rates"
	TableProductCategories  = "product_categories"
	TableCustomerCategories = "customer_categories"
	TableProducts           = "products"
	TableSpecialPrices      = "special_prices"
	TableCustomers          = "customers"
	TableSalesOrders        = "sales_orders"
	TableSalesOrderItems    = "sales_order_items"
	TableReceivables        = "receivables"
	TableReceivablePayments = "receivable_payments"
	TablePayables           = "payables"
	TablePayablePayments    = "payable_payments"
	TableExpenses           = "expenses"
	TableProgressTemplates  = "progress_templates"
	TableProgressInstances  = "progress_instances"
	TableProgressEvents     = "progress_events"
)

// RegisterTenantModels registers every tenant-scoped model, in migration order
func RegisterTenantModels(reg *tenancy.Registry) {
	reg.Register(TableRegions, &Region{})
	reg.Register(TablePools, &Pool{})
	reg.Register(TableLeasings, &Leasing{})
	reg.Register(TableDocTypes, &DocType{})
	reg.Register(TableUpahTarikRates, &UpahTarikRate{})
	reg.Register(TableProductCategories, &ProductCategory{})
	reg.Register(TableCustomerCategories, &CustomerCategory{})
	reg.Register(TableProducts, &Product{})
	reg.Register(TableSpecialPrices, &SpecialPrice{})
	reg.Register(TableCustomers, &Customer{})
	reg.Register(TableSalesOrders, &SalesOrder{})
	reg.Register(TableSalesOrderItems, &SalesOrderItem{})
	reg.Register(TableReceivables, &Ledger{})
	reg.Register(TableReceivablePayments, &LedgerPayment{})
	reg.Register(TablePayables, &Ledger{})
	reg.Register(TablePayablePayments, &LedgerPayment{})
	reg.Register(TableExpenses, &Expense{})
	reg.Register(TableProgressTemplates, &ProgressTemplate{})
	reg.Register(TableProgressInstances, &ProgressInstance{})
	reg.Register(TableProgressEvents, &ProgressEvent{})
}

// SharedModels are migrated into the public schema
func SharedModels() []interface{} {
	return []interface{}{&Tenant{}, &User{}, &UserTenant{}}
}
