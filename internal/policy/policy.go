// Package policy decides which roles may perform which actions on which resources.
package policy

// Roles
const (
	RoleAdmin   = "admin"
	RoleOwner   = "owner"
	RoleManager = "manager"
	RoleUser    = "user"
)

// Action is an operation on a resource
type Action string

const (
	Read       Action = "read"
	Create     Action = "create"
	Update     Action = "update"
	Deactivate Action = "deactivate"
	Pay        Action = "pay"
	Settle     Action = "settle"
	Advance    Action = "advance"
)

// Resource names
const (
	Pools              = "pools"
	Regions            = "regions"
	Leasings           = "leasings"
	DocTypes           = "doc-types"
	UpahTarikRates     = "upah-tarik-rates"
	ProductCategories  = "product-categories"
	CustomerCategories = "customer-categories"
	Products           = "products"
	Customers          = "customers"
	Sales              = "sales"
	Receivables        = "receivables"
	Payables           = "payables"
	Expenses           = "expenses"
	ProgressTemplates  = "progress-templates"
	ProgressInstances  = "progress-instances"
)

var resources = map[string]bool{
	Pools: true, Regions: true, Leasings: true, DocTypes: true, UpahTarikRates: true,
	ProductCategories: true, CustomerCategories: true, Products: true, Customers: true,
	Sales: true, Receivables: true, Payables: true, Expenses: true,
	ProgressTemplates: true, ProgressInstances: true,
}

type grant struct {
	action   Action
	resource string
}

// grants for the user role; everything else is denied
var userGrants = map[grant]bool{
	{Create, Customers}:          true,
	{Update, Customers}:          true,
	{Create, Sales}:              true,
	{Pay, Sales}:                 true,
	{Pay, Receivables}:           true,
	{Create, Expenses}:           true,
	{Create, ProgressInstances}:  true,
	{Advance, ProgressInstances}: true,
}

// manager denials; everything else is allowed
var managerDenials = map[grant]bool{
	{Deactivate, Sales}:    true,
	{Deactivate, Expenses}: true,
}

// Allow reports whether role may perform action on resource.
// Unknown roles, actions and resources are denied.
func Allow(role string, action Action, resource string) bool {
	if !resources[resource] || !validAction(action) {
		return false
	}

	switch role {
	case RoleAdmin, RoleOwner:
		return true
	case RoleManager:
		return !managerDenials[grant{action, resource}]
	case RoleUser:
		if action == Read {
			return resource != Payables
		}
		return userGrants[grant{action, resource}]
	default:
		return false
	}
}

// ValidRole reports whether role is a known role
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleOwner, RoleManager, RoleUser:
		return true
	}
	return false
}

func validAction(a Action) bool {
	switch a {
	case Read, Create, Update, Deactivate, Pay, Settle, Advance:
		return true
	}
	return false
}
