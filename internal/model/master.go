package model

import (
	"time"

	"github.com/shopspring/decimal"

	"pos-service/internal/apperror"
)

func init() {
	// money is sent as JSON numbers, not strings
	decimal.MarshalJSONWithoutQuotes = true
}

// Lifecycle is the soft-delete state of a record
type Lifecycle string

const (
	Active   Lifecycle = "active"
	Inactive Lifecycle = "inactive"
)

// Scope selects which lifecycle states a query returns
type Scope int

const (
	// ScopeActive returns active records only
	ScopeActive Scope = iota
	// ScopeAll returns active and inactive records
	ScopeAll
)

// ParseScope maps the "scope" query parameter; anything but "all" is ScopeActive
func ParseScope(s string) Scope {
	if s == "all" {
		return ScopeAll
	}
	return ScopeActive
}

// Master holds the columns shared by every master data table
type Master struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	Code      string    `json:"code" gorm:"type:varchar(50);uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	IsActive  bool      `json:"is_active" gorm:"not null;default:true;index"`
	CreatedBy uint      `json:"created_by"`
	UpdatedBy uint      `json:"updated_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *Master) GetMaster() *Master { return m }

// Lifecycle returns the soft-delete state of the record
func (m *Master) Lifecycle() Lifecycle {
	if m.IsActive {
		return Active
	}
	return Inactive
}

// Entity is implemented by pointers to master data structs
type Entity[T any] interface {
	*T
	GetMaster() *Master
}

// Validatable is implemented by entities with rules beyond code and name
type Validatable interface {
	Validate() error
}

// Region is a sales area
type Region struct {
	Master
	Description string `json:"description" gorm:"type:text"`
}

// Pool is a vehicle pool located in a region
type Pool struct {
	Master
	RegionID *uint  `json:"region_id" gorm:"index"`
	Address  string `json:"address" gorm:"type:text"`
	Phone    string `json:"phone" gorm:"type:varchar(50)"`
	PIC      string `json:"pic" gorm:"column:pic;type:varchar(255)"`
}

// Leasing is a financing company
type Leasing struct {
	Master
	ContactPerson string `json:"contact_person" gorm:"type:varchar(255)"`
	Phone         string `json:"phone" gorm:"type:varchar(50)"`
	Address       string `json:"address" gorm:"type:text"`
}

// DocType is a kind of supporting document
type DocType struct {
	Master
	Description    string `json:"description" gorm:"type:text"`
	RequiresNumber bool   `json:"requires_number"`
}

// UpahTarikRate is the towing fee paid for a vehicle type in a region for a leasing company
type UpahTarikRate struct {
	Master
	RegionID    *uint           `json:"region_id" gorm:"index"`
	LeasingID   *uint           `json:"leasing_id" gorm:"index"`
	VehicleType string          `json:"vehicle_type" gorm:"type:varchar(100)"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:numeric(18,2);not null;default:0"`
}

func (r *UpahTarikRate) Validate() error {
	if r.Amount.IsNegative() {
		return apperror.InvalidRequest("amount must not be negative", "amount")
	}
	return nil
}

type ProductCategory struct {
	Master
	Description string `json:"description" gorm:"type:text"`
}

type CustomerCategory struct {
	Master
	Description string `json:"description" gorm:"type:text"`
}
