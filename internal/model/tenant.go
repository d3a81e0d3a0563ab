package model

import (
	"time"

	"gorm.io/datatypes"
)

// Tenant is a provisioned customer of the platform. Rows live in the public
// schema; Schema names the postgres schema holding the tenant's data.
type Tenant struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	Name      string         `json:"name" gorm:"type:varchar(255);not null"`
	Schema    string         `json:"schema" gorm:"type:varchar(63);uniqueIndex;not null"`
	Subdomain string         `json:"subdomain" gorm:"type:varchar(63);uniqueIndex;not null"`
	Active    bool           `json:"active" gorm:"not null;default:true"`
	Settings  datatypes.JSON `json:"settings,omitempty" gorm:"type:jsonb"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// User is a login account, shared across tenants
type User struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	Email     string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"type:varchar(255);not null"`
	Name      string    `json:"name" gorm:"type:varchar(255)"`
	Phone     string    `json:"phone" gorm:"type:varchar(50)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserTenant grants a user a role within a tenant
type UserTenant struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	UserID    uint      `json:"user_id" gorm:"uniqueIndex:idx_user_tenant;not null"`
	TenantID  uint      `json:"tenant_id" gorm:"uniqueIndex:idx_user_tenant;not null"`
	Role      string    `json:"role" gorm:"type:varchar(20);not null"`
	IsDefault bool      `json:"is_default"`
	Active    bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Membership is a tenant together with the user's role in it
type Membership struct {
	Tenant    Tenant `json:"tenant"`
	Role      string `json:"role"`
	IsDefault bool   `json:"is_default"`
}
