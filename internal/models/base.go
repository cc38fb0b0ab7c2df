package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel provides shared columns for all tables.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate ensures UUIDs are generated for new records.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Role tags an account with the part it plays in the marketplace.
type Role string

const (
	RoleUser            Role = "user"
	RoleServiceProvider Role = "service_provider"
	RoleAdmin           Role = "admin"
)

// Valid reports whether r belongs to the closed set of roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleServiceProvider, RoleAdmin:
		return true
	}
	return false
}

// DashboardPath is the landing route a principal is redirected to after login.
func (r Role) DashboardPath() string {
	switch r {
	case RoleAdmin:
		return "/admin_dashboard"
	case RoleServiceProvider:
		return "/service_provider_dashboard"
	default:
		return "/user_dashboard"
	}
}
