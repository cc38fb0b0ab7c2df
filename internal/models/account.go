package models

import (
	"github.com/google/uuid"
)

// Account represents anyone who can sign in: end users, providers and admins.
// Provider accounts created by an administrator are identified by phone and
// may have no email.
type Account struct {
	BaseModel
	Name         string           `gorm:"size:150" json:"name"`
	Phone        string           `gorm:"size:20;index" json:"phone"`
	Email        *string          `gorm:"size:254;uniqueIndex" json:"email"`
	Address      string           `gorm:"size:200" json:"address"`
	Role         Role             `gorm:"size:50;default:user;index" json:"role"`
	PasswordHash string           `json:"-"`
	Provider     *ProviderProfile `gorm:"foreignKey:AccountID" json:"provider,omitempty"`
}

// EmailValue returns the email or an empty string.
func (a *Account) EmailValue() string {
	if a.Email == nil {
		return ""
	}
	return *a.Email
}

// ProviderProfile extends an Account with the data a service provider
// publishes. There is at most one profile per account.
type ProviderProfile struct {
	BaseModel
	AccountID  uuid.UUID         `gorm:"type:uuid;uniqueIndex;not null" json:"account_id"`
	Account    *Account          `json:"-"`
	Name       string            `gorm:"size:150;index" json:"name"`
	Phone      string            `gorm:"size:20" json:"phone"`
	Location   string            `gorm:"size:200" json:"location"`
	Categories []ServiceCategory `gorm:"foreignKey:ProviderID;constraint:OnDelete:CASCADE" json:"categories,omitempty"`
}
