package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrResetTargetInvalid is returned when a reset token does not point at exactly one owner.
var ErrResetTargetInvalid = errors.New("reset token must reference either an account or a provider")

// PasswordResetToken is a single-use credential for the forgot-password flow.
// Exactly one of AccountID and ProviderID is set.
type PasswordResetToken struct {
	BaseModel
	AccountID  *uuid.UUID       `gorm:"type:uuid;index" json:"account_id"`
	Account    *Account         `json:"-"`
	ProviderID *uuid.UUID       `gorm:"type:uuid;index" json:"provider_id"`
	Provider   *ProviderProfile `json:"-"`
	Token      string           `gorm:"size:200;uniqueIndex" json:"-"`
	Expiry     time.Time        `json:"expiry"`
}

// BeforeCreate assigns the ID and enforces the single-owner invariant.
func (t *PasswordResetToken) BeforeCreate(tx *gorm.DB) error {
	if (t.AccountID == nil) == (t.ProviderID == nil) {
		return ErrResetTargetInvalid
	}
	return t.BaseModel.BeforeCreate(tx)
}

// Expired reports whether the token can no longer be redeemed at now.
func (t *PasswordResetToken) Expired(now time.Time) bool {
	return t.Expiry.Before(now)
}
