package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusAssigned  BookingStatus = "assigned"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// ErrReferenceImmutable is returned when an update tries to rewrite a booking reference.
var ErrReferenceImmutable = errors.New("booking reference cannot be changed")

// Valid reports whether s is a known status.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusAssigned, BookingStatusCompleted, BookingStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is permitted from s.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

// Booking links an end user to a provider under a unique reference code.
type Booking struct {
	BaseModel
	BookingReference string           `gorm:"size:20;uniqueIndex;not null" json:"booking_reference"`
	UserID           uuid.UUID        `gorm:"type:uuid;index;not null" json:"user_id"`
	User             *Account         `json:"user,omitempty"`
	ProviderID       uuid.UUID        `gorm:"type:uuid;index;not null" json:"provider_id"`
	Provider         *ProviderProfile `json:"provider,omitempty"`
	ServiceName      string           `gorm:"size:150" json:"service_name"`
	BookingDatetime  time.Time        `gorm:"index" json:"booking_datetime"`
	Status           BookingStatus    `gorm:"size:50;default:pending;index" json:"status"`
	FinalAmount      *float64         `json:"final_amount"`
}

// BeforeUpdate rejects changes to the reference once assigned.
func (b *Booking) BeforeUpdate(tx *gorm.DB) error {
	if tx.Statement.Changed("BookingReference") {
		return ErrReferenceImmutable
	}
	return nil
}

// BookingSequence holds the last reference number handed out for a year.
type BookingSequence struct {
	Year      int       `gorm:"primaryKey;autoIncrement:false" json:"year"`
	LastValue int       `gorm:"not null" json:"last_value"`
	UpdatedAt time.Time `json:"updated_at"`
}
