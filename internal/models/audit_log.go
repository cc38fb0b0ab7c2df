package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLogEntry records an administrative action. Rows are append-only.
type AuditLogEntry struct {
	BaseModel
	AdminID   uuid.UUID `gorm:"type:uuid;index;not null" json:"admin_id"`
	Admin     *Account  `json:"admin,omitempty"`
	Action    string    `gorm:"type:text" json:"action"`
	Timestamp time.Time `gorm:"index" json:"timestamp"`
}
