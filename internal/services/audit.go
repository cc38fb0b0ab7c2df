package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/servicehand/internal/models"
)

// AuditService reads and writes the administrative action log.
type AuditService struct {
	db *gorm.DB
}

// NewAuditService constructs an AuditService.
func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// List returns entries newest first with the acting admin preloaded.
func (s *AuditService) List(ctx context.Context, offset, limit int) ([]models.AuditLogEntry, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.AuditLogEntry{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.AuditLogEntry
	if err := query.Preload("Admin").
		Order("timestamp desc").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// recordAudit appends an entry inside tx so it commits together with the
// change it describes.
func recordAudit(tx *gorm.DB, adminID uuid.UUID, action string) error {
	return tx.Create(&models.AuditLogEntry{
		AdminID:   adminID,
		Action:    action,
		Timestamp: time.Now(),
	}).Error
}
