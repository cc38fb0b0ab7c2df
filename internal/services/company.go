package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/servicehand/internal/models"
)

const (
	defaultCompanyName = "Arrival Unscripted"
	defaultOwner       = "Toshendra Kumar"
	defaultEmail       = "servicehand1710@gmail.com"
	defaultMobile      = "Editable Mobile"
	defaultAddress     = "Cyber Zone CSC, Janjgir Road Pamgarh, Janjgir-Champa (CG) - 495554"
)

// CompanyService manages the singleton company info row.
type CompanyService struct {
	db *gorm.DB
}

// NewCompanyService constructs a CompanyService.
func NewCompanyService(db *gorm.DB) *CompanyService {
	return &CompanyService{db: db}
}

// Get returns the company info, creating it with defaults on first access.
func (s *CompanyService) Get(ctx context.Context) (*models.CompanyInfo, error) {
	var info models.CompanyInfo
	err := s.db.WithContext(ctx).Order("created_at asc").First(&info).Error
	if err == nil {
		return &info, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	info = models.CompanyInfo{
		CompanyName: defaultCompanyName,
		Owner:       defaultOwner,
		Email:       defaultEmail,
		Mobile:      defaultMobile,
		Address:     defaultAddress,
	}
	if err := s.db.WithContext(ctx).Create(&info).Error; err != nil {
		return nil, err
	}
	return &info, nil
}

type CompanyInput struct {
	CompanyName string `json:"company_name"`
	Owner       string `json:"owner"`
	Email       string `json:"email"`
	Mobile      string `json:"mobile"`
	Address     string `json:"address"`
	SocialLinks string `json:"social_links"`
}

// Update overwrites the company info and records the change.
func (s *CompanyService) Update(ctx context.Context, adminID uuid.UUID, in CompanyInput) (*models.CompanyInfo, error) {
	if strings.TrimSpace(in.CompanyName) == "" {
		return nil, invalid("company_name", "Company name is required.")
	}
	if strings.TrimSpace(in.Email) != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			return nil, invalid("email", "Invalid email format.")
		}
	}

	existing, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	existing.CompanyName = in.CompanyName
	existing.Owner = in.Owner
	existing.Email = in.Email
	existing.Mobile = in.Mobile
	existing.Address = in.Address
	existing.SocialLinks = in.SocialLinks

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(existing).Error; err != nil {
			return err
		}
		return recordAudit(tx, adminID, "updated company info")
	})
	if err != nil {
		return nil, err
	}
	return existing, nil
}
