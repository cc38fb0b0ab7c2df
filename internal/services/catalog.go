package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/servicehand/internal/models"
)

const (
	homeProviderLimit = 6
	homeCategoryLimit = 8
)

// CatalogService serves the public provider listings.
type CatalogService struct {
	db      *gorm.DB
	company *CompanyService
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(db *gorm.DB, company *CompanyService) *CatalogService {
	return &CatalogService{db: db, company: company}
}

// HomePage is the data shown on the landing page.
type HomePage struct {
	Company   *models.CompanyInfo      `json:"company"`
	Providers []models.ProviderProfile `json:"providers"`
	Services  []models.CategoryCount   `json:"services"`
}

// Home gathers company info, the first providers by name and the most
// common category names.
func (s *CatalogService) Home(ctx context.Context) (*HomePage, error) {
	company, err := s.company.Get(ctx)
	if err != nil {
		return nil, err
	}

	var providers []models.ProviderProfile
	if err := s.withCategories(s.db.WithContext(ctx)).
		Order("name asc").
		Limit(homeProviderLimit).
		Find(&providers).Error; err != nil {
		return nil, err
	}

	var services []models.CategoryCount
	if err := s.db.WithContext(ctx).Model(&models.ServiceCategory{}).
		Select("category_name, COUNT(*) AS count").
		Group("category_name").
		Order("category_name asc").
		Limit(homeCategoryLimit).
		Scan(&services).Error; err != nil {
		return nil, err
	}

	return &HomePage{
		Company:   company,
		Providers: providers,
		Services:  services,
	}, nil
}

// ListProviders returns providers ordered by name, optionally filtered by a
// category name.
func (s *CatalogService) ListProviders(ctx context.Context, category string, offset, limit int) ([]models.ProviderProfile, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.ProviderProfile{})
	if category = strings.TrimSpace(category); category != "" {
		query = query.Where("id IN (?)", s.db.Model(&models.ServiceCategory{}).
			Select("provider_id").
			Where("LOWER(category_name) = ?", strings.ToLower(category)))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var providers []models.ProviderProfile
	if err := s.withCategories(query).
		Order("name asc").
		Limit(limit).
		Offset(offset).
		Find(&providers).Error; err != nil {
		return nil, 0, err
	}
	return providers, total, nil
}

// GetProvider loads a provider with its categories.
func (s *CatalogService) GetProvider(ctx context.Context, id uuid.UUID) (*models.ProviderProfile, error) {
	var provider models.ProviderProfile
	if err := s.withCategories(s.db.WithContext(ctx)).First(&provider, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &provider, nil
}

type CategoryInput struct {
	CategoryName string   `json:"category_name"`
	Description  string   `json:"description"`
	RentValue    *float64 `json:"rent_value"`
	OtherCharges *float64 `json:"other_charges"`
}

// CreateCategory adds a service category to a provider.
func (s *CatalogService) CreateCategory(ctx context.Context, adminID, providerID uuid.UUID, in CategoryInput) (*models.ServiceCategory, error) {
	in.CategoryName = strings.TrimSpace(in.CategoryName)
	if in.CategoryName == "" {
		return nil, invalid("category_name", "Category name is required.")
	}
	if (in.RentValue != nil && *in.RentValue < 0) || (in.OtherCharges != nil && *in.OtherCharges < 0) {
		return nil, invalid("rent_value", "Charges cannot be negative.")
	}

	category := models.ServiceCategory{
		ProviderID:   providerID,
		CategoryName: in.CategoryName,
		Description:  in.Description,
		RentValue:    in.RentValue,
		OtherCharges: in.OtherCharges,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var provider models.ProviderProfile
		if err := tx.Select("id", "name").First(&provider, "id = ?", providerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := tx.Create(&category).Error; err != nil {
			return err
		}
		return recordAudit(tx, adminID, fmt.Sprintf("added category %s to provider %s", category.CategoryName, provider.Name))
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// ListCategories returns every category name with the number of providers
// offering it.
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.CategoryCount, error) {
	var categories []models.CategoryCount
	err := s.db.WithContext(ctx).Model(&models.ServiceCategory{}).
		Select("category_name, COUNT(*) AS count").
		Group("category_name").
		Order("category_name asc").
		Scan(&categories).Error
	return categories, err
}

func (s *CatalogService) withCategories(db *gorm.DB) *gorm.DB {
	return db.Preload("Categories", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at asc, id asc")
	})
}
