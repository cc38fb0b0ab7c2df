package models

import "github.com/google/uuid"

// ServiceCategory is a service a provider offers, with optional pricing.
type ServiceCategory struct {
	BaseModel
	ProviderID   uuid.UUID `gorm:"type:uuid;index;not null" json:"provider_id"`
	CategoryName string    `gorm:"size:100;index" json:"category_name"`
	Description  string    `gorm:"type:text" json:"description"`
	RentValue    *float64  `json:"rent_value"`
	OtherCharges *float64  `json:"other_charges"`
}

// CategoryCount is a distinct category name and how many providers list it.
type CategoryCount struct {
	CategoryName string `json:"category_name"`
	Count        int64  `json:"count"`
}
