package models

// CompanyInfo stores business metadata shown on public pages.
// There should be only one row (singleton pattern).
type CompanyInfo struct {
	BaseModel
	CompanyName string `gorm:"size:150" json:"company_name"`
	Owner       string `gorm:"size:150" json:"owner"`
	Email       string `gorm:"size:254" json:"email"`
	Mobile      string `gorm:"size:20" json:"mobile"`
	Address     string `gorm:"type:text" json:"address"`
	SocialLinks string `gorm:"type:text" json:"social_links"`
}
