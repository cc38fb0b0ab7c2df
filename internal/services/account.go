package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/servicehand/internal/models"
)

// AccountService manages registration, login and profile changes.
type AccountService struct {
	db    *gorm.DB
	creds *CredentialStore
}

// NewAccountService constructs an AccountService.
func NewAccountService(db *gorm.DB, creds *CredentialStore) *AccountService {
	return &AccountService{db: db, creds: creds}
}

type RegisterInput struct {
	Name     string
	Phone    string
	Email    string
	Password string
	Address  string
	Role     models.Role
}

// Register creates an account. Service providers also get their provider
// profile in the same transaction.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.Account, error) {
	in.Email = strings.TrimSpace(in.Email)
	if in.Role == "" {
		in.Role = models.RoleUser
	}
	if in.Role != models.RoleUser && in.Role != models.RoleServiceProvider {
		return nil, invalid("role", "Role not allowed for registration.")
	}
	if !IsAllowedDomain(in.Email) {
		return nil, invalid("email", "Email domain not allowed for registration.")
	}
	if in.Password == "" {
		return nil, invalid("password", "Password is required.")
	}

	taken, err := s.emailTaken(ctx, in.Email, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, invalid("email", "Email already exists.")
	}

	hash, err := s.creds.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	email := in.Email
	account := models.Account{
		Name:         in.Name,
		Phone:        in.Phone,
		Email:        &email,
		Address:      in.Address,
		Role:         in.Role,
		PasswordHash: hash,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&account).Error; err != nil {
			return err
		}
		if account.Role != models.RoleServiceProvider {
			return nil
		}
		profile := models.ProviderProfile{
			AccountID: account.ID,
			Name:      account.Name,
			Phone:     account.Phone,
		}
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}
		account.Provider = &profile
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, invalid("email", "Email already exists.")
	}
	if err != nil {
		return nil, err
	}

	return &account, nil
}

// Authenticate returns the account matching email and password.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).Where("email = ?", strings.TrimSpace(email)).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.creds.VerifyPassword(password, account.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return &account, nil
}

// Get loads an account together with its provider profile, if any.
func (s *AccountService) Get(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).Preload("Provider").First(&account, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// CurrentRole reads the role stored on the account right now.
func (s *AccountService) CurrentRole(ctx context.Context, id uuid.UUID) (models.Role, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).Select("id", "role").First(&account, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return account.Role, nil
}

type ProfileInput struct {
	Name    string
	Phone   string
	Email   string
	Address string
}

// UpdateProfile overwrites the editable profile fields of an account.
func (s *AccountService) UpdateProfile(ctx context.Context, id uuid.UUID, in ProfileInput) (*models.Account, error) {
	in.Email = strings.TrimSpace(in.Email)
	if strings.TrimSpace(in.Name) == "" {
		return nil, invalid("name", "Name is required.")
	}
	if !IsAllowedDomain(in.Email) {
		return nil, invalid("email", "Email domain not allowed.")
	}

	taken, err := s.emailTaken(ctx, in.Email, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, invalid("email", "Email already exists.")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Account{}).Where("id = ?", id).Updates(map[string]any{
			"name":    in.Name,
			"phone":   in.Phone,
			"email":   in.Email,
			"address": in.Address,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Model(&models.ProviderProfile{}).Where("account_id = ?", id).Updates(map[string]any{
			"name":  in.Name,
			"phone": in.Phone,
		}).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, invalid("email", "Email already exists.")
	}
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, id)
}

type ChangePasswordInput struct {
	OldPassword     string
	NewPassword     string
	ConfirmPassword string
}

// ChangePassword replaces the password after checking the current one.
func (s *AccountService) ChangePassword(ctx context.Context, id uuid.UUID, in ChangePasswordInput) error {
	if in.OldPassword == "" || in.NewPassword == "" || in.ConfirmPassword == "" {
		return invalid("password", "All password fields are required.")
	}
	if utf8.RuneCountInString(in.NewPassword) < MinPasswordLength {
		return invalid("new_password", fmt.Sprintf("New password must be at least %d characters.", MinPasswordLength))
	}
	if in.NewPassword != in.ConfirmPassword {
		return invalid("confirm_password", "New password and confirm do not match.")
	}

	account, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !s.creds.VerifyPassword(in.OldPassword, account.PasswordHash) {
		return invalid("old_password", "Current password is incorrect.")
	}
	if s.creds.VerifyPassword(in.NewPassword, account.PasswordHash) {
		return invalid("new_password", "New password must be different from current.")
	}

	hash, err := s.creds.HashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", id).
		Update("password_hash", hash).Error
}

// EnsureAdmin creates the bootstrap administrator unless an account with the
// same email already exists. The domain allow-list does not apply here.
func (s *AccountService) EnsureAdmin(ctx context.Context, name, phone, email, password string) (*models.Account, bool, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, false, invalid("email", "Admin email and password are required.")
	}

	var existing models.Account
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	hash, err := s.creds.HashPassword(password)
	if err != nil {
		return nil, false, err
	}
	admin := models.Account{
		Name:         name,
		Phone:        phone,
		Email:        &email,
		Role:         models.RoleAdmin,
		PasswordHash: hash,
	}
	if err := s.db.WithContext(ctx).Create(&admin).Error; err != nil {
		return nil, false, err
	}
	return &admin, true, nil
}

type ProviderInput struct {
	Name     string
	Phone    string
	Location string
	Password string
}

// CreateProvider adds a phone-identified provider account on behalf of an
// administrator.
func (s *AccountService) CreateProvider(ctx context.Context, adminID uuid.UUID, in ProviderInput) (*models.ProviderProfile, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Phone) == "" {
		return nil, invalid("phone", "Provider name and phone are required.")
	}

	var hash string
	if in.Password != "" {
		var err error
		if hash, err = s.creds.HashPassword(in.Password); err != nil {
			return nil, err
		}
	}

	profile := models.ProviderProfile{
		Name:     in.Name,
		Phone:    in.Phone,
		Location: in.Location,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account := models.Account{
			Name:         in.Name,
			Phone:        in.Phone,
			Address:      in.Location,
			Role:         models.RoleServiceProvider,
			PasswordHash: hash,
		}
		if err := tx.Create(&account).Error; err != nil {
			return err
		}
		profile.AccountID = account.ID
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}
		return recordAudit(tx, adminID, fmt.Sprintf("created provider %s (%s)", profile.Name, profile.Phone))
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

type AccountFilter struct {
	Role   models.Role
	Search string
}

// List returns accounts for the admin listing, newest first.
func (s *AccountService) List(ctx context.Context, f AccountFilter, offset, limit int) ([]models.Account, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Account{})
	if f.Role != "" {
		query = query.Where("role = ?", f.Role)
	}
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var accounts []models.Account
	if err := query.Order("created_at desc").Limit(limit).Offset(offset).Find(&accounts).Error; err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

func (s *AccountService) emailTaken(ctx context.Context, email string, except uuid.UUID) (bool, error) {
	query := s.db.WithContext(ctx).Model(&models.Account{}).Where("email = ?", email)
	if except != uuid.Nil {
		query = query.Where("id <> ?", except)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountByRole returns the number of accounts holding each role.
func (s *AccountService) CountByRole(ctx context.Context) (map[models.Role]int64, error) {
	var rows []struct {
		Role  models.Role
		Count int64
	}
	if err := s.db.WithContext(ctx).Model(&models.Account{}).
		Select("role, COUNT(*) AS count").
		Group("role").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := map[models.Role]int64{
		models.RoleUser:            0,
		models.RoleServiceProvider: 0,
		models.RoleAdmin:           0,
	}
	for _, row := range rows {
		counts[row.Role] = row.Count
	}
	return counts, nil
}
