package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/servicehand/internal/models"
)

const (
	resetTokenLength  = 32
	resetTokenCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	ResetMethodEmail = "email"
)

// GenerateResetToken returns a random 32-character alphanumeric token.
func GenerateResetToken() (string, error) {
	max := big.NewInt(int64(len(resetTokenCharset)))
	buf := make([]byte, resetTokenLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = resetTokenCharset[n.Int64()]
	}
	return string(buf), nil
}

// PasswordResetService issues and redeems single-use reset tokens.
type PasswordResetService struct {
	db     *gorm.DB
	creds  *CredentialStore
	mailer Mailer
	ttl    time.Duration
	now    func() time.Time
}

// NewPasswordResetService constructs a PasswordResetService.
func NewPasswordResetService(db *gorm.DB, creds *CredentialStore, mailer Mailer, ttl time.Duration) *PasswordResetService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &PasswordResetService{
		db:     db,
		creds:  creds,
		mailer: mailer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// ResetRequestResult tells the caller how the reset link was handed out.
// Link is only set when the method has no transport and the link must be
// shown to the requester.
type ResetRequestResult struct {
	Delivered bool   `json:"delivered"`
	Link      string `json:"link,omitempty"`
}

// RequestReset issues a token for the end-user account registered under
// email. Email delivery is best effort and never reported back.
func (s *PasswordResetService) RequestReset(ctx context.Context, email, method string, linkFor func(token string) string) (*ResetRequestResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, invalid("email", "Email is required.")
	}
	if method == "" {
		method = ResetMethodEmail
	}

	var account models.Account
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	record, err := s.IssueToken(ctx, &account.ID, nil)
	if err != nil {
		return nil, err
	}
	link := linkFor(record.Token)

	if method != ResetMethodEmail {
		return &ResetRequestResult{Link: link}, nil
	}

	go func(to, link string) {
		if err := s.mailer.Send(to, "Password Reset", fmt.Sprintf("Your reset link: %s", link)); err != nil {
			log.Printf("[PasswordReset] Failed to send reset email to %s: %v", to, err)
		}
	}(email, link)

	return &ResetRequestResult{Delivered: true}, nil
}

// IssueToken creates a token for exactly one of an account or a provider.
func (s *PasswordResetService) IssueToken(ctx context.Context, accountID, providerID *uuid.UUID) (*models.PasswordResetToken, error) {
	return s.issue(s.db.WithContext(ctx), accountID, providerID)
}

// IssueTokenByAdmin creates a token and records the administrator's action in
// the same transaction.
func (s *PasswordResetService) IssueTokenByAdmin(ctx context.Context, adminID uuid.UUID, accountID, providerID *uuid.UUID) (*models.PasswordResetToken, error) {
	var record *models.PasswordResetToken
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if record, err = s.issue(tx, accountID, providerID); err != nil {
			return err
		}

		target := "provider " + providerID.String()
		if accountID != nil {
			target = "account " + accountID.String()
		}
		return recordAudit(tx, adminID, fmt.Sprintf("issued password reset for %s", target))
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *PasswordResetService) issue(tx *gorm.DB, accountID, providerID *uuid.UUID) (*models.PasswordResetToken, error) {
	if (accountID == nil) == (providerID == nil) {
		return nil, invalid("target", "Exactly one of account or provider must be given.")
	}

	token, err := GenerateResetToken()
	if err != nil {
		return nil, err
	}

	record := models.PasswordResetToken{
		AccountID:  accountID,
		ProviderID: providerID,
		Token:      token,
		Expiry:     s.now().Add(s.ttl),
	}
	if err := tx.Create(&record).Error; err != nil {
		if errors.Is(err, models.ErrResetTargetInvalid) {
			return nil, invalid("target", err.Error())
		}
		return nil, err
	}
	return &record, nil
}

// Lookup returns the token when it exists and has not expired.
func (s *PasswordResetService) Lookup(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	return s.lookup(s.db.WithContext(ctx), token)
}

func (s *PasswordResetService) lookup(tx *gorm.DB, token string) (*models.PasswordResetToken, error) {
	if token == "" {
		return nil, ErrInvalidOrExpired
	}

	var record models.PasswordResetToken
	if err := tx.Where("token = ?", token).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidOrExpired
		}
		return nil, err
	}
	if record.Expired(s.now()) {
		return nil, ErrInvalidOrExpired
	}
	return &record, nil
}

// Redeem sets a new password on the account the token points at and
// deletes the token.
func (s *PasswordResetService) Redeem(ctx context.Context, token, newPassword string) error {
	if newPassword == "" {
		return invalid("password", "Password is required.")
	}

	hash, err := s.creds.HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := s.lookup(tx, token)
		if err != nil {
			return err
		}

		accountID, err := resetTarget(tx, record)
		if err != nil {
			return err
		}

		if err := tx.Model(&models.Account{}).
			Where("id = ?", accountID).
			Update("password_hash", hash).Error; err != nil {
			return err
		}

		res := tx.Delete(&models.PasswordResetToken{}, "id = ?", record.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidOrExpired
		}
		return nil
	})
}

// resetTarget resolves the account whose credential a token overwrites.
func resetTarget(tx *gorm.DB, record *models.PasswordResetToken) (uuid.UUID, error) {
	if record.AccountID != nil {
		return *record.AccountID, nil
	}

	var profile models.ProviderProfile
	if err := tx.Select("id", "account_id").First(&profile, "id = ?", *record.ProviderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, ErrInvalidOrExpired
		}
		return uuid.Nil, err
	}
	return profile.AccountID, nil
}
