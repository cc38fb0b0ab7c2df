package services

import (
	"context"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/servicehand/internal/database"
	"github.com/example/servicehand/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.OpenSQLite(":memory:", logger.Silent)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newTestCreds() *CredentialStore {
	return NewCredentialStore(bcrypt.MinCost)
}

func registerUser(t *testing.T, accounts *AccountService, email, password string) *models.Account {
	t.Helper()

	account, err := accounts.Register(context.Background(), RegisterInput{
		Name:     "Test User",
		Phone:    "9000000000",
		Email:    email,
		Password: password,
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return account
}

func createProvider(t *testing.T, db *gorm.DB, name string, categories ...string) *models.ProviderProfile {
	t.Helper()

	account := models.Account{Name: name, Phone: "9123456780", Role: models.RoleServiceProvider}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("create provider account: %v", err)
	}
	profile := models.ProviderProfile{AccountID: account.ID, Name: name, Phone: account.Phone}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("create provider profile: %v", err)
	}
	for _, category := range categories {
		if err := db.Create(&models.ServiceCategory{ProviderID: profile.ID, CategoryName: category}).Error; err != nil {
			t.Fatalf("create category: %v", err)
		}
	}
	return &profile
}

type sentMail struct {
	To, Subject, Body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent chan sentMail
	err  error
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{sent: make(chan sentMail, 8)}
}

func (m *fakeMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent <- sentMail{To: to, Subject: subject, Body: body}
	return m.err
}
