package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/example/servicehand/internal/models"
)

var resetTokenPattern = regexp.MustCompile(`^[A-Za-z0-9]{32}$`)

func linkFor(token string) string {
	return "http://localhost:8080/reset_password/" + token
}

func TestGenerateResetToken(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		token, err := GenerateResetToken()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if !resetTokenPattern.MatchString(token) {
			t.Fatalf("token %q does not match [A-Za-z0-9]{32}", token)
		}
		if seen[token] {
			t.Fatalf("duplicate token %q", token)
		}
		seen[token] = true
	}
}

func TestPasswordResetScenario(t *testing.T) {
	db := newTestDB(t)
	creds := newTestCreds()
	accounts := NewAccountService(db, creds)
	mailer := newFakeMailer()
	resets := NewPasswordResetService(db, creds, mailer, time.Hour)
	ctx := context.Background()

	registerUser(t, accounts, "a@gmail.com", "pw1")

	result, err := resets.RequestReset(ctx, "a@gmail.com", "email", linkFor)
	if err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if !result.Delivered || result.Link != "" {
		t.Fatalf("email method must not expose the link: %+v", result)
	}

	var mail sentMail
	select {
	case mail = <-mailer.sent:
	case <-time.After(2 * time.Second):
		t.Fatal("reset email was not sent")
	}
	if mail.To != "a@gmail.com" || mail.Subject != "Password Reset" {
		t.Fatalf("unexpected mail: %+v", mail)
	}
	token := mail.Body[strings.LastIndex(mail.Body, "/")+1:]
	if !resetTokenPattern.MatchString(token) {
		t.Fatalf("mail body does not carry a token: %q", mail.Body)
	}

	if _, err := resets.Lookup(ctx, token); err != nil {
		t.Fatalf("lookup valid token: %v", err)
	}

	if err := resets.Redeem(ctx, token, "pw2"); err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if _, err := accounts.Authenticate(ctx, "a@gmail.com", "pw2"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, err := accounts.Authenticate(ctx, "a@gmail.com", "pw1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password still accepted: %v", err)
	}

	if err := resets.Redeem(ctx, token, "pw3"); !errors.Is(err, ErrInvalidOrExpired) {
		t.Fatalf("second redeem: got %v, want ErrInvalidOrExpired", err)
	}
}

func TestRequestResetNonEmailMethodReturnsLink(t *testing.T) {
	db := newTestDB(t)
	creds := newTestCreds()
	accounts := NewAccountService(db, creds)
	mailer := newFakeMailer()
	resets := NewPasswordResetService(db, creds, mailer, time.Hour)
	ctx := context.Background()

	registerUser(t, accounts, "a@gmail.com", "pw1")

	result, err := resets.RequestReset(ctx, "a@gmail.com", "whatsapp", linkFor)
	if err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if result.Delivered || !strings.HasPrefix(result.Link, "http://localhost:8080/reset_password/") {
		t.Fatalf("unexpected result: %+v", result)
	}
	select {
	case m := <-mailer.sent:
		t.Fatalf("no mail expected, got %+v", m)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRequestResetUnknownEmail(t *testing.T) {
	db := newTestDB(t)
	creds := newTestCreds()
	resets := NewPasswordResetService(db, creds, newFakeMailer(), time.Hour)

	if _, err := resets.RequestReset(context.Background(), "ghost@gmail.com", "email", linkFor); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestRedeemExpiredToken(t *testing.T) {
	db := newTestDB(t)
	creds := newTestCreds()
	accounts := NewAccountService(db, creds)
	resets := NewPasswordResetService(db, creds, newFakeMailer(), time.Hour)
	ctx := context.Background()

	account := registerUser(t, accounts, "a@gmail.com", "pw1")

	issuedAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	resets.now = func() time.Time { return issuedAt }
	record, err := resets.IssueToken(ctx, &account.ID, nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	resets.now = func() time.Time { return issuedAt.Add(59 * time.Minute) }
	if _, err := resets.Lookup(ctx, record.Token); err != nil {
		t.Fatalf("token should still be valid: %v", err)
	}

	resets.now = func() time.Time { return issuedAt.Add(61 * time.Minute) }
	if _, err := resets.Lookup(ctx, record.Token); !errors.Is(err, ErrInvalidOrExpired) {
		t.Fatalf("lookup expired: got %v", err)
	}
	if err := resets.Redeem(ctx, record.Token, "pw2"); !errors.Is(err, ErrInvalidOrExpired) {
		t.Fatalf("redeem expired: got %v", err)
	}

	var count int64
	db.Model(&models.PasswordResetToken{}).Where("id = ?", record.ID).Count(&count)
	if count != 1 {
		t.Fatal("expired tokens are not deleted on read")
	}

	if _, err := accounts.Authenticate(ctx, "a@gmail.com", "pw1"); err != nil {
		t.Fatalf("password must be unchanged: %v", err)
	}
}

func TestIssueTokenRequiresExactlyOneTarget(t *testing.T) {
	db := newTestDB(t)
	creds := newTestCreds()
	resets := NewPasswordResetService(db, creds, newFakeMailer(), time.Hour)
	ctx := context.Background()

	a, p := uuid.New(), uuid.New()
	if _, err := resets.IssueToken(ctx, nil, nil); !IsValidation(err) {
		t.Fatalf("neither target: got %v", err)
	}
	if _, err := resets.IssueToken(ctx, &a, &p); !IsValidation(err) {
		t.Fatalf("both targets: got %v", err)
	}

	if err := db.Create(&models.PasswordResetToken{Token: "x", Expiry: time.Now()}).Error; !errors.Is(err, models.ErrResetTargetInvalid) {
		t.Fatalf("model hook: got %v", err)
	}
}

func TestRedeemProviderToken(t *testing.T) {
	db := newTestDB(t)
	creds := newTestCreds()
	accounts := NewAccountService(db, creds)
	resets := NewPasswordResetService(db, creds, newFakeMailer(), time.Hour)
	ctx := context.Background()

	admin, _, err := accounts.EnsureAdmin(ctx, "Admin", "", "admin@sh.com", "adminpass")
	if err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	profile, err := accounts.CreateProvider(ctx, admin.ID, ProviderInput{Name: "Rahul Kumar", Phone: "9876543210", Password: "pass123"})
	if err != nil {
		t.Fatalf("create provider: %v", err)
	}

	record, err := resets.IssueTokenByAdmin(ctx, admin.ID, nil, &profile.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	entries, total, err := NewAuditService(db).List(ctx, 0, 10)
	if err != nil {
		t.Fatalf("audit list: %v", err)
	}
	if total != 2 || !strings.Contains(entries[0].Action+entries[1].Action, "issued password reset for provider "+profile.ID.String()) {
		t.Fatalf("unexpected audit entries: %+v", entries)
	}

	if err := resets.Redeem(ctx, record.Token, "newpass"); err != nil {
		t.Fatalf("redeem: %v", err)
	}

	account, err := accounts.Get(ctx, profile.AccountID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !creds.VerifyPassword("newpass", account.PasswordHash) {
		t.Fatal("provider account password was not updated")
	}
}

func TestIssueTokenByAdminRollsBackWithoutAudit(t *testing.T) {
	db := newTestDB(t)
	creds := newTestCreds()
	accounts := NewAccountService(db, creds)
	resets := NewPasswordResetService(db, creds, newFakeMailer(), time.Hour)
	ctx := context.Background()

	admin, _, err := accounts.EnsureAdmin(ctx, "Admin", "", "admin@sh.com", "adminpass")
	if err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	user := registerUser(t, accounts, "a@gmail.com", "pw1")

	if err := db.Migrator().DropTable(&models.AuditLogEntry{}); err != nil {
		t.Fatalf("drop audit table: %v", err)
	}
	if _, err := resets.IssueTokenByAdmin(ctx, admin.ID, &user.ID, nil); err == nil {
		t.Fatal("expected an error when the audit entry cannot be written")
	}

	var count int64
	db.Model(&models.PasswordResetToken{}).Count(&count)
	if count != 0 {
		t.Fatalf("%d tokens left behind without an audit entry", count)
	}
}
