package services

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestIsAllowedDomain(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"x@gmail.com", true},
		{"student@college.ac.in", true},
		{"officer@delhi.gov.in", true},
		{"someone@mail.yahoo.co.in", true},
		{"x@evil.biz", false},
		{"no-at-sign", false},
		{"x@GMAIL.COM", false},
		{"", false},
		{"first@evil.biz@gmail.com", true},
	}
	for _, tt := range tests {
		if got := IsAllowedDomain(tt.email); got != tt.want {
			t.Errorf("IsAllowedDomain(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}

	if len(AllowedEmailDomains) != 23 {
		t.Errorf("expected 23 allowed domains, got %d", len(AllowedEmailDomains))
	}
}

func TestCredentialStoreRoundTrip(t *testing.T) {
	store := newTestCreds()

	for _, password := range []string{"pw1", "correct horse battery staple", "ünïcødé"} {
		hash, err := store.HashPassword(password)
		if err != nil {
			t.Fatalf("hash %q: %v", password, err)
		}
		if hash == password {
			t.Fatalf("hash must not equal the password")
		}
		if !store.VerifyPassword(password, hash) {
			t.Errorf("VerifyPassword(%q) = false, want true", password)
		}
		if store.VerifyPassword(password+"x", hash) {
			t.Errorf("VerifyPassword accepted a different password for %q", password)
		}
	}
}

func TestCredentialStoreSaltsHashes(t *testing.T) {
	store := newTestCreds()

	first, _ := store.HashPassword("same")
	second, _ := store.HashPassword("same")
	if first == second {
		t.Fatal("expected different hashes for the same password")
	}
}

func TestNewCredentialStoreFallsBackToDefaultCost(t *testing.T) {
	if got := NewCredentialStore(0).cost; got != bcrypt.DefaultCost {
		t.Fatalf("cost = %d, want %d", got, bcrypt.DefaultCost)
	}
	if got := NewCredentialStore(bcrypt.MinCost).cost; got != bcrypt.MinCost {
		t.Fatalf("cost = %d, want %d", got, bcrypt.MinCost)
	}
}

func TestHashPasswordLongInputs(t *testing.T) {
	store := newTestCreds()
	long := strings.Repeat("a", 100)

	hash, err := store.HashPassword(long)
	if err != nil {
		t.Fatalf("hash %d-byte password: %v", len(long), err)
	}
	if !store.VerifyPassword(long, hash) {
		t.Fatal("long password does not verify")
	}
	// Passwords sharing the first 72 bytes must stay distinct.
	if store.VerifyPassword(strings.Repeat("a", 99)+"b", hash) {
		t.Fatal("password differing after byte 72 accepted")
	}

	exact := strings.Repeat("é", 36)
	hash, err = store.HashPassword(exact)
	if err != nil || !store.VerifyPassword(exact, hash) {
		t.Fatalf("72-byte password: err=%v", err)
	}
}
