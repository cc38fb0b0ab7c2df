package services

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength applies to password changes and counts characters.
const MinPasswordLength = 6

// bcryptMaxBytes is the longest input bcrypt hashes without truncation.
const bcryptMaxBytes = 72

var ErrFailedToHashPassword = errors.New("failed to hash password")

// AllowedEmailDomains lists the suffixes accepted for end-user email addresses.
var AllowedEmailDomains = []string{
	"@edu", "@edu.in", "@ac.in", "@gov.in", "@nic.in",
	"@companyname.com", "@companyname.in", "@startupname.io", "@organization.org",
	"@college.edu", "@college.ac.in",
	"@rediffmail.com", "@yandex.com", "@gmail.com", "@yahoo.com", "@yahoo.co.in",
	"@outlook.com", "@hotmail.com", "@live.com", "@icloud.com", "@aol.com",
	"@protonmail.com", "@zoho.com",
}

// IsAllowedDomain reports whether the part of email starting at the first '@'
// ends with one of AllowedEmailDomains. The comparison is case-sensitive.
func IsAllowedDomain(email string) bool {
	at := strings.IndexByte(email, '@')
	if at < 0 {
		return false
	}
	domain := email[at:]
	for _, suffix := range AllowedEmailDomains {
		if strings.HasSuffix(domain, suffix) {
			return true
		}
	}
	return false
}

// CredentialStore hashes and verifies passwords with bcrypt.
type CredentialStore struct {
	cost int
}

// NewCredentialStore returns a store using cost, or bcrypt.DefaultCost when
// cost is outside the range bcrypt accepts.
func NewCredentialStore(cost int) *CredentialStore {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &CredentialStore{cost: cost}
}

// HashPassword returns a salted one-way hash of password.
func (s *CredentialStore) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(bcryptInput(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFailedToHashPassword, err)
	}
	return string(hash), nil
}

// VerifyPassword compares a plaintext password with a stored hash.
func (s *CredentialStore) VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), bcryptInput(password)) == nil
}

// bcryptInput passes short passwords through unchanged and folds longer ones
// into a SHA-256 digest so every password fits bcrypt's input limit.
func bcryptInput(password string) []byte {
	if len(password) <= bcryptMaxBytes {
		return []byte(password)
	}
	sum := sha256.Sum256([]byte(password))
	return []byte("sha256:" + base64.StdEncoding.EncodeToString(sum[:]))
}
