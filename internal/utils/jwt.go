package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/example/servicehand/internal/models"
)

// SessionClaims is the payload of a session token. RegisteredClaims.ID holds
// the server-side session id.
type SessionClaims struct {
	AccountID string      `json:"account_id"`
	Role      models.Role `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed session token for the given account.
func GenerateToken(secret string, accountID uuid.UUID, role models.Role, sessionID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		AccountID: accountID.String(),
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   accountID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates the token and returns its claims.
func ParseToken(secret, tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if _, err := uuid.Parse(claims.AccountID); err != nil {
		return nil, errors.Join(jwt.ErrTokenInvalidClaims, err)
	}
	if !claims.Role.Valid() {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return claims, nil
}

// AccountUUID returns the parsed account id.
func (c *SessionClaims) AccountUUID() uuid.UUID {
	id, _ := uuid.Parse(c.AccountID)
	return id
}
