package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/servicehand/internal/config"
	"github.com/example/servicehand/internal/models"
	"github.com/example/servicehand/internal/services"
	"github.com/example/servicehand/internal/utils"
)

const (
	principalContextKey = "currentPrincipal"
	sessionContextKey   = "currentSessionID"

	// SessionCookieName is the cookie that carries the session token.
	SessionCookieName = "session"
)

// RoleSource reads the role currently stored for an account.
type RoleSource interface {
	CurrentRole(ctx context.Context, id uuid.UUID) (models.Role, error)
}

// AuthMiddleware validates the session token and loads the principal into context.
func AuthMiddleware(cfg *config.Config, sessions services.SessionStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := tokenFromRequest(c)
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}

		if err := authenticate(c, cfg, sessions, token); err != nil {
			return err
		}
		return c.Next()
	}
}

// OptionalAuth loads the principal when a valid session is present and
// otherwise lets the request through anonymously.
func OptionalAuth(cfg *config.Config, sessions services.SessionStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := tokenFromRequest(c); token != "" {
			var fiberErr *fiber.Error
			if err := authenticate(c, cfg, sessions, token); err != nil && !errors.As(err, &fiberErr) {
				return err
			}
		}
		return c.Next()
	}
}

func authenticate(c *fiber.Ctx, cfg *config.Config, sessions services.SessionStore, token string) error {
	claims, err := utils.ParseToken(cfg.JWTSecret, token)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
	}

	ok, err := sessions.Exists(c.UserContext(), claims.ID)
	if err != nil {
		return err
	}
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "session expired")
	}

	c.Locals(principalContextKey, services.Principal{
		AccountID: claims.AccountUUID(),
		Role:      claims.Role,
	})
	c.Locals(sessionContextKey, claims.ID)
	return nil
}

func tokenFromRequest(c *fiber.Ctx) string {
	if authHeader := c.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return c.Cookies(SessionCookieName)
}

// RequireRole re-reads the principal's role from the account record and
// rejects the request unless it is one of roles. It must run after
// AuthMiddleware.
func RequireRole(source RoleSource, roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := GetPrincipal(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}

		role, err := source.CurrentRole(c.UserContext(), p.AccountID)
		if errors.Is(err, services.ErrNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "account no longer exists")
		}
		if err != nil {
			return err
		}

		for _, allowed := range roles {
			if role == allowed {
				p.Role = role
				c.Locals(principalContextKey, p)
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "access denied")
	}
}

// GetPrincipal extracts the authenticated principal from context.
func GetPrincipal(c *fiber.Ctx) (services.Principal, bool) {
	p, ok := c.Locals(principalContextKey).(services.Principal)
	return p, ok
}

// GetSessionID returns the id of the session the request was made with.
func GetSessionID(c *fiber.Ctx) (string, bool) {
	id, ok := c.Locals(sessionContextKey).(string)
	return id, ok && id != ""
}
