package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/servicehand/internal/config"
	"github.com/example/servicehand/internal/middleware"
	"github.com/example/servicehand/internal/models"
	"github.com/example/servicehand/internal/services"
	"github.com/example/servicehand/internal/utils"
)

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	accounts *services.AccountService
	sessions services.SessionStore
	cfg      *config.Config
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(accounts *services.AccountService, sessions services.SessionStore, cfg *config.Config) *AuthHandler {
	return &AuthHandler{accounts: accounts, sessions: sessions, cfg: cfg}
}

type registerRequest struct {
	Name     string `json:"name" form:"name"`
	Phone    string `json:"phone" form:"phone"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Address  string `json:"address" form:"address"`
	Role     string `json:"role" form:"role"`
}

// Register creates a new end-user or service-provider account.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	account, err := h.accounts.Register(c.UserContext(), services.RegisterInput{
		Name:     req.Name,
		Phone:    req.Phone,
		Email:    req.Email,
		Password: req.Password,
		Address:  req.Address,
		Role:     models.Role(req.Role),
	})
	if err != nil {
		return httpError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":  true,
		"message":  "Registration successful. Please login.",
		"redirect": "/login",
		"data":     account,
	})
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Login authenticates by email and password and starts a session.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	account, err := h.accounts.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return httpError(err)
	}

	principal := services.Principal{AccountID: account.ID, Role: account.Role}
	sessionID := uuid.NewString()

	token, err := utils.GenerateToken(h.cfg.JWTSecret, principal.AccountID, principal.Role, sessionID, h.cfg.SessionTTL)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}
	if err := h.sessions.Save(c.UserContext(), sessionID, principal, h.cfg.SessionTTL); err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.cfg.SessionTTL),
		HTTPOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.JSON(fiber.Map{
		"success":   true,
		"redirect":  principal.Role.DashboardPath(),
		"principal": principal,
		"token":     token,
	})
}

// Logout ends the current session, if any, and clears the cookie.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if sessionID, ok := middleware.GetSessionID(c); ok {
		if err := h.sessions.Delete(c.UserContext(), sessionID); err != nil {
			log.Printf("[Session] Failed to delete session %s: %v", sessionID, err)
		}
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.JSON(fiber.Map{
		"success":  true,
		"redirect": "/",
	})
}
