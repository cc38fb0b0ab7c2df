package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/servicehand/internal/config"
	"github.com/example/servicehand/internal/services"
)

// PasswordResetHandler manages forgot-password endpoints.
type PasswordResetHandler struct {
	resets *services.PasswordResetService
	cfg    *config.Config
}

// NewPasswordResetHandler constructs a PasswordResetHandler.
func NewPasswordResetHandler(resets *services.PasswordResetService, cfg *config.Config) *PasswordResetHandler {
	return &PasswordResetHandler{resets: resets, cfg: cfg}
}

type forgotPasswordRequest struct {
	Email  string `json:"email" form:"email"`
	Method string `json:"method" form:"method"`
}

// ForgotPassword issues a reset token. With method "email" the link is
// mailed; any other method returns the link to the requester.
func (h *PasswordResetHandler) ForgotPassword(c *fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.resets.RequestReset(c.UserContext(), req.Email, req.Method, resetLink(h.cfg, c))
	if errors.Is(err, services.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Email not found.")
	}
	if err != nil {
		return httpError(err)
	}

	if result.Delivered {
		return c.JSON(fiber.Map{
			"success": true,
			"message": "Reset link sent to email.",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Share this reset link with the account owner.",
		"link":    result.Link,
	})
}

// ShowResetPassword reports whether a token can still be redeemed.
func (h *PasswordResetHandler) ShowResetPassword(c *fiber.Ctx) error {
	record, err := h.resets.Lookup(c.UserContext(), c.Params("token"))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"valid":  true,
			"expiry": record.Expiry,
		},
	})
}

type resetPasswordRequest struct {
	Password string `json:"password" form:"password"`
}

// ResetPassword sets a new password and consumes the token.
func (h *PasswordResetHandler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.resets.Redeem(c.UserContext(), c.Params("token"), req.Password); err != nil {
		return httpError(err)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"message":  "Password reset successful.",
		"redirect": "/login",
	})
}

// resetLink builds reset URLs on PUBLIC_BASE_URL, or on the request's own
// base URL when that is not set.
func resetLink(cfg *config.Config, c *fiber.Ctx) func(token string) string {
	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if base == "" {
		base = c.BaseURL()
	}
	return func(token string) string {
		return base + "/reset_password/" + token
	}
}
