package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/servicehand/internal/middleware"
	"github.com/example/servicehand/internal/models"
	"github.com/example/servicehand/internal/services"
)

// ProfileHandler manages account profile and dashboard endpoints.
type ProfileHandler struct {
	accounts *services.AccountService
	bookings *services.BookingService
	company  *services.CompanyService
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(accounts *services.AccountService, bookings *services.BookingService, company *services.CompanyService) *ProfileHandler {
	return &ProfileHandler{accounts: accounts, bookings: bookings, company: company}
}

// GetProfile returns the authenticated account.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	account, err := h.accounts.Get(c.UserContext(), p.AccountID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    account,
	})
}

type editProfileRequest struct {
	Name    string `json:"name" form:"name"`
	Phone   string `json:"phone" form:"phone"`
	Email   string `json:"email" form:"email"`
	Address string `json:"address" form:"address"`
}

// EditProfile updates name, phone, email and address.
func (h *ProfileHandler) EditProfile(c *fiber.Ctx) error {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var req editProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	account, err := h.accounts.UpdateProfile(c.UserContext(), p.AccountID, services.ProfileInput{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"message":  "Profile updated.",
		"redirect": "/user_dashboard",
		"data":     account,
	})
}

type changePasswordRequest struct {
	OldPassword     string `json:"old_password" form:"old_password"`
	NewPassword     string `json:"new_password" form:"new_password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

// ChangePassword replaces the password of the authenticated account.
func (h *ProfileHandler) ChangePassword(c *fiber.Ctx) error {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.accounts.ChangePassword(c.UserContext(), p.AccountID, services.ChangePasswordInput{
		OldPassword:     req.OldPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	}); err != nil {
		return httpError(err)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"message":  "Password changed successfully.",
		"redirect": "/user_dashboard",
	})
}

// Dashboard serves every dashboard route and shapes the payload by role.
func (h *ProfileHandler) Dashboard(c *fiber.Ctx) error {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}
	ctx := c.UserContext()

	account, err := h.accounts.Get(ctx, p.AccountID)
	if err != nil {
		return httpError(err)
	}
	company, err := h.company.Get(ctx)
	if err != nil {
		return err
	}

	data := fiber.Map{
		"role":    p.Role,
		"account": account,
		"company": company,
	}

	switch p.Role {
	case models.RoleUser:
		bookings, err := h.bookings.ListForUser(ctx, p.AccountID)
		if err != nil {
			return err
		}
		data["bookings"] = bookings
	case models.RoleServiceProvider:
		bookings, err := h.bookings.ListForProvider(ctx, p.AccountID)
		if err != nil {
			return err
		}
		data["bookings"] = bookings
	case models.RoleAdmin:
		bookingCounts, err := h.bookings.CountByStatus(ctx)
		if err != nil {
			return err
		}
		accountCounts, err := h.accounts.CountByRole(ctx)
		if err != nil {
			return err
		}
		data["bookings_by_status"] = bookingCounts
		data["accounts_by_role"] = accountCounts
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}
