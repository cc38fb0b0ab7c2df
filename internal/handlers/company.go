package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/servicehand/internal/middleware"
	"github.com/example/servicehand/internal/services"
)

// CompanyHandler manages the company info endpoints.
type CompanyHandler struct {
	company *services.CompanyService
}

// NewCompanyHandler constructs CompanyHandler.
func NewCompanyHandler(company *services.CompanyService) *CompanyHandler {
	return &CompanyHandler{company: company}
}

// GetCompany returns the company info (public endpoint).
func (h *CompanyHandler) GetCompany(c *fiber.Ctx) error {
	info, err := h.company.Get(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    info,
	})
}

// UpdateCompany overwrites the company info (admin endpoint).
func (h *CompanyHandler) UpdateCompany(c *fiber.Ctx) error {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var input services.CompanyInput
	if err := c.BodyParser(&input); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	info, err := h.company.Update(c.UserContext(), p.AccountID, input)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    info,
	})
}
