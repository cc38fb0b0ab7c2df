package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/servicehand/internal/services"
	"github.com/example/servicehand/internal/utils"
)

// CatalogHandler serves the public provider pages.
type CatalogHandler struct {
	catalog *services.CatalogService
}

// NewCatalogHandler constructs a CatalogHandler.
func NewCatalogHandler(catalog *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// Home returns the landing page data.
func (h *CatalogHandler) Home(c *fiber.Ctx) error {
	home, err := h.catalog.Home(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    home,
	})
}

// BrowseServices lists providers, optionally narrowed by ?category=.
func (h *CatalogHandler) BrowseServices(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)

	providers, total, err := h.catalog.ListProviders(c.UserContext(), c.Query("category"), pg.Offset, pg.Limit)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       providers,
		"pagination": pg.Meta(total),
	})
}

// GetProvider returns a provider with its categories.
func (h *CatalogHandler) GetProvider(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "not found")
	}

	provider, err := h.catalog.GetProvider(c.UserContext(), id)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    provider,
	})
}

// ListCategories returns category names with provider counts.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.catalog.ListCategories(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    categories,
	})
}
