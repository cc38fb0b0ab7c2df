package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/servicehand/internal/config"
	"github.com/example/servicehand/internal/middleware"
	"github.com/example/servicehand/internal/models"
	"github.com/example/servicehand/internal/services"
	"github.com/example/servicehand/internal/utils"
)

// AdminHandler serves the administrative endpoints.
type AdminHandler struct {
	accounts *services.AccountService
	bookings *services.BookingService
	catalog  *services.CatalogService
	resets   *services.PasswordResetService
	audit    *services.AuditService
	cfg      *config.Config
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(
	accounts *services.AccountService,
	bookings *services.BookingService,
	catalog *services.CatalogService,
	resets *services.PasswordResetService,
	audit *services.AuditService,
	cfg *config.Config,
) *AdminHandler {
	return &AdminHandler{
		accounts: accounts,
		bookings: bookings,
		catalog:  catalog,
		resets:   resets,
		audit:    audit,
		cfg:      cfg,
	}
}

// Stats returns aggregate counts for the admin dashboard.
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	ctx := c.UserContext()

	bookingCounts, err := h.bookings.CountByStatus(ctx)
	if err != nil {
		return err
	}
	accountCounts, err := h.accounts.CountByRole(ctx)
	if err != nil {
		return err
	}
	categories, err := h.catalog.ListCategories(ctx)
	if err != nil {
		return err
	}

	var totalBookings int64
	for _, n := range bookingCounts {
		totalBookings += n
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_bookings":     totalBookings,
			"total_users":        accountCounts[models.RoleUser],
			"total_providers":    accountCounts[models.RoleServiceProvider],
			"total_categories":   len(categories),
			"bookings_by_status": bookingCounts,
		},
	})
}

// ListBookings returns all bookings with pagination and filtering.
func (h *AdminHandler) ListBookings(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)

	bookings, total, err := h.bookings.ListAll(c.UserContext(), services.BookingFilter{
		Status: models.BookingStatus(c.Query("status")),
		Search: c.Query("search"),
	}, pg.Offset, pg.Limit)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       bookings,
		"pagination": pg.Meta(total),
	})
}

type adminBookingRequest struct {
	BookingReference string     `json:"booking_reference"`
	UserID           string     `json:"user_id"`
	ProviderID       string     `json:"provider_id"`
	ServiceName      string     `json:"service_name"`
	BookingDatetime  *time.Time `json:"booking_datetime"`
	Status           string     `json:"status"`
	FinalAmount      *float64   `json:"final_amount"`
}

// CreateBooking stores a booking in any status.
func (h *AdminHandler) CreateBooking(c *fiber.Ctx) error {
	admin, ok := middleware.GetPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var req adminBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid user_id")
	}
	providerID, err := uuid.Parse(req.ProviderID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid provider_id")
	}

	booking, err := h.bookings.CreateByAdmin(c.UserContext(), admin.AccountID, services.AdminBookingInput{
		BookingReference: req.BookingReference,
		UserID:           userID,
		ProviderID:       providerID,
		ServiceName:      req.ServiceName,
		BookingDatetime:  req.BookingDatetime,
		Status:           models.BookingStatus(req.Status),
		FinalAmount:      req.FinalAmount,
	})
	if err != nil {
		return httpError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    booking,
	})
}

type updateBookingRequest struct {
	BookingReference *string  `json:"booking_reference"`
	Status           *string  `json:"status"`
	FinalAmount      *float64 `json:"final_amount"`
}

// UpdateBooking edits a booking's status and final amount.
func (h *AdminHandler) UpdateBooking(c *fiber.Ctx) error {
	admin, ok := middleware.GetPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	bookingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "not found")
	}

	var req updateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	in := services.AdminBookingUpdate{
		BookingReference: req.BookingReference,
		FinalAmount:      req.FinalAmount,
	}
	if req.Status != nil {
		status := models.BookingStatus(*req.Status)
		in.Status = &status
	}

	booking, err := h.bookings.UpdateByAdmin(c.UserContext(), admin.AccountID, bookingID, in)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    booking,
	})
}

// ListAccounts returns accounts with pagination, role filter and search.
func (h *AdminHandler) ListAccounts(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)

	accounts, total, err := h.accounts.List(c.UserContext(), services.AccountFilter{
		Role:   models.Role(c.Query("role")),
		Search: c.Query("search"),
	}, pg.Offset, pg.Limit)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       accounts,
		"pagination": pg.Meta(total),
	})
}

type createProviderRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	Password string `json:"password"`
}

// CreateProvider adds a provider identified by phone.
func (h *AdminHandler) CreateProvider(c *fiber.Ctx) error {
	admin, ok := middleware.GetPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var req createProviderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	provider, err := h.accounts.CreateProvider(c.UserContext(), admin.AccountID, services.ProviderInput{
		Name:     req.Name,
		Phone:    req.Phone,
		Location: req.Location,
		Password: req.Password,
	})
	if err != nil {
		return httpError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    provider,
	})
}

// CreateCategory adds a service category to a provider.
func (h *AdminHandler) CreateCategory(c *fiber.Ctx) error {
	admin, ok := middleware.GetPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	providerID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "not found")
	}

	var input services.CategoryInput
	if err := c.BodyParser(&input); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	category, err := h.catalog.CreateCategory(c.UserContext(), admin.AccountID, providerID, input)
	if err != nil {
		return httpError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    category,
	})
}

type issueResetRequest struct {
	AccountID  string `json:"account_id"`
	ProviderID string `json:"provider_id"`
}

// IssuePasswordReset creates a reset token for an account or a provider and
// returns the link.
func (h *AdminHandler) IssuePasswordReset(c *fiber.Ctx) error {
	admin, ok := middleware.GetPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var req issueResetRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	accountID, err := optionalUUID(req.AccountID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid account_id")
	}
	providerID, err := optionalUUID(req.ProviderID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid provider_id")
	}

	record, err := h.resets.IssueTokenByAdmin(c.UserContext(), admin.AccountID, accountID, providerID)
	if err != nil {
		return httpError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"link":   resetLink(h.cfg, c)(record.Token),
			"expiry": record.Expiry,
		},
	})
}

// ListAuditLogs returns administrative actions, newest first.
func (h *AdminHandler) ListAuditLogs(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)

	entries, total, err := h.audit.List(c.UserContext(), pg.Offset, pg.Limit)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       entries,
		"pagination": pg.Meta(total),
	})
}

func optionalUUID(value string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
