package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/servicehand/internal/middleware"
	"github.com/example/servicehand/internal/models"
	"github.com/example/servicehand/internal/services"
)

// BookingHandler manages the end-user booking endpoints.
type BookingHandler struct {
	bookings *services.BookingService
}

// NewBookingHandler constructs BookingHandler.
func NewBookingHandler(bookings *services.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

type hireRequest struct {
	ServiceName string `json:"service_name" form:"service_name"`
}

// Hire books the provider for the current user.
func (h *BookingHandler) Hire(c *fiber.Ctx) error {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Please login as a user to hire.")
	}

	providerID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "not found")
	}

	var req hireRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}

	booking, err := h.bookings.CreateHire(c.UserContext(), p, providerID, req.ServiceName)
	if err != nil {
		return httpError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":  true,
		"message":  "Hire request created successfully.",
		"redirect": "/user_dashboard",
		"data":     booking,
	})
}

// Cancel cancels one of the current user's bookings.
func (h *BookingHandler) Cancel(c *fiber.Ctx) error {
	return h.finalize(c, h.bookings.Cancel, "Booking cancelled.")
}

// Complete marks one of the current user's bookings as completed.
func (h *BookingHandler) Complete(c *fiber.Ctx) error {
	return h.finalize(c, h.bookings.Complete, "Marked booking as completed.")
}

type transition func(ctx context.Context, bookingID uuid.UUID, p services.Principal) (*models.Booking, error)

func (h *BookingHandler) finalize(c *fiber.Ctx, apply transition, message string) error {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Please login to manage bookings.")
	}

	bookingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "not found")
	}

	booking, err := apply(c.UserContext(), bookingID, p)
	if errors.Is(err, services.ErrAlreadyFinalized) {
		return c.JSON(fiber.Map{
			"success":  false,
			"info":     "Booking already finalized.",
			"redirect": "/user_dashboard",
			"data":     booking,
		})
	}
	if err != nil {
		return httpError(err)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"message":  message,
		"redirect": "/user_dashboard",
		"data":     booking,
	})
}
