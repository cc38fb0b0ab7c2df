package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/servicehand/internal/models"
	"github.com/example/servicehand/internal/services"
)

// httpError maps service errors onto HTTP errors. Unknown errors are
// returned unchanged and end up as 500 responses.
func httpError(err error) error {
	var validation *services.ValidationError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &validation):
		return fiber.NewError(fiber.StatusBadRequest, validation.Message)
	case errors.Is(err, services.ErrInvalidCredentials):
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid credentials.")
	case errors.Is(err, services.ErrUnauthorized):
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	case errors.Is(err, services.ErrForbidden):
		return fiber.NewError(fiber.StatusForbidden, "access denied")
	case errors.Is(err, services.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "not found")
	case errors.Is(err, services.ErrInvalidOrExpired):
		return fiber.NewError(fiber.StatusGone, "Invalid or expired token.")
	case errors.Is(err, models.ErrReferenceImmutable):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fiber.NewError(fiber.StatusBadRequest, "referenced record does not exist")
	}
	return err
}

// ErrorHandler renders every error as {"success": false, "error": msg}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	} else {
		log.Printf("[HTTP] %s %s failed: %v", c.Method(), c.Path(), err)
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}
