package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"vendora/internal/domain"
	applog "vendora/internal/log"
)

// failJSON maps domain errors onto HTTP codes in one place. Anything outside
// the taxonomy is logged and surfaced as a generic 500.
func failJSON(c *fiber.Ctx, action string, err error) error {
	var oos *domain.OutOfStockError
	var bad *domain.InvalidTransitionError

	status := fiber.StatusInternalServerError
	msg := "something went wrong, please try again"

	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		status, msg = fiber.StatusUnauthorized, err.Error()
	case errors.Is(err, domain.ErrForbidden):
		status, msg = fiber.StatusForbidden, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		status, msg = fiber.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrDuplicateReturn):
		status, msg = fiber.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrCartInvalid),
		errors.Is(err, domain.ErrInsufficientWallet),
		errors.Is(err, domain.ErrReturnWindowExpired):
		status, msg = fiber.StatusBadRequest, err.Error()
	case errors.As(err, &oos), errors.As(err, &bad):
		status, msg = fiber.StatusBadRequest, err.Error()
	default:
		applog.Error(c, action, err, nil)
	}

	if status != fiber.StatusInternalServerError {
		applog.Security(c, action, map[string]any{"error": err.Error()})
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}
