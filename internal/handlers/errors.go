package handlers

import (
	"errors"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/pkg/logging"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var validate = validator.New()

// respondError maps domain errors onto HTTP responses. The code field lets
// clients tell a retryable stock conflict from a request they must change.
func respondError(c *fiber.Ctx, message string, err error) error {
	var (
		notFound     *models.NotFoundError
		insufficient *models.InsufficientStockError
		conflict     *models.StockConflictError
		invalid      *models.ValidationError
	)
	switch {
	case errors.As(err, &notFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
			"code":    "not_found",
		})
	case errors.Is(err, models.ErrEmptyCart):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
			"code":    "empty_cart",
		})
	case errors.As(err, &insufficient):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message":    message,
			"error":      err.Error(),
			"code":       "insufficient_stock",
			"product_id": insufficient.ProductID,
			"available":  insufficient.Available,
			"requested":  insufficient.Requested,
		})
	case errors.As(err, &conflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message":    message,
			"error":      err.Error(),
			"code":       "stock_conflict",
			"product_id": conflict.ProductID,
			"requested":  conflict.Requested,
		})
	case errors.As(err, &invalid):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
			"code":    "validation_failed",
		})
	}

	logging.FromContext(c.UserContext()).Error(message, zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
		"code":    "internal",
	})
}

// parseBody decodes and validates a request body, writing the 400 response
// itself when either step fails. ok reports whether the handler may go on.
func parseBody(c *fiber.Ctx, out interface{}) (ok bool, err error) {
	if err := c.BodyParser(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
			"code":    "validation_failed",
		})
	}
	if err := validate.Struct(out); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return false, err
		}
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
			"code":    "validation_failed",
		})
	}
	return true, nil
}
