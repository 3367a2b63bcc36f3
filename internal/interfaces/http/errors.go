package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
)

// writeError traduce errores de dominio a status HTTP con dto.ErrorResponse.
func writeError(c *fiber.Ctx, err error) error {
	status, code := fiber.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status, code = fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrNotFound):
		status, code = fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrConflict):
		status, code = fiber.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrImportInProgress):
		status, code = fiber.StatusConflict, "IMPORT_IN_PROGRESS"
	case errors.Is(err, domain.ErrNoActiveFeedConfig):
		status, code = fiber.StatusPreconditionFailed, "NO_FEED_CONFIG"
	case errors.Is(err, domain.ErrEmptyFeed):
		status, code = fiber.StatusUnprocessableEntity, "EMPTY_FEED"
	case errors.Is(err, domain.ErrNoFeedData):
		status, code = fiber.StatusBadGateway, "NO_FEED_DATA"
	case errors.Is(err, domain.ErrMalformedFeed):
		status, code = fiber.StatusBadGateway, "MALFORMED_FEED"
	case errors.Is(err, context.DeadlineExceeded):
		status, code = fiber.StatusGatewayTimeout, "TIMEOUT"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
}
