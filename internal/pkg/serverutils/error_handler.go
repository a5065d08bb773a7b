package serverutils

import (
	"errors"

	"ai-thumbnail-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into the standard envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		code, message, data := Classify(err)
		res := ErrorResponse(code, message)
		res.Data = data
		return ctx.Status(code).JSON(res)
	}
}

// Classify maps an error onto an HTTP status, a client-safe message and optional details.
func Classify(err error) (int, string, interface{}) {
	var (
		fiberErr     *fiber.Error
		requestErr   *RequestValidationError
		validation   *service.ValidationError
		insufficient *service.InsufficientFundsError
	)

	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code, fiberErr.Message, nil
	case errors.As(err, &requestErr):
		return fiber.StatusUnprocessableEntity, "Validation failed", requestErr.Fields
	case errors.As(err, &insufficient):
		return fiber.StatusPaymentRequired, "Insufficient credits", fiber.Map{
			"required":  insufficient.Required,
			"available": insufficient.Available,
		}
	case errors.As(err, &validation):
		return fiber.StatusBadRequest, validation.Error(), nil
	case errors.Is(err, service.ErrGenerationNotFound),
		errors.Is(err, service.ErrConversationNotFound),
		errors.Is(err, service.ErrPurchaseNotFound):
		return fiber.StatusNotFound, err.Error(), nil
	case errors.Is(err, service.ErrAlreadyTerminal), errors.Is(err, service.ErrAlreadyRunning):
		return fiber.StatusConflict, err.Error(), nil
	case errors.Is(err, service.ErrUnknownAlgorithm),
		errors.Is(err, service.ErrAlgorithmInactive),
		errors.Is(err, service.ErrUnknownPackage):
		return fiber.StatusBadRequest, err.Error(), nil
	case errors.Is(err, service.ErrInvalidSignature):
		return fiber.StatusUnauthorized, err.Error(), nil
	case errors.Is(err, service.ErrForbidden):
		return fiber.StatusForbidden, err.Error(), nil
	default:
		return fiber.StatusInternalServerError, "Internal server error", nil
	}
}
