package serverutils

import (
	"errors"

	"noteguard-be/internal/pkg/apperror"
	"noteguard-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler writes err as the standard envelope. Internal causes are
// logged and never returned to the client.
func ErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			res := ErrorResponse(fiber.StatusBadRequest, validationErr.Message)
			res.Data = validationErr.Fields
			return ctx.Status(fiber.StatusBadRequest).JSON(res)
		}

		kind := apperror.KindOf(err)
		status := apperror.HTTPStatus(kind)
		message := "internal server error"

		var appErr *apperror.AppError
		if errors.As(err, &appErr) && kind != apperror.KindInternal {
			message = appErr.Message
		}

		if status >= fiber.StatusInternalServerError {
			log.Error("HTTP", "Request failed", map[string]interface{}{
				"method": ctx.Method(),
				"path":   ctx.Path(),
				"kind":   string(kind),
				"error":  err.Error(),
			})
		}
		return ctx.Status(status).JSON(ErrorResponse(status, message))
	}
}

// ErrorHandlerMiddleware converts errors returned further down the chain,
// including fiber's own 404 for unknown routes.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	handle := ErrorHandler(log)
	return func(ctx *fiber.Ctx) error {
		if err := ctx.Next(); err != nil {
			return handle(ctx, err)
		}
		return nil
	}
}

func errorStatus(err error) int {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return fiber.StatusBadRequest
	}
	return apperror.HTTPStatus(apperror.KindOf(err))
}
