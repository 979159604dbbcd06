package serverutils

import (
	"errors"
	"net/http"

	"acquisition-arena-be/internal/entity"
	"acquisition-arena-be/internal/pkg/logger"
	"acquisition-arena-be/pkg/result"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps an error returned by a handler to an HTTP status and a
// client-safe message.
func StatusFor(err error) (int, string) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code, appErr.Message
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, fiberErr.Message
	}

	switch {
	case errors.Is(err, entity.ErrSessionNotFound),
		errors.Is(err, entity.ErrPersonaNotFound),
		errors.Is(err, entity.ErrParcelNotFound),
		errors.Is(err, entity.ErrUserNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, entity.ErrInvalidStateTransition):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, entity.ErrAgentNotProvisioned):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, entity.ErrPersonaBusy):
		return http.StatusConflict, err.Error()
	case errors.Is(err, entity.ErrNoSessionsRemaining):
		return http.StatusForbidden, err.Error()
	}

	var resErr *result.Error
	if errors.As(err, &resErr) {
		switch resErr.Kind {
		case result.KindCaller:
			return http.StatusBadRequest, resErr.Reason
		case result.KindTimeout:
			return http.StatusGatewayTimeout, "voice service timed out"
		default:
			return http.StatusBadGateway, "voice service unavailable"
		}
	}

	return http.StatusInternalServerError, "internal server error"
}

// ErrorHandler is a fiber.Config ErrorHandler.
func ErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		code, message := StatusFor(err)
		if code >= http.StatusInternalServerError && log != nil {
			log.Error("HTTP", "Request failed", map[string]interface{}{
				"method": ctx.Method(),
				"path":   ctx.Path(),
				"status": code,
				"error":  err.Error(),
			})
		}
		return ctx.Status(code).JSON(ErrorResponse(code, message))
	}
}

// ErrorHandlerMiddleware turns handler errors into the JSON error envelope.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	handle := ErrorHandler(log)
	return func(ctx *fiber.Ctx) error {
		if err := ctx.Next(); err != nil {
			return handle(ctx, err)
		}
		return nil
	}
}
