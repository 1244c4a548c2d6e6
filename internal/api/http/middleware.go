package http

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/aftersales-service/internal/observability"
	apperrors "github.com/spec-kit/aftersales-service/pkg/util"
)

// ErrorHandler converts handler errors into a stable JSON envelope.
// Unexpected errors are logged with their cause and returned as opaque
// internal errors; DomainError details pass through to the client.
func ErrorHandler(logger *zap.Logger, metrics *observability.Metrics) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		domainErr := apperrors.ToDomainError(err)

		if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}
		if metrics != nil {
			metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
		}

		body := fiber.Map{
			"error": fiber.Map{
				"code":    domainErr.Code,
				"message": domainErr.Message,
			},
		}
		if len(domainErr.Details) > 0 {
			body["error"].(fiber.Map)["details"] = domainErr.Details
		}
		return c.Status(domainErr.HTTPStatus).JSON(body)
	}
}

// Recover catches panics in handlers and converts them to internal errors.
func Recover(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.Any("panic", r),
					zap.String("path", c.Path()),
					zap.ByteString("stack", debug.Stack()),
				)
				err = apperrors.NewInternalError(fmt.Errorf("panic: %v", r))
			}
		}()
		return c.Next()
	}
}

// Timeout bounds each request with a deadline-carrying context.
func Timeout(d time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if d <= 0 {
			return c.Next()
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), d)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}
