package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/aftersales-service/internal/auth"
	"github.com/spec-kit/aftersales-service/internal/domain"
	apperrors "github.com/spec-kit/aftersales-service/pkg/util"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// currentUser extracts the authenticated operator from the request context.
func currentUser(c *fiber.Ctx) (*domain.User, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal.User, nil
}

// pagination reads limit/offset query params with bounded defaults.
func pagination(c *fiber.Ctx) (limit, offset int) {
	limit = queryInt(c, "limit", defaultPageSize)
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	offset = queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func queryInt(c *fiber.Ctx, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func queryBool(c *fiber.Ctx, key string) bool {
	parsed, err := strconv.ParseBool(c.Query(key, "false"))
	return err == nil && parsed
}
