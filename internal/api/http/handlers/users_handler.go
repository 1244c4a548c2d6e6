package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/aftersales-service/internal/api/dto"
	"github.com/spec-kit/aftersales-service/internal/domain"
	"github.com/spec-kit/aftersales-service/internal/service"
	apperrors "github.com/spec-kit/aftersales-service/pkg/util"
)

// UsersHandler exposes login and the current-operator profile.
type UsersHandler struct {
	auth   *service.AuthService
	logger *zap.Logger
}

// NewUsersHandler constructs the handler.
func NewUsersHandler(auth *service.AuthService, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{auth: auth, logger: logger}
}

// Login handles POST /auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	payload.Email = strings.TrimSpace(strings.ToLower(payload.Email))
	if payload.Email == "" || payload.Password == "" {
		return apperrors.NewValidationError("email and password are required", nil)
	}

	user, token, expiresAt, err := h.auth.Login(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      toUserResponse(user),
	}})
}

// Me handles GET /me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": toUserResponse(actor)})
}

func toUserResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		Role:         user.Role,
		DepartmentID: user.DepartmentID,
	}
}
