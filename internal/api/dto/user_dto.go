package dto

import (
	"time"

	"github.com/spec-kit/aftersales-service/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse returns the issued token and profile.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UserResponse public profile.
type UserResponse struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Role         domain.Role `json:"role"`
	DepartmentID *string     `json:"department_id,omitempty"`
}
