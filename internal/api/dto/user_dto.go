package dto

import (
	"time"

	"github.com/civita-labs/civic-report/internal/domain"
)

// RegisterRequest payload.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	PhotoURL string `json:"photo_url"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse wraps token data.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the account view returned by the API.
type UserResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	PhotoURL  string      `json:"photo_url,omitempty"`
	Role      domain.Role `json:"role"`
	Premium   bool        `json:"premium"`
	Blocked   bool        `json:"blocked"`
	CreatedAt time.Time   `json:"created_at"`
}

// UpdateRoleRequest payload.
type UpdateRoleRequest struct {
	Role domain.Role `json:"role"`
}

// UpdateBlockRequest payload.
type UpdateBlockRequest struct {
	Blocked bool `json:"blocked"`
}

// UserView maps a domain user to its API shape.
func UserView(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		PhotoURL:  user.PhotoURL,
		Role:      user.Role,
		Premium:   user.Premium,
		Blocked:   user.Blocked,
		CreatedAt: user.CreatedAt,
	}
}
