package auth

import (
	"github.com/jarilabs/jariecom-backend/internal/stores"
	"github.com/jarilabs/jariecom-backend/internal/users"
)

// LoginRequest captures the credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse contains the token, user, and store produced by a
// successful login or registration.
type LoginResponse struct {
	AccessToken string           `json:"access_token"`
	User        *users.UserDTO   `json:"user"`
	Store       *stores.StoreDTO `json:"store"`
}

// MeResponse is the authenticated profile payload.
type MeResponse struct {
	User  *users.UserDTO   `json:"user"`
	Store *stores.StoreDTO `json:"store"`
}
