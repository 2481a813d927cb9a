package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jarilabs/jariecom-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID  uuid.UUID
	Role    enums.UserRole
	StoreID *uuid.UUID
}

// AccessTokenClaims represents the typed JWT issued to merchants.
type AccessTokenClaims struct {
	UserID  uuid.UUID      `json:"user_id"`
	Role    enums.UserRole `json:"role"`
	StoreID *uuid.UUID     `json:"store_id,omitempty"`
	jwt.RegisteredClaims
}
