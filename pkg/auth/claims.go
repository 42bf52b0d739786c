package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/inkforge/inkforge-backend/pkg/enums"
)

// TokenPayload captures the data available when minting a JWT.
type TokenPayload struct {
	UserID uuid.UUID
	Email  string
	Role   enums.Role
}

// Claims represents the typed JWT issued to clients. The same shape is used
// for access and refresh tokens; they differ only in secret and TTL.
type Claims struct {
	UserID uuid.UUID  `json:"user_id"`
	Email  string     `json:"email"`
	Role   enums.Role `json:"role"`
	jwt.RegisteredClaims
}
