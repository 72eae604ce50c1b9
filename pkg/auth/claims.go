package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Kwakusharp7/fleet-managment/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.Role
	Name   string
	JTI    string
}

// AccessTokenClaims represents the typed JWT asserted by the identity provider.
type AccessTokenClaims struct {
	UserID uuid.UUID  `json:"user_id"`
	Role   enums.Role `json:"role"`
	Name   string     `json:"name,omitempty"`
	jwt.RegisteredClaims
}
