package auth

import (
	"github.com/angelmondragon/tunedash-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenClaims are the claims the identity provider puts in dashboard
// access tokens.
type AccessTokenClaims struct {
	UserID    uuid.UUID         `json:"user_id"`
	AccountID uuid.UUID         `json:"account_id"`
	Role      enums.AccountRole `json:"role"`
	jwt.RegisteredClaims
}
