package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/openvenue/settlement/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT. The
// settlement core trusts nothing but the authenticated caller identity and
// role carried here.
type AccessTokenPayload struct {
	CallerID uuid.UUID
	Role     enums.ActorRole
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	CallerID uuid.UUID       `json:"caller_id"`
	Role     enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}
