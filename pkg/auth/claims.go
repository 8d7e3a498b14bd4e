package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	Subject string
	Email   string
	Role    enums.Role
	JTI     string
}

// AccessTokenClaims is the typed JWT presented by clients. Subject carries the
// identity provider uid.
type AccessTokenClaims struct {
	Email string     `json:"email,omitempty"`
	Role  enums.Role `json:"role"`
	jwt.RegisteredClaims
}

// EffectiveRole treats a missing role claim as a customer.
func (c *AccessTokenClaims) EffectiveRole() enums.Role {
	if c == nil || !c.Role.IsValid() {
		return enums.RoleCustomer
	}
	return c.Role
}
