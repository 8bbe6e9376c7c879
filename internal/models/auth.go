package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the payload of access tokens issued by the school's identity service.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}

// CanManageProxies reports whether the caller may commit or delete substitutions.
func (c *JWTClaims) CanManageProxies() bool {
	if c == nil {
		return false
	}
	return c.Role == RoleAdmin || c.Role == RoleSuperAdmin
}
