package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Role is embedded in access tokens only.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// AccessClaims are the verified claims of an access token.
type AccessClaims struct {
	Subject   string
	Role      Role
	ExpiresAt time.Time
}

// RefreshClaims carry no role; a refresh re-resolves it from the user record.
type RefreshClaims struct {
	Subject   string
	ExpiresAt time.Time
}

// tokenClaims is the wire shape shared by both token kinds.
type tokenClaims struct {
	jwt.RegisteredClaims

	Role      Role      `json:"role,omitempty"`
	TokenType TokenType `json:"token_type"`
}
