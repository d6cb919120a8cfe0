package auth

import "github.com/golang-jwt/jwt/v5"

// SessionClaims represents the typed JWT carried by the admin session cookie.
type SessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}
