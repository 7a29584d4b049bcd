package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims represents JWT custom claims
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}
