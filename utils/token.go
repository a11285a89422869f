package utils

import (
	"fmt"
	"os"

	"github.com/dgrijalva/jwt-go"
)

// JwtCustomClaim is the session claim minted by the auth service. This
// backend only parses it; user and session management live elsewhere.
type JwtCustomClaim struct {
	ClienteId int    `json:"cliente_id"`
	Role      string `json:"role"`
	jwt.StandardClaims
}

func (c *JwtCustomClaim) IsAdmin() bool {
	return c.Role == "admin"
}

var jwtSecret = []byte(getJwtSecret())

func getJwtSecret() string {
	secret := os.Getenv("API_SECRET")
	if secret == "" {
		return "vendas-backend-dev"
	}
	return secret
}

func JwtValidate(token string) (*jwt.Token, error) {
	return jwt.ParseWithClaims(token, &JwtCustomClaim{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return jwtSecret, nil
	})
}
