package model

import "github.com/golang-jwt/jwt"

// ServiceClaims is the JWT payload carried by callers of the ops API.
type ServiceClaims struct {
	Scope string `json:"scope,omitempty"`
	jwt.StandardClaims
}
