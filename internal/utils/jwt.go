package utils

import (
	"errors" // Error values
	"time"   // Time for token expiration

	"github.com/golang-jwt/jwt/v5" // JWT library

	"wallet_admin/internal/domain" // Account roles
)

// TokenTTL is the lifetime of issued tokens
const TokenTTL = 24 * time.Hour

const tokenIssuer = "wallet-admin" // iss claim

// Claims carried by access tokens
type Claims struct {
	UserID               uint        `json:"user_id"` // Account ID
	Role                 domain.Role `json:"role"`    // Role at issue time, informational only
	jwt.RegisteredClaims             // Standard JWT claims
}

// GenerateJWT creates a signed token for an account
func GenerateJWT(account *domain.Account, secret string, now time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is not configured") // Refuse to sign with an empty key
	}
	claims := Claims{
		UserID: account.ID,   // Account ID
		Role:   account.Role, // Role
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,                           // Issuer
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)), // Token expires in 24 hours
			IssuedAt:  jwt.NewNumericDate(now),               // Issued at current time
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims) // Create token with claims
	return token.SignedString([]byte(secret))                  // Sign the token with the secret
}

// ParseJWT parses and validates a token string
func ParseJWT(tokenStr, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil // Return the secret key for validation
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), // Reject alg switching
		jwt.WithIssuer(tokenIssuer),                                  // Only our own tokens
	)
	if err != nil {
		return nil, err // Return error if parsing fails
	}
	// Validate token and extract claims
	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.UserID != 0 {
		return claims, nil // Return claims if valid
	}
	return nil, jwt.ErrTokenInvalidClaims
}
