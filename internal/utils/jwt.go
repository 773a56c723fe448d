package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const staffSubject = "kitchen-staff"

type staffClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateStaffToken creates a signed JWT for kitchen dashboard access.
func GenerateStaffToken(secret string, ttl time.Duration) (string, error) {
	claims := &staffClaims{
		Role: "staff",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   staffSubject,
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseStaffToken validates the token and confirms it carries the staff role.
func ParseStaffToken(secret, tokenString string) error {
	token, err := jwt.ParseWithClaims(tokenString, &staffClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return err
	}

	claims, ok := token.Claims.(*staffClaims)
	if !ok || !token.Valid || claims.Role != "staff" {
		return fmt.Errorf("not a staff token: %w", jwt.ErrTokenInvalidClaims)
	}
	return nil
}
