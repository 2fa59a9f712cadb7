// Package auth adapts bearer JWTs into the caller identity the ledger trusts.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer is set on every token this service mints.
const Issuer = "assetledger"

// Claims carries the caller's payroll number and role.
type Claims struct {
	PayrollNumber string `json:"payroll_number"`
	Role          string `json:"role"`
	jwt.RegisteredClaims
}

// DefaultExpiry is the token lifetime used when none is configured.
const DefaultExpiry = 7 * 24 * time.Hour

// GenerateToken signs a token for a payroll number. A non-positive expiry
// uses DefaultExpiry.
func GenerateToken(secret, payroll, role string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	now := time.Now()
	claims := Claims{
		PayrollNumber: payroll,
		Role:          role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    Issuer,
			Subject:   payroll,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func ValidateToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(Issuer))
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.PayrollNumber == "" {
		return nil, fmt.Errorf("token has no payroll number")
	}

	return claims, nil
}
