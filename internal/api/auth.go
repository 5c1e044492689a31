package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const ownerKey = "owner"

// IssueToken signs an HS256 operator token for subject.
func IssueToken(secret, issuer, subject string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is not configured")
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken verifies the token and returns its subject.
func ParseToken(secret, issuer, tokenStr string) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is not configured")
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	token, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("token parsing failed: %w", err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", errors.New("invalid token claims")
	}
	return claims.Subject, nil
}

func (s *Server) requireOwner(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, "Bearer ") {
		return fiber.NewError(fiber.StatusUnauthorized, "missing or invalid authorization header")
	}

	owner, err := ParseToken(s.auth.JWTSecret, s.auth.Issuer, strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		s.log.Debug("Rejected token: %v", err)
		return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
	}

	c.Locals(ownerKey, owner)
	return c.Next()
}

func owner(c *fiber.Ctx) string {
	id, _ := c.Locals(ownerKey).(string)
	return id
}
