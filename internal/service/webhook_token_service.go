package service

import (
	"errors"
	"fmt"
	"time"

	"pix-wallet/internal/core/ports"

	"github.com/golang-jwt/jwt/v5"
)

// JWTWebhookTokenService implements ports.WebhookTokenService using HS256 JWT
// tokens signed with the secret shared with the settlement provider.
type JWTWebhookTokenService struct {
	secret []byte
	issuer string
}

// NewJWTWebhookTokenService creates a new webhook token service.
func NewJWTWebhookTokenService(secret, issuer string) *JWTWebhookTokenService {
	return &JWTWebhookTokenService{
		secret: []byte(secret),
		issuer: issuer,
	}
}

// Generate signs a token for provider. Used by tooling and tests that act as
// the settlement provider.
func (s *JWTWebhookTokenService) Generate(provider string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   provider,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return tokenString, nil
}

// Validate parses and validates a webhook token, returning its claims.
func (s *JWTWebhookTokenService) Validate(tokenString string) (*ports.WebhookClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("missing subject claim")
	}

	return &ports.WebhookClaims{Provider: claims.Subject}, nil
}
