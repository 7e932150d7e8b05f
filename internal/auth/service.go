package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/abduss/assethost/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

const audience = "assethost-api"

// Service issues and validates caller tokens.
type Service struct {
	cfg     config.AuthConfig
	nowFunc func() time.Time
	parser  *jwt.Parser
}

// NewService creates a Service from configuration.
func NewService(cfg config.AuthConfig) *Service {
	return &Service{
		cfg:     cfg,
		nowFunc: time.Now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithAudience(audience),
		),
	}
}

// Issue signs a token naming the principal.
func (s *Service) Issue(principal Principal) (string, time.Time, error) {
	if principal.IsAnonymous() {
		return "", time.Time{}, ErrEmptyPrincipal
	}

	now := s.nowFunc()
	expiresAt := now.Add(s.cfg.TokenTTL)
	claims := jwt.RegisteredClaims{
		Subject:   string(principal),
		Issuer:    s.cfg.Issuer,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.TokenSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateAccessToken verifies the token signature and extracts the principal.
func (s *Service) ValidateAccessToken(tokenString string) (Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return Claims{}, ErrUnauthorized
	}

	var registered jwt.RegisteredClaims
	parsed, err := s.parser.ParseWithClaims(tokenString, &registered, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.TokenSecret), nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, ErrUnauthorized
	}

	principal := Principal(registered.Subject)
	if principal.IsAnonymous() || registered.ExpiresAt == nil {
		return Claims{}, ErrUnauthorized
	}
	if registered.ExpiresAt.Time.Before(s.nowFunc()) {
		return Claims{}, ErrUnauthorized
	}

	claims := Claims{
		Principal: principal,
		ExpiresAt: registered.ExpiresAt.Time,
	}
	if registered.IssuedAt != nil {
		claims.IssuedAt = registered.IssuedAt.Time
	}
	return claims, nil
}
