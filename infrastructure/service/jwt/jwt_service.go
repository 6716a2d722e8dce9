package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Subrata270/studio-sub001/application/port/outbound"
	"github.com/Subrata270/studio-sub001/infrastructure/config"
)

type JWTService struct {
	algorithm  string
	accessTTL  time.Duration
	hmacSecret []byte
	now        func() time.Time
}

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

var _ outbound.TokenService = (*JWTService)(nil)

func NewJWTService(cfg *config.Config) (*JWTService, error) {
	if cfg.JWTAlgorithm != "HS256" {
		return nil, fmt.Errorf("unsupported JWT algorithm: %s", cfg.JWTAlgorithm)
	}
	if cfg.JWTSecret == "" {
		return nil, config.ErrMissingJWTSecret
	}
	ttl := cfg.AccessTokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &JWTService{
		algorithm:  cfg.JWTAlgorithm,
		accessTTL:  ttl,
		hmacSecret: []byte(cfg.JWTSecret),
		now:        time.Now,
	}, nil
}

// GenerateAccessToken signs the identity the API resolves actors from.
// Role is informational; the user store stays authoritative.
func (s *JWTService) GenerateAccessToken(claims outbound.TokenClaims) (string, error) {
	if claims.UserID == "" {
		return "", fmt.Errorf("user ID is required")
	}
	now := s.now()
	tokenClaims := jwt.MapClaims{
		"user_id": claims.UserID,
		"exp":     now.Add(s.accessTTL).Unix(),
		"iat":     now.Unix(),
		"type":    "access",
	}
	if claims.Email != "" {
		tokenClaims["email"] = claims.Email
	}
	if claims.Role != "" {
		tokenClaims["role"] = claims.Role
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims)
	tokenString, err := token.SignedString(s.hmacSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return tokenString, nil
}

func (s *JWTService) ValidateAccessToken(tokenString string) (*outbound.TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.hmacSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, s.handleValidationError(err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, ErrInvalidToken
	}
	tokenType, ok := claims["type"].(string)
	if !ok || tokenType != "access" {
		return nil, ErrInvalidToken
	}

	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	return &outbound.TokenClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
	}, nil
}

func (s *JWTService) handleValidationError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return ErrTokenExpired
	}
	return ErrInvalidToken
}
