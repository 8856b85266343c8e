package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/redmonkez12/taskapi/internal/config"
)

// JWTService issues and verifies HS256 JWTs carrying sub, iat and exp.
type JWTService struct {
	secret []byte
	now    func() time.Time
}

func NewJWTService(secret []byte) (*JWTService, error) {
	if len(secret) < config.MinJWTSecretBytes {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes, got %d", config.MinJWTSecretBytes, len(secret))
	}

	key := make([]byte, len(secret))
	copy(key, secret)

	return &JWTService{secret: key, now: time.Now}, nil
}

// WithClock replaces the time source. Used by tests.
func (s *JWTService) WithClock(now func() time.Time) *JWTService {
	s.now = now
	return s
}

// CreateToken signs a token for userID that expires ttl from now. A
// non-positive ttl yields a token that is already expired.
func (s *JWTService) CreateToken(userID uuid.UUID, ttl time.Duration) (string, error) {
	now := s.now()

	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken checks the signature first and then expiry against the
// service clock.
func (s *JWTService) VerifyToken(tokenStr string) (*TokenClaims, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, mapJWTError(err)
	}

	if claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, ErrMalformedToken
	}

	exp := claims.ExpiresAt.Time
	if !exp.After(s.now()) {
		return nil, ErrExpiredToken
	}

	out := &TokenClaims{Subject: claims.Subject, ExpiresAt: exp}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}

// mapJWTError translates jwt library errors to token errors.
func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrInvalidSignature
	default:
		return ErrMalformedToken
	}
}
