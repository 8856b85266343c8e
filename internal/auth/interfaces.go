package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/taskapi/internal/user"
)

var (
	ErrInvalidSignature = errors.New("token signature is invalid")
	ErrExpiredToken     = errors.New("token has expired")
	ErrMalformedToken   = errors.New("token is malformed")
)

// TokenClaims represents the claims carried by an access token.
type TokenClaims struct {
	Subject   string    `json:"sub"` // user UUID as string
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// TokenService defines the interface for token creation and validation.
// Implementations include JWTService (HS256) and PasetoService (PASETO v4.local).
//
// VerifyToken fails with ErrInvalidSignature, ErrExpiredToken or
// ErrMalformedToken.
type TokenService interface {
	CreateToken(userID uuid.UUID, ttl time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// PasswordHasher hashes and verifies passwords. Verify never fails loudly:
// a malformed digest simply does not match.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}

// CredentialStore is the identity persistence the auth flows depend on.
// Create must report user.ErrDuplicateEmail from a store-level constraint.
type CredentialStore interface {
	Create(ctx context.Context, u *user.User) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	Update(ctx context.Context, id uuid.UUID, upd user.Update) (*user.User, error)
}

// IdentityResolver loads the identity named by a verified token.
type IdentityResolver interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}
