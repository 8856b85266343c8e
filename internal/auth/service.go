package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/taskapi/internal/apperror"
	"github.com/redmonkez12/taskapi/internal/logging"
	"github.com/redmonkez12/taskapi/internal/user"
)

var (
	ErrInvalidCredentials = apperror.Unauthenticated(apperror.CodeInvalidCredentials, "Invalid credentials")
	ErrEmailTaken         = apperror.Conflict(apperror.CodeEmailAlreadyExists, "Email already registered")
	ErrUserNotFound       = apperror.NotFound(apperror.CodeUserNotFound, "user not found")
)

// dummyPassword is hashed once at startup so that a login for an unknown
// email costs one verification, like a login with a wrong password.
const dummyPassword = "task-api-timing-equalizer"

// Service handles authentication business logic
type Service struct {
	users         CredentialStore
	hasher        PasswordHasher
	tokens        TokenService
	logger        *logging.Logger
	tokenDuration time.Duration
	dummyDigest   string
}

func NewService(
	users CredentialStore,
	hasher PasswordHasher,
	tokens TokenService,
	logger *logging.Logger,
	tokenDuration time.Duration,
) *Service {
	s := &Service{
		users:         users,
		hasher:        hasher,
		tokens:        tokens,
		logger:        logger,
		tokenDuration: tokenDuration,
	}

	digest, err := hasher.Hash(dummyPassword)
	if err != nil {
		logger.Warn("failed to prepare dummy password digest", "error", err)
	}
	s.dummyDigest = digest
	return s
}

// Register creates an identity and issues its first token.
func (s *Service) Register(ctx context.Context, name, email, password string) (*user.User, string, error) {
	if len(password) > MaxPasswordBytes {
		return nil, "", apperror.Validation("validation failed", apperror.FieldError{
			Field:   "password",
			Message: "password must be at most 72 bytes",
		})
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, "", apperror.Internal("server error", err)
	}

	created, err := s.users.Create(ctx, &user.User{
		Name:         name,
		Email:        email,
		PasswordHash: digest,
	})
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", apperror.Internal("server error", err)
	}

	token, err := s.tokens.CreateToken(created.ID, s.tokenDuration)
	if err != nil {
		return nil, "", apperror.Internal("server error", err)
	}

	s.logger.Info("user registered", "user_id", created.ID)
	return created, token, nil
}

// Login checks credentials and issues a token. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, string, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.hasher.Verify(password, s.dummyDigest)
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", apperror.Internal("server error", err)
	}

	if !s.hasher.Verify(password, u.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.CreateToken(u.ID, s.tokenDuration)
	if err != nil {
		return nil, "", apperror.Internal("server error", err)
	}
	return u, token, nil
}

// Profile returns the identity's record.
func (s *Service) Profile(ctx context.Context, id uuid.UUID) (*user.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apperror.Internal("server error", err)
	}
	return u, nil
}

// UpdateProfile changes name and/or email. An empty update returns the
// current record.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, name, email *string) (*user.User, error) {
	u, err := s.users.Update(ctx, id, user.Update{Name: name, Email: email})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, user.ErrDuplicateEmail):
			return nil, ErrEmailTaken
		default:
			return nil, apperror.Internal("server error", err)
		}
	}
	return u, nil
}
