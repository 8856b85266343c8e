package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/redmonkez12/taskapi/internal/apperror"
	"github.com/redmonkez12/taskapi/internal/database/databasetest"
	"github.com/redmonkez12/taskapi/internal/logging"
	"github.com/redmonkez12/taskapi/internal/user"
)

type testEnv struct {
	service *Service
	tokens  *JWTService
	users   *user.Repository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	hasher, err := NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	tokens := newTestJWTService(t, "test-secret")
	users := user.NewRepository(databasetest.New(t))

	return &testEnv{
		service: NewService(users, hasher, tokens, logging.NewDiscardLogger(), 7*24*time.Hour),
		tokens:  tokens,
		users:   users,
	}
}

func TestRegisterThenLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	registered, regToken, err := env.service.Register(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Ann", registered.Name)

	stored, err := env.users.GetByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.PasswordHash)

	loggedIn, loginToken, err := env.service.Login(ctx, "ann@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, loggedIn.ID)

	for _, token := range []string{regToken, loginToken} {
		claims, err := env.tokens.VerifyToken(token)
		require.NoError(t, err)
		assert.Equal(t, registered.ID.String(), claims.Subject)
		assert.True(t, claims.ExpiresAt.Equal(testNow.Add(7*24*time.Hour)))
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, _, err := env.service.Register(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)

	_, _, err = env.service.Register(ctx, "Other Ann", "ANN@x.com", "secret2")
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindConflict))
}

func TestRegisterRejectsOverlongPassword(t *testing.T) {
	env := newTestEnv(t)

	long := make([]byte, MaxPasswordBytes+1)
	for i := range long {
		long[i] = 'a'
	}

	_, _, err := env.service.Register(context.Background(), "Ann", "ann@x.com", string(long))
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, _, err := env.service.Register(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)

	_, _, wrongPassword := env.service.Login(ctx, "ann@x.com", "nope")
	_, _, unknownEmail := env.service.Login(ctx, "bob@x.com", "secret1")

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.True(t, errors.Is(wrongPassword, ErrInvalidCredentials))
	assert.True(t, errors.Is(unknownEmail, ErrInvalidCredentials))
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ann, _, err := env.service.Register(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)
	_, _, err = env.service.Register(ctx, "Bob", "bob@x.com", "secret1")
	require.NoError(t, err)

	name := "Annie"
	updated, err := env.service.UpdateProfile(ctx, ann.ID, &name, nil)
	require.NoError(t, err)
	assert.Equal(t, "Annie", updated.Name)

	taken := "bob@x.com"
	_, err = env.service.UpdateProfile(ctx, ann.ID, nil, &taken)
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	_, err = env.service.UpdateProfile(ctx, uuid.New(), &name, nil)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	_, err = env.service.Profile(ctx, uuid.New())
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}
