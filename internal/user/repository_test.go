package user

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/taskapi/internal/database/databasetest"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	return NewRepository(databasetest.New(t))
}

func TestRepositoryCreateAndGet(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, &User{Name: " Ann ", Email: "Ann@X.com", PasswordHash: "digest"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "Ann", created.Name)
	assert.Equal(t, "ann@x.com", created.Email)

	byEmail, err := repo.GetByEmail(ctx, "ANN@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
	assert.Equal(t, "digest", byEmail.PasswordHash)

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", byID.Email)
}

func TestRepositoryNotFound(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.GetByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	name := "Ghost"
	_, err = repo.Update(ctx, uuid.New(), Update{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepositoryDuplicateEmailCaseInsensitive(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, &User{Name: "Ann", Email: "ann@x.com", PasswordHash: "a"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &User{Name: "Ann 2", Email: "ANN@x.com", PasswordHash: "b"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestRepositoryConcurrentCreateSameEmail(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(ctx, &User{Name: "Racer", Email: "race@x.com", PasswordHash: "h"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case err == ErrDuplicateEmail:
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, conflicts)
}

func TestRepositoryUpdate(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	ann, err := repo.Create(ctx, &User{Name: "Ann", Email: "ann@x.com", PasswordHash: "a"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &User{Name: "Bob", Email: "bob@x.com", PasswordHash: "b"})
	require.NoError(t, err)

	name := "Annie"
	updated, err := repo.Update(ctx, ann.ID, Update{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Annie", updated.Name)
	assert.Equal(t, "ann@x.com", updated.Email)
	assert.Equal(t, "a", updated.PasswordHash)

	email := "BOB@x.com"
	_, err = repo.Update(ctx, ann.ID, Update{Email: &email})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	unchanged, err := repo.Update(ctx, ann.ID, Update{})
	require.NoError(t, err)
	assert.Equal(t, "Annie", unchanged.Name)
}
