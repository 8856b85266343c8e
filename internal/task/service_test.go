package task

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/taskapi/internal/apperror"
	"github.com/redmonkez12/taskapi/internal/logging"
)

func TestServiceOwnership(t *testing.T) {
	repo, db := newTestRepository(t)
	svc := NewService(repo, logging.NewDiscardLogger())
	ctx := context.Background()

	ann := createUser(t, db, "ann@x.com")
	bob := createUser(t, db, "bob@x.com")

	annTask, err := svc.Create(ctx, ann, "ann's task", "")
	require.NoError(t, err)

	title := "hijacked"
	_, err = svc.Update(ctx, bob, annTask.ID, Patch{Title: &title})
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, "not the task owner", appErr.Message)

	err = svc.Delete(ctx, bob, annTask.ID)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	unchanged, err := repo.GetByID(ctx, annTask.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann's task", unchanged.Title)

	title = "renamed"
	updated, err := svc.Update(ctx, ann, annTask.ID, Patch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)

	require.NoError(t, svc.Delete(ctx, ann, annTask.ID))
}

func TestServiceMissingTask(t *testing.T) {
	repo, db := newTestRepository(t)
	svc := NewService(repo, logging.NewDiscardLogger())
	ctx := context.Background()
	ann := createUser(t, db, "ann@x.com")

	_, err := svc.Update(ctx, ann, uuid.New(), Patch{})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	err = svc.Delete(ctx, ann, uuid.New())
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestServiceListNeverLeaksOtherOwners(t *testing.T) {
	repo, db := newTestRepository(t)
	svc := NewService(repo, logging.NewDiscardLogger())
	ctx := context.Background()

	ann := createUser(t, db, "ann@x.com")
	bob := createUser(t, db, "bob@x.com")

	_, err := svc.Create(ctx, bob, "shared words", "shared")
	require.NoError(t, err)
	_, err = svc.Create(ctx, ann, "mine", "")
	require.NoError(t, err)

	for _, q := range []string{"", "shared"} {
		tasks, err := svc.List(ctx, ann, q)
		require.NoError(t, err)
		for _, task := range tasks {
			assert.Equal(t, ann, task.OwnerID)
		}
	}
}
