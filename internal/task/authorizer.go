package task

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/redmonkez12/taskapi/internal/apperror"
)

var (
	ErrTaskNotFound = apperror.NotFound(apperror.CodeTaskNotFound, "task not found")
	ErrNotOwner     = apperror.Forbidden("not the task owner")
)

// Getter loads a single task by ID.
type Getter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Task, error)
}

// Authorizer decides whether an identity may act on a task. Only the owner
// may; existence is checked before ownership.
type Authorizer struct {
	tasks Getter
}

func NewAuthorizer(tasks Getter) *Authorizer {
	return &Authorizer{tasks: tasks}
}

// AuthorizeOwner returns the task when identityID owns it.
func (a *Authorizer) AuthorizeOwner(ctx context.Context, identityID, taskID uuid.UUID) (*Task, error) {
	t, err := a.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, apperror.Internal("server error", err)
	}

	if t.OwnerID != identityID {
		return nil, ErrNotOwner
	}
	return t, nil
}
