package task

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/redmonkez12/taskapi/internal/apperror"
	"github.com/redmonkez12/taskapi/internal/logging"
)

// Store is the persistence the task service depends on.
type Store interface {
	Getter
	List(ctx context.Context, ownerID uuid.UUID, query string) ([]Task, error)
	Create(ctx context.Context, t *Task) (*Task, error)
	Update(ctx context.Context, id uuid.UUID, patch Patch) (*Task, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service handles task business logic. Every operation acts on behalf of
// an authenticated identity.
type Service struct {
	tasks      Store
	authorizer *Authorizer
	logger     *logging.Logger
}

func NewService(tasks Store, logger *logging.Logger) *Service {
	return &Service{
		tasks:      tasks,
		authorizer: NewAuthorizer(tasks),
		logger:     logger,
	}
}

// List returns only tasks owned by ownerID.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID, query string) ([]Task, error) {
	tasks, err := s.tasks.List(ctx, ownerID, query)
	if err != nil {
		return nil, apperror.Internal("server error", err)
	}
	return tasks, nil
}

func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, title, description string) (*Task, error) {
	t, err := s.tasks.Create(ctx, &Task{
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
	})
	if err != nil {
		return nil, apperror.Internal("server error", err)
	}

	s.logger.Debug("task created", "task_id", t.ID, "owner_id", ownerID)
	return t, nil
}

func (s *Service) Update(ctx context.Context, ownerID, taskID uuid.UUID, patch Patch) (*Task, error) {
	if _, err := s.authorizer.AuthorizeOwner(ctx, ownerID, taskID); err != nil {
		return nil, err
	}

	t, err := s.tasks.Update(ctx, taskID, patch)
	if err != nil {
		return nil, s.storeError(err)
	}
	return t, nil
}

func (s *Service) Delete(ctx context.Context, ownerID, taskID uuid.UUID) error {
	if _, err := s.authorizer.AuthorizeOwner(ctx, ownerID, taskID); err != nil {
		return err
	}

	if err := s.tasks.Delete(ctx, taskID); err != nil {
		return s.storeError(err)
	}

	s.logger.Debug("task deleted", "task_id", taskID, "owner_id", ownerID)
	return nil
}

// storeError maps a store failure after authorization. A task removed
// between the check and the write is reported as not found.
func (s *Service) storeError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return ErrTaskNotFound
	}
	return apperror.Internal("server error", err)
}
