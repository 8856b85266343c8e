package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"github.com/redmonkez12/taskapi/internal/database"
)

var ErrNotFound = errors.New("task not found")

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Repository handles task data persistence
type Repository struct {
	db  *bun.DB
	now func() time.Time
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// List returns the owner's tasks, newest first. A non-empty query keeps
// only tasks whose title or description contains it, ignoring case.
func (r *Repository) List(ctx context.Context, ownerID uuid.UUID, query string) ([]Task, error) {
	var rows []database.Task
	q := r.db.NewSelect().
		Model(&rows).
		Where("t.owner_id = ?", ownerID).
		OrderExpr("t.created_at DESC")

	if query = strings.TrimSpace(query); query != "" {
		match, pattern := searchPredicate(r.db.Dialect().Name(), query)
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where(fmt.Sprintf(match, "t.title"), pattern).
				WhereOr(fmt.Sprintf(match, "t.description"), pattern)
		})
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks := make([]Task, 0, len(rows))
	for i := range rows {
		tasks = append(tasks, *mapDBTaskToModel(&rows[i]))
	}
	return tasks, nil
}

// searchPredicate returns a column format and LIKE pattern for query.
// Postgres folds case with ILIKE. SQLite's LOWER folds ASCII letters only,
// so the pattern is folded the same way and other letters match exactly.
func searchPredicate(name dialect.Name, query string) (string, string) {
	escaped := likeEscaper.Replace(query)
	if name == dialect.PG {
		return `%s ILIKE ? ESCAPE '\'`, "%" + escaped + "%"
	}
	return `LOWER(%s) LIKE ? ESCAPE '\'`, "%" + asciiLower(escaped) + "%"
}

func asciiLower(s string) string {
	return strings.Map(func(r rune) rune {
		if 'A' <= r && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}

// Create inserts a task for t.OwnerID.
func (r *Repository) Create(ctx context.Context, t *Task) (*Task, error) {
	now := r.now().UTC()
	row := &database.Task{
		ID:          t.ID,
		OwnerID:     t.OwnerID,
		Title:       strings.TrimSpace(t.Title),
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}

	if _, err := r.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return mapDBTaskToModel(row), nil
}

// GetByID retrieves a task by ID regardless of owner
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Task, error) {
	row := new(database.Task)
	err := r.db.NewSelect().
		Model(row).
		Where("t.id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task by id: %w", err)
	}
	return mapDBTaskToModel(row), nil
}

// Update applies patch and returns the stored task.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, patch Patch) (*Task, error) {
	if patch.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	q := r.db.NewUpdate().
		Model((*database.Task)(nil)).
		Set("updated_at = ?", r.now().UTC()).
		Where("id = ?", id)

	if patch.Title != nil {
		q = q.Set("title = ?", strings.TrimSpace(*patch.Title))
	}
	if patch.Description != nil {
		q = q.Set("description = ?", *patch.Description)
	}
	if patch.Completed != nil {
		q = q.Set("completed = ?", *patch.Completed)
	}

	result, err := q.Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if err := requireRow(result); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// Delete removes a task.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.NewDelete().
		Model((*database.Task)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return requireRow(result)
}

func requireRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func mapDBTaskToModel(row *database.Task) *Task {
	return &Task{
		ID:          row.ID,
		OwnerID:     row.OwnerID,
		Title:       row.Title,
		Description: row.Description,
		Completed:   row.Completed,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}
