package database

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// Migrate creates the schema when it does not exist yet. The unique
// constraint on users.email is what makes concurrent registrations with the
// same address safe.
func Migrate(ctx context.Context, db *bun.DB) error {
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewCreateTable().
			Model((*User)(nil)).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("create users table: %w", err)
		}

		if _, err := tx.NewCreateTable().
			Model((*Task)(nil)).
			IfNotExists().
			ForeignKey(`("owner_id") REFERENCES "users" ("id") ON DELETE CASCADE`).
			Exec(ctx); err != nil {
			return fmt.Errorf("create tasks table: %w", err)
		}

		if _, err := tx.NewCreateIndex().
			Model((*Task)(nil)).
			Index("tasks_owner_created_idx").
			Column("owner_id", "created_at").
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("create tasks owner index: %w", err)
		}

		return nil
	})
}
