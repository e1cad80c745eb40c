// AngelaMos | 2026
// migrate.go

package core

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate applies every embedded migration that is not yet recorded in
// schema_migrations. Each file runs in its own transaction.
func Migrate(ctx context.Context, db *sqlx.DB, logger *slog.Logger) (int, error) {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename   VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`); err != nil {
		return 0, fmt.Errorf("create migrations table: %w", err)
	}

	var applied []string
	if err := db.SelectContext(ctx, &applied, `SELECT filename FROM schema_migrations`); err != nil {
		return 0, fmt.Errorf("list applied migrations: %w", err)
	}

	done := make(map[string]struct{}, len(applied))
	for _, name := range applied {
		done[name] = struct{}{}
	}

	files, err := fs.Glob(migrationFS, "migrations/*.sql")
	if err != nil {
		return 0, fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	ran := 0
	for _, path := range files {
		name := strings.TrimPrefix(path, "migrations/")
		if _, ok := done[name]; ok {
			continue
		}

		content, err := migrationFS.ReadFile(path)
		if err != nil {
			return ran, fmt.Errorf("read migration %s: %w", name, err)
		}

		err = InTx(ctx, db, func(tx *sqlx.Tx) error {
			if _, execErr := tx.ExecContext(ctx, string(content)); execErr != nil {
				return execErr
			}
			_, execErr := tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (filename) VALUES ($1)`, name)
			return execErr
		})
		if err != nil {
			return ran, fmt.Errorf("apply migration %s: %w", name, err)
		}

		logger.Info("migration applied", "file", name)
		ran++
	}

	return ran, nil
}
