package state

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

// Deployment history schema. Version 1 creates deployments, one row per
// project request, and deployed_models, one row per model carrying the
// yml_file snapshot that was sent.
//
//go:embed migrations/*.sql
var migrations embed.FS

// Migrate brings the deployment history schema up to date. Already applied
// versions are skipped, so it is safe to call on every Open.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	p, err := historyProvider(s.db)
	if err != nil {
		return err
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("failed to migrate deployment history: %w", err)
	}
	return nil
}

// SchemaVersion returns the applied deployment history schema version.
func (s *SQLiteStore) SchemaVersion(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}
	p, err := historyProvider(s.db)
	if err != nil {
		return 0, err
	}
	return p.GetDBVersion(ctx)
}

// historyProvider scopes goose to db and the embedded history migrations.
// A provider holds no package-level state, so stores can migrate concurrently.
func historyProvider(db *sql.DB) (*goose.Provider, error) {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return nil, err
	}
	p, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to load history migrations: %w", err)
	}
	return p, nil
}
