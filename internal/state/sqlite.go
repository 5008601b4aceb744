package state

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite state store instance.
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{now: time.Now}
}

// Open opens the database at path, creating its directory if needed, and
// runs migrations. Use ":memory:" for an in-memory database.
func Open(path string) (*SQLiteStore, error) {
	s := NewSQLiteStore()
	if err := s.Open(path); err != nil {
		return nil, err
	}
	if err := s.Migrate(context.Background()); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Open opens a connection to the SQLite database.
func (s *SQLiteStore) Open(path string) error {
	dsn := ":memory:?_pragma=foreign_keys(1)"
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("failed to create state directory: %w", err)
			}
		}
		dsn = fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if path == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordDeployment stores d and its models in one transaction. An empty
// d.ID is filled with a new UUID and a zero CreatedAt with the current time.
func (s *SQLiteStore) RecordDeployment(ctx context.Context, d *Deployment, models []DeployedModelRecord) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = s.now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO deployments (id, project, api_url, dry_run, success_count, updated_count, no_change_count, failure_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Project, d.APIURL, d.DryRun, d.SuccessCount, d.UpdatedCount, d.NoChangeCount, d.FailureCount,
		d.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert deployment: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO deployed_models (deployment_id, model_name, file, data_source, status, yml_file, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare model insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range models {
		if _, err := stmt.ExecContext(ctx, d.ID, m.ModelName, m.File, m.DataSource, string(m.Status), m.YmlFile, m.Error); err != nil {
			return fmt.Errorf("failed to insert model %s: %w", m.ModelName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit deployment: %w", err)
	}
	return nil
}

// ListDeployments returns the most recent deployments, newest first.
// A non-positive limit returns every deployment.
func (s *SQLiteStore) ListDeployments(ctx context.Context, limit int) ([]Deployment, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project, api_url, dry_run, success_count, updated_count, no_change_count, failure_count, created_at
		 FROM deployments ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}
	defer rows.Close()

	var out []Deployment
	for rows.Next() {
		var d Deployment
		var created string
		if err := rows.Scan(&d.ID, &d.Project, &d.APIURL, &d.DryRun, &d.SuccessCount, &d.UpdatedCount,
			&d.NoChangeCount, &d.FailureCount, &created); err != nil {
			return nil, fmt.Errorf("failed to scan deployment: %w", err)
		}
		if d.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("invalid created_at for deployment %s: %w", d.ID, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetDeployedModels returns the models of one deployment in insertion order.
func (s *SQLiteStore) GetDeployedModels(ctx context.Context, deploymentID string) ([]DeployedModelRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT deployment_id, model_name, file, data_source, status, yml_file, error
		 FROM deployed_models WHERE deployment_id = ? ORDER BY id`, deploymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get deployed models: %w", err)
	}
	defer rows.Close()

	var out []DeployedModelRecord
	for rows.Next() {
		var m DeployedModelRecord
		var status string
		if err := rows.Scan(&m.DeploymentID, &m.ModelName, &m.File, &m.DataSource, &status, &m.YmlFile, &m.Error); err != nil {
			return nil, fmt.Errorf("failed to scan deployed model: %w", err)
		}
		m.Status = ModelStatus(status)
		out = append(out, m)
	}
	return out, rows.Err()
}
