// Package sqlstore implements storage.Adapter on a SQL database.
//
// Two dialects are supported: "sqlite" (embedded, modernc.org/sqlite) and
// "mysql" (MySQL or a Dolt sql-server, go-sql-driver/mysql). Items are kept
// as JSON documents in a single work_items table; position preserves the
// per-project order the store relies on.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/steveyegge/workitems/internal/storage"
	"github.com/steveyegge/workitems/internal/types"
)

// Dialect selects SQL syntax and driver.
type Dialect string

// Dialect constants
const (
	DialectSQLite Dialect = "sqlite"
	DialectMySQL  Dialect = "mysql"
)

// Config describes the database to open.
type Config struct {
	Dialect Dialect
	// DSN is a file path (or file: URI, or ":memory:") for sqlite and a
	// go-sql-driver DSN for mysql.
	DSN string
	// BusyTimeout is the sqlite busy timeout. Zero uses the default.
	BusyTimeout time.Duration
}

// Store is a SQL-backed adapter.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects, applies dialect settings and creates the schema.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	var (
		db  *sql.DB
		err error
	)
	switch cfg.Dialect {
	case DialectSQLite:
		db, err = openSQLite(cfg)
	case DialectMySQL:
		if strings.TrimSpace(cfg.DSN) == "" {
			return nil, fmt.Errorf("%w: mysql backend requires a dsn", types.ErrValidation)
		}
		db, err = sql.Open("mysql", cfg.DSN)
		if err == nil {
			db.SetConnMaxLifetime(3 * time.Minute)
			db.SetMaxIdleConns(4)
		}
	default:
		return nil, fmt.Errorf("%w: unknown sql dialect %q", types.ErrValidation, cfg.Dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	s := &Store{db: db, dialect: cfg.Dialect}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func openSQLite(cfg Config) (*sql.DB, error) {
	path := strings.TrimSpace(cfg.DSN)
	if path == "" {
		return nil, fmt.Errorf("%w: sqlite backend requires a database path", types.ErrValidation)
	}
	inMemory := path == ":memory:" || strings.Contains(path, "mode=memory")
	connStr := path
	if !inMemory {
		if !strings.HasPrefix(path, "file:") {
			if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		connStr = storage.SQLiteConnString(path, cfg.BusyTimeout)
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, err
	}
	// One connection: writes are serialized by the store anyway, and an
	// in-memory database is private to its connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if !inMemory {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	return db, nil
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

// Close implements storage.Closer.
func (s *Store) Close() error { return s.db.Close() }

// LoadItems implements storage.Adapter.
func (s *Store) LoadItems(ctx context.Context, projectID string) ([]*types.WorkItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, body FROM work_items WHERE project_id = ? ORDER BY position, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	items := []*types.WorkItem{}
	for rows.Next() {
		var (
			id   string
			body []byte
		)
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		var item types.WorkItem
		if err := json.Unmarshal(body, &item); err != nil {
			return nil, fmt.Errorf("item %s: %w", id, err)
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read items: %w", err)
	}
	return items, nil
}

// SaveItem implements storage.Adapter. An existing row keeps its position;
// a new one goes after the project's last item.
func (s *Store) SaveItem(ctx context.Context, projectID string, item *types.WorkItem) error {
	if item == nil {
		return fmt.Errorf("%w: nil item", types.ErrValidation)
	}
	body, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to encode item %s: %w", item.ID, err)
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var pos int64
		err := tx.QueryRowContext(ctx,
			`SELECT position FROM work_items WHERE id = ? AND project_id = ?`, item.ID, projectID).Scan(&pos)
		if errors.Is(err, sql.ErrNoRows) {
			err = tx.QueryRowContext(ctx,
				`SELECT COALESCE(MAX(position), -1) + 1 FROM work_items WHERE project_id = ?`, projectID).Scan(&pos)
		}
		if err != nil {
			return fmt.Errorf("failed to resolve position: %w", err)
		}
		if _, err := tx.ExecContext(ctx, s.upsertSQL(), item.ID, projectID, pos, string(body)); err != nil {
			return fmt.Errorf("failed to save item %s: %w", item.ID, err)
		}
		return nil
	})
}

// SaveItems implements storage.Adapter.
func (s *Store) SaveItems(ctx context.Context, projectID string, items []*types.WorkItem) error {
	bodies := make([]string, len(items))
	for i, item := range items {
		b, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to encode item %s: %w", item.ID, err)
		}
		bodies[i] = string(b)
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM work_items WHERE project_id = ?`, projectID); err != nil {
			return fmt.Errorf("failed to clear project: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, s.upsertSQL())
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()
		for i, item := range items {
			if _, err := stmt.ExecContext(ctx, item.ID, projectID, i, bodies[i]); err != nil {
				return fmt.Errorf("failed to save item %s: %w", item.ID, err)
			}
		}
		return nil
	})
}

// DeleteItem implements storage.ItemDeleter.
func (s *Store) DeleteItem(ctx context.Context, projectID, id string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM work_items WHERE id = ? AND project_id = ?`, id, projectID); err != nil {
		return fmt.Errorf("failed to delete item %s: %w", id, err)
	}
	return nil
}

// ListProjects implements storage.ProjectLister.
func (s *Store) ListProjects(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT project_id FROM work_items ORDER BY project_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *Store) upsertSQL() string {
	if s.dialect == DialectMySQL {
		return `INSERT INTO work_items (id, project_id, position, body) VALUES (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE project_id = VALUES(project_id), position = VALUES(position), body = VALUES(body)`
	}
	return `INSERT INTO work_items (id, project_id, position, body) VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET project_id = excluded.project_id, position = excluded.position, body = excluded.body`
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}
