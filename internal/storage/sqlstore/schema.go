package sqlstore

import (
	"context"
	"fmt"
)

var schemas = map[Dialect][]string{
	DialectSQLite: {
		`CREATE TABLE IF NOT EXISTS work_items (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    body TEXT NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_work_items_project ON work_items(project_id, position)`,
	},
	DialectMySQL: {
		`CREATE TABLE IF NOT EXISTS work_items (
    id VARCHAR(64) NOT NULL PRIMARY KEY,
    project_id VARCHAR(255) NOT NULL,
    position BIGINT NOT NULL,
    body LONGTEXT NOT NULL,
    INDEX idx_work_items_project (project_id, position)
)`,
	},
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schemas[s.dialect] {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}
