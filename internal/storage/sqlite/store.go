// Package sqlite opens a task store backed by a local SQLite file. It serves
// local development runs and the test suites.
package sqlite

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"taskapi/internal/storage"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            user_id TEXT NOT NULL,
            title VARCHAR(200) NOT NULL,
            description VARCHAR(1000),
            completed BOOLEAN NOT NULL DEFAULT 0,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        );`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_user_id ON tasks(user_id);`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_completed ON tasks(completed);`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_created_at ON tasks(created_at);`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_user_completed ON tasks(user_id, completed);`,
}

// Open initializes a SQLite-backed store. Call Migrate before use.
func Open(dbPath string, logger *slog.Logger) (*storage.Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("empty database path")
	}

	if err := ensureDir(dbPath); err != nil {
		return nil, err
	}

	conn, err := sqlx.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=ON", dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	return storage.New(conn, schema, logger), nil
}

func ensureDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
