package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrEmptyTitle = errors.New("task title is empty")
)

type DB struct {
	SQL *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := path + "?_pragma=busy_timeout(5000)"
	s, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(1)
	if err := migrate(context.Background(), s); err != nil {
		return nil, err
	}
	return &DB{SQL: s}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS tasks (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            owner_id INTEGER NOT NULL,
            title TEXT NOT NULL,
            description TEXT,
            assignee_id INTEGER,
            assignee_name TEXT,
            attachment_id TEXT,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_owner ON tasks(owner_id);`,
		`CREATE TABLE IF NOT EXISTS attachments (
            id TEXT PRIMARY KEY,
            blob_ref TEXT NOT NULL,
            filename TEXT NOT NULL,
            task_id INTEGER REFERENCES tasks(id) ON DELETE CASCADE,
            created_at DATETIME NOT NULL
        );`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func Now() time.Time {
	return time.Now().In(time.Local)
}
