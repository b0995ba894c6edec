package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

func InitDB(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("Error trying to create DB directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("Error trying to open DB: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("Error trying to connect: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	schema := `
    CREATE TABLE IF NOT EXISTS snapshots (
        name TEXT PRIMARY KEY,
        payload TEXT NOT NULL,
        saved_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    `

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("Error trying to create tables: %w", err)
	}
	return nil
}

// SQLiteSnapshotter keeps one row per table, each holding that table's
// records as a JSON array. Every Save rewrites all rows.
type SQLiteSnapshotter struct {
	db *sql.DB
}

func NewSQLiteSnapshotter(db *sql.DB) *SQLiteSnapshotter {
	return &SQLiteSnapshotter{db: db}
}

func (s *SQLiteSnapshotter) Load() (map[string][]Record, error) {
	rows, err := s.db.Query(`SELECT name, payload FROM snapshots`)
	if err != nil {
		return nil, fmt.Errorf("Error trying to read snapshots: %w", err)
	}
	defer rows.Close()

	doc := make(map[string]json.RawMessage)
	for rows.Next() {
		var name, payload string
		if err := rows.Scan(&name, &payload); err != nil {
			return nil, err
		}
		doc[name] = json.RawMessage(payload)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, &SnapshotError{Source: "sqlite", Problems: []string{err.Error()}}
	}
	return decodeSnapshot(data, "sqlite")
}

func (s *SQLiteSnapshotter) Save(tables map[string][]Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("Error trying to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM snapshots`); err != nil {
		return fmt.Errorf("Error trying to clear snapshots: %w", err)
	}

	query := `INSERT INTO snapshots (name, payload, saved_at) VALUES (?, ?, CURRENT_TIMESTAMP)`
	for name, rows := range tables {
		if rows == nil {
			rows = []Record{}
		}
		payload, err := json.Marshal(rows)
		if err != nil {
			return fmt.Errorf("Error trying to encode table %s: %w", name, err)
		}
		if _, err := tx.Exec(query, name, string(payload)); err != nil {
			return fmt.Errorf("Error trying to save table %s: %w", name, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteSnapshotter) Close() error {
	return s.db.Close()
}
