// Package history implements the C12 run history: one SQLite row per
// completed backup/restore/verify/clean operation, adapted from the
// teacher's InitializeDatabase/AddBackupRecord/GetBackupHistory
// (database.go, app.go), generalized from "one archive file" records to
// "one operation of any kind" records.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type Status string

const (
	StatusOK        Status = "ok"
	StatusCancelled Status = "cancelled"
	StatusError     Status = "error"
)

type Operation string

const (
	OpBackup  Operation = "backup"
	OpRestore Operation = "restore"
	OpVerify  Operation = "verify"
	OpClean   Operation = "clean"
)

// Record is one completed operation's outcome.
type Record struct {
	ID         int64
	Operation  Operation
	Profile    string
	Status     Status
	Err        string
	StartedAt  time.Time
	FinishedAt time.Time
	NodeCount  int
}

// Store wraps the SQLite history database.
type Store struct {
	db *sql.DB
}

// Open creates (if absent) the schema at path and returns a Store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	const schema = `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		operation TEXT NOT NULL,
		profile TEXT NOT NULL,
		status TEXT NOT NULL,
		error TEXT,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		node_count INTEGER NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Record inserts one completed operation's outcome.
func (s *Store) Record(r Record) error {
	_, err := s.db.Exec(
		`INSERT INTO runs(operation, profile, status, error, started_at, finished_at, node_count) VALUES (?,?,?,?,?,?,?)`,
		string(r.Operation), r.Profile, string(r.Status), r.Err, r.StartedAt, r.FinishedAt, r.NodeCount,
	)
	return err
}

// Recent returns up to limit most recent runs, newest first, optionally
// restricted to one profile — mirrors the teacher's GetBackupHistory
// (... ORDER BY created_at DESC LIMIT 50).
func (s *Store) Recent(profile string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, operation, profile, status, error, started_at, finished_at, node_count FROM runs`
	args := []any{}
	if profile != "" {
		query += ` WHERE profile = ?`
		args = append(args, profile)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var op, status string
		var errStr sql.NullString
		if err := rows.Scan(&r.ID, &op, &r.Profile, &status, &errStr, &r.StartedAt, &r.FinishedAt, &r.NodeCount); err != nil {
			return nil, err
		}
		r.Operation = Operation(op)
		r.Status = Status(status)
		r.Err = errStr.String
		records = append(records, r)
	}
	return records, rows.Err()
}
