package runs

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wricardo/mcp-training/gridplanner/game/service"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	level       TEXT NOT NULL,
	variant     TEXT NOT NULL,
	status      TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	record_json TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

// SQLitePersistence stores run records in a SQLite database.
type SQLitePersistence struct {
	db *sql.DB
}

// NewSQLitePersistence opens a SQLite database and runs migrations.
func NewSQLitePersistence(dbPath string) (*SQLitePersistence, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLitePersistence{db: db}, nil
}

// Close closes the underlying database connection.
func (p *SQLitePersistence) Close() error {
	return p.db.Close()
}

// Save upserts a run record.
func (p *SQLitePersistence) Save(run *service.Run) error {
	if run == nil {
		return fmt.Errorf("run cannot be nil")
	}

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}

	tx, err := p.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (id, level, variant, status, created_at, record_json)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			level = excluded.level,
			variant = excluded.variant,
			status = excluded.status,
			created_at = excluded.created_at,
			record_json = excluded.record_json`,
		strings.ToLower(run.ID), run.Level, string(run.Variant), string(run.Status),
		run.CreatedAt.UTC().Format(time.RFC3339Nano), string(data),
	)
	if err != nil {
		return fmt.Errorf("upsert run: %w", err)
	}

	return tx.Commit()
}

// Load retrieves a run by ID.
func (p *SQLitePersistence) Load(id string) (*service.Run, error) {
	var data string
	err := p.db.QueryRow(
		`SELECT record_json FROM runs WHERE id = ?`, strings.ToLower(id),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}

	var run service.Run
	if err := json.Unmarshal([]byte(data), &run); err != nil {
		return nil, fmt.Errorf("unmarshal run: %w", err)
	}
	return &run, nil
}

// Delete removes a run record.
func (p *SQLitePersistence) Delete(id string) error {
	res, err := p.db.Exec(`DELETE FROM runs WHERE id = ?`, strings.ToLower(id))
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrRunNotFound
	}
	return nil
}

// ListAll returns all run IDs, oldest first.
func (p *SQLitePersistence) ListAll() ([]string, error) {
	rows, err := p.db.Query(`SELECT id FROM runs ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Exists checks if a run record is stored.
func (p *SQLitePersistence) Exists(id string) bool {
	var one int
	err := p.db.QueryRow(`SELECT 1 FROM runs WHERE id = ?`, strings.ToLower(id)).Scan(&one)
	return err == nil
}

// CountByStatus returns how many stored runs ended with each status.
func (p *SQLitePersistence) CountByStatus() (map[service.Status]int, error) {
	rows, err := p.db.Query(`SELECT status, COUNT(*) FROM runs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("query status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[service.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[service.Status(status)] = n
	}
	return counts, rows.Err()
}
