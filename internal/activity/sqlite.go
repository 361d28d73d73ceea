package activity

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/notebridge/internal/foundation/errors"
)

// SQLiteStore persists records in SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens or creates the history database.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, errors.StoreError("could not create activity directory").WithCause(err).WithContext("path", dbPath).Build()
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.StoreError("could not open activity database").WithCause(err).WithContext("path", dbPath).Build()
	}
	// Every connection to :memory: is its own database.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, errors.StoreError("failed to initialize activity schema").WithCause(err).Build()
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS activity (
		id TEXT PRIMARY KEY,
		timestamp INTEGER NOT NULL,
		operation TEXT NOT NULL,
		site TEXT NOT NULL,
		slug TEXT,
		success INTEGER NOT NULL,
		record BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_activity_timestamp ON activity(timestamp);
	CREATE INDEX IF NOT EXISTS idx_activity_slug ON activity(slug);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores rec.
func (s *SQLiteStore) Record(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(rec)
	if err != nil {
		return errors.StoreError("failed to marshal activity record").WithCause(err).Build()
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO activity (id, timestamp, operation, site, slug, success, record) VALUES (?, ?, ?, ?, ?, ?, ?)",
		rec.ID, rec.Time.UnixNano(), rec.Operation, rec.Site, rec.Slug, rec.Success, data,
	)
	if err != nil {
		return errors.StoreError("failed to insert activity record").WithCause(err).WithContext("id", rec.ID).Build()
	}
	return nil
}

// Recent returns up to limit records, newest first. A non-empty slug
// restricts the result to that post.
func (s *SQLiteStore) Recent(ctx context.Context, limit int, slug string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	query := "SELECT record FROM activity ORDER BY timestamp DESC, rowid DESC LIMIT ?"
	args := []any{limit}
	if slug != "" {
		query = "SELECT record FROM activity WHERE slug = ? ORDER BY timestamp DESC, rowid DESC LIMIT ?"
		args = []any{slug, limit}
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.StoreError("failed to query activity").WithCause(err).Build()
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, errors.StoreError("failed to scan activity row").WithCause(err).Build()
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, errors.StoreError("failed to decode activity record").WithCause(err).Build()
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StoreError("failed to iterate activity rows").WithCause(err).Build()
	}
	return out, nil
}

// Prune deletes records older than cutoff and returns how many were removed.
func (s *SQLiteStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM activity WHERE timestamp < ?", cutoff.UnixNano())
	if err != nil {
		return 0, errors.StoreError("failed to prune activity").WithCause(err).Build()
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
