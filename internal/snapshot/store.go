// Package snapshot keeps the last applied filter values per dashboard on the
// viewer's machine. Saving is opt-in.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go-dashboards/pkg/filters"

	_ "modernc.org/sqlite"
)

// Namespace scopes every snapshot written by this package.
const Namespace = "dashboard-filters"

const enabledSetting = "save_filters_enabled"

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS filter_snapshots (
		namespace     TEXT NOT NULL,
		dashboard_key TEXT NOT NULL,
		filter_values TEXT NOT NULL,
		updated_at    TEXT NOT NULL,
		PRIMARY KEY (namespace, dashboard_key)
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
}

type Store struct {
	db *sql.DB
}

// Open opens or creates the store at path. ":memory:" gives a private
// in-memory store.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	// One connection keeps an in-memory database shared across calls.
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting WAL mode: %w", err)
		}
	}
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Enabled reports whether snapshot saving is switched on. It is off until
// SetEnabled(true).
func (s *Store) Enabled(ctx context.Context) (bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, enabledSetting).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading settings: %w", err)
	}
	return value == "true", nil
}

func (s *Store) SetEnabled(ctx context.Context, enabled bool) error {
	value := "false"
	if enabled {
		value = "true"
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		enabledSetting, value)
	if err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}

// Load returns the saved values for a dashboard, or nil when saving is off or
// nothing was saved.
func (s *Store) Load(ctx context.Context, key string) (filters.Values, error) {
	enabled, err := s.Enabled(ctx)
	if err != nil || !enabled {
		return nil, err
	}

	var raw string
	err = s.db.QueryRowContext(ctx,
		`SELECT filter_values FROM filter_snapshots WHERE namespace = ? AND dashboard_key = ?`,
		Namespace, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %q: %w", key, err)
	}

	var values filters.Values
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("decoding snapshot %q: %w", key, err)
	}
	return values, nil
}

// Save replaces the snapshot of a dashboard. It does nothing while saving is
// off. Concurrent writers race; the last one wins.
func (s *Store) Save(ctx context.Context, key string, values filters.Values) error {
	enabled, err := s.Enabled(ctx)
	if err != nil || !enabled {
		return err
	}

	raw, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encoding snapshot %q: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO filter_snapshots (namespace, dashboard_key, filter_values, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(namespace, dashboard_key) DO UPDATE
		 SET filter_values = excluded.filter_values, updated_at = excluded.updated_at`,
		Namespace, key, string(raw), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("writing snapshot %q: %w", key, err)
	}
	return nil
}

// Forget removes the snapshot of a dashboard.
func (s *Store) Forget(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM filter_snapshots WHERE namespace = ? AND dashboard_key = ?`, Namespace, key)
	return err
}
