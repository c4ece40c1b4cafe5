// Package sqlite implements the repository interfaces on SQLite.
//
// SQLite is embedded (a single file, no server to run), which fits a
// single-binary deployment and makes tests trivial (":memory:" gives every
// test a fresh database). The modernc.org/sqlite driver is a pure Go
// translation of SQLite, so no C toolchain is needed and cross-compilation
// stays painless.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements ProfileRepository and
// LinkRepository. It also owns the in-process notifier that fans out link
// snapshots to subscribers (notify.go).
type DB struct {
	conn     *sql.DB
	notifier *linkNotifier
}

// New opens the database at dbPath (":memory:" for tests), configures it, and
// runs migrations.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Surface a bad path or permissions problem now, not on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a write is in progress, a must for a web
	// server where requests overlap.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are off by default in SQLite. Links reference profiles.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{
		conn:     conn,
		notifier: newLinkNotifier(),
	}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// CloseSubscriptions drops every active link subscription, ending their SSE
// streams. Called at the start of graceful shutdown so streaming requests
// drain instead of holding the server open until the timeout.
func (db *DB) CloseSubscriptions() {
	db.notifier.closeAll()
}

// Close closes the connection pool and drops all active link subscriptions.
func (db *DB) Close() error {
	db.notifier.closeAll()
	return db.conn.Close()
}

func (db *DB) migrate() error {
	// The partial unique index on username enforces uniqueness at the store
	// level: fresh accounts all share the empty username, so the index only
	// covers claimed names. A lost race between two identical claims surfaces
	// as a constraint violation on the second write instead of two profiles
	// sharing a page.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS profiles (
			id            TEXT PRIMARY KEY,
			github_id     INTEGER NOT NULL UNIQUE,
			login         TEXT NOT NULL,
			username      TEXT NOT NULL DEFAULT '',
			display_name  TEXT NOT NULL DEFAULT '',
			bio           TEXT NOT NULL DEFAULT '',
			project_intro TEXT NOT NULL DEFAULT '',
			stacks        TEXT NOT NULL DEFAULT '[]',
			theme         TEXT NOT NULL DEFAULT 'dark',
			email         TEXT NOT NULL DEFAULT '',
			photo_url     TEXT NOT NULL DEFAULT '',
			github_token  TEXT NOT NULL DEFAULT '',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_profiles_username
			ON profiles(username) WHERE username != '';
	`)
	if err != nil {
		return fmt.Errorf("creating profiles table: %w", err)
	}

	// order_idx, not "order": ORDER is an SQL keyword. rowid breaks ties, so
	// display order is stable across runs even when order values collide.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS links (
			id          TEXT PRIMARY KEY,
			profile_id  TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
			title       TEXT NOT NULL,
			url         TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			stacks      TEXT NOT NULL DEFAULT '[]',
			order_idx   INTEGER NOT NULL DEFAULT 0,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_links_profile_order
			ON links(profile_id, order_idx);
	`)
	if err != nil {
		return fmt.Errorf("creating links table: %w", err)
	}

	return nil
}

// encodeStacks serializes a stack list for the stacks TEXT column.
func encodeStacks(stacks []string) (string, error) {
	if stacks == nil {
		stacks = []string{}
	}
	b, err := json.Marshal(stacks)
	if err != nil {
		return "", fmt.Errorf("encoding stacks: %w", err)
	}
	return string(b), nil
}

// decodeStacks parses the stacks TEXT column. Always returns a non-nil slice
// so JSON responses render [] rather than null.
func decodeStacks(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var stacks []string
	if err := json.Unmarshal([]byte(raw), &stacks); err != nil {
		return nil, fmt.Errorf("decoding stacks: %w", err)
	}
	if stacks == nil {
		stacks = []string{}
	}
	return stacks, nil
}
