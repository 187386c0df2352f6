// Package sqlstore keeps settings scopes in a SQLite database through
// database/sql and the pure-Go modernc.org/sqlite driver. One database can
// hold every scope; each Provider is bound to one scope name.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	settings "github.com/goliatone/go-settings"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS settings_entries (
	scope      TEXT    NOT NULL,
	grp        TEXT    NOT NULL,
	key        TEXT    NOT NULL,
	position   INTEGER NOT NULL,
	value      TEXT    NOT NULL,
	value_kind TEXT    NOT NULL,
	tag        TEXT    NOT NULL DEFAULT '',
	hidden     INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (scope, grp, key)
);
CREATE INDEX IF NOT EXISTS idx_settings_entries_scope ON settings_entries(scope, grp, position);
CREATE TABLE IF NOT EXISTS settings_groups (
	scope        TEXT    NOT NULL,
	grp          TEXT    NOT NULL,
	display_name TEXT    NOT NULL DEFAULT '',
	priority     INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (scope, grp)
);
`

// Store owns the database handle shared by its providers.
type Store struct {
	db    *sql.DB
	owned bool
}

// Open opens (creating when needed) the SQLite database at path. ":memory:"
// gives a private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlstore: create directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open database: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps ":memory:"
	// databases alive across calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store, err := newStore(db, true)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewStore wraps an existing handle opened with the "sqlite" driver. Close
// leaves db open.
func NewStore(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: db is nil")
	}
	return newStore(db, false)
}

func newStore(db *sql.DB, owned bool) (*Store, error) {
	s := &Store{db: db, owned: owned}
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("sqlstore: execute %s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return s, nil
}

// Close releases the database when the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

// Provider returns a provider for scope within this store.
func (s *Store) Provider(scope string, opts ...Option) *Provider {
	p := &Provider{store: s, scope: scope}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Factory adapts the store to settings.ScopeProviderFactory, naming each
// provider after its scope.
func (s *Store) Factory(opts ...Option) settings.ScopeProviderFactory {
	return func(scope settings.Scope) (settings.Provider, error) {
		return s.Provider(scope.String(), opts...), nil
	}
}

func (s *Store) withTx(fn func(tx *sql.Tx) error) error {
	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: begin: %w", err)
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: commit: %w", err)
	}
	return nil
}
