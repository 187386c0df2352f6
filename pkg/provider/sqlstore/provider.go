package sqlstore

import (
	"database/sql"
	"fmt"

	settings "github.com/goliatone/go-settings"
)

// Provider stores one scope's groups. Group replacement runs in a single
// transaction.
type Provider struct {
	store    *Store
	scope    string
	readOnly bool
}

// Option configures a Provider.
type Option func(*Provider)

// WithReadOnly turns Write, WriteGroupInfo and Delete into no-ops.
func WithReadOnly() Option {
	return func(p *Provider) {
		p.readOnly = true
	}
}

// Scope returns the scope name rows are stored under.
func (p *Provider) Scope() string { return p.scope }

func (p *Provider) Read(group string) ([]settings.Entry, error) {
	rows, err := p.store.db.Query(
		`SELECT key, value, value_kind, tag, hidden FROM settings_entries
		 WHERE scope = ? AND grp = ? ORDER BY position`,
		p.scope, group,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: read %s/%s: %w", p.scope, group, err)
	}
	defer rows.Close()

	var out []settings.Entry
	for rows.Next() {
		entry := settings.Entry{Group: group}
		if err := rows.Scan(&entry.Key, &entry.Value, &entry.ValueKind, &entry.Tag, &entry.Hidden); err != nil {
			return nil, fmt.Errorf("sqlstore: scan %s/%s: %w", p.scope, group, err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// Write replaces group. Writing no entries removes the group. Duplicate keys
// within entries are rejected with settings.ErrDuplicateKey.
func (p *Provider) Write(group string, entries []settings.Entry) error {
	if p.readOnly {
		return nil
	}
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if _, dup := seen[entry.Key]; dup {
			return fmt.Errorf("sqlstore: write %s/%s: %w: %q", p.scope, group, settings.ErrDuplicateKey, entry.Key)
		}
		seen[entry.Key] = struct{}{}
	}
	return p.store.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM settings_entries WHERE scope = ? AND grp = ?`, p.scope, group); err != nil {
			return fmt.Errorf("sqlstore: clear %s/%s: %w", p.scope, group, err)
		}
		stmt, err := tx.Prepare(
			`INSERT INTO settings_entries (scope, grp, key, position, value, value_kind, tag, hidden)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		)
		if err != nil {
			return fmt.Errorf("sqlstore: prepare insert: %w", err)
		}
		defer stmt.Close()
		for i, entry := range entries {
			if _, err := stmt.Exec(p.scope, group, entry.Key, i, entry.Value, entry.ValueKind, entry.Tag, entry.Hidden); err != nil {
				return fmt.Errorf("sqlstore: insert %s/%s/%s: %w", p.scope, group, entry.Key, err)
			}
		}
		return nil
	})
}

func (p *Provider) Groups() ([]string, error) {
	rows, err := p.store.db.Query(
		`SELECT DISTINCT grp FROM settings_entries WHERE scope = ? ORDER BY grp`,
		p.scope,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list groups for %s: %w", p.scope, err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var group string
		if err := rows.Scan(&group); err != nil {
			return nil, fmt.Errorf("sqlstore: scan group for %s: %w", p.scope, err)
		}
		out = append(out, group)
	}
	return out, rows.Err()
}

// Delete removes every row stored for the scope.
func (p *Provider) Delete() error {
	if p.readOnly {
		return nil
	}
	return p.store.withTx(func(tx *sql.Tx) error {
		for _, table := range []string{"settings_entries", "settings_groups"} {
			if _, err := tx.Exec(`DELETE FROM `+table+` WHERE scope = ?`, p.scope); err != nil {
				return fmt.Errorf("sqlstore: delete %s from %s: %w", p.scope, table, err)
			}
		}
		return nil
	})
}

func (p *Provider) ReadOnly() bool {
	return p.readOnly
}

func (p *Provider) ReadGroupInfo() ([]settings.GroupInfo, error) {
	rows, err := p.store.db.Query(
		`SELECT grp, display_name, priority FROM settings_groups WHERE scope = ? ORDER BY grp`,
		p.scope,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: read group info for %s: %w", p.scope, err)
	}
	defer rows.Close()

	var out []settings.GroupInfo
	for rows.Next() {
		var info settings.GroupInfo
		if err := rows.Scan(&info.Group, &info.DisplayName, &info.Priority); err != nil {
			return nil, fmt.Errorf("sqlstore: scan group info for %s: %w", p.scope, err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

func (p *Provider) WriteGroupInfo(infos []settings.GroupInfo) error {
	if p.readOnly {
		return nil
	}
	return p.store.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM settings_groups WHERE scope = ?`, p.scope); err != nil {
			return fmt.Errorf("sqlstore: clear group info for %s: %w", p.scope, err)
		}
		for _, info := range infos {
			if _, err := tx.Exec(
				`INSERT OR REPLACE INTO settings_groups (scope, grp, display_name, priority) VALUES (?, ?, ?, ?)`,
				p.scope, info.Group, info.DisplayName, info.Priority,
			); err != nil {
				return fmt.Errorf("sqlstore: insert group info %s/%s: %w", p.scope, info.Group, err)
			}
		}
		return nil
	})
}

var (
	_ settings.Provider          = (*Provider)(nil)
	_ settings.GroupInfoProvider = (*Provider)(nil)
)
