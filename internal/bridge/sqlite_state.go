// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/bridge/sqlite_state.go
// Summary: SQLite-backed state and coordinate tables.

package bridge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const databaseName = "texeldesk.sqlite"

func openSQLite(ctx context.Context, dir string) (*sql.DB, error) {
	// modernc.org/sqlite registers itself as "sqlite".
	db, err := sql.Open("sqlite", filepath.Join(dir, databaseName))
	if err != nil {
		return nil, err
	}
	// Pragmas are per connection; keep a single one.
	db.SetMaxOpenConns(1)
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS state (
			k TEXT PRIMARY KEY,
			v BLOB NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS coords (
			item_id TEXT PRIMARY KEY,
			x REAL NOT NULL,
			y REAL NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

// ReadState returns the value stored under key.
func (n *Native) ReadState(ctx context.Context, key string) ([]byte, error) {
	var v []byte
	err := n.db.QueryRowContext(ctx, `SELECT v FROM state WHERE k = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: state %q", ErrNotExist, key)
	}
	if err != nil {
		return nil, fmt.Errorf("bridge: read state %q: %w", key, err)
	}
	return v, nil
}

// WriteState replaces the value under key. The write honours ctx so a
// shutdown watchdog can abandon it.
func (n *Native) WriteState(ctx context.Context, key string, data []byte) error {
	_, err := n.db.ExecContext(ctx,
		`INSERT INTO state(k, v, updated_at_unixms) VALUES(?, ?, ?)
		 ON CONFLICT(k) DO UPDATE SET v = excluded.v, updated_at_unixms = excluded.updated_at_unixms`,
		key, data, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("bridge: write state %q: %w", key, err)
	}
	n.log.Debugf("Bridge: Wrote state %q (%d bytes)", key, len(data))
	return nil
}

// DeleteState removes every stored state key and recorded coordinate.
func (n *Native) DeleteState(ctx context.Context) error {
	for _, st := range []string{`DELETE FROM state`, `DELETE FROM coords`} {
		if _, err := n.db.ExecContext(ctx, st); err != nil {
			return fmt.Errorf("bridge: reset: %w", err)
		}
	}
	return nil
}

func (n *Native) upsertCoord(ctx context.Context, id string, x, y float64, at time.Time) error {
	_, err := n.db.ExecContext(ctx,
		`INSERT INTO coords(item_id, x, y, updated_at_unixms) VALUES(?, ?, ?, ?)
		 ON CONFLICT(item_id) DO UPDATE SET x = excluded.x, y = excluded.y, updated_at_unixms = excluded.updated_at_unixms`,
		id, x, y, at.UnixMilli())
	return err
}

func (n *Native) loadCoords(ctx context.Context) (map[string]Coord, error) {
	rows, err := n.db.QueryContext(ctx, `SELECT item_id, x, y, updated_at_unixms FROM coords`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]Coord)
	for rows.Next() {
		var (
			id   string
			c    Coord
			unix int64
		)
		if err := rows.Scan(&id, &c.X, &c.Y, &unix); err != nil {
			return nil, err
		}
		c.UpdatedAt = time.UnixMilli(unix)
		out[id] = c
	}
	return out, rows.Err()
}
