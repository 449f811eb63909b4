/*
Copyright (C) 2026  kvlog Contributors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package engine

import (
	"database/sql"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SqliteName identifies the embedded-database alternative engine in the
// chosen-engine sentinel file.
const SqliteName = "sqlite"

// SqliteEngine satisfies Engine over a single table in an embedded,
// cgo-free SQLite database. It gives operators an engine that trades the
// log's compaction behavior for SQLite's own storage and crash-recovery
// model.
type SqliteEngine struct {
	db *sql.DB
}

// OpenSqlite opens (creating if necessary) a SQLite database file under
// dir and ensures the kv table exists.
func OpenSqlite(dir string) (*SqliteEngine, error) {
	path := filepath.Join(dir, "kvlog.sqlite")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("engine: open sqlite: %w", err)
	}
	// The log engine serializes writers itself; mirror that here so
	// concurrent Set/Remove calls don't collide on SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (key TEXT PRIMARY KEY, value TEXT NOT NULL)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("engine: create table: %w", err)
	}
	return &SqliteEngine{db: db}, nil
}

func (e *SqliteEngine) Set(key, value string) error {
	_, err := e.db.Exec(`INSERT INTO kv(key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("engine: sqlite set: %w", err)
	}
	return nil
}

func (e *SqliteEngine) Get(key string) (string, bool, error) {
	var value string
	err := e.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("engine: sqlite get: %w", err)
	}
	return value, true, nil
}

func (e *SqliteEngine) Remove(key string) error {
	result, err := e.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("engine: sqlite remove: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("engine: sqlite remove: %w", err)
	}
	if n == 0 {
		return ErrKeyNotFound
	}
	return nil
}

func (e *SqliteEngine) Close() error {
	return e.db.Close()
}
