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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const sentinelFileName = "engine"

// CheckSentinel reads the chosen-engine sentinel file from dir, if any,
// and compares it against name. A mismatch is fatal: an engine switch
// across restarts would silently reinterpret one engine's files as
// another's. A missing sentinel file is not a mismatch; it means dir has
// never been opened before, or predates this check, and CheckSentinel
// writes name as the new sentinel.
func CheckSentinel(dir, name string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("engine: create data directory: %w", err)
	}
	path := filepath.Join(dir, sentinelFileName)
	existing, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("engine: read sentinel: %w", err)
		}
		if err := os.WriteFile(path, []byte(name+"\n"), 0644); err != nil {
			return fmt.Errorf("engine: write sentinel: %w", err)
		}
		return nil
	}
	got := strings.TrimSpace(string(existing))
	if got != name {
		return fmt.Errorf("engine: data directory %q was opened with engine %q, refusing to reopen with %q", dir, got, name)
	}
	return nil
}

// OpenSelected opens the named engine against dir after enforcing the
// sentinel check, wiring in the concurrency and compaction-threshold
// knobs that only the kvlog engine uses. An empty name defaults to the
// kvlog engine.
func OpenSelected(name, dir string, concurrency int, compactionThreshold uint64, log *slog.Logger) (Engine, error) {
	if name == "" {
		name = Name
	}
	if err := CheckSentinel(dir, name); err != nil {
		return nil, err
	}
	switch name {
	case Name:
		return Open(dir, concurrency, compactionThreshold, log)
	case SqliteName:
		return OpenSqlite(dir)
	default:
		return nil, fmt.Errorf("engine: unknown engine %q", name)
	}
}
