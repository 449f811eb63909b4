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

// Package storage implements the log-structured key/value engine: a
// directory of generation-numbered append-only log files, a
// self-describing command codec, a lock-free in-memory index, a bounded
// reader pool, and the serialized writer that owns compaction.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

func logPath(dir string, gen uint64) string {
	return filepath.Join(dir, fmt.Sprintf("%d.log", gen))
}

// sortedGenerations scans dir for "<u64>.log" files and returns their
// generation numbers in ascending order. Entries that don't parse
// cleanly as "<digits>.log" are ignored; they aren't ours.
func sortedGenerations(dir string) ([]uint64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	gens := make([]uint64, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".log") {
			continue
		}
		gen, err := strconv.ParseUint(strings.TrimSuffix(name, ".log"), 10, 64)
		if err != nil {
			continue
		}
		gens = append(gens, gen)
	}
	sort.Slice(gens, func(i, j int) bool { return gens[i] < gens[j] })
	return gens, nil
}

// newActiveFile opens generation gen for append, creating it if needed.
// It is always opened O_APPEND so every Write lands at EOF regardless of
// interleaved reads through other handles on the same path.
func newActiveFile(dir string, gen uint64) (*os.File, error) {
	return os.OpenFile(logPath(dir, gen), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}
