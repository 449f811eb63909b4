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
package storage

import (
	"github.com/launix-de/NonLockingReadMap"
)

// RecordLocation pins one command record to a byte range inside a
// generation's log file.
type RecordLocation struct {
	Gen    uint64
	Offset uint64
	Length uint64
}

// indexEntry is the value type stored in the lock-free map. It must carry
// its own key (NonLockingReadMap.KeyGetter) and report a size estimate
// (NonLockingReadMap.Sizable), both trivial for a fixed-width location.
type indexEntry struct {
	key string
	loc RecordLocation
}

func (e indexEntry) GetKey() string { return e.key }

func (e indexEntry) ComputeSize() uint {
	return uint(len(e.key)) + 24 /* RecordLocation */ + 16 /* struct+pointer overhead */
}

// Index is the concurrent ordered key -> RecordLocation map. It is backed
// by NonLockingReadMap: reads never block, writes are optimistic
// compare-and-swap over an immutable sorted slice, and GetAll returns
// that slice already in key order, which is what compaction's live-record
// sweep needs.
type Index struct {
	m NonLockingReadMap.NonLockingReadMap[indexEntry, string]
}

// NewIndex returns an empty index ready for concurrent use.
func NewIndex() *Index {
	idx := &Index{m: NonLockingReadMap.New[indexEntry, string]()}
	return idx
}

// Get returns the live location for key, if any.
func (idx *Index) Get(key string) (RecordLocation, bool) {
	e := idx.m.Get(key)
	if e == nil {
		return RecordLocation{}, false
	}
	return e.loc, true
}

// Set inserts or replaces the location for key and returns the location it
// replaced, if any (the writer accumulates the replaced record's length
// into its stale-byte counter).
func (idx *Index) Set(key string, loc RecordLocation) (RecordLocation, bool) {
	old := idx.m.Set(&indexEntry{key: key, loc: loc})
	if old == nil {
		return RecordLocation{}, false
	}
	return old.loc, true
}

// Remove deletes the entry for key, returning the location it held.
func (idx *Index) Remove(key string) (RecordLocation, bool) {
	old := idx.m.Remove(key)
	if old == nil {
		return RecordLocation{}, false
	}
	return old.loc, true
}

// Len reports the number of live keys.
func (idx *Index) Len() int {
	return len(idx.m.GetAll())
}

// Iterate visits every (key, location) pair in ascending key order. It is
// not a consistent snapshot under concurrent writers, but each key is
// observed at most once with a value that was live at some point during
// the call.
func (idx *Index) Iterate(fn func(key string, loc RecordLocation)) {
	for _, e := range idx.m.GetAll() {
		fn(e.key, e.loc)
	}
}
