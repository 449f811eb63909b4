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
	"sync/atomic"
	"testing"
)

func newTestWriter(t *testing.T, threshold uint64) (*Writer, *Index, string) {
	t.Helper()
	dir := t.TempDir()
	index := NewIndex()
	safePoint := &atomic.Uint64{}
	w, err := NewWriter(dir, 1, index, safePoint, threshold, nil)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w, index, dir
}

func TestWriterSetAccumulatesStaleBytesOnOverwrite(t *testing.T) {
	w, _, _ := newTestWriter(t, DefaultCompactionThreshold)
	if err := w.Set("k", "v1"); err != nil {
		t.Fatal(err)
	}
	if w.StaleBytes() != 0 {
		t.Fatalf("StaleBytes after first set = %d, want 0", w.StaleBytes())
	}
	if err := w.Set("k", "v2"); err != nil {
		t.Fatal(err)
	}
	if w.StaleBytes() == 0 {
		t.Fatal("StaleBytes after overwrite should be nonzero")
	}
}

func TestWriterRemoveMissingKeyFails(t *testing.T) {
	w, _, _ := newTestWriter(t, DefaultCompactionThreshold)
	if err := w.Remove("ghost"); err != ErrKeyNotFound {
		t.Fatalf("Remove on missing key = %v, want ErrKeyNotFound", err)
	}
}

func TestWriterCompactionAdvancesGenerationsAndResetsStale(t *testing.T) {
	w, index, dir := newTestWriter(t, 32) // tiny threshold forces compaction quickly
	for i := 0; i < 20; i++ {
		if err := w.Set("k", "0123456789"); err != nil {
			t.Fatal(err)
		}
	}
	if w.CurrentGeneration() <= 1 {
		t.Fatalf("CurrentGeneration = %d, want > 1 after compaction", w.CurrentGeneration())
	}

	// Overwrites after the last automatic compaction may have accrued
	// fresh stale bytes; an explicit compaction always zeroes the counter.
	w.mu.Lock()
	err := w.compact()
	w.mu.Unlock()
	if err != nil {
		t.Fatalf("compact: %v", err)
	}
	if w.StaleBytes() != 0 {
		t.Fatalf("StaleBytes after compaction = %d, want 0", w.StaleBytes())
	}

	loc, ok := index.Get("k")
	if !ok {
		t.Fatal("index lost the only live key across compaction")
	}

	safePoint := w.safePoint.Load()
	if loc.Gen < safePoint {
		t.Fatalf("index still points at generation %d below safe point %d", loc.Gen, safePoint)
	}

	gens, err := sortedGenerations(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, gen := range gens {
		if gen < safePoint {
			t.Fatalf("stale generation %d still present on disk after compaction (safe point %d)", gen, safePoint)
		}
	}
}

func TestReaderPoolServesLiveRecordsAfterCompaction(t *testing.T) {
	w, index, dir := newTestWriter(t, 32)
	for i := 0; i < 30; i++ {
		if err := w.Set("k", "0123456789"); err != nil {
			t.Fatal(err)
		}
	}

	pool := NewReaderPool(dir, w.safePoint, 2)
	defer pool.Close()

	loc, ok := index.Get("k")
	if !ok {
		t.Fatal("missing index entry")
	}
	handle := pool.Acquire()
	value, err := handle.ReadValue(loc)
	pool.Release(handle)
	if err != nil {
		t.Fatal(err)
	}
	if value != "0123456789" {
		t.Fatalf("ReadValue = %q, want %q", value, "0123456789")
	}
}
