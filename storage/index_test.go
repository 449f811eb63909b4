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

import "testing"

func TestIndexSetGetRemove(t *testing.T) {
	idx := NewIndex()
	if _, ok := idx.Get("a"); ok {
		t.Fatal("Get on empty index found something")
	}

	loc1 := RecordLocation{Gen: 1, Offset: 0, Length: 10}
	if old, had := idx.Set("a", loc1); had {
		t.Fatalf("first Set reported a replaced entry: %+v", old)
	}
	got, ok := idx.Get("a")
	if !ok || got != loc1 {
		t.Fatalf("Get(a) = %+v, %v; want %+v, true", got, ok, loc1)
	}

	loc2 := RecordLocation{Gen: 2, Offset: 20, Length: 5}
	old, had := idx.Set("a", loc2)
	if !had || old != loc1 {
		t.Fatalf("second Set(a) = %+v, %v; want %+v, true", old, had, loc1)
	}

	removed, had := idx.Remove("a")
	if !had || removed != loc2 {
		t.Fatalf("Remove(a) = %+v, %v; want %+v, true", removed, had, loc2)
	}
	if _, ok := idx.Get("a"); ok {
		t.Fatal("Get after Remove still found the key")
	}
}

func TestIndexIterateOrderAndLen(t *testing.T) {
	idx := NewIndex()
	keys := []string{"charlie", "alpha", "delta", "bravo"}
	for i, k := range keys {
		idx.Set(k, RecordLocation{Gen: 1, Offset: uint64(i), Length: 1})
	}
	if idx.Len() != len(keys) {
		t.Fatalf("Len() = %d, want %d", idx.Len(), len(keys))
	}

	var seen []string
	idx.Iterate(func(key string, _ RecordLocation) { seen = append(seen, key) })
	want := []string{"alpha", "bravo", "charlie", "delta"}
	if len(seen) != len(want) {
		t.Fatalf("Iterate visited %d keys, want %d", len(seen), len(want))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("Iterate order = %v, want %v", seen, want)
		}
	}
}
