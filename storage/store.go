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
	"bufio"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

// KVStore ties the engine's pieces together: a directory of generation
// files, a lock-free index, a bounded reader pool, and a serialized
// writer. The engine package wraps it into its public facade.
type KVStore struct {
	path    string
	index   *Index
	writer  *Writer
	readers *ReaderPool
	safePt  *atomic.Uint64
}

// Options configures Open.
type Options struct {
	// Concurrency bounds the reader pool's capacity; it does not itself
	// size any worker pool.
	Concurrency int
	// CompactionThreshold overrides DefaultCompactionThreshold.
	CompactionThreshold uint64
	Log                 *slog.Logger
}

// Open creates dir if missing, replays every existing generation into a
// fresh index, and returns a KVStore ready to serve set/get/remove.
func Open(dir string, opts Options) (*KVStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	gens, err := sortedGenerations(dir)
	if err != nil {
		return nil, err
	}

	index := NewIndex()
	var uncompacted uint64
	for _, gen := range gens {
		stale, err := replayGeneration(dir, gen, index, log)
		if err != nil {
			return nil, err
		}
		uncompacted += stale
	}

	currentGen := uint64(1)
	if len(gens) > 0 {
		currentGen = gens[len(gens)-1] + 1
	}

	safePoint := &atomic.Uint64{}
	writer, err := NewWriter(dir, currentGen, index, safePoint, opts.CompactionThreshold, log)
	if err != nil {
		return nil, err
	}
	writer.staleBytes = uncompacted

	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	readers := NewReaderPool(dir, safePoint, concurrency)

	return &KVStore{path: dir, index: index, writer: writer, readers: readers, safePt: safePoint}, nil
}

// Set appends a Set record and updates the index.
func (s *KVStore) Set(key, value string) error {
	return s.writer.Set(key, value)
}

// Get reads the live value for key. An index miss returns ("", false,
// nil) without touching the reader pool at all.
func (s *KVStore) Get(key string) (string, bool, error) {
	loc, ok := s.index.Get(key)
	if !ok {
		return "", false, nil
	}
	handle := s.readers.Acquire()
	defer s.readers.Release(handle)
	for {
		value, err := handle.ReadValue(loc)
		if err == nil {
			return value, true, nil
		}
		// A compaction between the index lookup and the read may have
		// moved the record and deleted its old generation: look it up again.
		if !errors.Is(err, os.ErrNotExist) || loc.Gen >= s.safePt.Load() {
			return "", false, err
		}
		if loc, ok = s.index.Get(key); !ok {
			return "", false, nil
		}
	}
}

// Remove appends a Remove record and deletes the index entry.
func (s *KVStore) Remove(key string) error {
	return s.writer.Remove(key)
}

// StaleBytes reports the writer's stale-byte accumulator (operational
// visibility, consumed by the stats hub in package server).
func (s *KVStore) StaleBytes() uint64 { return s.writer.StaleBytes() }

// SafePoint reports the lowest generation not yet superseded by compaction.
func (s *KVStore) SafePoint() uint64 { return s.safePt.Load() }

// CurrentGeneration reports the active (writable) generation.
func (s *KVStore) CurrentGeneration() uint64 { return s.writer.CurrentGeneration() }

// IndexSize reports the number of live keys.
func (s *KVStore) IndexSize() int { return s.index.Len() }

// Close flushes and closes the active log and every pooled reader handle.
func (s *KVStore) Close() error {
	s.readers.Close()
	return s.writer.Close()
}

// replayGeneration streams generation gen from offset 0, applying each
// decoded command to index as if freshly written, and stops at the first
// undecodable or truncated frame without treating it as an error. It
// returns the stale-byte contribution of this generation.
func replayGeneration(dir string, gen uint64, index *Index, log *slog.Logger) (uint64, error) {
	f, err := os.Open(logPath(dir, gen))
	if err != nil {
		return 0, err
	}
	defer f.Close()

	cr := &countingReader{r: bufio.NewReader(f)}
	var stale uint64
	for {
		start := cr.n
		cmd, err := decodeCommand(cr)
		if err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				if cr.n != start {
					log.Warn("truncated record ignored during replay", "generation", gen, "offset", start)
				}
				break
			}
			log.Warn("undecodable record ignored during replay", "generation", gen, "offset", start, "error", err)
			break
		}
		length := uint64(cr.n - start)
		switch cmd.Tag {
		case tagSet:
			if old, had := index.Set(cmd.Key, RecordLocation{Gen: gen, Offset: uint64(start), Length: length}); had {
				stale += old.Length
			}
		case tagRemove:
			if old, had := index.Remove(cmd.Key); had {
				stale += old.Length
			}
			stale += length
		}
	}
	return stale, nil
}

// countingReader tracks the number of bytes read so replay can compute
// each record's byte range without a separate Seek/Tell round trip.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
