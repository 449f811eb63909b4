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
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

// DefaultCompactionThreshold is the stale-byte level at which the next
// set/remove runs compaction before returning.
const DefaultCompactionThreshold = 1024 * 1024

// bufWriterWithPos wraps a buffered append-only writer and tracks the
// absolute byte offset of the next write, so callers can record a
// record's starting offset without a separate Seek/Tell round trip.
type bufWriterWithPos struct {
	file *os.File
	bw   *bufio.Writer
	pos  uint64
}

func newBufWriterWithPos(f *os.File) (*bufWriterWithPos, error) {
	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return &bufWriterWithPos{file: f, bw: bufio.NewWriter(f), pos: uint64(stat.Size())}, nil
}

func (w *bufWriterWithPos) Write(p []byte) (int, error) {
	n, err := w.bw.Write(p)
	w.pos += uint64(n)
	return n, err
}

func (w *bufWriterWithPos) Flush() error {
	return w.bw.Flush()
}

func (w *bufWriterWithPos) Close() error {
	err := w.bw.Flush()
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// Writer is the sole mutator of the active log file and the sole
// authority that advances the safe-point. Every set/remove/compact call
// holds mu for its whole duration, which is what makes compaction's
// index iteration see a quiescent index.
type Writer struct {
	mu sync.Mutex

	path       string
	currentGen uint64
	active     *bufWriterWithPos
	index      *Index
	safePoint  *atomic.Uint64

	// compactor is the writer's own reader handle: a second ReaderHandle
	// instance, not a back-pointer into the pool, used to read live
	// records during compaction.
	compactor *ReaderHandle

	staleBytes          uint64
	compactionThreshold uint64
	log                 *slog.Logger
}

// NewWriter opens (creating if necessary) the active generation's log file
// for appending and returns a Writer ready to serialize writes against it.
func NewWriter(path string, currentGen uint64, index *Index, safePoint *atomic.Uint64, threshold uint64, log *slog.Logger) (*Writer, error) {
	f, err := newActiveFile(path, currentGen)
	if err != nil {
		return nil, err
	}
	active, err := newBufWriterWithPos(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	if threshold == 0 {
		threshold = DefaultCompactionThreshold
	}
	if log == nil {
		log = slog.Default()
	}
	return &Writer{
		path:                path,
		currentGen:          currentGen,
		active:              active,
		index:               index,
		safePoint:           safePoint,
		compactor:           NewReaderHandle(path, safePoint),
		compactionThreshold: threshold,
		log:                 log,
	}, nil
}

// Set appends a Set{key,value} record, flushes it, and updates the index.
func (w *Writer) Set(key, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	pos := w.active.pos
	if _, err := encodeCommand(w.active, setCommand(key, value)); err != nil {
		return fmt.Errorf("storage: encode set: %w", err)
	}
	if err := w.active.Flush(); err != nil {
		return fmt.Errorf("storage: flush: %w", err)
	}
	newPos := w.active.pos

	loc := RecordLocation{Gen: w.currentGen, Offset: pos, Length: newPos - pos}
	if old, had := w.index.Set(key, loc); had {
		w.staleBytes += old.Length
	}

	return w.maybeCompact()
}

// Remove appends a Remove{key} record and deletes the index entry. It
// fails with ErrKeyNotFound without touching the log if the key has no
// live entry.
func (w *Writer) Remove(key string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.index.Get(key); !ok {
		return ErrKeyNotFound
	}

	pos := w.active.pos
	if _, err := encodeCommand(w.active, removeCommand(key)); err != nil {
		return fmt.Errorf("storage: encode remove: %w", err)
	}
	if err := w.active.Flush(); err != nil {
		return fmt.Errorf("storage: flush: %w", err)
	}
	newPos := w.active.pos

	if old, had := w.index.Remove(key); had {
		w.staleBytes += old.Length
	}
	w.staleBytes += newPos - pos

	return w.maybeCompact()
}

func (w *Writer) maybeCompact() error {
	if w.staleBytes > w.compactionThreshold {
		return w.compact()
	}
	return nil
}

// compact copies every live record into a fresh compaction generation,
// rotates the active file past it, advances the safe-point, and deletes
// the superseded files. Callers must hold mu.
func (w *Writer) compact() error {
	compactionGen := w.currentGen + 1
	newActiveGen := w.currentGen + 2

	newActive, err := newActiveFile(w.path, newActiveGen)
	if err != nil {
		return fmt.Errorf("storage: open new active generation %d: %w", newActiveGen, err)
	}
	newWriter, err := newBufWriterWithPos(newActive)
	if err != nil {
		newActive.Close()
		return fmt.Errorf("storage: wrap new active generation %d: %w", newActiveGen, err)
	}

	compactionFile, err := newActiveFile(w.path, compactionGen)
	if err != nil {
		return fmt.Errorf("storage: open compaction generation %d: %w", compactionGen, err)
	}
	compactionWriter, err := newBufWriterWithPos(compactionFile)
	if err != nil {
		compactionFile.Close()
		return fmt.Errorf("storage: wrap compaction generation %d: %w", compactionGen, err)
	}

	var copyErr error
	w.index.Iterate(func(key string, loc RecordLocation) {
		if copyErr != nil {
			return
		}
		start := compactionWriter.pos
		n, err := w.compactor.CopyRecord(loc, compactionWriter)
		if err != nil {
			copyErr = fmt.Errorf("storage: compact copy key %q: %w", key, err)
			return
		}
		w.index.Set(key, RecordLocation{Gen: compactionGen, Offset: start, Length: uint64(n)})
	})

	if err := compactionWriter.Flush(); err != nil && copyErr == nil {
		copyErr = fmt.Errorf("storage: flush compaction file: %w", err)
	}
	compactionFile.Close()

	if copyErr != nil {
		// Leave compactionGen as partial garbage; replay on next open
		// ignores its undecodable tail, and a later compaction will
		// subsume it along with older generations.
		w.active.Close()
		w.active = newWriter
		w.currentGen = newActiveGen
		w.log.Error("compaction aborted mid-copy", "gen", compactionGen, "error", copyErr)
		return copyErr
	}

	w.active.Close()
	w.active = newWriter
	w.currentGen = newActiveGen

	// Pooled reader handles notice the new safe-point on their next read
	// and drop their own stale cached files; only the compactor's cache
	// is cleaned up here.
	w.safePoint.Store(compactionGen)
	w.compactor.closeStaleHandles()

	stale, err := sortedGenerations(w.path)
	if err != nil {
		w.log.Warn("compaction: could not list generations for cleanup", "error", err)
	}
	for _, gen := range stale {
		if gen >= compactionGen {
			continue
		}
		p := logPath(w.path, gen)
		if err := os.Remove(p); err != nil {
			w.log.Warn("stale log file could not be deleted, will retry next compaction", "path", p, "error", err)
		}
	}

	w.staleBytes = 0
	w.log.Info("compaction complete", "safe_point", compactionGen, "active_generation", newActiveGen)
	return nil
}

// StaleBytes reports the writer's current stale-byte accumulator, mostly
// useful for tests and operational dashboards.
func (w *Writer) StaleBytes() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.staleBytes
}

// CurrentGeneration reports the active (writable) generation.
func (w *Writer) CurrentGeneration() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.currentGen
}

// Close flushes and closes the active log file and the writer's own
// compaction-time reader handle.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.compactor.Close()
	return w.active.Close()
}
