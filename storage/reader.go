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
	"io"
	"os"
	"sync/atomic"

	"github.com/google/btree"
)

// cachedFile is one entry in a ReaderHandle's open-file cache, ordered by
// generation so the handle can find its oldest cached file in O(log n)
// without keeping a side index.
type cachedFile struct {
	gen  uint64
	file *os.File
}

func cachedFileLess(a, b cachedFile) bool { return a.gen < b.gen }

// ReaderHandle owns a private cache of read-only file descriptors, one per
// generation it has touched, plus a shared reference to the directory path
// and the writer's safe-point. Cloning a handle shares path and safe-point
// but starts with an empty cache: seek state and fd ownership are never
// shared between handles.
type ReaderHandle struct {
	path      string
	safePoint *atomic.Uint64
	cache     *btree.BTreeG[cachedFile]
}

// NewReaderHandle constructs a handle with an empty cache.
func NewReaderHandle(path string, safePoint *atomic.Uint64) *ReaderHandle {
	return &ReaderHandle{
		path:      path,
		safePoint: safePoint,
		cache:     btree.NewG(32, cachedFileLess),
	}
}

// Clone returns a new handle sharing this one's path and safe-point but
// with its own, empty file cache.
func (h *ReaderHandle) Clone() *ReaderHandle {
	return NewReaderHandle(h.path, h.safePoint)
}

// closeStaleHandles drops and closes every cached file whose generation
// has fallen below the current safe-point.
func (h *ReaderHandle) closeStaleHandles() {
	sp := h.safePoint.Load()
	for {
		item, ok := h.cache.Min()
		if !ok || item.gen >= sp {
			return
		}
		item.file.Close()
		h.cache.Delete(item)
	}
}

func (h *ReaderHandle) fileFor(gen uint64) (*os.File, error) {
	if item, ok := h.cache.Get(cachedFile{gen: gen}); ok {
		return item.file, nil
	}
	f, err := os.Open(logPath(h.path, gen))
	if err != nil {
		return nil, err
	}
	h.cache.ReplaceOrInsert(cachedFile{gen: gen, file: f})
	return f, nil
}

// ReadCommand closes handles made stale by a concurrent compaction, opens
// (or reuses) the generation's file, and decodes exactly loc.Length bytes
// starting at loc.Offset.
func (h *ReaderHandle) ReadCommand(loc RecordLocation) (Command, error) {
	h.closeStaleHandles()
	f, err := h.fileFor(loc.Gen)
	if err != nil {
		return Command{}, err
	}
	section := io.NewSectionReader(f, int64(loc.Offset), int64(loc.Length))
	return decodeCommand(section)
}

// ReadValue returns the value of the Set record at loc, or
// ErrUnexpectedCommandType if the index and the log disagree.
func (h *ReaderHandle) ReadValue(loc RecordLocation) (string, error) {
	cmd, err := h.ReadCommand(loc)
	if err != nil {
		return "", err
	}
	if cmd.Tag != tagSet {
		return "", ErrUnexpectedCommandType
	}
	return cmd.Value, nil
}

// CopyRecord copies the raw bytes of the record at loc into w, for use by
// compaction. It returns the number of bytes copied.
func (h *ReaderHandle) CopyRecord(loc RecordLocation, w io.Writer) (int64, error) {
	h.closeStaleHandles()
	f, err := h.fileFor(loc.Gen)
	if err != nil {
		return 0, err
	}
	section := io.NewSectionReader(f, int64(loc.Offset), int64(loc.Length))
	return io.Copy(w, section)
}

// Close releases every cached file descriptor.
func (h *ReaderHandle) Close() {
	h.cache.Ascend(func(item cachedFile) bool {
		item.file.Close()
		return true
	})
	h.cache.Clear(false)
}

// ReaderPool is a fixed-capacity collection of reader handles: concurrency
// is bounded by how many handles exist, handles are checked out per read
// and returned when done.
type ReaderPool struct {
	handles  chan *ReaderHandle
	capacity int
}

// NewReaderPool creates capacity reader handles rooted at path, sharing
// safePoint, and fills the pool with them.
func NewReaderPool(path string, safePoint *atomic.Uint64, capacity int) *ReaderPool {
	if capacity < 1 {
		capacity = 1
	}
	pool := &ReaderPool{handles: make(chan *ReaderHandle, capacity), capacity: capacity}
	base := NewReaderHandle(path, safePoint)
	for i := 0; i < capacity-1; i++ {
		pool.handles <- base.Clone()
	}
	pool.handles <- base
	return pool
}

// Acquire blocks until a handle is available.
func (p *ReaderPool) Acquire() *ReaderHandle {
	return <-p.handles
}

// Release returns a handle to the pool.
func (p *ReaderPool) Release(h *ReaderHandle) {
	p.handles <- h
}

// Close drains the pool and closes every handle's cached file descriptors.
// It must only be called once nothing else can Acquire concurrently.
func (p *ReaderPool) Close() {
	for i := 0; i < p.capacity; i++ {
		h := <-p.handles
		h.Close()
	}
}
