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
	"log/slog"

	"github.com/launix-de/kvlog/storage"
	"github.com/launix-de/kvlog/threadpool"
)

// Name identifies this engine in the chosen-engine sentinel file.
const Name = "kvlog"

// KvlogEngine is the default engine: the log-structured storage.KVStore
// directly. It satisfies Engine on its own; Dispatcher (below) adds the
// worker-pool/deferred-result surface on top without changing semantics.
type KvlogEngine struct {
	store *storage.KVStore
}

// Open opens (or creates) a log-structured store rooted at dir.
func Open(dir string, concurrency int, compactionThreshold uint64, log *slog.Logger) (*KvlogEngine, error) {
	store, err := storage.Open(dir, storage.Options{
		Concurrency:         concurrency,
		CompactionThreshold: compactionThreshold,
		Log:                 log,
	})
	if err != nil {
		return nil, err
	}
	return &KvlogEngine{store: store}, nil
}

func (e *KvlogEngine) Set(key, value string) error {
	return e.store.Set(key, value)
}

func (e *KvlogEngine) Get(key string) (string, bool, error) {
	return e.store.Get(key)
}

func (e *KvlogEngine) Remove(key string) error {
	return e.store.Remove(key)
}

func (e *KvlogEngine) Close() error {
	return e.store.Close()
}

// StaleBytes, SafePoint, CurrentGeneration and IndexSize expose the
// underlying store's bookkeeping for the dashboard stats hub; they are
// not part of the Engine contract.
func (e *KvlogEngine) StaleBytes() uint64        { return e.store.StaleBytes() }
func (e *KvlogEngine) SafePoint() uint64         { return e.store.SafePoint() }
func (e *KvlogEngine) CurrentGeneration() uint64 { return e.store.CurrentGeneration() }
func (e *KvlogEngine) IndexSize() int            { return e.store.IndexSize() }

// Dispatcher wraps an Engine with a worker pool so every operation
// returns a Future instead of blocking the caller. It is the surface the
// network server is built against.
type Dispatcher struct {
	engine Engine
	pool   threadpool.ThreadPool
}

// NewDispatcher wires engine behind pool. The Dispatcher takes over both:
// its Close shuts the pool down and then closes the engine.
func NewDispatcher(e Engine, pool threadpool.ThreadPool) *Dispatcher {
	return &Dispatcher{engine: e, pool: pool}
}

// Set dispatches a set and returns immediately with a Future whose
// Result.Err is the only meaningful field.
func (d *Dispatcher) Set(key, value string) Future {
	f := newFuture()
	d.pool.Submit(func() {
		err := d.engine.Set(key, value)
		f.deliver(Result{Err: err})
	})
	return f
}

// Get dispatches a get.
func (d *Dispatcher) Get(key string) Future {
	f := newFuture()
	d.pool.Submit(func() {
		value, found, err := d.engine.Get(key)
		f.deliver(Result{Value: value, Found: found, Err: err})
	})
	return f
}

// Remove dispatches a remove.
func (d *Dispatcher) Remove(key string) Future {
	f := newFuture()
	d.pool.Submit(func() {
		err := d.engine.Remove(key)
		f.deliver(Result{Err: err})
	})
	return f
}

// Close shuts the pool down, waiting for in-flight operations to finish,
// then closes the underlying engine.
func (d *Dispatcher) Close() error {
	d.pool.Shutdown()
	return d.engine.Close()
}
