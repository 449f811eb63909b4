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

// Package engine exposes the store's three-operation contract (set, get,
// remove) over a chosen storage backend, and optionally dispatches each
// call through a worker pool so the caller gets a deferred Result back
// instead of blocking.
package engine

import "github.com/launix-de/kvlog/storage"

// Sentinel errors are the same values package storage returns, re-exported
// so callers of this package can do errors.Is checks without importing
// storage directly.
var (
	ErrKeyNotFound           = storage.ErrKeyNotFound
	ErrUnexpectedCommandType = storage.ErrUnexpectedCommandType
)

// Engine is the pluggable storage contract. Implementations are safe for
// concurrent use by multiple goroutines.
type Engine interface {
	Set(key, value string) error
	// Get reports (value, true, nil) on a hit, ("", false, nil) on a
	// clean miss, and ("", false, err) on failure.
	Get(key string) (string, bool, error)
	Remove(key string) error
	Close() error
}

// Result is the outcome of one deferred operation.
type Result struct {
	Value string
	Found bool
	Err   error
}

// Future is a one-shot handle to a Result that will be delivered exactly
// once, from whichever worker pool goroutine ran the operation.
type Future struct {
	ch chan Result
}

func newFuture() Future {
	return Future{ch: make(chan Result, 1)}
}

func (f Future) deliver(r Result) {
	f.ch <- r
}

// Wait blocks until the result is available.
func (f Future) Wait() Result {
	return <-f.ch
}

// Resolved returns a Future whose result is already delivered. The
// server uses it to slot protocol-level errors into a connection's reply
// stream without involving the worker pool.
func Resolved(r Result) Future {
	f := newFuture()
	f.deliver(r)
	return f
}
