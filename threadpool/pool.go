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

// Package threadpool provides the interchangeable task-dispatch strategies
// behind the engine facade: a task is a plain func(), queued for some
// worker to run. Three implementations trade off simplicity, isolation,
// and locality differently; callers select one by name at startup and
// never see the difference afterward.
package threadpool

// ThreadPool dispatches tasks for execution. Submit never blocks on task
// completion; it only blocks if the pool's own admission strategy does
// (the naive pool never blocks, the shared-queue and stealing pools block
// once their queues are full).
type ThreadPool interface {
	// Submit schedules task to run on some worker goroutine.
	Submit(task func())
	// Shutdown waits for all submitted tasks to finish running and
	// releases the pool's goroutines. Submit must not be called after
	// Shutdown returns.
	Shutdown()
}
