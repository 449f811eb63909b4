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
package threadpool

import (
	"sync/atomic"
	"testing"
)

func testAllPools(t *testing.T, build func() ThreadPool) {
	t.Helper()
	const n = 200
	pool := build()
	var done atomic.Int64
	for i := 0; i < n; i++ {
		pool.Submit(func() { done.Add(1) })
	}
	pool.Shutdown()
	if got := done.Load(); got != n {
		t.Fatalf("ran %d tasks, want %d", got, n)
	}
}

func TestNaiveThreadPoolRunsEveryTask(t *testing.T) {
	testAllPools(t, func() ThreadPool { return NewNaiveThreadPool() })
}

func TestSharedQueueThreadPoolRunsEveryTask(t *testing.T) {
	testAllPools(t, func() ThreadPool { return NewSharedQueueThreadPool(4, 16, nil) })
}

func TestStealingThreadPoolRunsEveryTask(t *testing.T) {
	testAllPools(t, func() ThreadPool { return NewStealingThreadPool(4, 16) })
}

func TestSharedQueueThreadPoolSurvivesPanic(t *testing.T) {
	pool := NewSharedQueueThreadPool(2, 8, nil)

	pool.Submit(func() { panic("boom") })

	var done atomic.Int64
	const n = 50
	for i := 0; i < n; i++ {
		pool.Submit(func() { done.Add(1) })
	}
	pool.Shutdown()
	if got := done.Load(); got != n {
		t.Fatalf("ran %d tasks after a panic, want %d: pool did not respawn its worker", got, n)
	}
}
