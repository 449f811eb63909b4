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
	"fmt"
	"log/slog"
	"sync"
)

// SharedQueueThreadPool runs a fixed number of workers pulling tasks off
// one shared channel. A worker that panics is not lost: the panic is
// caught, logged, and a replacement worker is started in its place.
type SharedQueueThreadPool struct {
	tasks chan func()
	wg    sync.WaitGroup
	log   *slog.Logger
}

// NewSharedQueueThreadPool starts workers goroutines sharing one task
// queue of the given depth.
func NewSharedQueueThreadPool(workers, queueDepth int, log *slog.Logger) *SharedQueueThreadPool {
	if workers < 1 {
		workers = 1
	}
	if queueDepth < 1 {
		queueDepth = workers
	}
	if log == nil {
		log = slog.Default()
	}
	p := &SharedQueueThreadPool{
		tasks: make(chan func(), queueDepth),
		log:   log,
	}
	for i := 0; i < workers; i++ {
		p.spawnWorker()
	}
	return p
}

func (p *SharedQueueThreadPool) spawnWorker() {
	p.wg.Add(1)
	go p.runWorker()
}

// runWorker pulls tasks until the queue is closed. A panicking task kills
// this goroutine, but not before its defer spawns a replacement, so the
// pool's worker count never shrinks.
func (p *SharedQueueThreadPool) runWorker() {
	defer p.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("threadpool: task panicked, respawning worker", "panic", fmt.Sprint(r))
			p.spawnWorker()
		}
	}()
	for task := range p.tasks {
		task()
	}
}

func (p *SharedQueueThreadPool) Submit(task func()) {
	p.tasks <- task
}

// Shutdown closes the queue and waits for every worker, including any
// respawned after a panic, to drain it.
func (p *SharedQueueThreadPool) Shutdown() {
	close(p.tasks)
	p.wg.Wait()
}
