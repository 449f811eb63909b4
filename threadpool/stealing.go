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
	"sync"
	"sync/atomic"
)

// StealingThreadPool gives each worker its own task queue, hands out
// submitted tasks to those queues round-robin, and lets an idle worker
// pull from a neighbor's queue instead of sitting empty. There is
// no shared ecosystem work-stealing scheduler in the surrounding stack,
// so this variant is plain channels and goroutines.
type StealingThreadPool struct {
	queues []chan func()
	next   atomic.Uint64
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewStealingThreadPool starts workers goroutines, each with its own
// bounded queue of the given depth.
func NewStealingThreadPool(workers, queueDepth int) *StealingThreadPool {
	if workers < 1 {
		workers = 1
	}
	if queueDepth < 1 {
		queueDepth = 1
	}
	p := &StealingThreadPool{
		queues: make([]chan func(), workers),
		done:   make(chan struct{}),
	}
	for i := range p.queues {
		p.queues[i] = make(chan func(), queueDepth)
	}
	for i := range p.queues {
		p.wg.Add(1)
		go p.runWorker(i)
	}
	return p
}

// runWorker serves its own queue first and, whenever it would otherwise
// block, tries every other queue once before blocking for real.
func (p *StealingThreadPool) runWorker(i int) {
	defer p.wg.Done()
	n := len(p.queues)
	mine := p.queues[i]
	for {
		select {
		case task, ok := <-mine:
			if !ok {
				p.drain(i)
				return
			}
			p.run(task)
			continue
		default:
		}

		stole := false
		for off := 1; off < n; off++ {
			j := (i + off) % n
			select {
			case task, ok := <-p.queues[j]:
				if ok {
					p.run(task)
					stole = true
				}
			default:
			}
			if stole {
				break
			}
		}
		if stole {
			continue
		}

		select {
		case task, ok := <-mine:
			if !ok {
				p.drain(i)
				return
			}
			p.run(task)
		case <-p.done:
			p.drain(i)
			return
		}
	}
}

// drain runs whatever is left in this worker's own queue after shutdown
// has closed it, so Shutdown never discards a submitted task.
func (p *StealingThreadPool) drain(i int) {
	for task := range p.queues[i] {
		p.run(task)
	}
}

func (p *StealingThreadPool) run(task func()) {
	defer func() { recover() }()
	task()
}

// Submit places task on a queue chosen round-robin; a full queue spills
// over to the next worker rather than blocking the submitter forever.
func (p *StealingThreadPool) Submit(task func()) {
	n := len(p.queues)
	start := int(p.next.Add(1) % uint64(n))
	for off := 0; off < n; off++ {
		j := (start + off) % n
		select {
		case p.queues[j] <- task:
			return
		default:
		}
	}
	p.queues[start] <- task // every queue full: block on the chosen one
}

// Shutdown closes every worker's queue and waits for them to drain.
func (p *StealingThreadPool) Shutdown() {
	close(p.done)
	for _, q := range p.queues {
		close(q)
	}
	p.wg.Wait()
}
