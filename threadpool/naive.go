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

import "sync"

// NaiveThreadPool spawns one goroutine per submitted task and never
// reuses it. It has no admission limit and no queue: Submit always
// returns immediately. Useful as a baseline and for tests where the
// scheduling strategy itself isn't under test.
type NaiveThreadPool struct {
	wg sync.WaitGroup
}

// NewNaiveThreadPool returns a ready-to-use NaiveThreadPool.
func NewNaiveThreadPool() *NaiveThreadPool {
	return &NaiveThreadPool{}
}

func (p *NaiveThreadPool) Submit(task func()) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		task()
	}()
}

// Shutdown waits for every goroutine spawned by Submit to finish.
func (p *NaiveThreadPool) Shutdown() {
	p.wg.Wait()
}
