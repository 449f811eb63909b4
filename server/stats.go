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
package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// statsSource is implemented by *engine.KvlogEngine; kept as a small
// interface here so StatsHub doesn't force every engine backend to
// expose compaction internals that don't apply to them (e.g. sqlite).
type statsSource interface {
	StaleBytes() uint64
	SafePoint() uint64
	CurrentGeneration() uint64
	IndexSize() int
}

type snapshot struct {
	StaleBytes        uint64 `json:"stale_bytes"`
	SafePoint         uint64 `json:"safe_point"`
	CurrentGeneration uint64 `json:"current_generation"`
	IndexSize         int    `json:"index_size"`
	Ops               uint64 `json:"ops"`
}

// StatsHub streams periodic snapshots of the store's bookkeeping to any
// connected websocket client: same upgrader shape, same
// goroutine-per-connection read loop with recover, as any other
// websocket-fed dashboard in this codebase.
type StatsHub struct {
	source statsSource
	log    *slog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	ops     uint64

	stop chan struct{}
}

// NewStatsHub starts the periodic broadcast loop immediately; callers
// must eventually call Close.
func NewStatsHub(source statsSource, interval time.Duration, log *slog.Logger) *StatsHub {
	if log == nil {
		log = slog.Default()
	}
	if interval <= 0 {
		interval = time.Second
	}
	h := &StatsHub{
		source:  source,
		log:     log,
		clients: make(map[*websocket.Conn]struct{}),
		stop:    make(chan struct{}),
	}
	go h.broadcastLoop(interval)
	return h
}

// Touch increments the served-operations counter shown in each snapshot.
func (h *StatsHub) Touch() {
	h.mu.Lock()
	h.ops++
	h.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeHTTP upgrades the request to a websocket and registers it as a
// broadcast recipient until it disconnects.
func (h *StatsHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("stats dashboard upgrade failed", "error", err)
		return
	}
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			h.log.Error("stats dashboard connection panicked", "panic", fmt.Sprint(r))
		}
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *StatsHub) broadcastLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.broadcast()
		case <-h.stop:
			return
		}
	}
}

func (h *StatsHub) broadcast() {
	h.mu.Lock()
	snap := snapshot{
		StaleBytes:        h.source.StaleBytes(),
		SafePoint:         h.source.SafePoint(),
		CurrentGeneration: h.source.CurrentGeneration(),
		IndexSize:         h.source.IndexSize(),
		Ops:               h.ops,
	}
	body, err := json.Marshal(snap)
	if err != nil {
		h.mu.Unlock()
		h.log.Warn("stats dashboard marshal failed", "error", err)
		return
	}
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		if err := c.WriteMessage(websocket.TextMessage, body); err != nil {
			h.log.Debug("stats dashboard write failed, dropping client", "error", err)
			c.Close()
			h.mu.Lock()
			delete(h.clients, c)
			h.mu.Unlock()
		}
	}
}

// Close stops the broadcast loop and closes every connected client.
func (h *StatsHub) Close() {
	close(h.stop)
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.Close()
	}
}
