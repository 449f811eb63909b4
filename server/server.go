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

// Package server implements the network service: a TCP listener that
// hands each connection's pipelined request stream to the engine facade,
// plus an optional websocket dashboard feed of the store's compaction
// bookkeeping.
package server

import (
	"log/slog"
	"net"
	"sync"

	"github.com/launix-de/kvlog/engine"
)

// Server accepts connections on one listener and serves each with the
// engine facade's dispatcher. It does not own the engine's lifecycle:
// callers Close the engine themselves after Shutdown returns.
type Server struct {
	listener net.Listener
	engine   *engine.Dispatcher
	log      *slog.Logger
	stats    *StatsHub

	wg sync.WaitGroup
}

// New wraps an already-open listener. Callers typically obtain one via
// net.Listen("tcp", addr).
func New(listener net.Listener, e *engine.Dispatcher, log *slog.Logger, stats *StatsHub) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{listener: listener, engine: e, log: log, stats: stats}
}

// Serve accepts connections until the listener is closed, spawning one
// session per connection. It returns once Close (on the listener) causes
// Accept to fail, which Shutdown relies on.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return err
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			newSession(conn, s.engine, s.log, s.stats).run()
		}()
	}
}

// Shutdown closes the listener and waits for every open session to end.
// It does not close established connections, so it returns only once
// each connected client has disconnected.
func (s *Server) Shutdown() error {
	err := s.listener.Close()
	s.wg.Wait()
	return err
}

// Addr reports the listener's bound address, useful when the caller let
// the OS pick a port (":0").
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}
