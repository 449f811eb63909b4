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
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"

	"github.com/google/uuid"

	"github.com/launix-de/kvlog/engine"
	"github.com/launix-de/kvlog/wire"
)

// pending pairs a dispatched operation's future with its op, so the
// writer goroutine can translate whichever Result arrives into the
// right Response shape without re-reading the request.
type pending struct {
	fut  engine.Future
	kind wire.Op
}

// session serves one connection: requests are read and dispatched to the
// engine as fast as they arrive (pipelining), while a second goroutine
// drains the resulting futures strictly in request order so replies
// never get reordered relative to requests on this connection.
type session struct {
	conn   net.Conn
	engine *engine.Dispatcher
	log    *slog.Logger
	stats  *StatsHub
	id     string
}

func newSession(conn net.Conn, e *engine.Dispatcher, log *slog.Logger, stats *StatsHub) *session {
	return &session{conn: conn, engine: e, log: log, stats: stats, id: uuid.NewString()}
}

func (s *session) run() {
	defer s.conn.Close()
	log := s.log.With("session", s.id, "remote", s.conn.RemoteAddr().String())
	log.Info("session opened")

	pendingCh := make(chan pending, 64)
	reader := bufio.NewReader(s.conn)
	writer := bufio.NewWriter(s.conn)

	writerDone := make(chan struct{})
	go s.writeLoop(writer, pendingCh, writerDone, log)

	for {
		var req wire.Request
		if err := wire.ReadFrame(reader, &req); err != nil {
			if !errors.Is(err, io.EOF) {
				log.Warn("session read error", "error", err)
			}
			break
		}
		log.Debug("request", "op", req.Op, "key", req.Key)

		var fut engine.Future
		switch req.Op {
		case wire.OpGet:
			fut = s.engine.Get(req.Key)
		case wire.OpSet:
			fut = s.engine.Set(req.Key, req.Value)
		case wire.OpRemove:
			fut = s.engine.Remove(req.Key)
		default:
			// Still answered in order, so the client's request/reply
			// pairing survives a bad frame.
			log.Warn("unknown request op", "op", req.Op)
			fut = engine.Resolved(engine.Result{Err: fmt.Errorf("unknown op %q", req.Op)})
		}
		pendingCh <- pending{fut: fut, kind: req.Op}
	}

	close(pendingCh)
	<-writerDone
	log.Info("session closed")
}

// writeLoop drains pendingCh in order, blocking on each future's Wait
// before moving to the next, which is what makes the reply stream FIFO
// even though the underlying worker pool may finish operations out of
// order. Once a write fails the connection is closed so the read loop
// unblocks, but the channel is still drained to completion: dispatched
// operations run regardless and their results are discarded.
func (s *session) writeLoop(w *bufio.Writer, pendingCh <-chan pending, done chan<- struct{}, log *slog.Logger) {
	defer close(done)
	broken := false
	for p := range pendingCh {
		result := p.fut.Wait()
		if broken {
			continue
		}
		resp := toResponse(p.kind, result)
		if err := wire.WriteFrame(w, resp); err != nil {
			log.Warn("session write error", "error", err)
			broken = true
		} else if err := w.Flush(); err != nil {
			log.Warn("session flush error", "error", err)
			broken = true
		}
		if broken {
			s.conn.Close()
			continue
		}
		if s.stats != nil {
			s.stats.Touch()
		}
	}
}

func toResponse(kind wire.Op, r engine.Result) wire.Response {
	if r.Err != nil {
		return wire.Response{Kind: kind, Err: r.Err.Error()}
	}
	switch kind {
	case wire.OpGet:
		return wire.Response{Kind: kind, Found: r.Found, Value: r.Value}
	default:
		return wire.Response{Kind: kind}
	}
}
