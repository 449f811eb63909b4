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
package server_test

import (
	"errors"
	"net"
	"testing"

	"github.com/launix-de/kvlog/client"
	"github.com/launix-de/kvlog/engine"
	"github.com/launix-de/kvlog/server"
	"github.com/launix-de/kvlog/threadpool"
)

func startServer(t *testing.T) (addr string, shutdown func()) {
	t.Helper()
	e, err := engine.Open(t.TempDir(), 2, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	pool := threadpool.NewSharedQueueThreadPool(4, 64, nil)
	dispatcher := engine.NewDispatcher(e, pool)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	srv := server.New(listener, dispatcher, nil, nil)
	go srv.Serve()

	return listener.Addr().String(), func() {
		srv.Shutdown()
		dispatcher.Close()
	}
}

func TestClientServerSetThenGet(t *testing.T) {
	addr, shutdown := startServer(t)
	defer shutdown()

	c, err := client.Dial(addr)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.Set("a", "1"); err != nil {
		t.Fatal(err)
	}
	value, found, err := c.Get("a")
	if err != nil {
		t.Fatal(err)
	}
	if !found || value != "1" {
		t.Fatalf("Get(a) = %q, %v, want \"1\", true", value, found)
	}
}

func TestClientRemoveMissingKeyReportsNotFound(t *testing.T) {
	addr, shutdown := startServer(t)
	defer shutdown()

	c, err := client.Dial(addr)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	err = c.Remove("ghost")
	if !errors.Is(err, client.ErrKeyNotFound) {
		t.Fatalf("Remove(ghost) = %v, want ErrKeyNotFound", err)
	}
}

func TestClientPipelinedRequestsPreserveOrder(t *testing.T) {
	addr, shutdown := startServer(t)
	defer shutdown()

	c, err := client.Dial(addr)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	for i := 0; i < 50; i++ {
		if err := c.Set("k", "v0"); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Set("k", "final"); err != nil {
		t.Fatal(err)
	}
	value, found, err := c.Get("k")
	if err != nil || !found || value != "final" {
		t.Fatalf("Get(k) = %q, %v, %v, want \"final\", true, nil", value, found, err)
	}
}
