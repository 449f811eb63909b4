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
package client_test

import (
	"net"
	"testing"

	"github.com/launix-de/kvlog/client"
	"github.com/launix-de/kvlog/wire"
)

// fakeServer accepts one connection and answers every request with the
// response produced by reply.
func fakeServer(t *testing.T, reply func(req wire.Request) wire.Response) string {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { listener.Close() })
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var req wire.Request
			if err := wire.ReadFrame(conn, &req); err != nil {
				return
			}
			if err := wire.WriteFrame(conn, reply(req)); err != nil {
				return
			}
		}
	}()
	return listener.Addr().String()
}

func TestMismatchedResponseKindIsAnError(t *testing.T) {
	// A broken server that answers every request as if it were a Get.
	addr := fakeServer(t, func(req wire.Request) wire.Response {
		return wire.Response{Kind: wire.OpGet, Found: true, Value: "x"}
	})

	c, err := client.Dial(addr)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.Set("a", "1"); err == nil {
		t.Fatal("expected an error for a reply answering a different op")
	}
}

func TestMatchingResponseKindIsAccepted(t *testing.T) {
	addr := fakeServer(t, func(req wire.Request) wire.Response {
		return wire.Response{Kind: req.Op}
	})

	c, err := client.Dial(addr)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.Set("a", "1"); err != nil {
		t.Fatalf("Set against a well-behaved server: %v", err)
	}
}
