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

// Package client is the synchronous counterpart to package server: it
// opens one persistent connection and sends requests over it, matching
// each with its reply in the order they were sent.
package client

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/launix-de/kvlog/wire"
)

// ErrKeyNotFound mirrors engine.ErrKeyNotFound's message so the CLI's
// exit-code handling doesn't need to import package engine.
var ErrKeyNotFound = errors.New("key not found")

// Client is a single persistent connection to a kvlog server. Calls are
// serialized: Client is safe for concurrent use, but concurrent callers
// share one round trip at a time.
type Client struct {
	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer
}

// Dial connects to addr and returns a ready Client.
func Dial(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("client: dial: %w", err)
	}
	return &Client{conn: conn, reader: bufio.NewReader(conn), writer: bufio.NewWriter(conn)}, nil
}

func (c *Client) roundTrip(req wire.Request) (wire.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := wire.WriteFrame(c.writer, req); err != nil {
		return wire.Response{}, err
	}
	if err := c.writer.Flush(); err != nil {
		return wire.Response{}, err
	}
	var resp wire.Response
	if err := wire.ReadFrame(c.reader, &resp); err != nil {
		return wire.Response{}, err
	}
	// Every reply names the op it answers; a reply for some other op
	// means the request/reply pairing on this connection is broken.
	if resp.Kind != req.Op {
		return wire.Response{}, fmt.Errorf("client: server answered %q for a %q request", resp.Kind, req.Op)
	}
	return resp, nil
}

// Get returns (value, true, nil) on a hit, ("", false, nil) on a miss.
func (c *Client) Get(key string) (string, bool, error) {
	resp, err := c.roundTrip(wire.Request{Op: wire.OpGet, Key: key})
	if err != nil {
		return "", false, err
	}
	if resp.Err != "" {
		return "", false, errors.New(resp.Err)
	}
	return resp.Value, resp.Found, nil
}

// Set stores value under key.
func (c *Client) Set(key, value string) error {
	resp, err := c.roundTrip(wire.Request{Op: wire.OpSet, Key: key, Value: value})
	if err != nil {
		return err
	}
	return responseErr(resp)
}

// Remove deletes key, returning ErrKeyNotFound if it had no live value.
func (c *Client) Remove(key string) error {
	resp, err := c.roundTrip(wire.Request{Op: wire.OpRemove, Key: key})
	if err != nil {
		return err
	}
	return responseErr(resp)
}

func responseErr(resp wire.Response) error {
	if resp.Err == "" {
		return nil
	}
	if resp.Err == ErrKeyNotFound.Error() {
		return ErrKeyNotFound
	}
	return errors.New(resp.Err)
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
