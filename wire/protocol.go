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

// Package wire implements the length-delimited JSON framing the server
// and client speak over TCP: a 4-byte big-endian length prefix followed
// by that many bytes of JSON, for both requests and responses.
package wire

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// MaxFrameSize bounds a single frame so a corrupt or hostile length
// prefix can't make a reader allocate unbounded memory.
const MaxFrameSize = 512 * 1024 * 1024

// Op names the three operations a Request can carry.
type Op string

const (
	OpGet    Op = "get"
	OpSet    Op = "set"
	OpRemove Op = "rm"
)

// Request is the client-to-server envelope. Value is only meaningful
// for OpSet.
type Request struct {
	Op    Op     `json:"op"`
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
}

// Response is the server-to-client envelope. Kind echoes the Op of the
// request it answers, so a client can reject a reply that doesn't match
// the request it just sent. Of the remaining fields, Value/Found are
// only meaningful for an OpGet reply and Err marks any failure.
type Response struct {
	Kind  Op     `json:"kind"`
	Found bool   `json:"found,omitempty"`
	Value string `json:"value,omitempty"`
	Err   string `json:"err,omitempty"`
}

// WriteFrame marshals v to JSON and writes it as one length-prefixed
// frame. It flushes nothing; callers writing to a buffered connection
// must flush themselves.
func WriteFrame(w io.Writer, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("wire: marshal: %w", err)
	}
	if len(body) > MaxFrameSize {
		return fmt.Errorf("wire: frame of %d bytes exceeds maximum %d", len(body), MaxFrameSize)
	}
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(body)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("wire: write length: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("wire: write body: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed frame from r and unmarshals it
// into v.
func ReadFrame(r io.Reader, v any) error {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return err
	}
	length := binary.BigEndian.Uint32(header[:])
	if length > MaxFrameSize {
		return fmt.Errorf("wire: frame of %d bytes exceeds maximum %d", length, MaxFrameSize)
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return fmt.Errorf("wire: read body: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("wire: unmarshal: %w", err)
	}
	return nil
}
