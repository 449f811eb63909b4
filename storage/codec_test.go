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
package storage

import (
	"bytes"
	"io"
	"testing"
)

func TestEncodeDecodeSetRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	cmd := setCommand("hello", "world")
	n, err := encodeCommand(&buf, cmd)
	if err != nil {
		t.Fatal(err)
	}
	if n != int64(buf.Len()) {
		t.Fatalf("encodeCommand reported %d bytes, buffer has %d", n, buf.Len())
	}
	got, err := decodeCommand(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got != cmd {
		t.Fatalf("decodeCommand = %+v, want %+v", got, cmd)
	}
}

func TestEncodeDecodeRemoveHasNoValueSection(t *testing.T) {
	var bufSet, bufRemove bytes.Buffer
	encodeCommand(&bufSet, setCommand("k", ""))
	encodeCommand(&bufRemove, removeCommand("k"))
	if bufSet.Len() == bufRemove.Len() {
		t.Fatalf("set-with-empty-value and remove encoded to the same length: a remove must omit the value section entirely")
	}

	got, err := decodeCommand(&bufRemove)
	if err != nil {
		t.Fatal(err)
	}
	if got.Tag != tagRemove {
		t.Fatalf("decoded tag = %d, want tagRemove", got.Tag)
	}
}

func TestDecodeUnknownTagIsError(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(99)
	writeString(&buf, "k")
	if _, err := decodeCommand(&buf); err == nil {
		t.Fatal("expected an error for an unknown command tag")
	}
}

func TestDecodeTruncatedFrameIsUnexpectedEOF(t *testing.T) {
	var full bytes.Buffer
	encodeCommand(&full, setCommand("k", "v"))
	truncated := bytes.NewReader(full.Bytes()[:full.Len()-1])
	_, err := decodeCommand(truncated)
	if err != io.ErrUnexpectedEOF {
		t.Fatalf("decodeCommand on a truncated frame = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestDecodeEmptyReaderIsEOF(t *testing.T) {
	_, err := decodeCommand(bytes.NewReader(nil))
	if err != io.EOF {
		t.Fatalf("decodeCommand on an empty reader = %v, want io.EOF", err)
	}
}
