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
package wire

import (
	"bytes"
	"testing"
)

func TestRequestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	req := Request{Op: OpSet, Key: "a", Value: "1"}
	if err := WriteFrame(&buf, req); err != nil {
		t.Fatal(err)
	}
	var got Request
	if err := ReadFrame(&buf, &got); err != nil {
		t.Fatal(err)
	}
	if got != req {
		t.Fatalf("got %+v, want %+v", got, req)
	}
}

func TestPipelinedFramesPreserveOrder(t *testing.T) {
	var buf bytes.Buffer
	reqs := []Request{
		{Op: OpSet, Key: "a", Value: "1"},
		{Op: OpGet, Key: "a"},
		{Op: OpRemove, Key: "a"},
	}
	for _, r := range reqs {
		if err := WriteFrame(&buf, r); err != nil {
			t.Fatal(err)
		}
	}
	for _, want := range reqs {
		var got Request
		if err := ReadFrame(&buf, &got); err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Fatalf("got %+v, want %+v", got, want)
		}
	}
}

func TestResponseRoundTripKeepsKind(t *testing.T) {
	var buf bytes.Buffer
	resp := Response{Kind: OpGet, Found: true, Value: "1"}
	if err := WriteFrame(&buf, resp); err != nil {
		t.Fatal(err)
	}
	var got Response
	if err := ReadFrame(&buf, &got); err != nil {
		t.Fatal(err)
	}
	if got != resp {
		t.Fatalf("got %+v, want %+v", got, resp)
	}
}

func TestOversizedFrameRejected(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	var got Request
	if err := ReadFrame(&buf, &got); err == nil {
		t.Fatal("expected an error for a frame exceeding MaxFrameSize")
	}
}
