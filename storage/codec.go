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
	"encoding/binary"
	"fmt"
	"io"
)

// command tags. Self-describing: an unknown tag is a decode error, never
// silently skipped.
const (
	tagSet    uint8 = 1
	tagRemove uint8 = 2
)

// Command is one record in a log file: either a Set or a Remove.
type Command struct {
	Tag   uint8
	Key   string
	Value string // unset for Remove
}

func setCommand(key, value string) Command {
	return Command{Tag: tagSet, Key: key, Value: value}
}

func removeCommand(key string) Command {
	return Command{Tag: tagRemove, Key: key}
}

// encodeCommand writes a self-delimiting frame: tag byte, then each string
// as a uint32 length prefix followed by its bytes. Remove has no value
// section at all, not merely an empty one, so replay can't confuse "removed"
// with "set to empty string".
func encodeCommand(w io.Writer, cmd Command) (int64, error) {
	var n int64
	if err := binary.Write(w, binary.BigEndian, cmd.Tag); err != nil {
		return n, err
	}
	n++
	wn, err := writeString(w, cmd.Key)
	n += wn
	if err != nil {
		return n, err
	}
	if cmd.Tag == tagSet {
		wn, err = writeString(w, cmd.Value)
		n += wn
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func writeString(w io.Writer, s string) (int64, error) {
	if err := binary.Write(w, binary.BigEndian, uint32(len(s))); err != nil {
		return 0, err
	}
	written, err := io.WriteString(w, s)
	return int64(4 + written), err
}

// decodeCommand reads one self-delimiting frame from r. It returns io.EOF
// only when zero bytes could be read at a frame boundary; any other
// short read is io.ErrUnexpectedEOF, which replay treats as a truncated
// tail rather than an error.
func decodeCommand(r io.Reader) (Command, error) {
	var tag uint8
	if err := binary.Read(r, binary.BigEndian, &tag); err != nil {
		return Command{}, err
	}
	key, err := readString(r)
	if err != nil {
		return Command{}, unexpectedIfEOF(err)
	}
	switch tag {
	case tagSet:
		value, err := readString(r)
		if err != nil {
			return Command{}, unexpectedIfEOF(err)
		}
		return setCommand(key, value), nil
	case tagRemove:
		return removeCommand(key), nil
	default:
		return Command{}, fmt.Errorf("storage: unknown command tag %d", tag)
	}
}

func unexpectedIfEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

func readString(r io.Reader) (string, error) {
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return "", err
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", unexpectedIfEOF(err)
	}
	return string(buf), nil
}
