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

import "errors"

// ErrKeyNotFound is returned by Remove when the key has no live entry.
var ErrKeyNotFound = errors.New("key not found")

// ErrUnexpectedCommandType means the index pointed at a record that does
// not decode as a Set. It indicates log/index disagreement: an
// implementation bug or on-disk corruption. The engine stays usable for
// other keys afterward.
var ErrUnexpectedCommandType = errors.New("unexpected command type")
