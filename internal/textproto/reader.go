// Copyright (C) 2021  Lukas Dietrich <lukas@lukasdietrich.com>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package textproto

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

const (
	// maxLineSize caps the buffer of a single line.
	maxLineSize = 10 * 1024 * 1024

	initialBufferSize = 4 * 1024
)

// ErrLineTooLong is returned when a single line exceeds the connection
// buffer limit.
var ErrLineTooLong = errors.New("textproto: line exceeds buffer limit")

// Reader reads a connection one line at a time.
type Reader interface {
	// ReadLine returns the next line without its trailing newline. A
	// trailing carriage return is stripped as well. The returned slice is
	// only valid until the next call.
	ReadLine() ([]byte, error)
}

type reader struct {
	buffer *bufio.Scanner
}

func newReader(r io.Reader) *reader {
	buffer := bufio.NewScanner(r)
	buffer.Buffer(make([]byte, initialBufferSize), maxLineSize)

	return &reader{
		buffer: buffer,
	}
}

func (r *reader) ReadLine() ([]byte, error) {
	if !r.buffer.Scan() {
		if err := r.buffer.Err(); err != nil {
			if errors.Is(err, bufio.ErrTooLong) {
				return nil, ErrLineTooLong
			}

			return nil, err
		}

		return nil, io.EOF
	}

	return bytes.TrimSuffix(r.buffer.Bytes(), []byte{'\r'}), nil
}
