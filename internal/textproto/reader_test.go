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
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLine(t *testing.T) {
	r := newReader(strings.NewReader("first\nsecond\r\nthird"))

	line, err := r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "first", string(line))

	line, err = r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "second", string(line))

	line, err = r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "third", string(line))

	_, err = r.ReadLine()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadLineTooLong(t *testing.T) {
	r := newReader(strings.NewReader(strings.Repeat("x", maxLineSize+1)))

	_, err := r.ReadLine()
	assert.ErrorIs(t, err, ErrLineTooLong)
}
