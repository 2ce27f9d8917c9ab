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

package sharp

import (
	"errors"
	"fmt"
)

// errCloseSession signals the regular end of a session after the final reply
// was written.
var errCloseSession = errors.New("sharp: close session")

// protoError is a refusal that is reported to the peer before the connection
// is closed. Every refusal terminates the session.
type protoError struct {
	code    int
	message string
}

func (e protoError) Error() string {
	return fmt.Sprintf("%s (%d)", e.message, e.code)
}

func errorf(code int, format string, args ...interface{}) protoError {
	return protoError{
		code:    code,
		message: fmt.Sprintf(format, args...),
	}
}
