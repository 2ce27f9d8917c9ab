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

package delivery

import (
	"fmt"
)

// SubmitError is a submission failure that is reported synchronously to the
// submitting user. The code follows http semantics.
type SubmitError struct {
	Code    int
	Message string
}

func (e SubmitError) Error() string {
	return fmt.Sprintf("submit: %s (%d)", e.Message, e.Code)
}

// RemoteError is an explicit ERROR reply of a peer during outbound delivery.
// It is distinguished from transport failures, because a rejection by the
// peer must not be retried.
type RemoteError struct {
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote: %s (%d)", e.Message, e.Code)
}
