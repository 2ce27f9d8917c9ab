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
	"context"

	"github.com/lukasdietrich/sharpmail/internal/models"
)

// Courier attempts a single delivery of a mail to the peer responsible for
// the recipient domain. An explicit rejection by the peer is returned as a
// *RemoteError, every other failure is a transport problem.
//
// The wire protocol implementation lives in the sharp package.
type Courier interface {
	Deliver(ctx context.Context, mail *models.MailEntity, attachments []string, hashcash string) error
}
