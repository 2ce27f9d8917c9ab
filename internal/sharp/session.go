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
	"encoding/json"

	"github.com/lukasdietrich/sharpmail/internal/models"
	"github.com/lukasdietrich/sharpmail/internal/textproto"
)

// step is the position of an inbound session in the fixed message sequence.
type step int

const (
	stepHello step = iota
	stepMailTo
	stepData
	stepReceivingData
)

// session is the state of a single inbound connection.
type session struct {
	textproto.Conn
	step step

	from models.Address
	to   models.Address
	// rawTo is the recipient address exactly as transmitted. It is the
	// resource the hashcash token must be minted for.
	rawTo    string
	hashcash string

	subject     string
	body        string
	contentType string
	htmlBody    string
	attachments []string
}

// read reads the next message, skipping over blank lines. Oversized messages
// are refused without being parsed.
func (s *session) read(msg *Message) error {
	for {
		line, err := s.ReadLine()
		if err != nil {
			return err
		}

		if len(line) == 0 {
			continue
		}

		if len(line) > maxMessageSize {
			return errorf(413, "Message too large")
		}

		return json.Unmarshal(line, msg)
	}
}

// send writes a message as a single line and flushes the buffer.
func (s *session) send(msg *Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	if _, err := s.Write(b); err != nil {
		return err
	}

	if err := s.Endline(); err != nil {
		return err
	}

	return s.Flush()
}
