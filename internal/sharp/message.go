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

// Package sharp implements both sides of the sharp wire protocol. Messages
// are json objects, one per line, over a plain tcp connection.
package sharp

// ProtocolVersion is the only protocol revision this implementation speaks.
const ProtocolVersion = "SHARP/1.3"

// maxMessageSize caps a single json message. Larger messages are refused
// with code 413.
const maxMessageSize = 1 * 1024 * 1024

// Message types as they appear on the wire.
const (
	TypeHello        = "HELLO"
	TypeMailTo       = "MAIL_TO"
	TypeData         = "DATA"
	TypeEmailContent = "EMAIL_CONTENT"
	TypeEndData      = "END_DATA"
	TypeOK           = "OK"
	TypeError        = "ERROR"
)

// Reply texts with a protocol meaning. A client must match them literally to
// recognize the end of a transaction.
const (
	okContentReceived = "Email content received"
	okMailProcessed   = "Email processed"
)

// Message is the single frame type of the protocol. Which fields are set
// depends on Type.
type Message struct {
	Type string `json:"type"`

	// HELLO
	Protocol string `json:"protocol,omitempty"`
	ServerID string `json:"server_id,omitempty"`

	// MAIL_TO
	Address  string `json:"address,omitempty"`
	Hashcash string `json:"hashcash,omitempty"`

	// EMAIL_CONTENT
	Subject     string   `json:"subject,omitempty"`
	Body        string   `json:"body,omitempty"`
	ContentType string   `json:"content_type,omitempty"`
	HTMLBody    string   `json:"html_body,omitempty"`
	Attachments []string `json:"attachments,omitempty"`

	// OK and ERROR
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
