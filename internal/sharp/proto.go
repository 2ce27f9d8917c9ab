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
	"context"
	"errors"
	"io"
	"net"
	"sync/atomic"

	"github.com/spf13/viper"

	"github.com/lukasdietrich/sharpmail/internal/delivery"
	"github.com/lukasdietrich/sharpmail/internal/dns"
	"github.com/lukasdietrich/sharpmail/internal/hashcash"
	"github.com/lukasdietrich/sharpmail/internal/log"
	"github.com/lukasdietrich/sharpmail/internal/models"
	"github.com/lukasdietrich/sharpmail/internal/textproto"
)

// Proto is the inbound protocol implementation for a textproto Server. Every
// connection carries at most one mail.
type Proto struct {
	discovery dns.Discovery
	directory delivery.Directory
	mailman   *delivery.Mailman
	scorer    hashcash.Scorer
	domain    string

	connections int32
}

// NewProto creates a new Proto using configuration from viper.
//
//	general.domain
func NewProto(
	discovery dns.Discovery,
	directory delivery.Directory,
	mailman *delivery.Mailman,
	scorer hashcash.Scorer,
) *Proto {
	return &Proto{
		discovery: discovery,
		directory: directory,
		mailman:   mailman,
		scorer:    scorer,
		domain:    viper.GetString("general.domain"),
	}
}

// Handle consumes an inbound connection until the transaction completes or
// the session is refused.
func (p *Proto) Handle(c textproto.Conn) {
	connection := atomic.AddInt32(&p.connections, 1)

	ctx := log.WithOrigin(context.Background(), "sharp")
	ctx = log.WithConnection(ctx, connection)

	log.InfoContext(ctx).
		Str("remoteAddr", c.RemoteAddr().String()).
		Msg("starting session")

	s := &session{Conn: c, step: stepHello}

	switch err := p.loop(ctx, s); err {
	case io.EOF, errCloseSession, nil:
		log.InfoContext(ctx).Msg("session closed")
	default:
		log.ErrorContext(ctx).
			Err(err).
			Msg("session closed with an error")
	}
}

func (p *Proto) loop(ctx context.Context, s *session) error {
	for {
		var msg Message

		if err := s.read(&msg); err != nil {
			if errors.Is(err, io.EOF) {
				return err
			}

			if errors.Is(err, textproto.ErrLineTooLong) {
				return p.refuse(ctx, s, errorf(400, "Maximum message size exceeded"))
			}

			return p.refuse(ctx, s, err)
		}

		ctx := log.WithMessageType(ctx, msg.Type)

		switch err := p.dispatch(ctx, s, &msg); err {
		case nil:
			continue
		case errCloseSession:
			return nil
		default:
			return p.refuse(ctx, s, err)
		}
	}
}

// refuse reports an error to the peer and ends the session. Errors without a
// protocol code are masked behind a generic refusal.
func (p *Proto) refuse(ctx context.Context, s *session, err error) error {
	var protoErr protoError

	if !errors.As(err, &protoErr) {
		log.ErrorContext(ctx).Err(err).Msg("unexpected error during session")
		protoErr = protoError{code: 400, message: "Invalid message format or processing error"}
	} else {
		log.InfoContext(ctx).
			Int("code", protoErr.code).
			Str("reason", protoErr.message).
			Msg("refusing session")
	}

	s.send(&Message{Type: TypeError, Message: protoErr.message, Code: protoErr.code})
	return errCloseSession
}

func (p *Proto) dispatch(ctx context.Context, s *session, msg *Message) error {
	switch s.step {
	case stepHello:
		return p.handleHello(ctx, s, msg)
	case stepMailTo:
		return p.handleMailTo(ctx, s, msg)
	case stepData:
		return p.handleData(s, msg)
	case stepReceivingData:
		return p.handleContent(ctx, s, msg)
	}

	return errorf(400, "Unhandled session state")
}

// handleHello checks the protocol version and verifies that the connection
// actually originates from a peer of the claimed sender domain.
func (p *Proto) handleHello(ctx context.Context, s *session, msg *Message) error {
	if msg.Type != TypeHello {
		return errorf(400, "Expected HELLO")
	}

	if msg.Protocol != ProtocolVersion {
		return errorf(400, "Unsupported protocol version: %s", msg.Protocol)
	}

	from, err := models.Parse(msg.ServerID)
	if err != nil {
		return errorf(400, "Sender verification failed: %s", err)
	}

	if !models.IsValidUsername(from.Username()) {
		return errorf(400, "Invalid username format in server_id.")
	}

	if err := p.discovery.VerifySenderDomain(ctx, from.Domain(), p.remoteIP(s)); err != nil {
		return errorf(400, "Sender verification failed: %s", err)
	}

	s.from = from
	s.step = stepMailTo

	return s.send(&Message{Type: TypeOK, Protocol: ProtocolVersion})
}

// handleMailTo checks the recipient and the proof of work attached to it.
func (p *Proto) handleMailTo(ctx context.Context, s *session, msg *Message) error {
	if msg.Type != TypeMailTo {
		return errorf(400, "Expected MAIL_TO")
	}

	to, err := models.Parse(msg.Address)
	if err != nil {
		return errorf(400, "Invalid recipient address format: %s", err)
	}

	if !models.IsValidUsername(to.Username()) {
		return errorf(400, "Invalid username format in recipient address.")
	}

	if to.Host() != p.domain {
		return errorf(451, "This server does not handle mail for %s", to.Domain())
	}

	user, err := p.directory.FindUser(ctx, to.Username(), to.Domain())
	if err != nil {
		return err
	}

	if user == nil {
		return errorf(550, "Recipient user not found")
	}

	if msg.Hashcash == "" {
		return errorf(429, "Missing X-Hashcash header or hashcash field")
	}

	// The token resource is the recipient address in its transmitted
	// spelling, not the parsed form.
	score := p.scorer.Score(ctx, msg.Hashcash, msg.Address)
	if score.IsReject() {
		return errorf(429, "Insufficient proof of work. Score: %d", score)
	}

	s.to = to
	s.rawTo = msg.Address
	s.hashcash = msg.Hashcash
	s.step = stepData

	return s.send(&Message{Type: TypeOK})
}

func (p *Proto) handleData(s *session, msg *Message) error {
	if msg.Type != TypeData {
		return errorf(400, "Expected DATA")
	}

	s.step = stepReceivingData
	return s.send(&Message{Type: TypeOK})
}

// handleContent collects the mail content and finalizes the transaction on
// END_DATA.
func (p *Proto) handleContent(ctx context.Context, s *session, msg *Message) error {
	switch msg.Type {
	case TypeEmailContent:
		s.subject = msg.Subject
		s.body = msg.Body
		s.contentType = msg.ContentType
		s.htmlBody = msg.HTMLBody
		s.attachments = msg.Attachments

		return s.send(&Message{Type: TypeOK, Message: okContentReceived})

	case TypeEndData:
		sub := delivery.Submission{
			From:        s.from,
			To:          s.to,
			Subject:     s.subject,
			Body:        s.body,
			ContentType: s.contentType,
			HTMLBody:    s.htmlBody,
			Attachments: s.attachments,
			Hashcash:    s.hashcash,
			Status:      models.StatusSent,
		}

		mail, err := p.mailman.Finalize(ctx, &sub)
		if err != nil {
			return err
		}

		log.InfoContext(log.WithMail(ctx, mail.ID)).Msg("inbound mail accepted")

		if err := s.send(&Message{Type: TypeOK, Message: okMailProcessed}); err != nil {
			return err
		}

		return errCloseSession

	default:
		return errorf(400, "Expected EMAIL_CONTENT or END_DATA")
	}
}

// remoteIP extracts the bare ip of the connected peer.
func (p *Proto) remoteIP(s *session) string {
	addr := s.RemoteAddr().String()

	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}

	return addr
}
