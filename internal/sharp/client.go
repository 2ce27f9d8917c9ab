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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/lukasdietrich/sharpmail/internal/delivery"
	"github.com/lukasdietrich/sharpmail/internal/dns"
	"github.com/lukasdietrich/sharpmail/internal/log"
	"github.com/lukasdietrich/sharpmail/internal/models"
	"github.com/lukasdietrich/sharpmail/internal/textproto"
)

// deliveryTimeout bounds a complete outbound transaction including the dial.
const deliveryTimeout = 10 * time.Second

// Client performs outbound deliveries over the wire protocol. It implements
// the delivery Courier interface.
type Client struct {
	discovery dns.Discovery
	dialer    net.Dialer
	timeout   time.Duration
}

var _ delivery.Courier = (*Client)(nil)

// NewClient creates a new Client.
func NewClient(discovery dns.Discovery) *Client {
	return &Client{
		discovery: discovery,
		timeout:   deliveryTimeout,
	}
}

// Deliver connects to the peer of the recipient domain and plays through the
// message sequence of a single mail. A refusal by the peer is returned as a
// *delivery.RemoteError.
func (c *Client) Deliver(
	ctx context.Context,
	mail *models.MailEntity,
	attachments []string,
	hashcash string,
) error {
	endpoint, err := c.lookupEndpoint(ctx, mail.ToAddress)
	if err != nil {
		return err
	}

	log.InfoContext(ctx).
		Str("endpoint", endpoint).
		Msg("dialing peer")

	// A single deadline covers the dial and the whole exchange.
	deadline := time.Now().Add(c.timeout)

	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	netConn, err := c.dialer.DialContext(ctx, "tcp", endpoint)
	if err != nil {
		return fmt.Errorf("Socket error: %v", err)
	}

	defer netConn.Close()

	if err := netConn.SetDeadline(deadline); err != nil {
		return err
	}

	conn := textproto.Wrap(netConn)
	return c.exchange(conn, c.transactionSteps(mail, attachments, hashcash))
}

// lookupEndpoint determines the peer address of the recipient. An explicit
// port in the address skips discovery and connects to the domain directly.
func (c *Client) lookupEndpoint(ctx context.Context, to models.Address) (string, error) {
	if port := to.Port(); port != 0 {
		return net.JoinHostPort(to.Domain(), strconv.Itoa(int(port))), nil
	}

	domain, err := models.DomainToASCII(to.Domain())
	if err != nil {
		return "", err
	}

	peer, err := c.discovery.ResolvePeer(ctx, domain)
	if err != nil {
		return "", err
	}

	return net.JoinHostPort(peer.Addr, strconv.Itoa(int(peer.Port))), nil
}

func (c *Client) transactionSteps(
	mail *models.MailEntity,
	attachments []string,
	hashcash string,
) []Message {
	return []Message{
		{
			Type:     TypeHello,
			Protocol: ProtocolVersion,
			ServerID: mail.FromAddress.String(),
		},
		{
			Type:     TypeMailTo,
			Address:  mail.ToAddress.String(),
			Hashcash: hashcash,
		},
		{
			Type: TypeData,
		},
		{
			Type:        TypeEmailContent,
			Subject:     mail.Subject,
			Body:        mail.Body,
			ContentType: mail.ContentType,
			HTMLBody:    mail.HTMLBody.String,
			Attachments: attachments,
		},
		{
			Type: TypeEndData,
		},
	}
}

// exchange sends the prepared steps one reply at a time. The content and the
// end of data marker are sent back to back without waiting in between.
func (c *Client) exchange(conn textproto.Conn, steps []Message) error {
	var next int

	sendNext := func() error {
		if next >= len(steps) {
			return errors.New("sharp: no more messages to send")
		}

		msg := &steps[next]
		next++

		if err := writeMessage(conn, msg); err != nil {
			return err
		}

		if msg.Type == TypeEmailContent && next < len(steps) && steps[next].Type == TypeEndData {
			if err := writeMessage(conn, &steps[next]); err != nil {
				return err
			}

			next++
		}

		return conn.Flush()
	}

	if err := sendNext(); err != nil {
		return err
	}

	for {
		line, err := conn.ReadLine()
		if err != nil {
			return translateReadError(err)
		}

		if len(line) == 0 {
			continue
		}

		var reply Message

		if err := json.Unmarshal(line, &reply); err != nil {
			return errors.New("Invalid JSON from remote")
		}

		switch reply.Type {
		case TypeError:
			return &delivery.RemoteError{
				Code:    reply.Code,
				Message: reply.Message,
			}

		case TypeOK:
			switch reply.Message {
			case okMailProcessed:
				return nil

			case okContentReceived:
				// The peer acknowledges the content but the transaction
				// only completes after END_DATA.

			default:
				if err := sendNext(); err != nil {
					return err
				}
			}
		}
	}
}

func writeMessage(conn textproto.Conn, msg *Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	if _, err := conn.Write(b); err != nil {
		return err
	}

	return conn.Endline()
}

// translateReadError maps transport failures to the error messages recorded
// on the mail.
func translateReadError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errors.New("Connection timed out")
	}

	if errors.Is(err, io.EOF) {
		return errors.New("Connection closed unexpectedly")
	}

	return err
}
