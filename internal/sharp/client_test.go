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
	"bufio"
	"context"
	"encoding/json"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukasdietrich/sharpmail/internal/delivery"
	"github.com/lukasdietrich/sharpmail/internal/dns"
	"github.com/lukasdietrich/sharpmail/internal/models"
)

// fakePeer is a scripted remote server for client tests. It records every
// received message and answers according to the handler.
type fakePeer struct {
	t        *testing.T
	listener net.Listener
	received chan Message
	handler  func(conn net.Conn, msg Message) bool
}

func newFakePeer(t *testing.T, handler func(conn net.Conn, msg Message) bool) *fakePeer {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	peer := &fakePeer{
		t:        t,
		listener: listener,
		received: make(chan Message, 16),
		handler:  handler,
	}

	go peer.serve()

	t.Cleanup(func() {
		listener.Close()
	})

	return peer
}

func (p *fakePeer) port() uint16 {
	return uint16(p.listener.Addr().(*net.TCPAddr).Port)
}

func (p *fakePeer) serve() {
	conn, err := p.listener.Accept()
	if err != nil {
		return
	}

	defer conn.Close()
	defer close(p.received)

	scanner := bufio.NewScanner(conn)

	for scanner.Scan() {
		var msg Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			return
		}

		p.received <- msg

		if !p.handler(conn, msg) {
			return
		}
	}
}

func reply(conn net.Conn, msg Message) {
	b, _ := json.Marshal(msg)
	conn.Write(append(b, '\n'))
}

// wellBehavedPeer accepts a complete transaction.
func wellBehavedPeer(conn net.Conn, msg Message) bool {
	switch msg.Type {
	case TypeHello:
		reply(conn, Message{Type: TypeOK, Protocol: ProtocolVersion})
	case TypeMailTo, TypeData:
		reply(conn, Message{Type: TypeOK})
	case TypeEmailContent:
		reply(conn, Message{Type: TypeOK, Message: okContentReceived})
	case TypeEndData:
		reply(conn, Message{Type: TypeOK, Message: okMailProcessed})
		return false
	}

	return true
}

func newTestMail(t *testing.T, to string) *models.MailEntity {
	from, err := models.Parse("someone#example.com")
	require.NoError(t, err)

	toAddr, err := models.Parse(to)
	require.NoError(t, err)

	return &models.MailEntity{
		FromAddress: from,
		FromDomain:  from.Domain(),
		ToAddress:   toAddr,
		ToDomain:    toAddr.Domain(),
		Subject:     "hello",
		Body:        "how are you?",
		ContentType: "text/plain",
	}
}

func TestDeliverDirectPort(t *testing.T) {
	peer := newFakePeer(t, wellBehavedPeer)
	client := NewClient(&fakeDiscovery{})

	mail := newTestMail(t, "other#127.0.0.1:"+strconv.Itoa(int(peer.port())))
	hashcash := "1:18:210601120000:other#127.0.0.1::rand:1"

	err := client.Deliver(context.Background(), mail, []string{"blob-1"}, hashcash)
	require.NoError(t, err)

	var messages []Message
	for msg := range peer.received {
		messages = append(messages, msg)
	}

	require.Len(t, messages, 5)

	assert.Equal(t, TypeHello, messages[0].Type)
	assert.Equal(t, ProtocolVersion, messages[0].Protocol)
	assert.Equal(t, "someone#example.com", messages[0].ServerID)

	assert.Equal(t, TypeMailTo, messages[1].Type)
	assert.Equal(t, mail.ToAddress.String(), messages[1].Address)
	assert.Equal(t, hashcash, messages[1].Hashcash)

	assert.Equal(t, TypeData, messages[2].Type)

	assert.Equal(t, TypeEmailContent, messages[3].Type)
	assert.Equal(t, "hello", messages[3].Subject)
	assert.Equal(t, []string{"blob-1"}, messages[3].Attachments)

	assert.Equal(t, TypeEndData, messages[4].Type)
}

func TestDeliverViaDiscovery(t *testing.T) {
	peer := newFakePeer(t, wellBehavedPeer)

	discovery := &fakeDiscovery{
		peer: &dns.Peer{
			TargetName: "sharp.remote.org",
			Addr:       "127.0.0.1",
			Port:       peer.port(),
			HTTPPort:   peer.port() + 1,
		},
	}

	client := NewClient(discovery)
	mail := newTestMail(t, "other#remote.org")

	err := client.Deliver(context.Background(), mail, nil, "")
	require.NoError(t, err)
}

func TestDeliverNoPeerFound(t *testing.T) {
	client := NewClient(&fakeDiscovery{peerErr: dns.ErrNoPeerFound})
	mail := newTestMail(t, "other#remote.org")

	err := client.Deliver(context.Background(), mail, nil, "")
	assert.ErrorIs(t, err, dns.ErrNoPeerFound)
}

func TestDeliverRejected(t *testing.T) {
	peer := newFakePeer(t, func(conn net.Conn, msg Message) bool {
		reply(conn, Message{
			Type:    TypeError,
			Message: "Insufficient proof of work. Score: 3",
			Code:    429,
		})

		return false
	})

	client := NewClient(&fakeDiscovery{})
	mail := newTestMail(t, "other#127.0.0.1:"+strconv.Itoa(int(peer.port())))

	err := client.Deliver(context.Background(), mail, nil, "")

	var remoteErr *delivery.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, 429, remoteErr.Code)
	assert.Equal(t, "Insufficient proof of work. Score: 3", remoteErr.Message)
}

func TestDeliverInvalidJSON(t *testing.T) {
	peer := newFakePeer(t, func(conn net.Conn, msg Message) bool {
		conn.Write([]byte("garbage\n"))
		return false
	})

	client := NewClient(&fakeDiscovery{})
	mail := newTestMail(t, "other#127.0.0.1:"+strconv.Itoa(int(peer.port())))

	err := client.Deliver(context.Background(), mail, nil, "")
	assert.EqualError(t, err, "Invalid JSON from remote")
}

func TestDeliverTimeout(t *testing.T) {
	peer := newFakePeer(t, func(conn net.Conn, msg Message) bool {
		// Accept the message but never reply.
		return true
	})

	client := NewClient(&fakeDiscovery{})
	client.timeout = 200 * time.Millisecond

	mail := newTestMail(t, "other#127.0.0.1:"+strconv.Itoa(int(peer.port())))

	start := time.Now()
	err := client.Deliver(context.Background(), mail, nil, "")

	assert.EqualError(t, err, "Connection timed out")
	assert.Less(t, time.Since(start), time.Second)
}

func TestDeliverConnectionClosed(t *testing.T) {
	peer := newFakePeer(t, func(conn net.Conn, msg Message) bool {
		return false
	})

	client := NewClient(&fakeDiscovery{})
	mail := newTestMail(t, "other#127.0.0.1:"+strconv.Itoa(int(peer.port())))

	err := client.Deliver(context.Background(), mail, nil, "")
	assert.EqualError(t, err, "Connection closed unexpectedly")
}
