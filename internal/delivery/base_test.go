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
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/lukasdietrich/sharpmail/internal/database"
	"github.com/lukasdietrich/sharpmail/internal/hashcash"
	"github.com/lukasdietrich/sharpmail/internal/models"
)

// testClock is the frozen time used by all delivery tests.
var testClock = func() time.Time {
	return time.Date(2021, time.June, 1, 12, 0, 0, 0, time.UTC)
}

// baseDeliveryTestSuite provides an in-memory database with real daos for
// integration style tests of the delivery orchestration.
type baseDeliveryTestSuite struct {
	suite.Suite

	conn          database.Conn
	mailDao       database.MailDao
	userDao       database.UserDao
	attachmentDao database.AttachmentDao
	hashcashDao   database.HashcashDao
	directory     Directory
}

func (s *baseDeliveryTestSuite) SetupTest() {
	viper.Set("storage.database.filename", ":memory:")
	viper.Set("storage.database.journalmode", "memory")
	viper.Set("general.domain", "example.com")

	conn, err := database.OpenConnection()
	s.Require().NoError(err)

	s.conn = conn
	s.mailDao = database.NewMailDao()
	s.userDao = database.NewUserDao()
	s.attachmentDao = database.NewAttachmentDao()
	s.hashcashDao = database.NewHashcashDao()
	s.directory = NewDirectory(conn, s.userDao)
}

func (s *baseDeliveryTestSuite) TearDownTest() {
	s.Require().NoError(s.conn.Close())
}

func (s *baseDeliveryTestSuite) insertUser(username string, iq int) *models.UserEntity {
	user := models.UserEntity{
		Username:       username,
		Domain:         "example.com",
		IQ:             iq,
		CredentialHash: "hash",
	}

	s.Require().NoError(s.userDao.Insert(context.TODO(), s.conn, &user))
	return &user
}

func (s *baseDeliveryTestSuite) findMail(id int64) *models.MailEntity {
	mail, err := s.mailDao.FindByID(context.TODO(), s.conn, id)
	s.Require().NoError(err)
	return mail
}

func (s *baseDeliveryTestSuite) mustParseAddress(raw string) models.Address {
	addr, err := models.Parse(raw)
	s.Require().NoError(err)
	return addr
}

// fakeScorer returns a fixed score and records the scored resources and
// marked tokens.
type fakeScorer struct {
	score     hashcash.Score
	markErr   error
	resources []string
	marked    []string
}

var _ hashcash.Scorer = (*fakeScorer)(nil)

func (f *fakeScorer) Score(_ context.Context, _, resource string) hashcash.Score {
	f.resources = append(f.resources, resource)
	return f.score
}

func (f *fakeScorer) MarkUsed(_ context.Context, _ database.Queryer, header string) error {
	f.marked = append(f.marked, header)
	return f.markErr
}

// mockCourier is a testify mock for the Courier interface.
type mockCourier struct {
	mock.Mock
}

var _ Courier = (*mockCourier)(nil)

func (m *mockCourier) Deliver(
	ctx context.Context,
	mail *models.MailEntity,
	attachments []string,
	hashcash string,
) error {
	args := m.Called(ctx, mail, attachments, hashcash)
	return args.Error(0)
}
