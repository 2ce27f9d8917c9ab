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
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/suite"

	"github.com/lukasdietrich/sharpmail/internal/database"
	"github.com/lukasdietrich/sharpmail/internal/models"
	"github.com/lukasdietrich/sharpmail/internal/storage"
)

func TestCleanerTestSuite(t *testing.T) {
	suite.Run(t, new(CleanerTestSuite))
}

type CleanerTestSuite struct {
	baseDeliveryTestSuite

	blobs   *storage.Blobs
	cleaner *Cleaner
}

func (s *CleanerTestSuite) SetupTest() {
	s.baseDeliveryTestSuite.SetupTest()

	viper.Set("storage.blobs.foldername", s.T().TempDir())

	blobs, err := storage.NewBlobs()
	s.Require().NoError(err)

	s.blobs = blobs
	s.cleaner = NewCleaner(s.conn, s.mailDao, s.attachmentDao, s.hashcashDao, blobs)
	s.cleaner.clock = testClock
}

func (s *CleanerTestSuite) insertMail(status models.Status, submittedAt time.Time) *models.MailEntity {
	mail := models.MailEntity{
		FromAddress:    s.mustParseAddress("someone#example.com"),
		FromDomain:     "example.com",
		ToAddress:      s.mustParseAddress("other#remote.org"),
		ToDomain:       "remote.org",
		Subject:        "subject",
		Body:           "body",
		ContentType:    "text/plain",
		Status:         status,
		Classification: models.ClassificationPrimary,
		SubmittedAt:    submittedAt.Unix(),
	}

	s.Require().NoError(s.mailDao.Insert(context.TODO(), s.conn, &mail))
	return &mail
}

func (s *CleanerTestSuite) TestFailStalePending() {
	stale := s.insertMail(models.StatusPending, testClock().Add(-time.Minute))
	fresh := s.insertMail(models.StatusPending, testClock().Add(-time.Second))
	sent := s.insertMail(models.StatusSent, testClock().Add(-time.Minute))

	s.Require().NoError(s.cleaner.FailStalePending(context.TODO()))

	stored := s.findMail(stale.ID)
	s.Equal(models.StatusFailed, stored.Status)
	s.Equal("Timed out while pending", stored.ErrorMessage.String)

	s.Equal(models.StatusPending, s.findMail(fresh.ID).Status)
	s.Equal(models.StatusSent, s.findMail(sent.ID).Status)
}

func (s *CleanerTestSuite) TestDeleteExpired() {
	expired := s.insertMail(models.StatusSent, testClock().Add(-2*time.Hour))
	expired.ExpiresAt = sql.NullInt64{Int64: testClock().Add(-time.Hour).Unix(), Valid: true}
	s.Require().NoError(s.mailDao.Update(context.TODO(), s.conn, expired))

	// A reply to the expired mail goes down with it.
	reply := s.insertMail(models.StatusSent, testClock().Add(-time.Hour))
	reply.ReplyToID = sql.NullInt64{Int64: expired.ID, Valid: true}
	s.Require().NoError(s.mailDao.Update(context.TODO(), s.conn, reply))

	kept := s.insertMail(models.StatusSent, testClock().Add(-2*time.Hour))

	key, _, err := s.blobs.Write(strings.NewReader("payload"))
	s.Require().NoError(err)

	err = s.attachmentDao.Insert(context.TODO(), s.conn, &models.AttachmentEntity{
		Key:       key,
		Status:    models.StatusSent,
		Filename:  "payload.bin",
		Size:      7,
		CreatedAt: testClock().Unix(),
	})
	s.Require().NoError(err)

	err = s.attachmentDao.Link(context.TODO(), s.conn, []string{key}, expired.ID, models.StatusSent)
	s.Require().NoError(err)

	s.Require().NoError(s.cleaner.DeleteExpired(context.TODO()))

	_, err = s.mailDao.FindByID(context.TODO(), s.conn, expired.ID)
	s.True(database.IsErrNoRows(err))

	_, err = s.mailDao.FindByID(context.TODO(), s.conn, reply.ID)
	s.True(database.IsErrNoRows(err))

	s.Equal(models.StatusSent, s.findMail(kept.ID).Status)

	_, err = s.blobs.Reader(key)
	s.Error(err)
}

func (s *CleanerTestSuite) TestDeleteExpiredNothingDue() {
	mail := s.insertMail(models.StatusSent, testClock().Add(-time.Hour))
	mail.ExpiresAt = sql.NullInt64{Int64: testClock().Add(time.Hour).Unix(), Valid: true}
	s.Require().NoError(s.mailDao.Update(context.TODO(), s.conn, mail))

	s.Require().NoError(s.cleaner.DeleteExpired(context.TODO()))
	s.Equal(models.StatusSent, s.findMail(mail.ID).Status)
}

func (s *CleanerTestSuite) TestPurgeUsedTokens() {
	ctx := context.TODO()

	err := s.hashcashDao.InsertUsed(ctx, s.conn, &models.UsedTokenEntity{
		Token:     "expired-token",
		ExpiresAt: testClock().Add(-time.Minute).Unix(),
	})
	s.Require().NoError(err)

	err = s.hashcashDao.InsertUsed(ctx, s.conn, &models.UsedTokenEntity{
		Token:     "valid-token",
		ExpiresAt: testClock().Add(time.Hour).Unix(),
	})
	s.Require().NoError(err)

	s.Require().NoError(s.cleaner.PurgeUsedTokens(ctx))

	expired, err := s.hashcashDao.ExistsUsed(ctx, s.conn, "expired-token")
	s.Require().NoError(err)
	s.False(expired)

	valid, err := s.hashcashDao.ExistsUsed(ctx, s.conn, "valid-token")
	s.Require().NoError(err)
	s.True(valid)
}
