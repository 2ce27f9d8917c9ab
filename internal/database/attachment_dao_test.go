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

package database

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lukasdietrich/sharpmail/internal/models"
)

func TestAttachmentDaoTestSuite(t *testing.T) {
	suite.Run(t, new(AttachmentDaoTestSuite))
}

type AttachmentDaoTestSuite struct {
	baseDatabaseTestSuite

	attachmentDao AttachmentDao
}

func (s *AttachmentDaoTestSuite) SetupSuite() {
	s.attachmentDao = NewAttachmentDao()
}

func (s *AttachmentDaoTestSuite) insertMail(id int64) {
	s.requireExec(fmt.Sprintf(
		`
			insert into "mails" (
				"id", "from_address", "from_domain", "to_address", "to_domain",
				"status", "submitted_at"
			) values
				( %d, 'a#example.com', 'example.com', 'b#example.org',
				  'example.org', 'pending', 1 ) ;
		`, id))
}

func (s *AttachmentDaoTestSuite) TestInsert() {
	attachment := models.AttachmentEntity{
		Key:       "blob-key",
		Status:    models.StatusPending,
		Filename:  "cat.png",
		Size:      1024,
		CreatedAt: 42,
	}

	s.Require().NoError(s.attachmentDao.Insert(s.ctx, s.conn, &attachment))
	s.assertQuery(
		`select "key", "status", "filename", "size", "created_at" from "attachments" ;`,
		[]string{"blob-key", "pending", "cat.png", "1024", "42"})
}

func (s *AttachmentDaoTestSuite) TestLink() {
	s.insertMail(1)
	s.requireExec(
		`
			insert into "attachments" ( "key", "status", "created_at" )
			values
				( 'one', 'pending', 1 ) ,
				( 'two', 'pending', 2 ) ,
				( 'other', 'pending', 3 ) ;
		`)

	err := s.attachmentDao.Link(s.ctx, s.conn, []string{"one", "two"}, 1, models.StatusSent)
	s.Require().NoError(err)

	s.assertQuery(
		`
			select "key", coalesce("mail_id", -1), "status"
			from "attachments"
			order by "created_at" ;
		`,
		[]string{"one", "1", "sent"},
		[]string{"two", "1", "sent"},
		[]string{"other", "-1", "pending"})

	s.Assert().NoError(s.attachmentDao.Link(s.ctx, s.conn, nil, 1, models.StatusSent))
}

func (s *AttachmentDaoTestSuite) TestUpdateStatusByMail() {
	s.insertMail(1)
	s.insertMail(2)
	s.requireExec(
		`
			insert into "attachments" ( "key", "mail_id", "status", "created_at" )
			values
				( 'one', 1, 'sending', 1 ) ,
				( 'two', 2, 'sending', 2 ) ;
		`)

	err := s.attachmentDao.UpdateStatusByMail(s.ctx, s.conn, 1, models.StatusFailed)
	s.Require().NoError(err)

	s.assertQuery(
		`select "key", "status" from "attachments" order by "created_at" ;`,
		[]string{"one", "failed"},
		[]string{"two", "sending"})
}

func (s *AttachmentDaoTestSuite) TestFindByKey() {
	s.requireExec(
		`
			insert into "attachments" ( "key", "status", "filename", "size", "created_at" )
			values ( 'blob-key', 'pending', 'cat.png', 1024, 42 ) ;
		`)

	attachment, err := s.attachmentDao.FindByKey(s.ctx, s.conn, "blob-key")
	s.Require().NoError(err)

	s.Assert().Equal("cat.png", attachment.Filename)
	s.Assert().EqualValues(1024, attachment.Size)

	_, err = s.attachmentDao.FindByKey(s.ctx, s.conn, "unknown")
	s.Assert().True(IsErrNoRows(err))
}

func (s *AttachmentDaoTestSuite) TestFindByMail() {
	s.insertMail(1)
	s.requireExec(
		`
			insert into "attachments" ( "key", "mail_id", "status", "created_at" )
			values
				( 'late', 1, 'sent', 9 ) ,
				( 'early', 1, 'sent', 2 ) ;
		`)

	attachmentSlice, err := s.attachmentDao.FindByMail(s.ctx, s.conn, 1)
	s.Require().NoError(err)
	s.Require().Len(attachmentSlice, 2)

	s.Assert().Equal("early", attachmentSlice[0].Key)
	s.Assert().Equal("late", attachmentSlice[1].Key)
}

func (s *AttachmentDaoTestSuite) TestDeleteByMails() {
	s.insertMail(1)
	s.insertMail(2)
	s.insertMail(3)
	s.requireExec(
		`
			insert into "attachments" ( "key", "mail_id", "status", "created_at" )
			values
				( 'one', 1, 'sent', 1 ) ,
				( 'two', 2, 'sent', 2 ) ,
				( 'three', 3, 'sent', 3 ) ;
		`)

	keys, err := s.attachmentDao.DeleteByMails(s.ctx, s.conn, []int64{1, 2})
	s.Require().NoError(err)
	s.Assert().ElementsMatch([]string{"one", "two"}, keys)

	s.assertQuery(`select "key" from "attachments" ;`, []string{"three"})

	keys, err = s.attachmentDao.DeleteByMails(s.ctx, s.conn, nil)
	s.Require().NoError(err)
	s.Assert().Empty(keys)
}
