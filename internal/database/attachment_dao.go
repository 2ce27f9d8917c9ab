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
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/lukasdietrich/sharpmail/internal/models"
)

// AttachmentDao is a data access object for all attachment related queries.
type AttachmentDao interface {
	// Insert inserts a new attachment.
	Insert(context.Context, Queryer, *models.AttachmentEntity) error
	// Link assigns the attachments with the given keys to a mail record and
	// updates their status.
	Link(ctx context.Context, q Queryer, keys []string, mailID int64, status models.Status) error
	// UpdateStatusByMail updates the status of all attachments of a mail.
	UpdateStatusByMail(ctx context.Context, q Queryer, mailID int64, status models.Status) error
	// FindByKey returns the attachment with the given key.
	FindByKey(ctx context.Context, q Queryer, key string) (*models.AttachmentEntity, error)
	// FindByMail returns all attachments of a mail.
	FindByMail(ctx context.Context, q Queryer, mailID int64) ([]models.AttachmentEntity, error)
	// DeleteByMails deletes all attachments of the given mails and returns
	// their keys for blob cleanup.
	DeleteByMails(ctx context.Context, q Queryer, mailIDs []int64) ([]string, error)
}

// attachmentDao is the sqlite implementation of AttachmentDao.
type attachmentDao struct{}

// NewAttachmentDao creates a new AttachmentDao.
func NewAttachmentDao() AttachmentDao {
	return attachmentDao{}
}

func (attachmentDao) Insert(
	ctx context.Context,
	q Queryer,
	attachment *models.AttachmentEntity,
) error {
	const query = `
		insert into "attachments" (
			"key" ,
			"mail_id" ,
			"status" ,
			"filename" ,
			"size" ,
			"created_at"
		) values (
			:key ,
			:mail_id ,
			:status ,
			:filename ,
			:size ,
			:created_at
		) ;
	`

	result, err := execNamed(ctx, q, query, attachment)
	if err != nil {
		return err
	}

	return ensureRowsAffected(result)
}

func (attachmentDao) Link(
	ctx context.Context,
	q Queryer,
	keys []string,
	mailID int64,
	status models.Status,
) error {
	if len(keys) == 0 {
		return nil
	}

	query, args, err := sqlx.In(`
		update "attachments"
		set "mail_id" = ? ,
			"status"  = ?
		where "key" in (?) ;
	`, mailID, status, keys)

	if err != nil {
		return err
	}

	_, err = execPositional(ctx, q, q.Rebind(query), args...)
	return err
}

func (attachmentDao) UpdateStatusByMail(
	ctx context.Context,
	q Queryer,
	mailID int64,
	status models.Status,
) error {
	const query = `
		update "attachments"
		set "status" = $1
		where "mail_id" = $2 ;
	`

	_, err := execPositional(ctx, q, query, status, mailID)
	return err
}

func (attachmentDao) FindByKey(
	ctx context.Context,
	q Queryer,
	key string,
) (*models.AttachmentEntity, error) {
	const query = `
		select *
		from "attachments"
		where "key" = $1 ;
	`

	var attachment models.AttachmentEntity

	if err := selectOne(ctx, q, &attachment, query, key); err != nil {
		return nil, err
	}

	return &attachment, nil
}

func (attachmentDao) FindByMail(
	ctx context.Context,
	q Queryer,
	mailID int64,
) ([]models.AttachmentEntity, error) {
	const query = `
		select *
		from "attachments"
		where "mail_id" = $1
		order by "created_at" asc ;
	`

	var attachmentSlice []models.AttachmentEntity

	if err := selectSlice(ctx, q, &attachmentSlice, query, mailID); err != nil {
		return nil, err
	}

	return attachmentSlice, nil
}

func (attachmentDao) DeleteByMails(
	ctx context.Context,
	q Queryer,
	mailIDs []int64,
) ([]string, error) {
	if len(mailIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		select "key"
		from "attachments"
		where "mail_id" in (?) ;
	`, mailIDs)

	if err != nil {
		return nil, err
	}

	var keys []string

	if err := selectSlice(ctx, q, &keys, q.Rebind(query), args...); err != nil {
		return nil, err
	}

	query, args, err = sqlx.In(`
		delete from "attachments"
		where "mail_id" in (?) ;
	`, mailIDs)

	if err != nil {
		return nil, err
	}

	if _, err := execPositional(ctx, q, q.Rebind(query), args...); err != nil {
		return nil, err
	}

	return keys, nil
}
