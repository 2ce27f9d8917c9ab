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

// MailDao is a data access object for all mail related queries.
type MailDao interface {
	// Insert inserts a new mail and fills in the generated id.
	Insert(context.Context, Queryer, *models.MailEntity) error
	// Update updates an existing mail.
	Update(context.Context, Queryer, *models.MailEntity) error
	// FindByID returns the mail with the given id.
	FindByID(context.Context, Queryer, int64) (*models.MailEntity, error)
	// FindDueScheduled returns up to limit scheduled mails whose scheduled
	// time has passed, ordered by their scheduled time.
	FindDueScheduled(ctx context.Context, q Queryer, now int64, limit int) ([]models.MailEntity, error)
	// FailStalePending marks all pending mails submitted before the cutoff
	// as failed and returns the number of affected rows.
	FailStalePending(ctx context.Context, q Queryer, cutoff int64, reason string) (int64, error)
	// FindExpired returns the ids of all mails whose expiry has passed
	// together with the transitive closure of replies to them.
	FindExpired(ctx context.Context, q Queryer, now int64) ([]int64, error)
	// DeleteByIDs deletes all mails with the given ids.
	DeleteByIDs(context.Context, Queryer, []int64) error
}

// mailDao is the sqlite implementation of MailDao.
type mailDao struct{}

// NewMailDao creates a new MailDao.
func NewMailDao() MailDao {
	return mailDao{}
}

func (mailDao) Insert(ctx context.Context, q Queryer, mail *models.MailEntity) error {
	const query = `
		insert into "mails" (
			"from_address" ,
			"from_domain" ,
			"to_address" ,
			"to_domain" ,
			"subject" ,
			"body" ,
			"content_type" ,
			"html_body" ,
			"status" ,
			"classification" ,
			"submitted_at" ,
			"sent_at" ,
			"scheduled_at" ,
			"expires_at" ,
			"self_destruct" ,
			"reply_to_id" ,
			"thread_id" ,
			"error_message"
		) values (
			:from_address ,
			:from_domain ,
			:to_address ,
			:to_domain ,
			:subject ,
			:body ,
			:content_type ,
			:html_body ,
			:status ,
			:classification ,
			:submitted_at ,
			:sent_at ,
			:scheduled_at ,
			:expires_at ,
			:self_destruct ,
			:reply_to_id ,
			:thread_id ,
			:error_message
		) ;
	`

	result, err := execNamed(ctx, q, query, mail)
	if err != nil {
		return err
	}

	mail.ID, err = result.LastInsertId()
	return err
}

func (mailDao) Update(ctx context.Context, q Queryer, mail *models.MailEntity) error {
	const query = `
		update "mails"
		set "from_address"   = :from_address ,
			"from_domain"    = :from_domain ,
			"to_address"     = :to_address ,
			"to_domain"      = :to_domain ,
			"subject"        = :subject ,
			"body"           = :body ,
			"content_type"   = :content_type ,
			"html_body"      = :html_body ,
			"status"         = :status ,
			"classification" = :classification ,
			"submitted_at"   = :submitted_at ,
			"sent_at"        = :sent_at ,
			"scheduled_at"   = :scheduled_at ,
			"expires_at"     = :expires_at ,
			"self_destruct"  = :self_destruct ,
			"reply_to_id"    = :reply_to_id ,
			"thread_id"      = :thread_id ,
			"error_message"  = :error_message
		where "id" = :id ;
	`

	result, err := execNamed(ctx, q, query, mail)
	if err != nil {
		return err
	}

	return ensureRowsAffected(result)
}

func (mailDao) FindByID(ctx context.Context, q Queryer, id int64) (*models.MailEntity, error) {
	const query = `
		select *
		from "mails"
		where "id" = $1 ;
	`

	var mail models.MailEntity

	if err := selectOne(ctx, q, &mail, query, id); err != nil {
		return nil, err
	}

	return &mail, nil
}

func (mailDao) FindDueScheduled(
	ctx context.Context,
	q Queryer,
	now int64,
	limit int,
) ([]models.MailEntity, error) {
	const query = `
		select *
		from "mails"
		where "status" = $1
		  and "scheduled_at" is not null
		  and "scheduled_at" <= $2
		order by "scheduled_at" asc
		limit $3 ;
	`

	var mailSlice []models.MailEntity

	err := selectSlice(ctx, q, &mailSlice, query, models.StatusScheduled, now, limit)
	if err != nil {
		return nil, err
	}

	return mailSlice, nil
}

func (mailDao) FailStalePending(
	ctx context.Context,
	q Queryer,
	cutoff int64,
	reason string,
) (int64, error) {
	const query = `
		update "mails"
		set "status"        = $1 ,
			"error_message" = $2
		where "status" = $3
		  and "submitted_at" < $4 ;
	`

	result, err := execPositional(ctx, q, query,
		models.StatusFailed, reason, models.StatusPending, cutoff)

	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

func (mailDao) FindExpired(ctx context.Context, q Queryer, now int64) ([]int64, error) {
	const query = `
		with recursive "expired" ( "id" ) as (
			select "id"
			from "mails"
			where "expires_at" is not null
			  and "expires_at" < $1

			union

			select "mails"."id"
			from "mails" inner join "expired" on "mails"."reply_to_id" = "expired"."id"
		)
		select "id" from "expired" ;
	`

	var ids []int64

	if err := selectSlice(ctx, q, &ids, query, now); err != nil {
		return nil, err
	}

	return ids, nil
}

func (mailDao) DeleteByIDs(ctx context.Context, q Queryer, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sqlx.In(`delete from "mails" where "id" in (?) ;`, ids)
	if err != nil {
		return err
	}

	_, err = execPositional(ctx, q, q.Rebind(query), args...)
	return err
}
