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
	"time"

	"github.com/lukasdietrich/sharpmail/internal/database"
	"github.com/lukasdietrich/sharpmail/internal/hashcash"
	"github.com/lukasdietrich/sharpmail/internal/log"
	"github.com/lukasdietrich/sharpmail/internal/models"
)

// Submission is a fully populated message ready to be persisted. It is
// produced by both the inbound protocol handler and the local submission
// endpoint.
type Submission struct {
	From        models.Address
	To          models.Address
	Subject     string
	Body        string
	ContentType string
	HTMLBody    string
	Attachments []string
	// Hashcash is the raw token header. It may be empty for scheduled
	// redelivery, which was already gated at submission time.
	Hashcash string
	Status   models.Status

	ScheduledAt  sql.NullInt64
	ExpiresAt    sql.NullInt64
	SelfDestruct bool
	ReplyToID    sql.NullInt64
	ThreadID     sql.NullInt64
}

// Mailman persists finished messages. It is the single write path shared by
// inbound reception and local submission.
type Mailman struct {
	conn          database.Conn
	mailDao       database.MailDao
	attachmentDao database.AttachmentDao
	scorer        hashcash.Scorer
	clock         func() time.Time
}

// NewMailman creates a new Mailman.
func NewMailman(
	conn database.Conn,
	mailDao database.MailDao,
	attachmentDao database.AttachmentDao,
	scorer hashcash.Scorer,
) *Mailman {
	return &Mailman{
		conn:          conn,
		mailDao:       mailDao,
		attachmentDao: attachmentDao,
		scorer:        scorer,
		clock:         time.Now,
	}
}

// Finalize classifies and persists a submission in a single transaction. The
// hashcash token is recorded in the replay ledger and the uploaded
// attachments are linked to the new record.
func (m *Mailman) Finalize(ctx context.Context, sub *Submission) (*models.MailEntity, error) {
	mail := m.newMailEntity(sub)

	tx, err := m.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}

	defer tx.Rollback()

	if err := m.mailDao.Insert(ctx, tx, mail); err != nil {
		return nil, err
	}

	if sub.Hashcash != "" {
		// A failure to record the token must not lose the mail. The worst
		// case is a token that can be replayed within its lifetime.
		if err := m.scorer.MarkUsed(ctx, tx, sub.Hashcash); err != nil {
			log.WarnContext(ctx).
				Int64("mail", mail.ID).
				Err(err).
				Msg("could not record used hashcash token")
		}
	}

	err = m.attachmentDao.Link(ctx, tx, sub.Attachments, mail.ID, mail.Status)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.InfoContext(ctx).
		Int64("mail", mail.ID).
		Str("status", string(mail.Status)).
		Str("classification", string(mail.Classification)).
		Msg("mail persisted")

	return mail, nil
}

func (m *Mailman) newMailEntity(sub *Submission) *models.MailEntity {
	now := m.clock().Unix()

	contentType := sub.ContentType
	if contentType == "" {
		contentType = "text/plain"
	}

	mail := models.MailEntity{
		FromAddress:    sub.From,
		FromDomain:     sub.From.Domain(),
		ToAddress:      sub.To,
		ToDomain:       sub.To.Domain(),
		Subject:        sub.Subject,
		Body:           sub.Body,
		ContentType:    contentType,
		Status:         sub.Status,
		Classification: Classify(sub.Subject, sub.Body, sub.HTMLBody),
		SubmittedAt:    now,
		ScheduledAt:    sub.ScheduledAt,
		ExpiresAt:      sub.ExpiresAt,
		SelfDestruct:   sub.SelfDestruct,
		ReplyToID:      sub.ReplyToID,
		ThreadID:       sub.ThreadID,
	}

	if sub.HTMLBody != "" {
		mail.HTMLBody = sql.NullString{String: sub.HTMLBody, Valid: true}
	}

	if sub.Status == models.StatusSent {
		mail.SentAt = sql.NullInt64{Int64: now, Valid: true}
	}

	return &mail
}
