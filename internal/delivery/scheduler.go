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

	"github.com/spf13/viper"

	"github.com/lukasdietrich/sharpmail/internal/database"
	"github.com/lukasdietrich/sharpmail/internal/log"
	"github.com/lukasdietrich/sharpmail/internal/models"
)

const (
	// schedulerInterval is the delay between dispatch runs.
	schedulerInterval = time.Minute
	// schedulerBatchSize bounds the records processed per run.
	schedulerBatchSize = 10
)

// Scheduler promotes due scheduled mails into the delivery path. Scheduled
// mails are sent without a hashcash token, they were already gated at
// submission time.
type Scheduler struct {
	conn          database.Conn
	mailDao       database.MailDao
	attachmentDao database.AttachmentDao
	directory     Directory
	courier       Courier
	clock         func() time.Time
	domain        string
}

// NewScheduler creates a new Scheduler using configuration from viper.
//
//	general.domain
func NewScheduler(
	conn database.Conn,
	mailDao database.MailDao,
	attachmentDao database.AttachmentDao,
	directory Directory,
	courier Courier,
) *Scheduler {
	return &Scheduler{
		conn:          conn,
		mailDao:       mailDao,
		attachmentDao: attachmentDao,
		directory:     directory,
		courier:       courier,
		clock:         time.Now,
		domain:        viper.GetString("general.domain"),
	}
}

// Run dispatches due scheduled mails in a fixed interval until the context
// is cancelled. A failing run does not stop the loop.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(schedulerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			if err := s.dispatchDue(ctx); err != nil {
				log.ErrorContext(ctx).Err(err).Msg("scheduled dispatch failed")
			}
		}
	}
}

func (s *Scheduler) dispatchDue(ctx context.Context) error {
	now := s.clock().Unix()

	mailSlice, err := s.mailDao.FindDueScheduled(ctx, s.conn, now, schedulerBatchSize)
	if err != nil {
		return err
	}

	for i := range mailSlice {
		mail := &mailSlice[i]
		ctx := log.WithMail(ctx, mail.ID)

		if err := s.dispatch(ctx, mail); err != nil {
			log.ErrorContext(ctx).Err(err).Msg("could not dispatch scheduled mail")
		}
	}

	return nil
}

func (s *Scheduler) dispatch(ctx context.Context, mail *models.MailEntity) error {
	log.InfoContext(ctx).Msg("dispatching scheduled mail")

	mail.SentAt = sql.NullInt64{Int64: s.clock().Unix(), Valid: true}

	if err := s.updateStatus(ctx, mail, models.StatusSending, ""); err != nil {
		return err
	}

	if mail.ToAddress.Domain() == s.domain {
		return s.dispatchLocal(ctx, mail)
	}

	return s.dispatchRemote(ctx, mail)
}

func (s *Scheduler) dispatchLocal(ctx context.Context, mail *models.MailEntity) error {
	user, err := s.directory.FindUser(ctx, mail.ToAddress.Username(), mail.ToAddress.Domain())
	if err != nil {
		return err
	}

	if user == nil {
		return s.updateStatus(ctx, mail, models.StatusFailed, "Recipient user not found on this server")
	}

	return s.updateStatus(ctx, mail, models.StatusSent, "")
}

func (s *Scheduler) dispatchRemote(ctx context.Context, mail *models.MailEntity) error {
	attachmentSlice, err := s.attachmentDao.FindByMail(ctx, s.conn, mail.ID)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(attachmentSlice))
	for _, attachment := range attachmentSlice {
		keys = append(keys, attachment.Key)
	}

	if err := s.courier.Deliver(ctx, mail, keys, ""); err != nil {
		return s.updateStatus(ctx, mail, models.StatusFailed, err.Error())
	}

	return s.updateStatus(ctx, mail, models.StatusSent, "")
}

func (s *Scheduler) updateStatus(
	ctx context.Context,
	mail *models.MailEntity,
	status models.Status,
	errorMessage string,
) error {
	mail.Status = status

	if errorMessage != "" {
		mail.ErrorMessage = sql.NullString{String: errorMessage, Valid: true}
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}

	defer tx.Rollback()

	if err := s.mailDao.Update(ctx, tx, mail); err != nil {
		return err
	}

	if err := s.attachmentDao.UpdateStatusByMail(ctx, tx, mail.ID, status); err != nil {
		return err
	}

	return tx.Commit()
}
