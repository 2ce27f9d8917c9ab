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
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/lukasdietrich/sharpmail/internal/database"
	"github.com/lukasdietrich/sharpmail/internal/hashcash"
	"github.com/lukasdietrich/sharpmail/internal/log"
	"github.com/lukasdietrich/sharpmail/internal/models"
)

func init() {
	viper.SetDefault("general.domain", "localhost")
}

// Identity is the authenticated local user on whose behalf a submission is
// made. It is produced by the http authentication layer.
type Identity struct {
	Username    string
	Domain      string
	IQ          int
	BotVerified bool
}

// SubmitRequest is a local submission.
type SubmitRequest struct {
	Identity    Identity
	From        string
	To          string
	Subject     string
	Body        string
	ContentType string
	HTMLBody    string
	Attachments []string
	Hashcash    string

	ScheduledAt  sql.NullInt64
	ExpiresAt    sql.NullInt64
	SelfDestruct bool
	ReplyToID    sql.NullInt64
	ThreadID     sql.NullInt64
}

// Postmaster orchestrates local submissions. It decides between local
// storage, scheduling and remote delivery and owns the status lifecycle of
// the created record.
type Postmaster struct {
	conn          database.Conn
	mailDao       database.MailDao
	attachmentDao database.AttachmentDao
	directory     Directory
	mailman       *Mailman
	courier       Courier
	scorer        hashcash.Scorer
	clock         func() time.Time
	domain        string
}

// NewPostmaster creates a new Postmaster using configuration from viper.
//
//	general.domain
func NewPostmaster(
	conn database.Conn,
	mailDao database.MailDao,
	attachmentDao database.AttachmentDao,
	directory Directory,
	mailman *Mailman,
	courier Courier,
	scorer hashcash.Scorer,
) *Postmaster {
	return &Postmaster{
		conn:          conn,
		mailDao:       mailDao,
		attachmentDao: attachmentDao,
		directory:     directory,
		mailman:       mailman,
		courier:       courier,
		scorer:        scorer,
		clock:         time.Now,
		domain:        viper.GetString("general.domain"),
	}
}

// Submit validates and persists a submission and attempts delivery. If an
// error occurs after the record was created, the record is force-failed
// unless it already reached a more specific terminal state.
func (p *Postmaster) Submit(ctx context.Context, req *SubmitRequest) (*models.MailEntity, error) {
	mail, err := p.submit(ctx, req)
	if err != nil && mail != nil {
		p.forceFail(ctx, mail.ID, err)
	}

	return mail, err
}

func (p *Postmaster) submit(ctx context.Context, req *SubmitRequest) (*models.MailEntity, error) {
	from, err := models.Parse(req.From)
	if err != nil {
		return nil, SubmitError{Code: 400, Message: "Invalid SHARP address format"}
	}

	to, err := models.Parse(req.To)
	if err != nil {
		return nil, SubmitError{Code: 400, Message: "Invalid SHARP address format"}
	}

	if !req.Identity.BotVerified {
		return nil, SubmitError{Code: 403, Message: "Bot verification failed. Please try again."}
	}

	// The token is bound to the canonical recipient spelling, because that
	// is the form the outbound client transmits and the receiving server
	// scores against.
	score := p.scorer.Score(ctx, req.Hashcash, to.String())
	if req.Hashcash == "" || score.IsReject() {
		return nil, SubmitError{
			Code:    429,
			Message: fmt.Sprintf("Insufficient proof of work or invalid/reused token. Score: %d.", score),
		}
	}

	status := models.StatusPending
	if score > hashcash.ScoreGood {
		status = models.StatusSpam
	}

	if req.ScheduledAt.Valid && status != models.StatusSpam {
		status = models.StatusScheduled
	}

	if from.Username() != req.Identity.Username || from.Domain() != req.Identity.Domain {
		return nil, SubmitError{Code: 403, Message: "You can only send mails from your own address."}
	}

	if from.Domain() != p.domain {
		return nil, SubmitError{
			Code:    403,
			Message: fmt.Sprintf("This server does not relay mail for the domain %s", from.Domain()),
		}
	}

	if isPlainText(req.ContentType) && req.Body != "" {
		if ok, limit := CheckVocabulary(req.Body, req.Identity.IQ); !ok {
			return nil, SubmitError{
				Code: 400,
				Message: fmt.Sprintf(
					"Message contains words longer than the allowed %d characters for your iq level (%d). Please simplify.",
					limit, req.Identity.IQ),
			}
		}
	}

	sub := Submission{
		From:         from,
		To:           to,
		Subject:      req.Subject,
		Body:         req.Body,
		ContentType:  req.ContentType,
		HTMLBody:     req.HTMLBody,
		Attachments:  req.Attachments,
		Hashcash:     req.Hashcash,
		Status:       status,
		ScheduledAt:  req.ScheduledAt,
		ExpiresAt:    req.ExpiresAt,
		SelfDestruct: req.SelfDestruct,
		ReplyToID:    req.ReplyToID,
		ThreadID:     req.ThreadID,
	}

	switch {
	case status == models.StatusScheduled:
		return p.mailman.Finalize(ctx, &sub)

	case to.Domain() == p.domain:
		return p.submitLocal(ctx, &sub)

	default:
		return p.submitRemote(ctx, &sub)
	}
}

// submitLocal stores a mail for a recipient on this server. No network io is
// involved.
func (p *Postmaster) submitLocal(ctx context.Context, sub *Submission) (*models.MailEntity, error) {
	user, err := p.directory.FindUser(ctx, sub.To.Username(), sub.To.Domain())
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, SubmitError{Code: 404, Message: "Recipient user not found on this server"}
	}

	if sub.Status == models.StatusPending {
		sub.Status = models.StatusSent
	}

	return p.mailman.Finalize(ctx, sub)
}

// submitRemote stores a mail and attempts delivery to the peer of the
// recipient domain. Spam classified mails are stored without a delivery
// attempt.
func (p *Postmaster) submitRemote(ctx context.Context, sub *Submission) (*models.MailEntity, error) {
	mail, err := p.mailman.Finalize(ctx, sub)
	if err != nil {
		return nil, err
	}

	ctx = log.WithMail(ctx, mail.ID)

	if mail.Status == models.StatusSpam {
		log.InfoContext(ctx).Msg("mail marked as spam, skipping remote delivery")
		return mail, nil
	}

	if err := p.updateStatus(ctx, mail, models.StatusSending, ""); err != nil {
		return mail, err
	}

	err = p.courier.Deliver(ctx, mail, sub.Attachments, sub.Hashcash)

	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		if err := p.updateStatus(ctx, mail, models.StatusRejected, remoteErr.Message); err != nil {
			return mail, err
		}

		return mail, SubmitError{Code: 400, Message: "Remote server rejected the mail"}
	}

	if err != nil {
		if err := p.updateStatus(ctx, mail, models.StatusFailed, err.Error()); err != nil {
			return mail, err
		}

		return mail, SubmitError{Code: 400, Message: err.Error()}
	}

	mail.SentAt = sql.NullInt64{Int64: p.clock().Unix(), Valid: true}
	return mail, p.updateStatus(ctx, mail, models.StatusSent, "")
}

// updateStatus updates the status of a mail and its attachments in one
// transaction.
func (p *Postmaster) updateStatus(
	ctx context.Context,
	mail *models.MailEntity,
	status models.Status,
	errorMessage string,
) error {
	mail.Status = status

	if errorMessage != "" {
		mail.ErrorMessage = sql.NullString{String: errorMessage, Valid: true}
	}

	tx, err := p.conn.Begin(ctx)
	if err != nil {
		return err
	}

	defer tx.Rollback()

	if err := p.mailDao.Update(ctx, tx, mail); err != nil {
		return err
	}

	if err := p.attachmentDao.UpdateStatusByMail(ctx, tx, mail.ID, status); err != nil {
		return err
	}

	return tx.Commit()
}

// forceFail marks a mail as failed after an unexpected error, unless it
// already reached a terminal failure state with a more specific reason.
func (p *Postmaster) forceFail(ctx context.Context, id int64, cause error) {
	mail, err := p.mailDao.FindByID(ctx, p.conn, id)
	if err != nil {
		log.ErrorContext(ctx).Int64("mail", id).Err(err).Msg("could not load mail to force-fail")
		return
	}

	if mail.Status.IsTerminalFailure() {
		return
	}

	if err := p.updateStatus(ctx, mail, models.StatusFailed, cause.Error()); err != nil {
		log.ErrorContext(ctx).Int64("mail", id).Err(err).Msg("could not force-fail mail")
	}
}

func isPlainText(contentType string) bool {
	return contentType == "" || contentType == "text/plain"
}
