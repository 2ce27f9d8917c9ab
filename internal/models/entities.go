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

package models

import (
	"database/sql"
)

// Status is the delivery status of a mail record.
type Status string

// Statuses follow the lifecycle pending -> (scheduled|sending) -> terminal.
// Spam, rejected and failed are terminal next to sent.
const (
	StatusPending   Status = "pending"
	StatusScheduled Status = "scheduled"
	StatusSending   Status = "sending"
	StatusSent      Status = "sent"
	StatusSpam      Status = "spam"
	StatusRejected  Status = "rejected"
	StatusFailed    Status = "failed"
)

// IsTerminalFailure reports whether a status must not be overwritten by the
// generic failure handler.
func (s Status) IsTerminalFailure() bool {
	return s == StatusFailed || s == StatusRejected || s == StatusSpam
}

// Classification is a coarse content category assigned at submission time.
type Classification string

// Classification values in their fixed enumeration order.
const (
	ClassificationPrimary    Classification = "primary"
	ClassificationPromotions Classification = "promotions"
	ClassificationSocial     Classification = "social"
	ClassificationForums     Classification = "forums"
	ClassificationUpdates    Classification = "updates"
)

// MailEntity is the entity for the "mails" table.
type MailEntity struct {
	ID             int64          `db:"id"`
	FromAddress    Address        `db:"from_address"`
	FromDomain     string         `db:"from_domain"`
	ToAddress      Address        `db:"to_address"`
	ToDomain       string         `db:"to_domain"`
	Subject        string         `db:"subject"`
	Body           string         `db:"body"`
	ContentType    string         `db:"content_type"`
	HTMLBody       sql.NullString `db:"html_body"`
	Status         Status         `db:"status"`
	Classification Classification `db:"classification"`
	SubmittedAt    int64          `db:"submitted_at"`
	SentAt         sql.NullInt64  `db:"sent_at"`
	ScheduledAt    sql.NullInt64  `db:"scheduled_at"`
	ExpiresAt      sql.NullInt64  `db:"expires_at"`
	SelfDestruct   bool           `db:"self_destruct"`
	ReplyToID      sql.NullInt64  `db:"reply_to_id"`
	ThreadID       sql.NullInt64  `db:"thread_id"`
	ErrorMessage   sql.NullString `db:"error_message"`
}

// UserEntity is the entity for the "users" table.
type UserEntity struct {
	ID             int64  `db:"id"`
	Username       string `db:"username"`
	Domain         string `db:"domain"`
	IQ             int    `db:"iq"`
	CredentialHash string `db:"credential_hash"`
}

// AttachmentEntity is the entity for the "attachments" table. Attachments are
// uploaded ahead of submission and linked to a mail record on finalize.
type AttachmentEntity struct {
	Key       string        `db:"key"`
	MailID    sql.NullInt64 `db:"mail_id"`
	Status    Status        `db:"status"`
	Filename  string        `db:"filename"`
	Size      int64         `db:"size"`
	CreatedAt int64         `db:"created_at"`
}

// UsedTokenEntity is the entity for the "used_hashcash_tokens" table.
type UsedTokenEntity struct {
	Token     string `db:"token"`
	ExpiresAt int64  `db:"expires_at"`
}

// AuthTokenEntity is the entity for the "auth_tokens" table.
type AuthTokenEntity struct {
	Token     string `db:"token"`
	UserID    int64  `db:"user_id"`
	ExpiresAt int64  `db:"expires_at"`
}
