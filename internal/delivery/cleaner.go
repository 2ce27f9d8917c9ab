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

	"github.com/lukasdietrich/sharpmail/internal/database"
	"github.com/lukasdietrich/sharpmail/internal/log"
	"github.com/lukasdietrich/sharpmail/internal/storage"
)

const (
	// pendingTimeout is how long a mail may stay pending before it is
	// force-failed.
	pendingTimeout = 30 * time.Second

	pendingInterval = 10 * time.Second
	expiryInterval  = 10 * time.Second
	tokenInterval   = time.Hour
)

// pendingTimeoutReason is recorded on force-failed pending mails.
const pendingTimeoutReason = "Timed out while pending"

// Cleaner enforces the time based invariants of persisted state. It fails
// stale pending mails, cascades expiry deletions and purges the hashcash
// replay ledger.
type Cleaner struct {
	conn          database.Conn
	mailDao       database.MailDao
	attachmentDao database.AttachmentDao
	hashcashDao   database.HashcashDao
	blobs         *storage.Blobs
	clock         func() time.Time
}

// NewCleaner creates a new Cleaner.
func NewCleaner(
	conn database.Conn,
	mailDao database.MailDao,
	attachmentDao database.AttachmentDao,
	hashcashDao database.HashcashDao,
	blobs *storage.Blobs,
) *Cleaner {
	return &Cleaner{
		conn:          conn,
		mailDao:       mailDao,
		attachmentDao: attachmentDao,
		hashcashDao:   hashcashDao,
		blobs:         blobs,
		clock:         time.Now,
	}
}

// Run executes the cleanup loops until the context is cancelled. A failing
// run is logged and does not stop subsequent runs.
func (c *Cleaner) Run(ctx context.Context) {
	pendingTicker := time.NewTicker(pendingInterval)
	expiryTicker := time.NewTicker(expiryInterval)
	tokenTicker := time.NewTicker(tokenInterval)

	defer pendingTicker.Stop()
	defer expiryTicker.Stop()
	defer tokenTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-pendingTicker.C:
			if err := c.FailStalePending(ctx); err != nil {
				log.ErrorContext(ctx).Err(err).Msg("could not fail stale pending mails")
			}

		case <-expiryTicker.C:
			if err := c.DeleteExpired(ctx); err != nil {
				log.ErrorContext(ctx).Err(err).Msg("could not delete expired mails")
			}

		case <-tokenTicker.C:
			if err := c.PurgeUsedTokens(ctx); err != nil {
				log.ErrorContext(ctx).Err(err).Msg("could not purge used hashcash tokens")
			}
		}
	}
}

// FailStalePending force-fails all mails that stayed pending for longer
// than the timeout.
func (c *Cleaner) FailStalePending(ctx context.Context) error {
	cutoff := c.clock().Add(-pendingTimeout).Unix()

	affected, err := c.mailDao.FailStalePending(ctx, c.conn, cutoff, pendingTimeoutReason)
	if err != nil {
		return err
	}

	if affected > 0 {
		log.InfoContext(ctx).Int64("count", affected).Msg("failed stale pending mails")
	}

	return nil
}

// DeleteExpired deletes all mails whose expiry has passed together with the
// transitive closure of replies to them. Attachment blobs are removed after
// the database transaction committed.
func (c *Cleaner) DeleteExpired(ctx context.Context) error {
	tx, err := c.conn.Begin(ctx)
	if err != nil {
		return err
	}

	defer tx.Rollback()

	ids, err := c.mailDao.FindExpired(ctx, tx, c.clock().Unix())
	if err != nil {
		return err
	}

	if len(ids) == 0 {
		return nil
	}

	keys, err := c.attachmentDao.DeleteByMails(ctx, tx, ids)
	if err != nil {
		return err
	}

	if err := c.mailDao.DeleteByIDs(ctx, tx, ids); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	log.InfoContext(ctx).
		Int("mails", len(ids)).
		Int("attachments", len(keys)).
		Msg("deleted expired mails")

	for _, key := range keys {
		if err := c.blobs.Delete(key); err != nil {
			log.WarnContext(ctx).Str("blob", key).Err(err).Msg("could not delete blob")
		}
	}

	return nil
}

// PurgeUsedTokens removes expired entries from the hashcash replay ledger.
func (c *Cleaner) PurgeUsedTokens(ctx context.Context) error {
	count, err := c.hashcashDao.DeleteExpired(ctx, c.conn, c.clock().Unix())
	if err != nil {
		return err
	}

	if count > 0 {
		log.InfoContext(ctx).Int64("count", count).Msg("purged used hashcash tokens")
	}

	return nil
}
