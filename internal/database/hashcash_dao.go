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

	"github.com/lukasdietrich/sharpmail/internal/models"
)

// HashcashDao is a data access object for the used hashcash token ledger.
type HashcashDao interface {
	// InsertUsed records a token as used. Recording the same token twice is
	// a no-op. Two connections may race to use the same token, which is why
	// the uniqueness is enforced by the database and the losing insert must
	// not fail.
	InsertUsed(context.Context, Queryer, *models.UsedTokenEntity) error
	// ExistsUsed checks if a token has been recorded as used.
	ExistsUsed(ctx context.Context, q Queryer, token string) (bool, error)
	// DeleteExpired removes all ledger entries whose expiry has passed and
	// returns the number of removed rows.
	DeleteExpired(ctx context.Context, q Queryer, now int64) (int64, error)
}

// hashcashDao is the sqlite implementation of HashcashDao.
type hashcashDao struct{}

// NewHashcashDao creates a new HashcashDao.
func NewHashcashDao() HashcashDao {
	return hashcashDao{}
}

func (hashcashDao) InsertUsed(
	ctx context.Context,
	q Queryer,
	token *models.UsedTokenEntity,
) error {
	const query = `
		insert into "used_hashcash_tokens" ( "token", "expires_at" )
		values ( :token, :expires_at )
		on conflict ( "token" ) do nothing ;
	`

	_, err := execNamed(ctx, q, query, token)
	return err
}

func (hashcashDao) ExistsUsed(ctx context.Context, q Queryer, token string) (bool, error) {
	const query = `
		select exists (
			select 1
			from "used_hashcash_tokens"
			where "token" = $1
		) ;
	`

	var exists bool

	if err := selectOne(ctx, q, &exists, query, token); err != nil {
		return false, err
	}

	return exists, nil
}

func (hashcashDao) DeleteExpired(ctx context.Context, q Queryer, now int64) (int64, error) {
	const query = `
		delete from "used_hashcash_tokens"
		where "expires_at" < $1 ;
	`

	result, err := execPositional(ctx, q, query, now)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
