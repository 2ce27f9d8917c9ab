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

// AuthTokenDao is a data access object for local submission tokens.
type AuthTokenDao interface {
	// Insert inserts a new token.
	Insert(context.Context, Queryer, *models.AuthTokenEntity) error
	// FindByToken returns the token entity for the given token string.
	FindByToken(ctx context.Context, q Queryer, token string) (*models.AuthTokenEntity, error)
	// DeleteExpired removes all tokens whose expiry has passed.
	DeleteExpired(ctx context.Context, q Queryer, now int64) (int64, error)
}

// authTokenDao is the sqlite implementation of AuthTokenDao.
type authTokenDao struct{}

// NewAuthTokenDao creates a new AuthTokenDao.
func NewAuthTokenDao() AuthTokenDao {
	return authTokenDao{}
}

func (authTokenDao) Insert(ctx context.Context, q Queryer, token *models.AuthTokenEntity) error {
	const query = `
		insert into "auth_tokens" ( "token", "user_id", "expires_at" )
		values ( :token, :user_id, :expires_at ) ;
	`

	result, err := execNamed(ctx, q, query, token)
	if err != nil {
		return err
	}

	return ensureRowsAffected(result)
}

func (authTokenDao) FindByToken(
	ctx context.Context,
	q Queryer,
	token string,
) (*models.AuthTokenEntity, error) {
	const query = `
		select *
		from "auth_tokens"
		where "token" = $1 ;
	`

	var entity models.AuthTokenEntity

	if err := selectOne(ctx, q, &entity, query, token); err != nil {
		return nil, err
	}

	return &entity, nil
}

func (authTokenDao) DeleteExpired(ctx context.Context, q Queryer, now int64) (int64, error) {
	const query = `
		delete from "auth_tokens"
		where "expires_at" < $1 ;
	`

	result, err := execPositional(ctx, q, query, now)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
