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

package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/lukasdietrich/sharpmail/internal/database"
	"github.com/lukasdietrich/sharpmail/internal/delivery"
)

// ErrInvalidToken is returned for unknown or expired submission tokens.
var ErrInvalidToken = errors.New("httpapi: invalid token")

// Authenticator resolves a bearer token to the identity of a local user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*delivery.Identity, error)
}

// tokenAuthenticator validates tokens against the auth_tokens table.
type tokenAuthenticator struct {
	conn         database.Conn
	authTokenDao database.AuthTokenDao
	userDao      database.UserDao
	clock        func() time.Time
}

// NewAuthenticator creates an Authenticator backed by the database.
func NewAuthenticator(
	conn database.Conn,
	authTokenDao database.AuthTokenDao,
	userDao database.UserDao,
) Authenticator {
	return &tokenAuthenticator{
		conn:         conn,
		authTokenDao: authTokenDao,
		userDao:      userDao,
		clock:        time.Now,
	}
}

func (a *tokenAuthenticator) Authenticate(
	ctx context.Context,
	token string,
) (*delivery.Identity, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	entity, err := a.authTokenDao.FindByToken(ctx, a.conn, token)
	if err != nil {
		if database.IsErrNoRows(err) {
			return nil, ErrInvalidToken
		}

		return nil, err
	}

	if entity.ExpiresAt < a.clock().Unix() {
		return nil, ErrInvalidToken
	}

	user, err := a.userDao.FindByID(ctx, a.conn, entity.UserID)
	if err != nil {
		if database.IsErrNoRows(err) {
			return nil, ErrInvalidToken
		}

		return nil, err
	}

	// A valid token implies that the bot check passed when the token was
	// issued.
	return &delivery.Identity{
		Username:    user.Username,
		Domain:      user.Domain,
		IQ:          user.IQ,
		BotVerified: true,
	}, nil
}
