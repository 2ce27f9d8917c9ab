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

	"github.com/lukasdietrich/sharpmail/internal/database"
	"github.com/lukasdietrich/sharpmail/internal/models"
)

// Directory is a registry to look up local recipients.
type Directory interface {
	// FindUser returns the user with the given name or nil, if no such
	// user exists. Only database errors may occur.
	FindUser(ctx context.Context, username, domain string) (*models.UserEntity, error)
}

type directory struct {
	conn    database.Conn
	userDao database.UserDao
}

// NewDirectory creates a Directory backed by the user table.
func NewDirectory(conn database.Conn, userDao database.UserDao) Directory {
	return &directory{
		conn:    conn,
		userDao: userDao,
	}
}

func (d *directory) FindUser(
	ctx context.Context,
	username, domain string,
) (*models.UserEntity, error) {
	user, err := d.userDao.FindByName(ctx, d.conn, username, domain)
	if err != nil {
		if database.IsErrNoRows(err) {
			return nil, nil
		}

		return nil, err
	}

	return user, nil
}
